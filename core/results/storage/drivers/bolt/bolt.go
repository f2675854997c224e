package bolt

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nextdhcp/dhcpester/core/results/storage"
	"go.etcd.io/bbolt"
)

var resultsBucketKey = []byte("results")

// SchemaVersion is the current version of the bolt db
const SchemaVersion = "1"

// Storage is a storage.ResultStorage implementation that persists
// handshake results in a bbolt database. Results are stored as JSON
// keyed by hardware address so bolt's cursor yields them in order
type Storage struct {
	db   *bbolt.DB
	path string
}

// Put implements storage.ResultStorage
func (s *Storage) Put(ctx context.Context, r storage.Result) error {
	if r.HwAddr == "" {
		return storage.ErrMissingHwAddr
	}

	blob, err := json.Marshal(r)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		bucket, err := tx.CreateBucketIfNotExists(resultsBucketKey)
		if err != nil {
			return err
		}

		return bucket.Put([]byte(r.HwAddr), blob)
	})
}

// Get implements storage.ResultStorage
func (s *Storage) Get(ctx context.Context, hwaddr string) (storage.Result, error) {
	var r storage.Result

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(resultsBucketKey)
		if bucket == nil {
			return &storage.ErrResultNotFound{HwAddr: hwaddr}
		}

		blob := bucket.Get([]byte(hwaddr))
		if blob == nil {
			return &storage.ErrResultNotFound{HwAddr: hwaddr}
		}

		return json.Unmarshal(blob, &r)
	})

	return r, err
}

// List implements storage.ResultStorage
func (s *Storage) List(ctx context.Context) ([]storage.Result, error) {
	var results []storage.Result

	return results, s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(resultsBucketKey)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(_, blob []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			var r storage.Result
			if err := json.Unmarshal(blob, &r); err != nil {
				return err
			}

			results = append(results, r)
			return nil
		})
	})
}

// Close implements storage.ResultStorage
func (s *Storage) Close() error {
	if err := s.db.Close(); err != nil && !errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return err
	}

	return nil
}

// Path returns the path of the database file
func (s *Storage) Path() string {
	return s.path
}

// compile time check
var _ storage.ResultStorage = &Storage{}
