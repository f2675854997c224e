package memory

import (
	"context"
	"sort"

	"github.com/nextdhcp/dhcpester/core/results/storage"
	"github.com/ppacher/webthings-mqtt-gateway/pkg/mutex"
)

// Storage implements the storage.ResultStorage interface but
// does not provide any persistence at all as every result
// is only kept in memory
type Storage struct {
	l       *mutex.Mutex // context.Context aware mutex to protect all fields below
	results map[string]storage.Result
}

// New returns a new memory storage
func New() *Storage {
	return &Storage{
		l:       mutex.New(),
		results: make(map[string]storage.Result),
	}
}

// Put implements storage.ResultStorage
func (s *Storage) Put(ctx context.Context, r storage.Result) error {
	if r.HwAddr == "" {
		return storage.ErrMissingHwAddr
	}

	if !s.l.TryLock(ctx) {
		return ctx.Err()
	}
	defer s.l.Unlock()

	s.results[r.HwAddr] = r

	return nil
}

// Get implements storage.ResultStorage
func (s *Storage) Get(ctx context.Context, hwaddr string) (storage.Result, error) {
	if !s.l.TryLock(ctx) {
		return storage.Result{}, ctx.Err()
	}
	defer s.l.Unlock()

	r, ok := s.results[hwaddr]
	if !ok {
		return storage.Result{}, &storage.ErrResultNotFound{HwAddr: hwaddr}
	}

	return r, nil
}

// List implements storage.ResultStorage
func (s *Storage) List(ctx context.Context) ([]storage.Result, error) {
	if !s.l.TryLock(ctx) {
		return nil, ctx.Err()
	}
	defer s.l.Unlock()

	res := make([]storage.Result, 0, len(s.results))
	for _, r := range s.results {
		res = append(res, r)
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].HwAddr < res[j].HwAddr
	})

	return res, nil
}

// Close implements storage.ResultStorage
func (s *Storage) Close() error {
	return nil
}

// compile time check
var _ storage.ResultStorage = &Storage{}
