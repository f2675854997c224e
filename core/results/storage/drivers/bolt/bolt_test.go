package bolt

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/nextdhcp/dhcpester/core/results/storage"
	"github.com/nextdhcp/dhcpester/core/results/storage/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func TestBoltStorage(t *testing.T) {
	factory := func(ctx context.Context) storage.ResultStorage {
		s, err := Open(filepath.Join(t.TempDir(), "results.db"))
		require.NoError(t, err)
		return s
	}

	teardown := func(s storage.ResultStorage) {
		s.Close()
	}

	tests.Run(t, factory, teardown)
}

func TestBoltStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")

	s, err := storageFactory(map[string][]string{"file": {path}})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, storage.Result{HwAddr: "de:ad:00:00:00:01", IP: net.IP{10, 0, 0, 5}, Attempts: 2}))
	require.NoError(t, s.Close())

	s, err = storageFactory(map[string][]string{"__args__": {path}})
	require.NoError(t, err)
	defer s.Close()

	r, err := s.Get(ctx, "de:ad:00:00:00:01")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Attempts)
	assert.True(t, r.IP.Equal(net.IP{10, 0, 0, 5}))

	// the schema version has been written
	require.NoError(t, s.(*Storage).db.View(func(tx *bbolt.Tx) error {
		assert.Equal(t, SchemaVersion, string(tx.Bucket(schemaVersionBucket).Get(schemaVersionKey)))
		return nil
	}))
}

func TestStorageFactory_Args(t *testing.T) {
	_, err := storageFactory(map[string][]string{})
	assert.Error(t, err)

	_, err = storageFactory(map[string][]string{"file": {"a.db", "b.db"}})
	assert.Error(t, err)
}
