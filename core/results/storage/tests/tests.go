package tests

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/nextdhcp/dhcpester/core/results/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	// StorageFactory should create a new storage instance
	StorageFactory func(ctx context.Context) storage.ResultStorage

	// TeardownFunc is invoked after each test case
	TeardownFunc func(storage.ResultStorage)
)

// Run executes a test suite to ensure storage implementations match the
// requirements
func Run(t *testing.T, factory StorageFactory, teardown TeardownFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	instance := factory(ctx)
	require.NotNil(t, instance)
	defer teardown(instance)

	completed := time.Now().Truncate(time.Second).UTC()

	count := func() int {
		all, err := instance.List(ctx)
		require.NoError(t, err)
		return len(all)
	}

	t.Run("Put", func(t *testing.T) {
		err := instance.Put(ctx, storage.Result{
			HwAddr:    "de:ad:00:00:00:02",
			IP:        net.IP{10, 0, 0, 2},
			Server:    net.IP{10, 0, 0, 1},
			Attempts:  1,
			Duration:  20 * time.Millisecond,
			Completed: completed,
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, count())

		err = instance.Put(ctx, storage.Result{
			HwAddr:    "de:ad:00:00:00:01",
			IP:        net.IP{10, 0, 0, 3},
			Server:    net.IP{10, 0, 0, 1},
			Attempts:  1,
			Completed: completed,
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, count())

		// a client stored again replaces its previous result
		err = instance.Put(ctx, storage.Result{
			HwAddr:    "de:ad:00:00:00:01",
			IP:        net.IP{10, 0, 0, 4},
			Server:    net.IP{10, 0, 0, 1},
			Attempts:  3,
			Duration:  time.Second,
			Completed: completed,
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, count())

		assert.Equal(t, storage.ErrMissingHwAddr, instance.Put(ctx, storage.Result{}))
		assert.Equal(t, 2, count())
	})

	t.Run("Get", func(t *testing.T) {
		r, err := instance.Get(ctx, "de:ad:00:00:00:01")
		require.NoError(t, err)
		assert.True(t, r.IP.Equal(net.IP{10, 0, 0, 4}))
		assert.True(t, r.Server.Equal(net.IP{10, 0, 0, 1}))
		assert.Equal(t, 3, r.Attempts)
		assert.Equal(t, time.Second, r.Duration)
		assert.True(t, completed.Equal(r.Completed))

		_, err = instance.Get(ctx, "de:ad:00:00:00:ff")
		assert.Error(t, err)
		assert.True(t, storage.IsNotFound(err))
	})

	t.Run("List", func(t *testing.T) {
		all, err := instance.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "de:ad:00:00:00:01", all[0].HwAddr)
		assert.Equal(t, "de:ad:00:00:00:02", all[1].HwAddr)
		assert.Equal(t, 20*time.Millisecond, all[1].Duration)
	})
}
