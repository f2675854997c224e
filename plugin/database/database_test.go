package database

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/nextdhcp/dhcpester/core/dhcpester"
	"github.com/nextdhcp/dhcpester/core/events"
	"github.com/nextdhcp/dhcpester/core/log"
	"github.com/nextdhcp/dhcpester/core/results/storage"
	"github.com/nextdhcp/dhcpester/core/results/storage/drivers/memory"
	"github.com/nextdhcp/dhcpester/plugin/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeRecorder struct {
	storage.ResultStorage
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestDatabaseSetup(t *testing.T) {
	driverName := "test-driver"

	var ret storage.ResultStorage = &closeRecorder{}
	var retErr error
	var argsOpts map[string][]string

	storage.Register(driverName, func(opts map[string][]string) (storage.ResultStorage, error) {
		argsOpts = opts
		return ret, retErr
	})

	t.Run("no args", func(t *testing.T) {
		c := test.CreateTestBed(t, "database test-driver")
		assert.NoError(t, parseDatabaseDirective(c))
		assert.Len(t, dhcpester.GetConfig(c).Plugins(), 1)
		assert.Empty(t, argsOpts)
	})

	t.Run("args", func(t *testing.T) {
		c := test.CreateTestBed(t, `database test-driver some arguments {
			barg1 1
			barg2 2 3
		}`)
		assert.NoError(t, parseDatabaseDirective(c))
		assert.NotNil(t, argsOpts)

		expected := map[string][]string{
			"__args__": {"some", "arguments"},
			"barg1":    {"1"},
			"barg2":    {"2", "3"},
		}
		assert.Equal(t, expected, argsOpts)
	})

	t.Run("invalid", func(t *testing.T) {
		c := test.CreateTestBed(t, "database")
		assert.Error(t, parseDatabaseDirective(c))

		c = test.CreateTestBed(t, "")
		assert.Error(t, parseDatabaseDirective(c))

		c = test.CreateTestBed(t, "database invalid-driver")
		assert.Error(t, parseDatabaseDirective(c))

		c = test.CreateTestBed(t, `database test-driver {
			block arg
		} something else`)
		assert.Error(t, parseDatabaseDirective(c))
	})
}

func TestRecorder(t *testing.T) {
	store := memory.New()
	next := &test.Recorder{}
	r := &recorder{next: next, store: store, l: log.Discard()}
	ctx := context.Background()

	for _, typ := range events.Types {
		require.NoError(t, r.HandleEvent(ctx, test.Event(typ)))
	}
	assert.Len(t, next.Events(), len(events.Types))

	results, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "de:ad:00:00:00:01", res.HwAddr)
	assert.Equal(t, net.IP{10, 0, 0, 5}, res.IP)
	assert.Equal(t, net.IP{10, 0, 0, 1}, res.Server)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 250*time.Millisecond, res.Duration)
}
