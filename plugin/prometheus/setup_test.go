package prometheus

import (
	"context"
	"testing"

	"github.com/nextdhcp/dhcpester/core/dhcpester"
	"github.com/nextdhcp/dhcpester/core/events"
	"github.com/nextdhcp/dhcpester/plugin/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		m, err := parse(test.CreateTestBed(t, "prometheus"))
		require.NoError(t, err)
		assert.Equal(t, defaultAddr, m.addr)
		assert.Equal(t, defaultPath, m.path)
		assert.Empty(t, m.extraLabels)
	})

	t.Run("address argument", func(t *testing.T) {
		m, err := parse(test.CreateTestBed(t, "prometheus 0.0.0.0:9999"))
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:9999", m.addr)
	})

	t.Run("block", func(t *testing.T) {
		m, err := parse(test.CreateTestBed(t, `prometheus {
			path /m
			address :9100
			hostname tester
			label server {serverip}
			latency_buckets 0.1 0.5 1
		}`))
		require.NoError(t, err)
		assert.Equal(t, "/m", m.path)
		assert.Equal(t, ":9100", m.addr)
		assert.Equal(t, "tester", m.hostname)
		assert.Equal(t, []extraLabel{{name: "server", value: "{serverip}"}}, m.extraLabels)
		assert.Equal(t, []float64{0.1, 0.5, 1}, m.latencyBuckets)
	})

	t.Run("invalid", func(t *testing.T) {
		inputs := []string{
			"",
			"prometheus a b",
			"prometheus {\n path\n }",
			"prometheus {\n address a b\n }",
			"prometheus {\n label name\n }",
			"prometheus {\n latency_buckets\n }",
			"prometheus {\n latency_buckets fast\n }",
			"prometheus {\n unknown\n }",
			"prometheus\nprometheus",
		}

		for _, i := range inputs {
			_, err := parse(test.CreateTestBed(t, i))
			assert.Error(t, err, i)
		}
	})
}

func TestSetupPrometheus(t *testing.T) {
	c := test.CreateTestBed(t, "prometheus 127.0.0.1:0")
	require.NoError(t, setupPrometheus(c))
	plugins := dhcpester.GetConfig(c).Plugins()
	require.Len(t, plugins, 1)

	rec := &test.Recorder{}
	plg, ok := plugins[0](rec).(*Plugin)
	require.True(t, ok)
	assert.Same(t, rec, plg.Next)

	ev := test.Event(events.DiscoverSent)
	require.NoError(t, plg.HandleEvent(context.Background(), ev))
	require.Len(t, rec.Events(), 1)
	assert.Same(t, ev, rec.Events()[0])

	assert.NoError(t, plg.Metrics.stop())
}
