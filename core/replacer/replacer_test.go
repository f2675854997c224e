package replacer

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/nextdhcp/dhcpester/core/events"
	"github.com/stretchr/testify/assert"
)

func Test_Replacer_Context_Utils(t *testing.T) {
	t.Run("WithReplacer should add it to the context", func(t *testing.T) {
		ctx := context.Background()

		r := &replacer{}
		ctx = WithReplacer(ctx, r)

		fromCtx := ctx.Value(CtxKey{})
		assert.NotNil(t, fromCtx)
		assert.Exactly(t, r, fromCtx)
	})

	t.Run("GetReplacer should return it from a context", func(t *testing.T) {
		ctx := context.Background()

		r := &replacer{}
		ctx = context.WithValue(ctx, CtxKey{}, r)

		assert.Exactly(t, r, GetReplacer(ctx))
		assert.Exactly(t, r, NewReplacer(ctx, &events.Event{}))
	})

	t.Run("GetReplacer should return nil if not in a context", func(t *testing.T) {
		assert.Nil(t, GetReplacer(context.Background()))
	})

	t.Run("GetReplacer should panic if key is misused", func(t *testing.T) {
		assert.Panics(t, func() {
			GetReplacer(context.WithValue(context.Background(), CtxKey{}, "foobar"))
		})
	})
}

func testEvent() *events.Event {
	started := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)

	return &events.Event{
		Type:     events.AckReceived,
		Seq:      42,
		HwAddr:   net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02},
		XID:      0xbeef,
		Attempt:  2,
		YourIP:   net.IP{10, 0, 0, 5},
		ServerIP: net.IP{10, 0, 0, 1},
		Started:  started,
		Time:     started.Add(1500 * time.Millisecond),
	}
}

func Test_Replacer_KnownKeys(t *testing.T) {
	r := NewReplacer(context.Background(), testEvent())

	cases := []struct {
		I string
		E string
	}{
		{"type", "ack-received"},
		{"hwaddr", "de:ad:be:ef:01:02"},
		{"xid", "0x0000beef"},
		{"attempt", "2"},
		{"yourip", "10.0.0.5"},
		{"serverip", "10.0.0.1"},
		{"seq", "42"},
		{"duration", "1.5s"},
		{"time", "2020-01-01T12:00:01Z"},
		{"unknown", ""},
	}

	for i, c := range cases {
		assert.Equal(t, c.E, r.Get(c.I), "in case %d", i)
	}

	t.Run("empty values", func(t *testing.T) {
		r := NewReplacer(context.Background(), &events.Event{Type: events.UnknownXID})
		assert.Equal(t, "", r.Get("hwaddr"))
		assert.Equal(t, "", r.Get("yourip"))
		assert.Equal(t, "0s", r.Get("duration"))
	})

	t.Run("custom keys", func(t *testing.T) {
		r.Set("key1", StringValue("value1"))
		assert.Equal(t, "value1", r.Get("key1"))

		r.Set("type", ValueGetter(func(ev *events.Event) string {
			return "custom-" + string(ev.Type)
		}))
		assert.Equal(t, "custom-ack-received", r.Get("type"))
	})
}

func Test_Replacer_Replace(t *testing.T) {
	r := NewReplacer(context.Background(), testEvent())

	cases := []struct {
		I string
		E string
	}{
		{
			"{hwaddr} got {yourip} from {serverip}",
			"de:ad:be:ef:01:02 got 10.0.0.5 from 10.0.0.1",
		},
		{
			"\\{hwaddr} got {yourip}",
			"{hwaddr} got 10.0.0.5",
		},
		{
			"\\{hwaddr\\} got {yourip}",
			"{hwaddr} got 10.0.0.5",
		},
		{
			"{hwaddr\\} got {yourip}",
			"",
		},
		{
			"dhcpester/{type}/{hwaddr}",
			"dhcpester/ack-received/de:ad:be:ef:01:02",
		},
		{
			"{",
			"{",
		},
		{
			"{}",
			"",
		},
		{
			"}",
			"}",
		},
	}

	for i, c := range cases {
		assert.Equal(t, c.E, r.Replace(c.I), "in case %d", i)
	}
}
