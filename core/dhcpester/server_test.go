package dhcpester

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/nextdhcp/dhcpester/core/events"
	"github.com/nextdhcp/dhcpester/core/fleet"
	"github.com/nextdhcp/dhcpester/core/identity"
	"github.com/nextdhcp/dhcpester/core/socket"
	"github.com/nextdhcp/dhcpester/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers DHCPDISCOVER with an offer and DHCPREQUEST with
// an ACK. The first request of every client listed in nak is NAKed
type fakeServer struct {
	t    *testing.T
	msgs chan *dhcpv4.DHCPv4

	l      sync.Mutex
	nak    bool
	nacked map[string]bool
}

func newFakeServer(t *testing.T, nak bool) *fakeServer {
	return &fakeServer{
		t:      t,
		msgs:   make(chan *dhcpv4.DHCPv4, 4096),
		nak:    nak,
		nacked: make(map[string]bool),
	}
}

func (s *fakeServer) Send(frame []byte) error {
	req, err := socket.Decode(frame, socket.ServerPortFilter)
	if err != nil {
		s.t.Errorf("client sent an invalid frame: %s", err)
		return err
	}

	var mods []dhcpv4.Modifier
	switch req.MessageType() {
	case dhcpv4.MessageTypeDiscover:
		mods = []dhcpv4.Modifier{
			dhcpv4.WithMessageType(dhcpv4.MessageTypeOffer),
			dhcpv4.WithYourIP(net.IP{10, 0, req.ClientHWAddr[4], req.ClientHWAddr[5]}),
			dhcpv4.WithServerIP(net.IP{10, 0, 0, 1}),
		}
	case dhcpv4.MessageTypeRequest:
		mt := dhcpv4.MessageTypeAck
		s.l.Lock()
		if s.nak && !s.nacked[req.ClientHWAddr.String()] {
			s.nacked[req.ClientHWAddr.String()] = true
			mt = dhcpv4.MessageTypeNak
		}
		s.l.Unlock()

		mods = []dhcpv4.Modifier{
			dhcpv4.WithMessageType(mt),
			dhcpv4.WithYourIP(req.RequestedIPAddress()),
		}
	}

	resp, err := dhcpv4.NewReplyFromRequest(req, mods...)
	if err != nil {
		return err
	}

	s.msgs <- resp
	return nil
}

func (s *fakeServer) Stream(ctx context.Context, _ socket.Filter) <-chan *dhcpv4.DHCPv4 {
	return s.msgs
}

type counter struct {
	l      sync.Mutex
	counts map[events.Type]int
}

func (c *counter) plugin(next plugin.Handler) plugin.Handler {
	return plugin.HandlerFunc(func(ctx context.Context, ev *events.Event) error {
		c.l.Lock()
		c.counts[ev.Type]++
		c.l.Unlock()
		return plugin.Next(ctx, next, ev)
	})
}

func testServer(clients int, plugins ...plugin.Plugin) *Server {
	cfg := &Config{
		Key:       "test0",
		Interface: testIface,
		Clients:   clients,
		Prefix:    identity.DefaultPrefix,
		Logger:    &log.Logger{Handler: memory.New(), Level: log.DebugLevel},
	}

	for _, p := range plugins {
		cfg.AddPlugin(p)
	}
	buildMiddlewareChain(cfg)

	return NewServer(cfg)
}

func runWithTimeout(t *testing.T, s *Server, tr Transport) (*events.Summary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.Run(ctx, tr)
}

func TestServer_Run(t *testing.T) {
	c := &counter{counts: make(map[events.Type]int)}
	s := testServer(20, c.plugin)

	summary, err := runWithTimeout(t, s, newFakeServer(t, false))
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, "test0", summary.Interface)
	assert.Equal(t, 20, summary.Clients)
	assert.False(t, summary.Finished.Before(summary.Started))
	assert.Equal(t, uint64(20), summary.Counts[events.DiscoverSent])
	assert.Equal(t, uint64(20), summary.Counts[events.AckReceived])
	assert.Equal(t, uint64(0), summary.Counts[events.NakReceived])

	c.l.Lock()
	defer c.l.Unlock()
	assert.Equal(t, 20, c.counts[events.AckReceived])
	assert.Equal(t, 20, c.counts[events.OfferReceived])
}

func TestServer_Run_Nak(t *testing.T) {
	s := testServer(10)

	summary, err := runWithTimeout(t, s, newFakeServer(t, true))
	require.NoError(t, err)

	assert.Equal(t, uint64(10), summary.Counts[events.NakReceived])
	assert.Equal(t, uint64(20), summary.Counts[events.DiscoverSent])
	assert.Equal(t, uint64(20), summary.Counts[events.RequestSent])
	assert.Equal(t, uint64(10), summary.Counts[events.AckReceived])
}

func TestServer_Run_Empty(t *testing.T) {
	summary, err := runWithTimeout(t, testServer(0), newFakeServer(t, false))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), summary.Counts[events.DiscoverSent])
}

func TestServer_Run_Cancelled(t *testing.T) {
	s := testServer(3)
	tr := &silentTransport{}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	summary, err := s.Run(ctx, tr)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Equal(t, uint64(0), summary.Counts[events.AckReceived])
}

func TestServer_Run_Populate(t *testing.T) {
	prefix := net.HardwareAddr{0xde, 0xad, 0x00, 0x00, 0x00}

	t.Run("unique identities exhausted", func(t *testing.T) {
		s := testServer(300)
		s.cfg.Prefix = prefix
		s.cfg.Unique = true

		summary, err := s.Run(context.Background(), &silentTransport{})
		assert.ErrorIs(t, err, identity.ErrExhausted)
		assert.Nil(t, summary)
	})

	t.Run("duplicate identities", func(t *testing.T) {
		s := testServer(300)
		s.cfg.Prefix = prefix

		summary, err := s.Run(context.Background(), &silentTransport{})
		assert.ErrorIs(t, err, fleet.ErrDuplicateIdentity)
		assert.Nil(t, summary)
	})
}

func TestServer_ServePacket(t *testing.T) {
	s := testServer(1)
	assert.NoError(t, s.Stop())
	assert.Error(t, s.ServePacket(nil))
	assert.Equal(t, "test0", s.Address())
}

// silentTransport never answers
type silentTransport struct{}

func (silentTransport) Send([]byte) error { return nil }

func (silentTransport) Stream(ctx context.Context, _ socket.Filter) <-chan *dhcpv4.DHCPv4 {
	return make(chan *dhcpv4.DHCPv4)
}
