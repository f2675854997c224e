package test

import (
	"net"
	"testing"
	"time"

	"github.com/caddyserver/caddy"
	"github.com/caddyserver/caddy/caddyfile"
	"github.com/nextdhcp/dhcpester/core/events"
	"github.com/stretchr/testify/require"
)

// CreateTestBed creates a new caddy.Controller that is configured for
// testing the setup and configuration of plugins. It creates a dummy server
// block in the context of "dhcpester" server type so plugins can safely assume
// dhcpester.GetConfig(ctrl) will return a valid configuration. The server
// block itself is configured for the interface test0
func CreateTestBed(t *testing.T, input string) *caddy.Controller {
	ctrl := caddy.NewTestController("dhcpester", input)
	ctx := ctrl.Context()

	serverBlock := caddyfile.ServerBlock{
		Keys:   []string{"test0"},
		Tokens: map[string][]caddyfile.Token{},
	}

	blks, err := ctx.InspectServerBlocks("test-source", []caddyfile.ServerBlock{serverBlock})
	require.NoError(t, err)
	require.Equal(t, []caddyfile.ServerBlock{serverBlock}, blks)

	return ctrl
}

// Event returns a handshake event of type t for a well-known client
func Event(t events.Type) *events.Event {
	started := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)

	ev := &events.Event{
		Type:    t,
		Seq:     1,
		HwAddr:  net.HardwareAddr{0xde, 0xad, 0x00, 0x00, 0x00, 0x01},
		XID:     0x1234,
		Attempt: 1,
		Started: started,
		Time:    started.Add(250 * time.Millisecond),
	}

	if t != events.DiscoverSent {
		ev.YourIP = net.IP{10, 0, 0, 5}
		ev.ServerIP = net.IP{10, 0, 0, 1}
	}

	return ev
}
