package dhcpester

import (
	"errors"
	"net"
	"testing"

	"github.com/caddyserver/caddy"
	"github.com/caddyserver/caddy/caddyfile"
	"github.com/nextdhcp/dhcpester/core/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIface = &net.Interface{
	Index:        7,
	Name:         "test0",
	HardwareAddr: net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
	Flags:        net.FlagUp | net.FlagBroadcast,
}

func withInterfaces(t *testing.T, lookup func(string) (*net.Interface, error), def func() (*net.Interface, error)) {
	oldLookup, oldDefault := lookupInterface, defaultInterface
	t.Cleanup(func() {
		lookupInterface = oldLookup
		defaultInterface = oldDefault
	})

	lookupInterface = lookup
	defaultInterface = def
}

func inspect(t *testing.T, blocks ...caddyfile.ServerBlock) (*caddy.Controller, *dhcpesterContext) {
	ctrl := caddy.NewTestController(serverType, "")
	ctx := ctrl.Context()

	res, err := ctx.InspectServerBlocks("test-source", blocks)
	require.NoError(t, err)
	require.Equal(t, blocks, res)

	return ctrl, ctx.(*dhcpesterContext)
}

func TestInspectServerBlocks(t *testing.T) {
	ctrl, ctx := inspect(t,
		caddyfile.ServerBlock{Keys: []string{"eth0", "10.0.0.0/24"}},
		caddyfile.ServerBlock{Keys: []string{"auto"}},
	)

	assert.Len(t, ctx.configs, 3)

	cfg := ctx.keyToConfig["0:1"]
	require.NotNil(t, cfg)
	assert.Equal(t, "10.0.0.0/24", cfg.Key)
	assert.Equal(t, DefaultClients, cfg.Clients)
	assert.Equal(t, identity.DefaultPrefix, cfg.Prefix)
	assert.False(t, cfg.Unique)
	assert.NotNil(t, cfg.Logger)

	ctrl.ServerBlockIndex = 1
	ctrl.ServerBlockKeyIndex = 0
	assert.Same(t, ctx.keyToConfig["1:0"], GetConfig(ctrl))

	t.Run("empty key", func(t *testing.T) {
		ctrl := caddy.NewTestController(serverType, "")
		_, err := ctrl.Context().InspectServerBlocks("test-source", []caddyfile.ServerBlock{{Keys: []string{""}}})
		assert.Error(t, err)
	})
}

func TestMakeServers(t *testing.T) {
	withInterfaces(t,
		func(name string) (*net.Interface, error) {
			switch name {
			case "test0":
				return testIface, nil
			case "lo":
				return &net.Interface{Name: "lo", Flags: net.FlagUp | net.FlagLoopback}, nil
			}
			return nil, errors.New("no such interface")
		},
		func() (*net.Interface, error) { return testIface, nil },
	)

	t.Run("resolves interfaces", func(t *testing.T) {
		_, ctx := inspect(t, caddyfile.ServerBlock{Keys: []string{"test0", "auto"}})

		servers, err := ctx.MakeServers()
		require.NoError(t, err)
		assert.Len(t, servers, 2)

		for _, cfg := range ctx.configs {
			assert.Equal(t, testIface, cfg.Interface)
			assert.NotNil(t, cfg.chain)
		}
	})

	t.Run("unknown interface", func(t *testing.T) {
		_, ctx := inspect(t, caddyfile.ServerBlock{Keys: []string{"eth9"}})
		_, err := ctx.MakeServers()
		assert.Error(t, err)
	})

	t.Run("unusable interface", func(t *testing.T) {
		_, ctx := inspect(t, caddyfile.ServerBlock{Keys: []string{"lo"}})
		_, err := ctx.MakeServers()
		assert.Error(t, err)
	})

	t.Run("negative client count", func(t *testing.T) {
		_, ctx := inspect(t, caddyfile.ServerBlock{Keys: []string{"test0"}})
		ctx.configs[0].Clients = -1

		_, err := ctx.MakeServers()
		assert.Error(t, err)
	})
}

func TestDefaultContents(t *testing.T) {
	old := DefaultInterface
	defer func() { DefaultInterface = old }()

	DefaultInterface = ""
	assert.Equal(t, "auto\n", string(defaultContents()))

	DefaultInterface = "eth1"
	assert.Equal(t, "eth1\n", string(defaultContents()))
}

func TestGetStartupInfo(t *testing.T) {
	assert.Equal(t, "", getStartupInfo(nil))
	assert.Equal(t, "", getStartupInfo([]*Config{{Key: "eth0"}}))

	info := getStartupInfo([]*Config{{Key: "test0", Clients: 10, Interface: testIface}})
	assert.Equal(t, "Emulating the following fleets\n\t10 clients on test0 (02:00:00:00:00:01)\n", info)
}
