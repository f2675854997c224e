package dhcpester

import (
	"fmt"
	"net"

	"github.com/apex/log"
	"github.com/caddyserver/caddy"
	corelog "github.com/nextdhcp/dhcpester/core/log"
	"github.com/nextdhcp/dhcpester/plugin"
)

// Config configures a fleet of emulated DHCP clients
type Config struct {
	// Key is the server block key the configuration was created for. It
	// names the network interface to use
	Key string

	// Interface is the network interface the fleet sends and receives
	// on. It is resolved from Key when the servers are created
	Interface *net.Interface

	// Clients is the number of emulated clients
	Clients int

	// Prefix is the vendor prefix of client hardware addresses
	Prefix net.HardwareAddr

	// Unique enables collision checks for generated hardware addresses
	Unique bool

	// Logger is used for all handshake logs of the fleet
	Logger log.Interface

	// plugins is a list of middleware setup functions
	plugins []plugin.Plugin

	// chain is the beginning of the middleware chain for this fleet
	chain plugin.Handler
}

// AddPlugin adds a new plugin to the middleware chain
func (cfg *Config) AddPlugin(p plugin.Plugin) {
	cfg.plugins = append(cfg.plugins, p)
}

// Plugins returns the plugin setup functions added so far
func (cfg *Config) Plugins() []plugin.Plugin {
	return cfg.plugins
}

// Log returns the logger of the fleet
func (cfg *Config) Log() log.Interface {
	if cfg.Logger == nil {
		return corelog.Default()
	}
	return cfg.Logger
}

func keyForConfig(serverBlockIndex, serverBlockKeyIndex int) string {
	return fmt.Sprintf("%d:%d", serverBlockIndex, serverBlockKeyIndex)
}

// GetConfig gets the Config that corresponds to c
// if none exist nil is returned
func GetConfig(c *caddy.Controller) *Config {
	ctx := c.Context().(*dhcpesterContext)
	key := keyForConfig(c.ServerBlockIndex, c.ServerBlockKeyIndex)

	cfg := ctx.keyToConfig[key]
	return cfg
}

func buildMiddlewareChain(cfg *Config) {
	var chain = plugin.Noop
	for i := len(cfg.plugins) - 1; i >= 0; i-- {
		chain = cfg.plugins[i](chain)
	}

	cfg.chain = chain
}
