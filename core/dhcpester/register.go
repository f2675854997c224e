package dhcpester

import (
	"fmt"

	"github.com/caddyserver/caddy"
	"github.com/caddyserver/caddy/caddyfile"
	"github.com/nextdhcp/dhcpester/core/identity"
	corelog "github.com/nextdhcp/dhcpester/core/log"
)

const serverType = "dhcpester"

// DefaultFile is the name of the default configuration file
const DefaultFile = "Dhcpesterfile"

var (
	// DefaultInterface is the server block key used when no configuration
	// file is found. Empty selects the first usable interface
	DefaultInterface = ""

	// DefaultClients is the number of clients of a fleet without a
	// clients directive
	DefaultClients = 5
)

func init() {
	caddy.RegisterServerType(serverType, caddy.ServerType{
		Directives: func() []string { return Directives },
		DefaultInput: func() caddy.Input {
			return caddy.CaddyfileInput{
				Filepath:       DefaultFile,
				Contents:       defaultContents(),
				ServerTypeName: serverType,
			}
		},
		NewContext: newContext,
	})
}

func defaultContents() []byte {
	key := DefaultInterface
	if key == "" {
		key = autoInterface
	}

	return []byte(key + "\n")
}

func newContext(i *caddy.Instance) caddy.Context {
	return &dhcpesterContext{
		keyToConfig: make(map[string]*Config),
	}
}

type dhcpesterContext struct {
	configs     []*Config
	keyToConfig map[string]*Config
}

func (c *dhcpesterContext) addConfig(key string, cfg *Config) {
	c.configs = append(c.configs, cfg)
	c.keyToConfig[key] = cfg
}

func (c *dhcpesterContext) InspectServerBlocks(sourceFile string, serverBlocks []caddyfile.ServerBlock) ([]caddyfile.ServerBlock, error) {
	for si, s := range serverBlocks {
		for ki, k := range s.Keys {
			if k == "" {
				return nil, fmt.Errorf("empty interface in server block %d", si)
			}

			cfg := &Config{
				Key:     k,
				Clients: DefaultClients,
				Prefix:  identity.DefaultPrefix,
				Logger:  corelog.Default(),
			}

			configKey := keyForConfig(si, ki)
			c.addConfig(configKey, cfg)
		}
	}

	return serverBlocks, nil
}

func (c *dhcpesterContext) MakeServers() ([]caddy.Server, error) {
	for _, cfg := range c.configs {
		if err := findInterface(cfg); err != nil {
			return nil, fmt.Errorf("failed to find interface for %s: %s", cfg.Key, err.Error())
		}

		if cfg.Clients < 0 {
			return nil, fmt.Errorf("invalid number of clients for %s: %d", cfg.Key, cfg.Clients)
		}

		buildMiddlewareChain(cfg)
	}

	var servers []caddy.Server
	for _, cfg := range c.configs {
		servers = append(servers, NewServer(cfg))
	}

	return servers, nil
}
