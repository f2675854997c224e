package lua

import (
	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/dhcpester/core/dhcpester"
	"github.com/nextdhcp/dhcpester/plugin"
)

func init() {
	caddy.RegisterPlugin("lua", caddy.Plugin{
		ServerType: "dhcpester",
		Action:     setupLua,
	})
}

// setupLua parses "lua FILE"
func setupLua(c *caddy.Controller) error {
	c.Next()

	if !c.NextArg() {
		return c.ArgErr()
	}
	path := c.Val()

	if c.NextArg() {
		return c.ArgErr()
	}

	if c.Next() {
		return c.SyntaxErr("multiple \"lua\" configurations")
	}

	cfg := dhcpester.GetConfig(c)

	runner, err := NewFromFile(path, cfg.Log())
	if err != nil {
		return c.Errf("failed to load lua script: %s", err)
	}
	c.OnShutdown(runner.Close)

	cfg.AddPlugin(func(next plugin.Handler) plugin.Handler {
		return &luaPlugin{
			next:   next,
			runner: runner,
			l:      cfg.Log(),
		}
	})

	return nil
}
