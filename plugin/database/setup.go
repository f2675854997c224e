package database

import (
	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/dhcpester/core/dhcpester"
	"github.com/nextdhcp/dhcpester/core/results/storage"
	"github.com/nextdhcp/dhcpester/plugin"
)

func init() {
	caddy.RegisterPlugin("database", caddy.Plugin{
		ServerType: "dhcpester",
		Action:     parseDatabaseDirective,
	})
}

func parseDatabaseDirective(c *caddy.Controller) error {
	if !c.Next() {
		return c.ArgErr()
	}

	if !c.NextArg() {
		return c.ArgErr()
	}
	driverName := c.Val()

	var options = make(map[string][]string)
	remaining := c.RemainingArgs()
	if len(remaining) > 0 {
		options["__args__"] = remaining
	}

	for c.NextBlock() {
		options[c.Val()] = c.RemainingArgs()
	}

	if c.Next() {
		return c.ArgErr()
	}

	store, err := storage.Open(driverName, options)
	if err != nil {
		return err
	}

	c.OnShutdown(store.Close)

	cfg := dhcpester.GetConfig(c)
	cfg.AddPlugin(func(next plugin.Handler) plugin.Handler {
		return &recorder{
			next:  next,
			store: store,
			l:     cfg.Log(),
		}
	})

	return nil
}
