package clients

import (
	"strconv"

	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/dhcpester/core/dhcpester"
)

func init() {
	caddy.RegisterPlugin("clients", caddy.Plugin{
		ServerType: "dhcpester",
		Action:     setupClients,
	})
}

// setupClients parses "clients N"
func setupClients(c *caddy.Controller) error {
	c.Next()

	if !c.NextArg() {
		return c.ArgErr()
	}

	n, err := strconv.Atoi(c.Val())
	if err != nil || n < 0 {
		return c.Errf("invalid number of clients %q", c.Val())
	}

	if c.NextArg() {
		return c.ArgErr()
	}

	if c.Next() {
		return c.SyntaxErr("multiple \"clients\" configurations")
	}

	dhcpester.GetConfig(c).Clients = n

	return nil
}
