package identity

import (
	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/dhcpester/core/dhcpester"
	"github.com/nextdhcp/dhcpester/core/identity"
)

func init() {
	caddy.RegisterPlugin("identity", caddy.Plugin{
		ServerType: "dhcpester",
		Action:     setupIdentity,
	})
}

// setupIdentity parses
//
//	identity {
//		prefix DE:AD
//		unique
//	}
func setupIdentity(c *caddy.Controller) error {
	c.Next()

	if len(c.RemainingArgs()) > 0 {
		return c.ArgErr()
	}

	cfg := dhcpester.GetConfig(c)

	for c.NextBlock() {
		switch c.Val() {
		case "prefix":
			if !c.NextArg() {
				return c.ArgErr()
			}

			prefix, err := identity.ParsePrefix(c.Val())
			if err != nil {
				return c.SyntaxErr(err.Error())
			}
			cfg.Prefix = prefix

		case "unique":
			cfg.Unique = true

		default:
			return c.Errf("unknown identity property %q", c.Val())
		}

		if c.NextArg() {
			return c.ArgErr()
		}
	}

	if c.Next() {
		return c.SyntaxErr("multiple \"identity\" configurations")
	}

	return nil
}
