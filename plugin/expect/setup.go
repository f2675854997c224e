// Package expect validates the replies of the DHCP server under test.
//
//	expect {
//	    range 10.0.0.100 10.0.0.200
//	    server 10.0.0.1 10.0.0.2
//	}
package expect

import (
	"net"

	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/dhcpester/core/dhcpester"
	"github.com/nextdhcp/dhcpester/core/iprange"
	"github.com/nextdhcp/dhcpester/plugin"
)

func init() {
	caddy.RegisterPlugin("expect", caddy.Plugin{
		ServerType: "dhcpester",
		Action:     setupExpect,
	})
}

func setupExpect(c *caddy.Controller) error {
	cfg := dhcpester.GetConfig(c)
	plg := &expectPlugin{
		l: cfg.Log(),
	}

	if err := parseExpect(c, plg); err != nil {
		return err
	}

	c.OnShutdown(plg.report)

	cfg.AddPlugin(func(next plugin.Handler) plugin.Handler {
		plg.next = next
		return plg
	})

	return nil
}

// parseExpect parses all expect directives into plg. Multiple directives
// are merged
func parseExpect(c *caddy.Controller, plg *expectPlugin) error {
	var ranges []*iprange.IPRange

	for c.Next() {
		if len(c.RemainingArgs()) > 0 {
			return c.ArgErr()
		}

		for c.NextBlock() {
			switch c.Val() {
			case "range":
				args := c.RemainingArgs()
				if len(args) != 2 {
					return c.ArgErr()
				}

				r, err := iprange.Parse(args[0], args[1])
				if err != nil {
					return c.Errf("range %s-%s: %s", args[0], args[1], err)
				}

				ranges = append(ranges, r)

			case "server":
				args := c.RemainingArgs()
				if len(args) == 0 {
					return c.ArgErr()
				}

				for _, a := range args {
					ip := net.ParseIP(a)
					if ip == nil {
						return c.SyntaxErr("IPv4 address")
					}

					plg.servers = append(plg.servers, ip)
				}

			default:
				return c.Errf("unknown property %q", c.Val())
			}
		}
	}

	plg.ranges = iprange.Merge(ranges)

	if len(plg.ranges) == 0 && len(plg.servers) == 0 {
		return c.Err("expect requires at least one range or server")
	}

	return nil
}
