package gotify

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/dhcpester/core/dhcpester"
	"github.com/nextdhcp/dhcpester/core/events"
	"github.com/nextdhcp/dhcpester/core/matcher"
	"github.com/nextdhcp/dhcpester/core/replacer"
	"github.com/nextdhcp/dhcpester/plugin"
)

// hookCount makes summary hook names unique across reloads
var hookCount atomic.Uint64

func init() {
	caddy.RegisterPlugin("gotify", caddy.Plugin{
		ServerType: "dhcpester",
		Action:     setupGotify,
	})
}

func setupGotify(c *caddy.Controller) error {
	g, err := makeGotifyPlugin(c)
	if err != nil {
		return err
	}

	cfg := dhcpester.GetConfig(c)
	g.l = cfg.Log()

	for _, n := range g.notifications {
		if !n.summary {
			continue
		}

		name := fmt.Sprintf("gotify-summary-%d", hookCount.Add(1))
		events.RegisterSummaryHook(name, func(s *events.Summary) error {
			if cfg.Interface != nil && s.Interface != cfg.Interface.Name {
				return nil
			}
			return g.sendSummary(s)
		})
		break
	}

	c.OnShutdown(g.wait)

	cfg.AddPlugin(func(next plugin.Handler) plugin.Handler {
		g.next = next
		return g
	})

	return nil
}

// makeGotifyPlugin parses all gotify directives of the current server block.
//
//	gotify [condition] {
//		server URL TOKEN
//		title TEMPLATE
//		message TEMPLATE
//		priority N
//		if condition
//		if_op and|or
//		summary
//	}
//
// server and token are inherited from the previous gotify directive
func makeGotifyPlugin(c *caddy.Controller) (*gotifyPlugin, error) {
	g := &gotifyPlugin{}

	for c.Next() {
		cond, err := matcher.SetupMatcherArgsAndBlock(c)
		if err != nil {
			return nil, err
		}

		n := &notification{
			Matcher: cond,
		}

		for c.NextBlock() {
			switch c.Val() {
			case "server":
				args := c.RemainingArgs()
				if len(args) != 2 {
					return nil, c.ArgErr()
				}
				n.srv = args[0]
				n.token = args[1]

			case "message":
				if !c.NextArg() {
					return nil, c.ArgErr()
				}
				n.msg = getStringFactory(c.Val())

			case "title":
				if !c.NextArg() {
					return nil, c.ArgErr()
				}
				n.title = getStringFactory(c.Val())

			case "priority":
				if !c.NextArg() {
					return nil, c.ArgErr()
				}

				p, err := strconv.Atoi(c.Val())
				if err != nil || p < 0 || p > 10 {
					return nil, c.SyntaxErr("expected a priority between 0 and 10")
				}
				n.priority = p

			case "summary":
				n.summary = true

			case "if", "if_op":
				// already handled by the matcher
				c.RemainingArgs()

			default:
				return nil, c.Errf("unknown gotify property %q", c.Val())
			}

			if c.NextArg() {
				return nil, c.ArgErr()
			}
		}

		if n.srv == "" {
			srv, token, ok := g.findLastCreds()
			if !ok {
				return nil, c.Err("gotify server and token required")
			}
			n.srv = srv
			n.token = token
		}

		if n.msg == nil && !n.Empty() {
			return nil, c.Err("gotify message required when a condition is used")
		}

		g.addNotification(n)
	}

	return g, nil
}

func getStringFactory(s string) msgFactory {
	return func(ctx context.Context, ev *events.Event) (string, error) {
		rep := replacer.NewReplacer(ctx, ev)
		return rep.Replace(s), nil
	}
}
