package mqtt

import (
	"context"
	"os/exec"
	"strconv"

	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/dhcpester/core/dhcpester"
	"github.com/nextdhcp/dhcpester/core/events"
	"github.com/nextdhcp/dhcpester/core/matcher"
	"github.com/nextdhcp/dhcpester/core/replacer"
	"github.com/nextdhcp/dhcpester/plugin"
)

const (
	defaultTopic   = "dhcpester/{type}/{hwaddr}"
	defaultPayload = "{hwaddr} {type} {yourip}"
)

func init() {
	caddy.RegisterPlugin("mqtt", caddy.Plugin{
		ServerType: "dhcpester",
		Action:     setupMqtt,
	})
}

func setupMqtt(c *caddy.Controller) error {
	cfg := dhcpester.GetConfig(c)
	plg := &mqttPlugin{l: cfg.Log()}

	for c.Next() {
		mcfg := &mqttConfig{
			topic:   getStringFactory(defaultTopic),
			payload: getStringFactory(defaultPayload),
		}
		useExisting := false

		cond, err := matcher.SetupMatcherArgsAndBlock(c)
		if err != nil {
			return err
		}
		mcfg.Matcher = cond

		for c.NextBlock() {
			switch c.Val() {
			case "name", "broker", "user", "password",
				"client-id", "clean-session", "qos":
				if useExisting {
					return c.SyntaxErr("either configure a new connection or \"use\" and existing one")
				}

				if err := parseConnectionSettings(mcfg, c); err != nil {
					return err
				}

			case "use":
				if mcfg.conn != nil {
					return c.SyntaxErr("either configure a new connection or \"use\" and existing one")
				}
				useExisting = true

				if !c.NextArg() {
					return c.ArgErr()
				}
				mcfg.name = c.Val()

			case "topic":
				if !c.NextArg() {
					return c.ArgErr()
				}

				mcfg.topic = getStringFactory(c.Val())

			case "payload", "body":
				if !c.NextArg() {
					return c.ArgErr()
				}

				mcfg.payload = getStringFactory(c.Val())

			case "payload-from":
				cmd := c.RemainingArgs()
				if len(cmd) == 0 {
					return c.ArgErr()
				}

				mcfg.payload = getExecCmdStringFactory(cmd)

			case "if", "if_op":
				// already handled by the matcher
				c.RemainingArgs()

			default:
				return c.Errf("unknown mqtt property %q", c.Val())
			}
		}

		if !useExisting && mcfg.conn == nil {
			return c.SyntaxErr("Either configure a MQTT connection or \"use\" an existing one")
		}

		if mcfg.conn != nil && len(mcfg.conn.broker) == 0 {
			return c.SyntaxErr("at least one MQTT broker is required")
		}

		plg.configs = append(plg.configs, mcfg)
	}

	c.OnShutdown(plg.close)

	cfg.AddPlugin(func(next plugin.Handler) plugin.Handler {
		plg.next = next
		return plg
	})
	return nil
}

func getStringFactory(s string) msgFactory {
	return func(ctx context.Context, ev *events.Event) (string, error) {
		rep := replacer.NewReplacer(ctx, ev)
		return rep.Replace(s), nil
	}
}

func getExecCmdStringFactory(cmd []string) msgFactory {
	return func(ctx context.Context, ev *events.Event) (string, error) {
		args := make([]string, len(cmd))
		rep := replacer.NewReplacer(ctx, ev)

		for i, c := range cmd {
			args[i] = rep.Replace(c)
		}

		output, err := exec.CommandContext(ctx, args[0], args[1:]...).Output()
		return string(output), err
	}
}

func parseConnectionSettings(cfg *mqttConfig, c *caddy.Controller) error {
	if cfg.conn == nil {
		cfg.conn = &mqttConnConfig{}
	}

	action := c.Val()
	if action == "clean-session" {
		cfg.conn.cleanSession = true
		return nil
	}

	if !c.NextArg() {
		return c.ArgErr()
	}

	switch action {
	case "name":
		cfg.name = c.Val()
	case "broker":
		cfg.conn.broker = append([]string{c.Val()}, c.RemainingArgs()...)
	case "user":
		cfg.conn.user = c.Val()
	case "password":
		cfg.conn.password = c.Val()
	case "client-id":
		cfg.conn.clientID = c.Val()
	case "qos":
		i, err := strconv.Atoi(c.Val())
		if err != nil || i < 0 || i > 2 {
			return c.SyntaxErr("expected a number between 0 and 2")
		}
		cfg.conn.qos = i
	}

	return nil
}
