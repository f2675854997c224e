package log

import (
	"io"
	"os"

	"github.com/apex/log"
	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/dhcpester/core/dhcpester"
	corelog "github.com/nextdhcp/dhcpester/core/log"
)

func init() {
	caddy.RegisterPlugin("log", caddy.Plugin{
		ServerType: "dhcpester",
		Action:     setupLogging,
	})
}

// openFile is replaced during tests
var openFile = func(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}

func setupLogging(c *caddy.Controller) error {
	c.Next()

	if !c.NextArg() {
		return c.ArgErr()
	}

	l, err := log.ParseLevel(c.Val())
	if err != nil {
		return c.SyntaxErr(err.Error())
	}

	if len(c.RemainingArgs()) > 0 {
		return c.ArgErr()
	}

	format := corelog.FormatAuto
	output := ""

	for c.NextBlock() {
		switch c.Val() {
		case "format":
			if !c.NextArg() {
				return c.ArgErr()
			}
			format = c.Val()

		case "output":
			if !c.NextArg() {
				return c.ArgErr()
			}
			output = c.Val()

		default:
			return c.Errf("unknown log property %q", c.Val())
		}

		if c.NextArg() {
			return c.ArgErr()
		}
	}

	if c.Next() {
		return c.SyntaxErr("invalid token or multiple \"log\" configurations")
	}

	var w io.Writer = os.Stdout
	if output != "" && output != "stdout" {
		f, err := openFile(output)
		if err != nil {
			return c.Errf("failed to open log file: %s", err)
		}

		c.OnShutdown(f.Close)
		w = f
	}

	logger, err := corelog.New(w, l, format)
	if err != nil {
		return c.Err(err.Error())
	}

	log.SetLevel(l)
	dhcpester.GetConfig(c).Logger = logger

	return nil
}
