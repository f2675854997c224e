package lua

import (
	"context"

	"github.com/apex/log"
	"github.com/nextdhcp/dhcpester/core/events"
	corelog "github.com/nextdhcp/dhcpester/core/log"
	"github.com/nextdhcp/dhcpester/plugin"
)

type luaPlugin struct {
	next   plugin.Handler
	runner *Runner
	l      log.Interface
}

// Name returns "lua" and implements plugin.Handler
func (p *luaPlugin) Name() string {
	return "lua"
}

// HandleEvent calls the script hook and forwards the event
func (p *luaPlugin) HandleEvent(ctx context.Context, ev *events.Event) error {
	fields, err := p.runner.Call(ev)
	if err != nil {
		p.l.Errorf("[lua] %s hook failed: %s", ev.Type, err)
	} else if len(fields) > 0 {
		p.l.WithFields(corelog.ClientFields(ev.HwAddr, ev.XID, ev.Attempt)).
			WithFields(fields).
			Infof("[lua] %s", ev.Type)
	}

	return plugin.Next(ctx, p.next, ev)
}
