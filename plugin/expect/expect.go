package expect

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/apex/log"
	"github.com/nextdhcp/dhcpester/core/events"
	"github.com/nextdhcp/dhcpester/core/iprange"
	corelog "github.com/nextdhcp/dhcpester/core/log"
	"github.com/nextdhcp/dhcpester/plugin"
)

// expectPlugin verifies that offered and acknowledged addresses come from
// the configured ranges and servers
type expectPlugin struct {
	next    plugin.Handler
	l       log.Interface
	ranges  iprange.IPRanges
	servers []net.IP

	checked    atomic.Uint64
	violations atomic.Uint64
}

// Name implements plugin.Handler
func (p *expectPlugin) Name() string {
	return "expect"
}

// HandleEvent implements plugin.Handler
func (p *expectPlugin) HandleEvent(ctx context.Context, ev *events.Event) error {
	if ev.Type == events.OfferReceived || ev.Type == events.AckReceived {
		p.check(ev)
	}

	return plugin.Next(ctx, p.next, ev)
}

func (p *expectPlugin) check(ev *events.Event) {
	p.checked.Add(1)

	ok := true
	l := p.l.WithFields(corelog.ClientFields(ev.HwAddr, ev.XID, ev.Attempt))

	if len(p.ranges) > 0 && !p.ranges.Contains(ev.YourIP) {
		ok = false
		l.WithField("ip", ev.YourIP.String()).
			Warnf("[expect] %s: address outside of %s", ev.Type, p.ranges)
	}

	if len(p.servers) > 0 && !p.knownServer(ev.ServerIP) {
		ok = false
		l.WithField("server", ev.ServerIP.String()).
			Warnf("[expect] %s: unexpected server", ev.Type)
	}

	if !ok {
		p.violations.Add(1)
	}
}

func (p *expectPlugin) knownServer(ip net.IP) bool {
	for _, s := range p.servers {
		if s.Equal(ip) {
			return true
		}
	}

	return false
}

// report logs the number of replies that violated the expectations
func (p *expectPlugin) report() error {
	checked := p.checked.Load()
	violations := p.violations.Load()

	if violations > 0 {
		p.l.Warnf("[expect] %d of %d replies violated expectations", violations, checked)
		return nil
	}

	p.l.Infof("[expect] all %d replies matched", checked)
	return nil
}
