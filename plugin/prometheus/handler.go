package prometheus

import (
	"context"

	"github.com/nextdhcp/dhcpester/core/events"
	"github.com/nextdhcp/dhcpester/core/replacer"
	"github.com/nextdhcp/dhcpester/plugin"
)

// Name implements plugin.Handler
func (p *Plugin) Name() string {
	return "prometheus"
}

// HandleEvent implements plugin.Handler
func (p *Plugin) HandleEvent(ctx context.Context, ev *events.Event) error {
	var extraLabelValues []string

	if len(p.Metrics.extraLabels) > 0 {
		rep := replacer.NewReplacer(ctx, ev)
		for _, label := range p.Metrics.extraLabels {
			extraLabelValues = append(extraLabelValues, rep.Replace(label.value))
		}
	}

	p.Metrics.messageCount.WithLabelValues(append([]string{string(ev.Type)}, extraLabelValues...)...).Inc()

	switch ev.Type {
	case events.DiscoverSent:
		if ev.Attempt == 1 {
			p.Metrics.fleetSize.Inc()
		}
	case events.AckReceived:
		p.Metrics.fleetSize.Dec()
		p.Metrics.handshakeLatency.WithLabelValues(extraLabelValues...).Observe(ev.Duration().Seconds())
	}

	return plugin.Next(ctx, p.Next, ev)
}
