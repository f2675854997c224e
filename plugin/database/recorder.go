package database

import (
	"context"

	"github.com/apex/log"
	"github.com/nextdhcp/dhcpester/core/events"
	"github.com/nextdhcp/dhcpester/core/results/storage"
	"github.com/nextdhcp/dhcpester/plugin"
)

// recorder persists the result of every completed handshake
type recorder struct {
	next  plugin.Handler
	store storage.ResultStorage
	l     log.Interface
}

// Name implements plugin.Handler
func (r *recorder) Name() string {
	return "database"
}

// HandleEvent implements plugin.Handler
func (r *recorder) HandleEvent(ctx context.Context, ev *events.Event) error {
	if ev.Type == events.AckReceived && ev.HwAddr != nil {
		res := storage.Result{
			HwAddr:    ev.HwAddr.String(),
			IP:        ev.YourIP,
			Server:    ev.ServerIP,
			Attempts:  ev.Attempt,
			Duration:  ev.Duration(),
			Completed: ev.Time,
		}

		if err := r.store.Put(ctx, res); err != nil {
			r.l.Errorf("[database] failed to store result for %s: %s", res.HwAddr, err)
		}
	}

	return plugin.Next(ctx, r.next, ev)
}
