package test

import (
	"context"
	"errors"
	"sync"

	"github.com/nextdhcp/dhcpester/core/events"
)

type (
	// HandlerFunc implements plugin.Handler
	HandlerFunc func(ctx context.Context, ev *events.Event) error

	// Recorder is a plugin.Handler that records all events passed to it
	Recorder struct {
		l      sync.Mutex
		events []*events.Event
	}
)

// HandleEvent implements plugin.Handler
func (fn HandlerFunc) HandleEvent(ctx context.Context, ev *events.Event) error {
	return fn(ctx, ev)
}

// Name implements plugin.Handler
func (fn HandlerFunc) Name() string {
	return "test.HandlerFunc"
}

// HandleEvent implements plugin.Handler
func (r *Recorder) HandleEvent(_ context.Context, ev *events.Event) error {
	r.l.Lock()
	defer r.l.Unlock()

	r.events = append(r.events, ev)
	return nil
}

// Name implements plugin.Handler
func (r *Recorder) Name() string {
	return "test.Recorder"
}

// Events returns all recorded events
func (r *Recorder) Events() []*events.Event {
	r.l.Lock()
	defer r.l.Unlock()

	return append([]*events.Event(nil), r.events...)
}

var (
	// ErrorHandler is a plugin.Handler and always returns an error
	ErrorHandler = HandlerFunc(func(_ context.Context, ev *events.Event) error {
		return errors.New("simulated error")
	})

	// NoOpHandler is a No-Operation plugin.Handler
	NoOpHandler = HandlerFunc(func(_ context.Context, ev *events.Event) error {
		return nil
	})
)
