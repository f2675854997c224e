package plugin

import (
	"context"

	"github.com/nextdhcp/dhcpester/core/events"
)

type (
	// Handler for handshake events created by a plugin factory (see Plugin).
	// Each handler is responsible of calling the next handler in the chain
	// which was passed to Plugin
	Handler interface {
		// Name returns the name of the handler
		Name() string

		// HandleEvent is called for each step of every emulated client
		// handshake. See HandlerFunc for more information
		HandleEvent(ctx context.Context, ev *events.Event) error
	}

	// Plugin represents Setup func for a dhcpester plugin. It is passed the
	// next plugin in the chain
	Plugin func(Handler) Handler

	// HandlerFunc allows to easily wrap a function as a Handler type.
	// Events must be treated read-only as they are shared by all handlers
	// of the chain
	HandlerFunc func(ctx context.Context, ev *events.Event) error
)

// HandleEvent implements the Handler interface
func (fn HandlerFunc) HandleEvent(ctx context.Context, ev *events.Event) error {
	return fn(ctx, ev)
}

// Name returns "HandlerFunc" and implements the Handler interface
func (fn HandlerFunc) Name() string {
	return "HandlerFunc"
}

// Noop is the last handler of every chain
var Noop Handler = HandlerFunc(func(context.Context, *events.Event) error {
	return nil
})

// Next calls next with ev if next is set
func Next(ctx context.Context, next Handler, ev *events.Event) error {
	if next == nil {
		return nil
	}

	return next.HandleEvent(ctx, ev)
}
