package events

import (
	"fmt"
	"time"

	"github.com/caddyserver/caddy"
)

// EventFleetDrained is emitted when every client of a server completed
// its handshake
const EventFleetDrained caddy.EventName = "fleet-drained"

type (
	// Summary describes a finished run of a fleet
	Summary struct {
		// Interface is the name of the network interface used
		Interface string

		// Clients is the number of emulated clients
		Clients int

		// Counts holds the number of events per type
		Counts map[Type]uint64

		// Started is the time the fleet has been started
		Started time.Time

		// Finished is the time the last client completed
		Finished time.Time
	}

	// SummaryHook is the function type that receives run summaries
	SummaryHook func(s *Summary) error
)

// Elapsed returns the duration of the run
func (s *Summary) Elapsed() time.Duration {
	return s.Finished.Sub(s.Started)
}

// String returns a short human readable summary
func (s *Summary) String() string {
	return fmt.Sprintf("%d clients on %s finished in %s: %d discover, %d offer, %d request, %d ack, %d nak, %d unknown",
		s.Clients,
		s.Interface,
		s.Elapsed().Round(time.Millisecond),
		s.Counts[DiscoverSent],
		s.Counts[OfferReceived],
		s.Counts[RequestSent],
		s.Counts[AckReceived],
		s.Counts[NakReceived],
		s.Counts[UnknownXID],
	)
}

// EmitSummary emits EventFleetDrained with s
func EmitSummary(s *Summary) {
	caddy.EmitEvent(EventFleetDrained, s)
}

// RegisterSummaryHook registers hook to be called whenever a fleet drained.
// name must be unique
func RegisterSummaryHook(name string, hook SummaryHook) {
	if hook == nil {
		panic("events: nil summary hook")
	}

	caddy.RegisterEventHook(name, func(e caddy.EventName, info interface{}) error {
		if e != EventFleetDrained {
			return nil
		}

		s, ok := info.(*Summary)
		if !ok {
			return nil
		}

		return hook(s)
	})
}
