// Package events describes the steps of emulated DHCP handshakes and
// the summary emitted once a fleet finished
package events

import (
	"net"
	"time"
)

// Type describes a step of a DHCP client handshake
type Type string

// Handshake event types
const (
	// DiscoverSent is emitted after a client transmitted a DHCPDISCOVER
	DiscoverSent Type = "discover-sent"

	// OfferReceived is emitted when a DHCPOFFER has been matched to
	// a client
	OfferReceived Type = "offer-received"

	// RequestSent is emitted after a client transmitted a DHCPREQUEST
	RequestSent Type = "request-sent"

	// AckReceived is emitted when a DHCPACK completed a handshake
	AckReceived Type = "ack-received"

	// NakReceived is emitted when a DHCPNAK forced a client to restart
	NakReceived Type = "nak-received"

	// UnknownXID is emitted for inbound messages that do not match any
	// client in the fleet
	UnknownXID Type = "unknown-xid"
)

// Types holds all known event types
var Types = []Type{
	DiscoverSent,
	OfferReceived,
	RequestSent,
	AckReceived,
	NakReceived,
	UnknownXID,
}

// Event is a single step of a client handshake
type Event struct {
	// Type is the kind of event
	Type Type

	// Seq is the per-type sequence number of the event
	Seq uint64

	// HwAddr is the identity of the client. It is nil for UnknownXID
	HwAddr net.HardwareAddr

	// XID is the transaction ID of the message sent or received
	XID uint32

	// Attempt is the 1-based handshake attempt of the client
	Attempt int

	// YourIP is the address offered or acknowledged by the server
	YourIP net.IP

	// ServerIP is the address of the offering server
	ServerIP net.IP

	// Started is the time the first attempt of the client was created
	Started time.Time

	// Time is the time the event occurred
	Time time.Time
}

// Duration returns the time between the first attempt of the client
// and the event
func (e *Event) Duration() time.Duration {
	if e.Started.IsZero() {
		return 0
	}

	return e.Time.Sub(e.Started)
}

// Sent reports whether the event describes an outbound message
func (e *Event) Sent() bool {
	return e.Type == DiscoverSent || e.Type == RequestSent
}
