// Package client implements a single emulated DHCP client handshake.
//
// An Attempt runs on its own goroutine: it sends a DHCPDISCOVER, waits on a
// two-party rendezvous until the dispatcher matched a DHCPOFFER to it and
// finally sends a DHCPREQUEST for the offered address. ACK and NAK handling
// is left to the dispatcher.
package client

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/apex/log"
	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/nextdhcp/dhcpester/core/events"
	corelog "github.com/nextdhcp/dhcpester/core/log"
	"github.com/nextdhcp/dhcpester/core/rendezvous"
	"github.com/nextdhcp/dhcpester/core/socket"
	"github.com/nextdhcp/dhcpester/plugin"
)

// Sender transmits complete link-layer frames
type Sender interface {
	Send(frame []byte) error
}

// Settings are shared by all attempts of a run and the dispatcher
type Settings struct {
	// Transport is used to send DISCOVER and REQUEST frames
	Transport Sender

	// Logger receives handshake logs
	Logger log.Interface

	// Counters provides the global per-type sequence numbers
	Counters *events.Counters

	// Handler is the plugin chain every event is passed to. Optional
	Handler plugin.Handler

	// XID draws transaction IDs. Defaults to DrawXID
	XID func() uint32
}

// Log returns the logger of the run or a discarding one
func (s *Settings) Log() log.Interface {
	if s.Logger == nil {
		return corelog.Discard()
	}
	return s.Logger
}

func (s *Settings) drawXID() uint32 {
	if s.XID == nil {
		return DrawXID()
	}
	return s.XID()
}

// Emit passes ev down the plugin chain. Handler errors are logged
func (s *Settings) Emit(ctx context.Context, ev *events.Event) {
	if s.Handler == nil {
		return
	}

	if err := s.Handler.HandleEvent(ctx, ev); err != nil {
		s.Log().Errorf("[%s] failed to handle %s event: %s", s.Handler.Name(), ev.Type, err)
	}
}

// State is the position of an attempt in the handshake
type State int32

// Attempt states
const (
	Built State = iota
	DiscoverSent
	OfferReceived
	RequestSent
)

func (s State) String() string {
	switch s {
	case Built:
		return "built"
	case DiscoverSent:
		return "discover-sent"
	case OfferReceived:
		return "offer-received"
	case RequestSent:
		return "request-sent"
	}
	return "unknown"
}

// Attempt is a single DORA handshake of an emulated client
type Attempt struct {
	s *Settings

	hwaddr      net.HardwareAddr
	number      int
	started     time.Time
	discoverXID uint32

	xid   atomic.Uint32
	state atomic.Int32

	barrier *rendezvous.Barrier

	// written by the dispatcher before it enters the rendezvous
	offered  bool
	yourIP   net.IP
	serverIP net.IP

	done chan struct{}
}

// New returns the first attempt for the client identified by hwaddr
func New(s *Settings, hwaddr net.HardwareAddr) *Attempt {
	return newAttempt(s, hwaddr, 1, time.Now(), s.drawXID())
}

func newAttempt(s *Settings, hwaddr net.HardwareAddr, number int, started time.Time, xid uint32) *Attempt {
	a := &Attempt{
		s:           s,
		hwaddr:      hwaddr,
		number:      number,
		started:     started,
		discoverXID: xid,
		barrier:     rendezvous.New(2),
		done:        make(chan struct{}),
	}
	a.xid.Store(xid)

	return a
}

// Retry returns a fresh attempt for the same client. The new attempt
// uses a transaction ID different from the current one of a
func (a *Attempt) Retry() *Attempt {
	xid := drawOther(a.s.drawXID, a.XID())
	return newAttempt(a.s, a.hwaddr, a.number+1, a.started, xid)
}

// Start runs the client side of the handshake on a new goroutine
func (a *Attempt) Start(ctx context.Context) {
	go a.run(ctx)
}

func (a *Attempt) run(ctx context.Context) {
	defer close(a.done)

	discover, err := NewDiscover(a.hwaddr, a.discoverXID)
	if err != nil {
		a.s.Log().WithFields(a.fields()).Errorf("failed to build DHCPDISCOVER: %s", err)
		return
	}

	a.send(discover)
	a.state.Store(int32(DiscoverSent))

	n := a.s.Counters.Next(events.DiscoverSent)
	a.s.Log().WithFields(a.fields()).Infof("Discover %d sent %s", n, a.hwaddr)
	// the dispatcher may already be writing the offer
	a.s.Emit(ctx, a.newEvent(events.DiscoverSent, n))

	a.barrier.Wait()
	a.state.Store(int32(OfferReceived))

	// the server echoes the REQUEST xid in its ACK or NAK so the
	// attempt must be found by the new one before it is sent
	xid := drawOther(a.s.drawXID, a.discoverXID)
	a.xid.Store(xid)

	request, err := NewRequest(a.hwaddr, xid, a.serverIP, a.yourIP)
	if err != nil {
		a.s.Log().WithFields(a.fields()).Errorf("failed to build DHCPREQUEST: %s", err)
		return
	}

	a.send(request)
	a.state.Store(int32(RequestSent))

	n = a.s.Counters.Next(events.RequestSent)
	a.s.Log().WithFields(a.fields()).Infof("Request %d sent %s", n, a.hwaddr)
	a.s.Emit(ctx, a.NewEvent(events.RequestSent, n))
}

// send frames and transmits msg. Failures are logged only, the
// attempt continues to wait for replies
func (a *Attempt) send(msg *dhcpv4.DHCPv4) {
	frame, err := socket.BroadcastFrame(a.hwaddr, msg.ToBytes())
	if err == nil {
		err = a.s.Transport.Send(frame)
	}

	if err != nil {
		a.s.Log().WithFields(a.fields()).Errorf("failed to send %s: %s", msg.MessageType(), err)
	}
}

// AcceptOffer records the offered address and the address of the offering
// server and releases the client goroutine so it can send its DHCPREQUEST.
// It blocks until the client reached the rendezvous. AcceptOffer returns
// false without blocking if an offer has already been accepted.
// It must only be called by the dispatcher.
func (a *Attempt) AcceptOffer(yourIP, serverIP net.IP) bool {
	if a.offered {
		return false
	}

	a.offered = true
	a.yourIP = yourIP
	a.serverIP = serverIP

	a.barrier.Wait()

	return true
}

// NewEvent returns an event of type t describing the current state
// of the attempt. See YourIP for when it is safe to call
func (a *Attempt) NewEvent(t events.Type, seq uint64) *events.Event {
	ev := a.newEvent(t, seq)
	ev.YourIP = a.yourIP
	ev.ServerIP = a.serverIP

	return ev
}

func (a *Attempt) newEvent(t events.Type, seq uint64) *events.Event {
	return &events.Event{
		Type:    t,
		Seq:     seq,
		HwAddr:  a.hwaddr,
		XID:     a.XID(),
		Attempt: a.number,
		Started: a.started,
		Time:    time.Now(),
	}
}

func (a *Attempt) fields() log.Fields {
	return corelog.ClientFields(a.hwaddr, a.XID(), a.number)
}

// XID returns the transaction ID replies to the attempt are matched by
func (a *Attempt) XID() uint32 {
	return a.xid.Load()
}

// DiscoverXID returns the transaction ID of the DHCPDISCOVER
func (a *Attempt) DiscoverXID() uint32 {
	return a.discoverXID
}

// HwAddr returns the identity of the client
func (a *Attempt) HwAddr() net.HardwareAddr {
	return a.hwaddr
}

// Number returns the 1-based attempt counter of the client
func (a *Attempt) Number() int {
	return a.number
}

// Started returns the time the first attempt of the client was created
func (a *Attempt) Started() time.Time {
	return a.started
}

// State returns the current handshake state
func (a *Attempt) State() State {
	return State(a.state.Load())
}

// YourIP returns the offered address. It is only safe to call from the
// dispatcher or after the client passed the rendezvous
func (a *Attempt) YourIP() net.IP {
	return a.yourIP
}

// ServerIP returns the address of the offering server. See YourIP
func (a *Attempt) ServerIP() net.IP {
	return a.serverIP
}

// Done is closed once the client goroutine finished
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}
