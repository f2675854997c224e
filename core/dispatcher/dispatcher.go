// Package dispatcher correlates inbound DHCP replies with the client attempts
// of a fleet and advances their handshakes.
package dispatcher

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/nextdhcp/dhcpester/core/client"
	"github.com/nextdhcp/dhcpester/core/events"
	"github.com/nextdhcp/dhcpester/core/fleet"
	corelog "github.com/nextdhcp/dhcpester/core/log"
)

// ErrStreamClosed is returned by Run if the inbound stream ended before
// the fleet drained
var ErrStreamClosed = errors.New("inbound stream closed")

// Dispatcher is the single consumer of inbound DHCP messages. It is the only
// one mutating the fleet
type Dispatcher struct {
	s     *client.Settings
	fleet *fleet.Fleet
}

// New returns a dispatcher for f
func New(s *client.Settings, f *fleet.Fleet) *Dispatcher {
	return &Dispatcher{
		s:     s,
		fleet: f,
	}
}

// Run handles messages until the fleet is empty. It returns nil once the
// fleet drained, ErrStreamClosed if msgs is closed or ctx.Err() if ctx
// is cancelled
func (d *Dispatcher) Run(ctx context.Context, msgs <-chan *dhcpv4.DHCPv4) error {
	for d.fleet.Len() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return ErrStreamClosed
			}

			d.Handle(ctx, msg)
		}
	}

	return nil
}

// Handle processes a single inbound message. Errors never leave Handle,
// they are logged instead
func (d *Dispatcher) Handle(ctx context.Context, msg *dhcpv4.DHCPv4) {
	if msg.OpCode != dhcpv4.OpcodeBootReply {
		d.s.Log().Debugf("[dispatcher] ignoring %s from a client", msg.MessageType())
		return
	}

	xid := client.FromTransactionID(msg.TransactionID)

	a := d.fleet.Lookup(xid)
	if a == nil {
		d.unknown(ctx, msg, xid)
		return
	}

	switch msg.MessageType() {
	case dhcpv4.MessageTypeOffer:
		d.offer(ctx, a, msg)
	case dhcpv4.MessageTypeAck:
		d.ack(ctx, a, msg)
	case dhcpv4.MessageTypeNak:
		d.nak(ctx, a)
	default:
		d.s.Log().WithFields(corelog.ClientFields(a.HwAddr(), xid, a.Number())).
			Debugf("[dispatcher] ignoring unexpected %s", msg.MessageType())
	}
}

func (d *Dispatcher) unknown(ctx context.Context, msg *dhcpv4.DHCPv4, xid uint32) {
	n := d.s.Counters.Next(events.UnknownXID)

	d.s.Log().WithFields(corelog.ClientFields(nil, xid, 0)).
		Warnf("unknown transaction id (%s for %s)", msg.MessageType(), msg.ClientHWAddr)

	d.s.Emit(ctx, &events.Event{
		Type:     events.UnknownXID,
		Seq:      n,
		HwAddr:   msg.ClientHWAddr,
		XID:      xid,
		YourIP:   msg.YourIPAddr,
		ServerIP: serverAddress(msg),
		Time:     time.Now(),
	})
}

func (d *Dispatcher) offer(ctx context.Context, a *client.Attempt, msg *dhcpv4.DHCPv4) {
	if !a.AcceptOffer(msg.YourIPAddr, serverAddress(msg)) {
		d.s.Log().WithFields(corelog.ClientFields(a.HwAddr(), a.XID(), a.Number())).
			Debugf("[dispatcher] ignoring duplicate offer of %s", msg.YourIPAddr)
		return
	}

	n := d.s.Counters.Next(events.OfferReceived)
	d.s.Log().WithFields(corelog.ClientFields(a.HwAddr(), a.DiscoverXID(), a.Number())).
		Infof("Offer %d received %s %s", n, a.HwAddr(), msg.YourIPAddr)

	ev := a.NewEvent(events.OfferReceived, n)
	ev.XID = a.DiscoverXID()
	d.s.Emit(ctx, ev)
}

func (d *Dispatcher) ack(ctx context.Context, a *client.Attempt, msg *dhcpv4.DHCPv4) {
	d.fleet.Remove(a)

	n := d.s.Counters.Next(events.AckReceived)
	d.s.Log().WithFields(corelog.ClientFields(a.HwAddr(), a.XID(), a.Number())).
		Infof("Ack %d received %s %s", n, a.HwAddr(), msg.YourIPAddr)

	ev := a.NewEvent(events.AckReceived, n)
	ev.YourIP = msg.YourIPAddr
	d.s.Emit(ctx, ev)
}

func (d *Dispatcher) nak(ctx context.Context, a *client.Attempt) {
	d.fleet.Remove(a)

	n := d.s.Counters.Next(events.NakReceived)
	d.s.Log().WithFields(corelog.ClientFields(a.HwAddr(), a.XID(), a.Number())).
		Infof("Nack %d received %s", n, a.HwAddr())

	d.s.Emit(ctx, a.NewEvent(events.NakReceived, n))

	next := a.Retry()
	if err := d.fleet.Add(next); err != nil {
		d.s.Log().Errorf("[dispatcher] failed to restart %s: %s", a.HwAddr(), err)
		return
	}

	next.Start(ctx)
}

// serverAddress returns the address of the server that sent msg. The BOOTP
// siaddr field is preferred over the server identifier option
func serverAddress(msg *dhcpv4.DHCPv4) net.IP {
	if msg.ServerIPAddr != nil && !msg.ServerIPAddr.IsUnspecified() {
		return msg.ServerIPAddr
	}

	return msg.ServerIdentifier()
}
