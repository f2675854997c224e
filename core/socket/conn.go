package socket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/google/gopacket/layers"
	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/mdlayher/raw"
)

// frameSize is large enough for any non-jumbo Ethernet frame
const frameSize = 1522

// streamBuffer is the number of decoded messages queued for a slow reader
const streamBuffer = 1024

// packetConn is the subset of *raw.Conn used by Conn
type packetConn interface {
	net.PacketConn
	SetPromiscuous(b bool) error
}

var rawListenPacket = func(iface *net.Interface) (packetConn, error) {
	c, err := raw.ListenPacket(iface, uint16(layers.EthernetTypeIPv4), nil)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Conn sends and captures raw Ethernet frames on a single network interface.
// It implements net.PacketConn: ReadFrom returns the DHCP payloads of frames
// sent to the DHCP client port and WriteTo transmits complete frames.
type Conn struct {
	raw   packetConn
	iface *net.Interface
	l     log.Interface

	closeOnce sync.Once
	closed    chan struct{}
}

// Listen opens an AF_PACKET socket on iface and switches it into
// promiscuous mode so replies unicast to emulated clients are captured
func Listen(l log.Interface, iface *net.Interface) (*Conn, error) {
	if iface == nil {
		return nil, errors.New("no interface")
	}

	r, err := rawListenPacket(iface)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw socket on %s: %w", iface.Name, err)
	}

	if err := r.SetPromiscuous(true); err != nil {
		l.Warnf("[socket] failed to enable promiscuous mode on %s: %s", iface.Name, err)
	}

	return newConn(r, iface, l), nil
}

func newConn(r packetConn, iface *net.Interface, l log.Interface) *Conn {
	return &Conn{
		raw:    r,
		iface:  iface,
		l:      l,
		closed: make(chan struct{}),
	}
}

// Interface returns the network interface the socket is bound to
func (c *Conn) Interface() *net.Interface {
	return c.iface
}

// Send transmits a pre-built Ethernet frame. Delivery is best effort
func (c *Conn) Send(frame []byte) error {
	_, err := c.raw.WriteTo(frame, &raw.Addr{HardwareAddr: layers.EthernetBroadcast})
	return err
}

// Stream captures frames until ctx is cancelled or the socket is closed and
// delivers all DHCPv4 messages accepted by filter on the returned channel. The
// channel is closed when capturing stops. Stream must only be called once.
func (c *Conn) Stream(ctx context.Context, filter Filter) <-chan *dhcpv4.DHCPv4 {
	ch := make(chan *dhcpv4.DHCPv4, streamBuffer)

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			// unblock a pending read
			c.raw.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	go func() {
		defer close(ch)
		defer close(stop)

		for {
			frame, err := c.readFrame()
			if err != nil {
				if ctx.Err() != nil || c.isClosed() || errors.Is(err, net.ErrClosed) {
					return
				}

				if errors.Is(err, os.ErrDeadlineExceeded) {
					continue
				}

				c.l.Errorf("[socket] failed to read from %s: %s", c.iface.Name, err)
				return
			}

			msg, err := Decode(frame, filter)
			if err != nil {
				if err != ErrFiltered {
					c.l.Debugf("[socket] dropping undecodable frame: %s", err)
				}
				continue
			}

			select {
			case ch <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

func (c *Conn) readFrame() ([]byte, error) {
	buf := make([]byte, frameSize)
	n, _, err := c.raw.ReadFrom(buf)
	if err != nil {
		return nil, err
	}

	return buf[:n], nil
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// ReadFrom implements net.PacketConn and returns the DHCP payload of the
// next frame sent to the DHCP client port
func (c *Conn) ReadFrom(b []byte) (int, net.Addr, error) {
	for {
		frame, err := c.readFrame()
		if err != nil {
			return 0, nil, err
		}

		msg, err := Decode(frame, ClientPortFilter)
		if err != nil {
			continue
		}

		payload := msg.ToBytes()
		if len(b) < len(payload) {
			return 0, nil, fmt.Errorf("buffer too small: %d < %d", len(b), len(payload))
		}

		n := copy(b, payload)
		return n, &Addr{MAC: sourceMAC(frame)}, nil
	}
}

// sourceMAC returns the source hardware address of an Ethernet frame
func sourceMAC(frame []byte) net.HardwareAddr {
	if len(frame) < 12 {
		return nil
	}

	return append(net.HardwareAddr(nil), frame[6:12]...)
}

// WriteTo implements net.PacketConn and transmits b as a complete frame
func (c *Conn) WriteTo(b []byte, addr net.Addr) (int, error) {
	return c.raw.WriteTo(b, &raw.Addr{HardwareAddr: layers.EthernetBroadcast})
}

// Close closes the underlying socket
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.raw.Close()
	})

	return err
}

// LocalAddr returns the hardware address of the interface
func (c *Conn) LocalAddr() net.Addr {
	return &Addr{MAC: c.iface.HardwareAddr, Interface: c.iface.Name}
}

// SetDeadline implements net.PacketConn
func (c *Conn) SetDeadline(t time.Time) error {
	return c.raw.SetDeadline(t)
}

// SetReadDeadline implements net.PacketConn
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.raw.SetReadDeadline(t)
}

// SetWriteDeadline implements net.PacketConn
func (c *Conn) SetWriteDeadline(t time.Time) error {
	return c.raw.SetWriteDeadline(t)
}

var _ net.PacketConn = &Conn{}
