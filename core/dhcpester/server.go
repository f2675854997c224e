package dhcpester

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/caddyserver/caddy"
	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/nextdhcp/dhcpester/core/client"
	"github.com/nextdhcp/dhcpester/core/dispatcher"
	"github.com/nextdhcp/dhcpester/core/events"
	"github.com/nextdhcp/dhcpester/core/fleet"
	"github.com/nextdhcp/dhcpester/core/identity"
	"github.com/nextdhcp/dhcpester/core/socket"
)

// maxRedraws limits how often an identity colliding with a client
// already in the fleet is replaced while the fleet is populated
const maxRedraws = 1000

// Transport sends frames of emulated clients and streams the DHCP
// replies captured on the interface
type Transport interface {
	client.Sender

	// Stream returns all inbound messages accepted by filter until ctx
	// is cancelled or the transport is closed
	Stream(ctx context.Context, filter socket.Filter) <-chan *dhcpv4.DHCPv4
}

// Server emulates a fleet of DHCP clients on a single network
// interface. The fleet is started as soon as the packet socket is
// served and the server stops once every client completed its
// handshake
type Server struct {
	cfg *Config

	l      sync.Mutex
	cancel context.CancelFunc
}

// NewServer returns a new server for cfg
func NewServer(cfg *Config) *Server {
	return &Server{cfg: cfg}
}

// Serve is a NO-OP as TCP is not used by dhcpester. It
// implements the caddy.TCPServer interface
func (s *Server) Serve(l net.Listener) error {
	return nil
}

// Listen does nothing as TCP is not used. It implements the
// caddy.TCPServer interface
func (s *Server) Listen() (net.Listener, error) {
	return nil, nil
}

// ListenPacket opens the raw socket on the configured interface.
// This implements the caddy.UDPServer interface
func (s *Server) ListenPacket() (net.PacketConn, error) {
	return socket.Listen(s.cfg.Log(), s.cfg.Interface)
}

// ServePacket runs the fleet on c and blocks until all clients completed
// their handshake or the server is stopped. This implements the
// caddy.UDPServer interface
func (s *Server) ServePacket(c net.PacketConn) error {
	conn, ok := c.(*socket.Conn)
	if !ok {
		return errors.New("expected socket.Conn")
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.l.Lock()
	s.cancel = cancel
	s.l.Unlock()

	summary, err := s.Run(ctx, conn)
	if summary != nil {
		s.cfg.Log().Info(summary.String())
		events.EmitSummary(summary)
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// Stop cancels a running fleet. Clients still waiting for a reply
// are abandoned
func (s *Server) Stop() error {
	s.l.Lock()
	defer s.l.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	return nil
}

// Address returns the server block key of the server
func (s *Server) Address() string {
	return s.cfg.Key
}

// WrapListener returns ln unchanged
func (s *Server) WrapListener(ln net.Listener) net.Listener {
	return ln
}

// OnStartupComplete is called when all serves of the same instance have
// been started. It implements the caddy.AfterStarup interface
func (s *Server) OnStartupComplete() {
	info := getStartupInfo([]*Config{s.cfg})
	if info != "" {
		// Print not Println because info contains a trailing new line
		fmt.Print(info)
	}
}

// Run populates a fleet with the configured number of clients, starts
// all of them and dispatches the replies received on t until the fleet
// is empty. The returned summary is nil if the fleet could not be
// populated
func (s *Server) Run(ctx context.Context, t Transport) (*events.Summary, error) {
	gen, err := identity.NewGenerator(s.cfg.Prefix, s.cfg.Unique)
	if err != nil {
		return nil, err
	}

	settings := &client.Settings{
		Transport: t,
		Logger:    s.cfg.Log(),
		Counters:  events.NewCounters(),
		Handler:   s.cfg.chain,
	}

	f, err := populate(settings, gen, s.cfg.Clients)
	if err != nil {
		return nil, err
	}

	summary := &events.Summary{
		Clients: s.cfg.Clients,
		Started: time.Now(),
	}
	if s.cfg.Interface != nil {
		summary.Interface = s.cfg.Interface.Name
	}

	// replies may arrive before the last client sent its DISCOVER
	msgs := t.Stream(ctx, socket.ClientPortFilter)

	for _, a := range f.Attempts() {
		a.Start(ctx)
	}

	err = dispatcher.New(settings, f).Run(ctx, msgs)

	summary.Finished = time.Now()
	summary.Counts = settings.Counters.Snapshot()

	return summary, err
}

func populate(s *client.Settings, gen *identity.Generator, n int) (*fleet.Fleet, error) {
	f := fleet.New()
	redraws := 0

	for f.Len() < n {
		hwaddr, err := gen.Next()
		if err != nil {
			return nil, err
		}

		err = f.Add(client.New(s, hwaddr))
		if errors.Is(err, fleet.ErrDuplicateIdentity) {
			redraws++
			if redraws > maxRedraws {
				return nil, fmt.Errorf("failed to populate fleet: %w", err)
			}

			s.Log().Debugf("[dhcpester] redrawing duplicate identity %s", hwaddr)
			continue
		}

		if err != nil {
			return nil, err
		}
	}

	return f, nil
}

// Compile-Time check
var _ caddy.Server = &Server{}
