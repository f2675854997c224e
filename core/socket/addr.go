package socket

import (
	"fmt"
	"net"
)

// Addr is the link-layer address of a raw DHCP socket
type Addr struct {
	MAC       net.HardwareAddr
	Interface string
}

// Network returns "udp(raw)" and implements net.Addr
func (a *Addr) Network() string {
	return "udp(raw)"
}

// String returns a string representation of the address
func (a *Addr) String() string {
	if a.Interface == "" {
		return fmt.Sprintf("<%s>", a.MAC)
	}

	return fmt.Sprintf("%s<%s>", a.Interface, a.MAC)
}

// Compile time check
var _ net.Addr = &Addr{}
