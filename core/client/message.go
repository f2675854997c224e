package client

import (
	"net"

	"github.com/insomniacslk/dhcp/dhcpv4"
)

// NewDiscover returns a broadcast DHCPDISCOVER for hwaddr
func NewDiscover(hwaddr net.HardwareAddr, xid uint32) (*dhcpv4.DHCPv4, error) {
	return dhcpv4.New(
		dhcpv4.WithHwAddr(hwaddr),
		dhcpv4.WithTransactionID(ToTransactionID(xid)),
		dhcpv4.WithMessageType(dhcpv4.MessageTypeDiscover),
		dhcpv4.WithBroadcast(true),
	)
}

// NewRequest returns a broadcast DHCPREQUEST accepting the address
// requested as offered by server
func NewRequest(hwaddr net.HardwareAddr, xid uint32, server, requested net.IP) (*dhcpv4.DHCPv4, error) {
	mods := []dhcpv4.Modifier{
		dhcpv4.WithHwAddr(hwaddr),
		dhcpv4.WithTransactionID(ToTransactionID(xid)),
		dhcpv4.WithMessageType(dhcpv4.MessageTypeRequest),
		dhcpv4.WithBroadcast(true),
	}

	if server != nil {
		mods = append(mods, dhcpv4.WithOption(dhcpv4.OptServerIdentifier(server)))
	}

	if requested != nil {
		mods = append(mods, dhcpv4.WithOption(dhcpv4.OptRequestedIPAddress(requested)))
	}

	return dhcpv4.New(mods...)
}
