package socket

import (
	"errors"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/insomniacslk/dhcp/dhcpv4"
)

// ErrFiltered is returned by Decode for frames rejected by the filter
var ErrFiltered = errors.New("frame filtered")

// Filter decides whether a captured frame should be processed
type Filter func(p gopacket.Packet) bool

// ClientPortFilter accepts UDP datagrams sent to the DHCP client port
func ClientPortFilter(p gopacket.Packet) bool {
	return udpDstPort(p, dhcpv4.ClientPort)
}

// ServerPortFilter accepts UDP datagrams sent to the DHCP server port
func ServerPortFilter(p gopacket.Packet) bool {
	return udpDstPort(p, dhcpv4.ServerPort)
}

func udpDstPort(p gopacket.Packet, port int) bool {
	udp, ok := p.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if !ok {
		return false
	}

	return udp.DstPort == layers.UDPPort(port)
}

// BroadcastFrame wraps payload into an Ethernet, IPv4 and UDP frame as sent by
// a DHCP client that has no address yet: 0.0.0.0:68 -> 255.255.255.255:67 with
// srcMAC as the source and the Ethernet broadcast address as destination
func BroadcastFrame(srcMAC net.HardwareAddr, payload []byte) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()

	opts := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}

	ethernet := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       layers.EthernetBroadcast,
		EthernetType: layers.EthernetTypeIPv4,
	}

	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		SrcIP:    net.IPv4zero,
		DstIP:    net.IPv4bcast,
		Protocol: layers.IPProtocolUDP,
	}

	udp := &layers.UDP{
		SrcPort: layers.UDPPort(dhcpv4.ClientPort),
		DstPort: layers.UDPPort(dhcpv4.ServerPort),
	}

	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	err := gopacket.SerializeLayers(buf, opts,
		ethernet,
		ip,
		udp,
		gopacket.Payload(payload))

	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses an Ethernet frame and returns the DHCPv4 message it carries.
// ErrFiltered is returned if filter rejects the frame
func Decode(frame []byte, filter Filter) (*dhcpv4.DHCPv4, error) {
	p := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)

	if filter != nil && !filter(p) {
		return nil, ErrFiltered
	}

	udp, ok := p.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if !ok {
		return nil, ErrFiltered
	}

	return dhcpv4.FromBytes(udp.Payload)
}
