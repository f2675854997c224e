// Package iface contains utility methods for interacting with
// network interface
package iface

import (
	"fmt"
	"net"
)

// ByIP searches for the network interface that has
// ip assigned to it. The IP address must be the same, IPs in
// the same subnet do not count as a match
func ByIP(ip net.IP) (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			return nil, err
		}

		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}

			if ipNet.IP.Equal(ip) {
				return &iface, nil
			}
		}
	}

	return nil, fmt.Errorf("failed to find interface for %s", ip.String())
}

// Contains searches for the network interface that
// contains the given IP address in one of it's attached local networks
func Contains(ip net.IP) (*net.Interface, *net.IPNet, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, nil, err
	}

	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			return nil, nil, err
		}

		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}

			if ipNet.Contains(ip) {
				return &iface, ipNet, nil
			}

		}
	}

	return nil, nil, fmt.Errorf("failed to find interface with %s", ip.String())
}

// Lookup returns the network interface identified by value. value may
// be the name of the interface, an IP address assigned to it or a CIDR
// network notation of one of its attached networks
func Lookup(value string) (*net.Interface, error) {
	if iface, err := net.InterfaceByName(value); err == nil {
		return iface, nil
	}

	if ip, _, err := net.ParseCIDR(value); err == nil {
		iface, _, err := Contains(ip)
		return iface, err
	}

	if ip := net.ParseIP(value); ip != nil {
		if iface, err := ByIP(ip); err == nil {
			return iface, nil
		}

		iface, _, err := Contains(ip)
		return iface, err
	}

	return nil, fmt.Errorf("%q is neither an interface name nor an IP address", value)
}

// Default returns the first network interface that is up, is not a
// loopback device and has a hardware address
func Default() (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if !Usable(&iface) {
			continue
		}

		return &iface, nil
	}

	return nil, fmt.Errorf("no usable network interface found")
}

// Usable reports whether raw ethernet frames can be sent on iface
func Usable(iface *net.Interface) bool {
	return iface.Flags&net.FlagUp != 0 &&
		iface.Flags&net.FlagLoopback == 0 &&
		len(iface.HardwareAddr) == 6
}
