package dhcpester

import (
	"fmt"
	"net"

	"github.com/nextdhcp/dhcpester/core/utils/iface"
)

// autoInterface selects the first usable network interface
const autoInterface = "auto"

// lookupInterface and defaultInterface are replaced during tests
var (
	lookupInterface  = iface.Lookup
	defaultInterface = iface.Default
)

func findInterface(cfg *Config) error {
	if cfg.Interface != nil && len(cfg.Interface.HardwareAddr) > 0 {
		return nil
	}

	lookup := lookupInterface
	if cfg.Key == autoInterface {
		lookup = func(string) (*net.Interface, error) { return defaultInterface() }
	}

	i, err := lookup(cfg.Key)
	if err != nil {
		return err
	}

	if !iface.Usable(i) {
		return fmt.Errorf("interface %s is down, a loopback device or has no ethernet address", i.Name)
	}

	cfg.Interface = i
	return nil
}
