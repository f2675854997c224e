package dhcpester

import "fmt"

func getStartupInfo(cfg []*Config) string {
	s := ""

	for _, c := range cfg {
		if c.Interface == nil {
			continue
		}

		s += fmt.Sprintf("\t%d clients on %s (%s)\n", c.Clients, c.Interface.Name, c.Interface.HardwareAddr)
	}

	if s != "" {
		s = "Emulating the following fleets\n" + s
	}

	return s
}
