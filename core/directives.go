package core

import (
	// Register the dhcpester server type
	_ "github.com/nextdhcp/dhcpester/core/dhcpester"

	// Include all built-in directives
	_ "github.com/nextdhcp/dhcpester/plugin/clients"
	_ "github.com/nextdhcp/dhcpester/plugin/database"
	_ "github.com/nextdhcp/dhcpester/plugin/expect"
	_ "github.com/nextdhcp/dhcpester/plugin/gotify"
	_ "github.com/nextdhcp/dhcpester/plugin/identity"
	_ "github.com/nextdhcp/dhcpester/plugin/log"
	_ "github.com/nextdhcp/dhcpester/plugin/lua"
	_ "github.com/nextdhcp/dhcpester/plugin/mqtt"
	_ "github.com/nextdhcp/dhcpester/plugin/prometheus"

	// And the result storage drivers
	_ "github.com/nextdhcp/dhcpester/core/results/storage/drivers"
)
