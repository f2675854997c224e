package drivers

import (
	// import all supported drivers
	_ "github.com/nextdhcp/dhcpester/core/results/storage/drivers/bolt"
	_ "github.com/nextdhcp/dhcpester/core/results/storage/drivers/memory"
)
