package main

import (
	_ "github.com/nextdhcp/dhcpester/core"
	"github.com/nextdhcp/dhcpester/dhcpmain"
)

func main() {
	dhcpmain.Run()
}
