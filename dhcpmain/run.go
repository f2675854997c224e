package dhcpmain

import (
	"flag"
	"os"
	"strconv"

	"github.com/apex/log"
	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/dhcpester/core/dhcpester"
	"github.com/nextdhcp/dhcpester/core/socket"
)

var (
	conf       string
	iface      string
	rmemMax    int
	serverType = "dhcpester"
)

// DefaultClientCount is used if the client count argument is missing
// or not a number
const DefaultClientCount = 5

func init() {
	caddy.DefaultConfigFile = dhcpester.DefaultFile
	caddy.Quiet = false

	flag.StringVar(&conf, "conf", "", "Dhcpesterfile to load (default \""+caddy.DefaultConfigFile+"\")")
	flag.StringVar(&iface, "iface", "", "network interface used without a Dhcpesterfile (default: first usable interface)")
	flag.IntVar(&rmemMax, "rmem", socket.DefaultRmemMax, "value written to "+socket.RmemMaxPath)

	caddy.RegisterCaddyfileLoader("flag", caddy.LoaderFunc(configLoader))
	caddy.SetDefaultCaddyfileLoader("default", caddy.LoaderFunc(defaultLoader))

	caddy.AppName = "dhcpester"
	caddy.AppVersion = "v0.1.0"
}

// Run starts dhcpester and blocks until all fleets finished
func Run() {
	flag.Parse()

	dhcpester.DefaultClients = ParseClientCount(flag.Arg(0), log.Log)
	dhcpester.DefaultInterface = iface

	if err := socket.SetReceiveBufferMax(socket.RmemMaxPath, rmemMax); err != nil {
		log.Fatalf("failed to raise the socket receive buffer limit: %s", err)
	}

	caddy.TrapSignals()

	dhcpfile, err := caddy.LoadCaddyfile(serverType)
	if err != nil {
		log.Fatalf("%s", err)
	}

	instance, err := caddy.Start(dhcpfile)
	if err != nil {
		log.Fatalf("%s", err)
	}

	instance.Wait()

	for _, err := range instance.ShutdownCallbacks() {
		log.Errorf("shutdown: %s", err)
	}
}

// ParseClientCount parses the number of clients to emulate. A missing or
// non-numeric value is replaced by DefaultClientCount, negative counts
// emulate no clients at all
func ParseClientCount(arg string, l log.Interface) int {
	if arg == "" {
		l.Warnf("no client count given, using %d", DefaultClientCount)
		return DefaultClientCount
	}

	n, err := strconv.Atoi(arg)
	if err != nil {
		l.Warnf("invalid client count %q, using %d", arg, DefaultClientCount)
		return DefaultClientCount
	}

	if n < 0 {
		l.Warnf("negative client count %d, emulating no clients", n)
		return 0
	}

	return n
}

func configLoader(serverType string) (caddy.Input, error) {
	if conf == "" {
		return nil, nil
	}

	if conf == "stdin" || conf == "-" {
		return caddy.CaddyfileFromPipe(os.Stdin, serverType)
	}

	file, err := os.ReadFile(conf)
	if err != nil {
		return nil, err
	}

	return caddy.CaddyfileInput{
		Contents:       file,
		Filepath:       conf,
		ServerTypeName: serverType,
	}, nil
}

func defaultLoader(serverType string) (caddy.Input, error) {
	if _, err := os.Stat(caddy.DefaultConfigFile); os.IsNotExist(err) {
		return nil, nil
	}

	conf = caddy.DefaultConfigFile
	return configLoader(serverType)
}
