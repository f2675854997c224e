package dhcpester

// Directives that we register at caddy. The order of the list is the
// order of the plugin chain
var Directives = []string{
	"log",
	"identity",
	"clients",
	"expect",
	"database",
	"prometheus",
	"lua",
	"mqtt",
	"gotify",
}
