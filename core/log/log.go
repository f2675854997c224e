// Package log configures the apex/log loggers used by dhcpester
package log

import (
	"fmt"
	"io"
	"net"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/discard"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/mattn/go-isatty"
)

// Supported output formats
const (
	FormatAuto = ""
	FormatCLI  = "cli"
	FormatText = "text"
	FormatJSON = "json"
)

// NewHandler returns the apex log handler for format writing to w.
// FormatAuto selects the cli handler if w is a terminal and text otherwise.
// All handlers serialize writes to w.
func NewHandler(w io.Writer, format string) (log.Handler, error) {
	switch format {
	case FormatAuto:
		if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			return cli.New(w), nil
		}
		return text.New(w), nil
	case FormatCLI:
		return cli.New(w), nil
	case FormatText:
		return text.New(w), nil
	case FormatJSON:
		return json.New(w), nil
	}

	return nil, fmt.Errorf("unknown log format %q", format)
}

// New returns a new logger writing to w
func New(w io.Writer, level log.Level, format string) (*log.Logger, error) {
	h, err := NewHandler(w, format)
	if err != nil {
		return nil, err
	}

	return &log.Logger{
		Handler: h,
		Level:   level,
	}, nil
}

// Default returns an info level logger writing to stdout
func Default() *log.Logger {
	l, _ := New(os.Stdout, log.InfoLevel, FormatAuto)
	return l
}

// Discard returns a logger that drops everything
func Discard() *log.Logger {
	return &log.Logger{
		Handler: discard.New(),
		Level:   log.FatalLevel,
	}
}

// ClientFields returns the log fields identifying a client attempt
func ClientFields(hwaddr net.HardwareAddr, xid uint32, attempt int) log.Fields {
	fields := log.Fields{
		"xid":     fmt.Sprintf("0x%08x", xid),
		"attempt": attempt,
	}

	if hwaddr != nil {
		fields["hwaddr"] = hwaddr.String()
	}

	return fields
}
