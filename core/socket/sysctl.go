package socket

import (
	"fmt"
	"os"
	"strconv"
)

const (
	// RmemMaxPath is the sysctl controlling the maximum receive buffer size
	// of sockets
	RmemMaxPath = "/proc/sys/net/core/rmem_max"

	// DefaultRmemMax is large enough to not drop replies of a few thousand
	// clients while the dispatcher is busy
	DefaultRmemMax = 1000000
)

// SetReceiveBufferMax writes size to the sysctl file at path
func SetReceiveBufferMax(path string, size int) error {
	if size <= 0 {
		return fmt.Errorf("invalid receive buffer size %d", size)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	if _, err := f.WriteString(strconv.Itoa(size)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return f.Close()
}
