// Package identity generates the hardware addresses used by
// emulated DHCP clients
package identity

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"strings"
	"sync"
)

// DefaultPrefix is the vendor prefix of generated hardware addresses
var DefaultPrefix = net.HardwareAddr{0xde, 0xad}

// upper bounds (inclusive) per address byte for the randomized part
var byteLimits = [6]int{0xff, 0xff, 0x29, 0x7f, 0xff, 0xff}

// maxUniqueTries is the number of draws before a unique Generator gives up
const maxUniqueTries = 1000

// ErrExhausted is returned by a unique Generator that failed to find an unused
// hardware address
var ErrExhausted = errors.New("identity: unable to generate an unused hardware address")

// Generator creates random 6 byte hardware addresses that share
// a common prefix
type Generator struct {
	prefix net.HardwareAddr
	unique bool

	l    sync.Mutex
	rnd  *rand.Rand
	seen map[string]struct{}
}

// NewGenerator returns a new generator for prefix. If unique is set the generator
// never returns the same address twice
func NewGenerator(prefix net.HardwareAddr, unique bool) (*Generator, error) {
	return NewGeneratorWithSource(prefix, unique, rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewGeneratorWithSource is like NewGenerator but uses src for randomness
func NewGeneratorWithSource(prefix net.HardwareAddr, unique bool, src rand.Source) (*Generator, error) {
	if len(prefix) >= len(byteLimits) {
		return nil, fmt.Errorf("identity: prefix %s leaves no room for random bytes", prefix)
	}

	return &Generator{
		prefix: append(net.HardwareAddr(nil), prefix...),
		unique: unique,
		rnd:    rand.New(src),
		seen:   make(map[string]struct{}),
	}, nil
}

// Next returns the next hardware address
func (g *Generator) Next() (net.HardwareAddr, error) {
	g.l.Lock()
	defer g.l.Unlock()

	if !g.unique {
		return g.draw(), nil
	}

	for i := 0; i < maxUniqueTries; i++ {
		hw := g.draw()
		if _, ok := g.seen[hw.String()]; ok {
			continue
		}

		g.seen[hw.String()] = struct{}{}
		return hw, nil
	}

	return nil, ErrExhausted
}

// Unique reports whether g never repeats an address
func (g *Generator) Unique() bool {
	return g.unique
}

func (g *Generator) draw() net.HardwareAddr {
	hw := make(net.HardwareAddr, len(byteLimits))
	copy(hw, g.prefix)

	for i := len(g.prefix); i < len(hw); i++ {
		hw[i] = byte(g.rnd.IntN(byteLimits[i] + 1))
	}

	return hw
}

// ParsePrefix parses a colon separated vendor prefix like "DE:AD"
func ParsePrefix(s string) (net.HardwareAddr, error) {
	if s == "" {
		return nil, errors.New("identity: empty prefix")
	}

	parts := strings.Split(s, ":")
	if len(parts) >= len(byteLimits) {
		return nil, fmt.Errorf("identity: prefix %q is too long", s)
	}

	prefix := make(net.HardwareAddr, 0, len(parts))
	for _, p := range parts {
		if len(p) != 2 {
			return nil, fmt.Errorf("identity: invalid prefix byte %q", p)
		}

		b, err := hex.DecodeString(p)
		if err != nil {
			return nil, fmt.Errorf("identity: invalid prefix byte %q: %w", p, err)
		}

		prefix = append(prefix, b[0])
	}

	return prefix, nil
}
