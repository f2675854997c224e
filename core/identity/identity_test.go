package identity

import (
	"math/rand/v2"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Next(t *testing.T) {
	g, err := NewGeneratorWithSource(DefaultPrefix, false, rand.NewPCG(1, 2))
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		hw, err := g.Next()
		require.NoError(t, err)
		require.Len(t, hw, 6)

		assert.Equal(t, byte(0xde), hw[0])
		assert.Equal(t, byte(0xad), hw[1])
		assert.LessOrEqual(t, hw[2], byte(0x29))
		assert.LessOrEqual(t, hw[3], byte(0x7f))
	}
}

func TestGenerator_Unique(t *testing.T) {
	g, err := NewGenerator(net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee}, true)
	require.NoError(t, err)
	assert.True(t, g.Unique())

	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		hw, err := g.Next()
		require.NoError(t, err)
		assert.False(t, seen[hw.String()], "duplicate address %s", hw)
		seen[hw.String()] = true
	}

	// mark every remaining address as used
	for i := 0; i < 256; i++ {
		g.seen[net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, byte(i)}.String()] = struct{}{}
	}

	_, err = g.Next()
	assert.Equal(t, ErrExhausted, err)
}

func TestNewGenerator_prefixTooLong(t *testing.T) {
	_, err := NewGenerator(net.HardwareAddr{1, 2, 3, 4, 5, 6}, false)
	assert.Error(t, err)
}

func TestParsePrefix(t *testing.T) {
	cases := []struct {
		I string
		E net.HardwareAddr
		R bool
	}{
		{"DE:AD", net.HardwareAddr{0xde, 0xad}, false},
		{"aa", net.HardwareAddr{0xaa}, false},
		{"AA:BB:CC:00:01", net.HardwareAddr{0xaa, 0xbb, 0xcc, 0x00, 0x01}, false},
		{"", nil, true},
		{"AA:BB:CC:00:01:02", nil, true},
		{"A:BB", nil, true},
		{"ZZ", nil, true},
	}

	for _, c := range cases {
		p, err := ParsePrefix(c.I)
		if c.R {
			assert.Error(t, err, c.I)
			continue
		}

		assert.NoError(t, err, c.I)
		assert.Equal(t, c.E, p, c.I)
	}
}
