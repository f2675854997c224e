package socket

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetReceiveBufferMax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rmem_max")
	require.NoError(t, os.WriteFile(path, []byte("212992\n"), 0o600))

	require.NoError(t, SetReceiveBufferMax(path, DefaultRmemMax))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1000000", string(content))

	assert.Error(t, SetReceiveBufferMax(path, 0))
	assert.Error(t, SetReceiveBufferMax(filepath.Join(t.TempDir(), "missing", "rmem_max"), DefaultRmemMax))
}
