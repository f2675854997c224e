package log

import (
	"bytes"
	"io"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/nextdhcp/dhcpester/core/dhcpester"
	"github.com/nextdhcp/dhcpester/plugin/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCloser struct {
	*bytes.Buffer
	closed bool
}

func (n *nopCloser) Close() error {
	n.closed = true
	return nil
}

func TestSetupLogging(t *testing.T) {
	t.Run("level only", func(t *testing.T) {
		c := test.CreateTestBed(t, "log debug")
		require.NoError(t, setupLogging(c))

		l, ok := dhcpester.GetConfig(c).Logger.(*log.Logger)
		require.True(t, ok)
		assert.Equal(t, log.DebugLevel, l.Level)
	})

	t.Run("format", func(t *testing.T) {
		c := test.CreateTestBed(t, `log warn {
			format json
		}`)
		require.NoError(t, setupLogging(c))

		l := dhcpester.GetConfig(c).Logger.(*log.Logger)
		assert.Equal(t, log.WarnLevel, l.Level)
		assert.IsType(t, &json.Handler{}, l.Handler)
	})

	t.Run("output", func(t *testing.T) {
		buf := &nopCloser{Buffer: new(bytes.Buffer)}
		var opened string

		old := openFile
		defer func() { openFile = old }()
		openFile = func(path string) (io.WriteCloser, error) {
			opened = path
			return buf, nil
		}

		c := test.CreateTestBed(t, `log info {
			format text
			output /var/log/dhcpester.log
		}`)
		require.NoError(t, setupLogging(c))
		assert.Equal(t, "/var/log/dhcpester.log", opened)

		l := dhcpester.GetConfig(c).Logger.(*log.Logger)
		assert.IsType(t, &text.Handler{}, l.Handler)

		l.Info("hello")
		assert.Contains(t, buf.String(), "hello")
	})

	t.Run("invalid", func(t *testing.T) {
		inputs := []string{
			"log",
			"log nonsense",
			"log info extra",
			"log info {\n format\n }",
			"log info {\n format xml\n }",
			"log info {\n color red\n }",
			"log info {\n output a b\n }",
		}

		for _, i := range inputs {
			c := test.CreateTestBed(t, i)
			assert.Error(t, setupLogging(c), i)
		}
	})
}
