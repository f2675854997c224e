package lua

import (
	"strings"

	"github.com/apex/log"
	"github.com/nextdhcp/dhcpester/core/events"
	lua "github.com/yuin/gopher-lua"
)

// Module exposes dhcpester specific globals to lua scripts
type Module struct {
	l log.Interface
}

// Setup configures the lua state L and adds global symbols for event
// types and logging
func (m *Module) Setup(L *lua.LState) error {
	for _, t := range events.Types {
		L.SetGlobal(constName(t), lua.LString(t))
	}

	// log("info", "hello")
	L.SetGlobal("log", L.NewFunction(m.luaLog))

	return nil
}

// constName returns the lua global for t, e.g. DISCOVER_SENT
func constName(t events.Type) string {
	return strings.ToUpper(strings.ReplaceAll(string(t), "-", "_"))
}

func (m *Module) luaLog(L *lua.LState) int {
	level, ok := L.Get(1).(lua.LString)
	if !ok {
		L.ArgError(1, "expected a log level")
		return 0
	}

	lvl, err := log.ParseLevel(string(level))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}

	msg := L.CheckString(2)

	if m.l == nil {
		return 0
	}

	entry := m.l.WithField("source", "lua")
	switch lvl {
	case log.DebugLevel:
		entry.Debug(msg)
	case log.InfoLevel:
		entry.Info(msg)
	case log.WarnLevel:
		entry.Warn(msg)
	default:
		entry.Error(msg)
	}

	return 0
}
