package lua

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/apex/log"
	"github.com/nextdhcp/dhcpester/core/events"
	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"
)

// hookName is the global lua function called for every event
const hookName = "on_event"

// Runner executes a lua script and calls its event hook. A lua VM
// is not safe for concurrent use so all calls are serialized
type Runner struct {
	l       sync.Mutex
	vm      *lua.LState
	onEvent *lua.LFunction
}

// NewFromReader creates and returns a new lua runner from the given input
// reader. The script must define a global on_event function
func NewFromReader(input io.Reader, name string, logger log.Interface) (*Runner, error) {
	vm := lua.NewState()

	mod := &Module{l: logger}
	if err := mod.Setup(vm); err != nil {
		vm.Close()
		return nil, err
	}

	fn, err := vm.Load(input, name)
	if err != nil {
		vm.Close()
		return nil, err
	}

	vm.Push(fn)
	if err := vm.PCall(0, lua.MultRet, nil); err != nil {
		vm.Close()
		return nil, err
	}

	hook, ok := vm.GetGlobal(hookName).(*lua.LFunction)
	if !ok {
		vm.Close()
		return nil, fmt.Errorf("%s: no global %s function defined", name, hookName)
	}

	return &Runner{
		vm:      vm,
		onEvent: hook,
	}, nil
}

// NewFromFile creates and returns a new Runner from the given script
func NewFromFile(filepath string, logger log.Interface) (*Runner, error) {
	reader, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return NewFromReader(reader, filepath, logger)
}

// Call passes ev to the on_event hook of the script. A table returned
// by the hook is converted to log fields, any other non-nil value is
// returned as the "result" field
func (r *Runner) Call(ev *events.Event) (log.Fields, error) {
	r.l.Lock()
	defer r.l.Unlock()

	if r.vm == nil {
		return nil, errors.New("lua runner closed")
	}

	err := r.vm.CallByParam(lua.P{
		Fn:      r.onEvent,
		NRet:    1,
		Protect: true,
	}, eventTable(r.vm, ev))
	if err != nil {
		return nil, err
	}

	ret := r.vm.Get(-1)
	r.vm.Pop(1)

	if ret == lua.LNil {
		return nil, nil
	}

	fields := log.Fields{}

	switch v := gluamapper.ToGoValue(ret, gluamapper.Option{NameFunc: gluamapper.Id}).(type) {
	case map[interface{}]interface{}:
		for key, value := range v {
			fields[fmt.Sprint(key)] = value
		}
	case []interface{}:
		for i, value := range v {
			fields[strconv.Itoa(i+1)] = value
		}
	default:
		fields["result"] = v
	}

	return fields, nil
}

// Close closes the lua VM
func (r *Runner) Close() error {
	r.l.Lock()
	defer r.l.Unlock()

	if r.vm != nil {
		r.vm.Close()
		r.vm = nil
	}

	return nil
}

func eventTable(L *lua.LState, ev *events.Event) *lua.LTable {
	tbl := L.NewTable()

	tbl.RawSetString("type", lua.LString(ev.Type))
	tbl.RawSetString("xid", lua.LNumber(ev.XID))
	tbl.RawSetString("attempt", lua.LNumber(ev.Attempt))
	tbl.RawSetString("seq", lua.LNumber(ev.Seq))
	tbl.RawSetString("sent", lua.LBool(ev.Sent()))
	tbl.RawSetString("duration", lua.LNumber(ev.Duration().Seconds()))

	if ev.HwAddr != nil {
		tbl.RawSetString("hwaddr", lua.LString(ev.HwAddr.String()))
	}

	if len(ev.YourIP) > 0 {
		tbl.RawSetString("yourip", lua.LString(ev.YourIP.String()))
	}

	if len(ev.ServerIP) > 0 {
		tbl.RawSetString("serverip", lua.LString(ev.ServerIP.String()))
	}

	return tbl
}
