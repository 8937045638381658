package sim

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/t32remote/internal/luascript"
	"github.com/dshills/t32remote/internal/remote/native"
)

// ExecuteLua runs script against the simulated state. The script sees a
// t32 table with cmd, read_var, write_var and print. Its first return value
// becomes the EvalGetString result.
func (r *Remote) ExecuteLua(script []byte) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpExecuteLua); ok {
		return code
	}
	if !r.attached {
		return statusAttachMissing
	}

	s := luascript.NewState()
	defer s.Close()

	// Callbacks run on this goroutine while r.mu is held.
	s.Module("t32", map[string]lua.LGFunction{
		"cmd": func(L *lua.LState) int {
			L.Push(lua.LNumber(r.command(L.CheckString(1))))
			return 1
		},
		"read_var": func(L *lua.LState) int {
			v, ok := r.variables[L.CheckString(1)]
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LNumber(v))
			return 1
		},
		"write_var": func(L *lua.LState) int {
			r.variables[L.CheckString(1)] = uint64(L.CheckNumber(2))
			return 0
		},
		"print": func(L *lua.LState) int {
			r.printed = append(r.printed, L.CheckString(1))
			return 0
		},
	})

	result, err := s.DoString(context.Background(), cstr(script))
	if err != nil {
		r.lastError = err.Error()
		r.lastErrorNum = uint32(statusFailed)
		return statusFailed
	}
	r.evalString = result
	return statusOK
}

// SetLastError sets the text returned by GetLastErrorMessage.
func (r *Remote) SetLastError(text string, code uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastError = text
	r.lastErrorNum = code
}
