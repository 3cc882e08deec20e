package rfc

import (
	"context"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// scriptTimeout bounds one script run.
var scriptTimeout = time.Second

// scriptRule compiles an operation's Lua script into a rule. The script sees
// the scalar caller values as the global table "values" and may add, change
// or remove entries; table parameters are not exposed. Calling error("...")
// rejects the request.
func scriptRule(name, src string) (RuleFunc, error) {
	chunk, err := parse.Parse(strings.NewReader(src), name)
	if err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("compiling script: %w", err)
	}

	return func(v Values) error {
		L := newScriptState()
		defer L.Close()

		ctx, cancel := context.WithTimeout(context.Background(), scriptTimeout)
		defer cancel()
		L.SetContext(ctx)

		tbl := L.NewTable()
		for k, val := range v {
			if isScalar(val) {
				L.SetField(tbl, k, lua.LString(scalarString(val)))
			}
		}
		L.SetGlobal("values", tbl)

		L.Push(L.NewFunctionFromProto(proto))
		if err := L.PCall(0, 0, nil); err != nil {
			if apiErr, ok := err.(*lua.ApiError); ok {
				return fmt.Errorf("script %s: %s", name, apiErr.Object.String())
			}
			return fmt.Errorf("script %s: %w", name, err)
		}

		for k, val := range v {
			if isScalar(val) && tbl.RawGetString(k) == lua.LNil {
				delete(v, k)
			}
		}
		tbl.ForEach(func(key, val lua.LValue) {
			k, ok := key.(lua.LString)
			if !ok {
				return
			}
			switch val.Type() {
			case lua.LTString, lua.LTNumber:
				v[string(k)] = val.String()
			case lua.LTBool:
				if lua.LVAsBool(val) {
					v[string(k)] = "X"
				} else {
					v[string(k)] = ""
				}
			}
		})
		return nil
	}, nil
}

// newScriptState opens a sandboxed VM with only the pure libraries loaded.
func newScriptState() *lua.LState {
	L := lua.NewState(lua.Options{
		CallStackSize: 64,
		RegistrySize:  1024,
		SkipOpenLibs:  true,
	})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	// The base library can still reach the filesystem, and print writes to
	// stdout, which carries the stdio transport.
	for _, fn := range []string{"dofile", "loadfile", "load", "loadstring", "require", "print"} {
		L.SetGlobal(fn, lua.LNil)
	}
	return L
}

func isScalar(raw any) bool {
	switch raw.(type) {
	case []Values, []map[string]any, []any, map[string]any, Values:
		return false
	}
	return true
}
