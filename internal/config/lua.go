package config

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/vesperkey/vesper/internal/input/command"
)

// Binding is a key-to-annotation rebind collected from the rc file.
// Resolved against the registry after the build, not at parse time.
type Binding struct {
	Mode       string
	Keys       string
	Annotation string
}

// RC is the result of evaluating the user's rc file.
type RC struct {
	// Declarations are new mappings, in declaration order.
	Declarations []command.Declaration

	// Bindings are annotation rebinds applied after the registry is
	// built.
	Bindings []Binding
}

// LoadRC evaluates the rc file at path. The script sees a `vesper`
// table with:
//
//	vesper.map(mode, keys, annotation, action, opts)
//	vesper.bind(mode, keys, annotation)
//
// where opts is an optional table with boolean `magic` and
// `repeat_ignore`, string `domain`, and table `args`. Script errors
// abort the load; nothing is partially applied.
func LoadRC(path string) (*RC, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rc %s: %w", path, err)
	}
	rc, err := ParseRC(string(src))
	if err != nil {
		return nil, fmt.Errorf("rc %s: %w", path, err)
	}
	return rc, nil
}

// ParseRC evaluates rc source in a fresh restricted Lua state.
func ParseRC(src string) (*RC, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	// Base and string libraries only: the rc declares mappings, it
	// does not touch the filesystem or the network.
	for _, open := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.StringLibName, lua.OpenString},
		{lua.TabLibName, lua.OpenTable},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(open.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(open.name)); err != nil {
			return nil, fmt.Errorf("opening lua lib %s: %w", open.name, err)
		}
	}

	rc := &RC{}

	mod := L.NewTable()
	L.SetField(mod, "map", L.NewFunction(rc.luaMap))
	L.SetField(mod, "bind", L.NewFunction(rc.luaBind))
	L.SetGlobal("vesper", mod)

	if err := L.DoString(src); err != nil {
		return nil, fmt.Errorf("evaluating rc: %w", err)
	}
	return rc, nil
}

// luaMap implements vesper.map(mode, keys, annotation, action, opts).
func (rc *RC) luaMap(L *lua.LState) int {
	d := command.Declaration{
		Mode:       L.CheckString(1),
		Keys:       L.CheckString(2),
		Annotation: L.CheckString(3),
		Action:     L.CheckString(4),
	}

	if L.GetTop() >= 5 {
		opts := L.CheckTable(5)
		d.Options.Magic = lua.LVAsBool(opts.RawGetString("magic"))
		d.Options.RepeatIgnore = lua.LVAsBool(opts.RawGetString("repeat_ignore"))
		if domain, ok := opts.RawGetString("domain").(lua.LString); ok {
			d.Options.Domain = string(domain)
		}
		if args, ok := opts.RawGetString("args").(*lua.LTable); ok {
			d.Options.Args = tableToMap(args)
		}
	}

	// Syntax errors surface at declaration time, inside the script,
	// so the rc author sees which line is wrong.
	if _, err := d.Parse(); err != nil {
		L.RaiseError("vesper.map: %v", err)
		return 0
	}

	rc.Declarations = append(rc.Declarations, d)
	return 0
}

// luaBind implements vesper.bind(mode, keys, annotation).
func (rc *RC) luaBind(L *lua.LState) int {
	rc.Bindings = append(rc.Bindings, Binding{
		Mode:       L.CheckString(1),
		Keys:       L.CheckString(2),
		Annotation: L.CheckString(3),
	})
	return 0
}

// tableToMap converts a Lua table of scalar values into an args map.
// Nested tables and functions are dropped.
func tableToMap(t *lua.LTable) map[string]any {
	m := make(map[string]any)
	t.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		switch val := v.(type) {
		case lua.LBool:
			m[string(key)] = bool(val)
		case lua.LNumber:
			f := float64(val)
			if f == float64(int64(f)) {
				m[string(key)] = int64(f)
			} else {
				m[string(key)] = f
			}
		case lua.LString:
			m[string(key)] = string(val)
		}
	})
	if len(m) == 0 {
		return nil
	}
	return m
}
