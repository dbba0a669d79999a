package luapb

import (
	"sort"

	"github.com/jptrs93/luaproto/internal/ir"

	lua "github.com/yuin/gopher-lua"
)

// EnumTable is the read-only name to number mapping behind an enum
// namespace. Aliases resolve to the shared number.
type EnumTable struct {
	name   string
	values map[string]int32
	names  []string
}

func newEnumTable(e ir.Enum) *EnumTable {
	t := &EnumTable{name: e.FullName, values: make(map[string]int32, len(e.Values))}
	for _, v := range e.Values {
		t.values[v.Name] = v.Number
		t.names = append(t.names, v.Name)
	}
	sort.Strings(t.names)
	return t
}

func (t *EnumTable) Name() string {
	return t.name
}

func (t *EnumTable) Lookup(name string) (int32, error) {
	n, ok := t.values[name]
	if !ok {
		return 0, newError(NameError, "attempting to access undefined enumeration value: %s", name)
	}
	return n, nil
}

// Names returns the value names in sorted order.
func (t *EnumTable) Names() []string {
	return append([]string(nil), t.names...)
}

func (t *EnumTable) Len() int {
	return len(t.names)
}

func (rt *Runtime) setEnum(lib *lua.LTable, e ir.Enum) {
	t, ok := rt.enums[e.FullName]
	if !ok {
		t = newEnumTable(e)
		rt.enums[e.FullName] = t
	}
	ud := rt.L.NewUserData()
	ud.Value = t
	ud.Metatable = rt.enumMeta
	lib.RawSetString(e.Name, ud)
}

func (rt *Runtime) newEnumMetatable() *lua.LTable {
	L := rt.L
	mt := L.NewTable()
	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int {
		t := checkEnum(L)
		n, err := t.Lookup(L.Get(2).String())
		if err != nil {
			raise(L, err)
		}
		L.Push(lua.LNumber(n))
		return 1
	}))
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		t := checkEnum(L)
		raise(L, newError(ImmutableError, "enumeration %s is immutable", t.name))
		return 0
	}))
	L.SetField(mt, "__len", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(checkEnum(L).Len()))
		return 1
	}))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString("enum " + checkEnum(L).name))
		return 1
	}))
	L.SetField(mt, "__metatable", lua.LFalse)
	return mt
}

func checkEnum(L *lua.LState) *EnumTable {
	ud := L.CheckUserData(1)
	t, ok := ud.Value.(*EnumTable)
	if !ok {
		L.ArgError(1, "enum expected")
	}
	return t
}
