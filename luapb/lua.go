package luapb

import (
	"math"

	"github.com/jptrs93/luaproto/internal/naming"
	"github.com/jptrs93/luaproto/internal/typemap"

	lua "github.com/yuin/gopher-lua"
)

func raise(L *lua.LState, err error) {
	L.RaiseError("%s", err.Error())
}

func (rt *Runtime) check(L *lua.LState, t *messageType) *Message {
	ud := L.CheckUserData(1)
	m, ok := ud.Value.(*Message)
	if !ok || m.typ != t {
		L.ArgError(1, t.ns+" expected")
	}
	if err := m.live(); err != nil {
		raise(L, err)
	}
	return m
}

func checkArgs(L *lua.LState, method string, want int) {
	if L.GetTop() != want {
		raise(L, newError(ArgumentError, "%s() takes %d argument(s), got %d", method, want-1, L.GetTop()-1))
	}
}

// checkIndex reads the index argument. Numeric strings are accepted;
// fractional indices are not. Indices outside int32 map to 0, which every
// range check rejects.
func checkIndex(L *lua.LState, method string) int {
	n, ok := toNumber(L.Get(2))
	if !ok {
		raise(L, newError(ArgumentError, "%s() index must be a number, got %s", method, L.Get(2).Type()))
	}
	if float64(n) != math.Trunc(float64(n)) {
		raise(L, newError(ArgumentError, "%s() index must be an integer, got %s", method, n))
	}
	index, ok := int32Value(float64(n))
	if !ok {
		return 0
	}
	return int(index)
}

func (rt *Runtime) functions(t *messageType) map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"new": func(L *lua.LState) int {
			L.Push(rt.wrap(t, t.typ.New(), Owned{}).ud)
			return 1
		},
		"parsefromstring": func(L *lua.LState) int {
			if L.GetTop() != 1 {
				raise(L, newError(ArgumentError, "parsefromstring() requires a string argument"))
			}
			s, ok := L.Get(1).(lua.LString)
			if !ok {
				raise(L, newError(TypeMismatch, "parsefromstring() expects a string, got %s", L.Get(1).Type()))
			}
			m, err := rt.parse(t, []byte(s))
			if err != nil {
				raise(L, err)
			}
			L.Push(m.ud)
			return 1
		},
	}
}

func (rt *Runtime) methods(t *messageType) map[string]lua.LGFunction {
	fns := map[string]lua.LGFunction{
		"serialized": func(L *lua.LState) int {
			m := rt.check(L, t)
			b, err := m.Serialize()
			if err != nil {
				raise(L, err)
			}
			L.Push(lua.LString(string(b)))
			return 1
		},
		"clear": func(L *lua.LState) int {
			m := rt.check(L, t)
			if err := m.ClearAll(); err != nil {
				raise(L, err)
			}
			return 0
		},
	}
	for _, f := range t.fields {
		for _, op := range f.ops {
			fns[naming.Method(op.String(), f.schema.Name)] = rt.fieldMethod(t, f, op)
		}
	}
	return fns
}

func (rt *Runtime) fieldMethod(t *messageType, f *fieldBinding, op typemap.Op) lua.LGFunction {
	method := naming.Method(op.String(), f.schema.Name)
	switch op {
	case typemap.OpClear:
		return func(L *lua.LState) int {
			m := rt.check(L, t)
			m.msg.Clear(m.descriptor(f))
			return 0
		}
	case typemap.OpHas:
		return func(L *lua.LState) int {
			m := rt.check(L, t)
			L.Push(lua.LBool(m.msg.Has(m.descriptor(f))))
			return 1
		}
	case typemap.OpSize:
		return func(L *lua.LState) int {
			m := rt.check(L, t)
			L.Push(lua.LNumber(m.size(f)))
			return 1
		}
	case typemap.OpAdd:
		return func(L *lua.LState) int {
			m := rt.check(L, t)
			child, err := m.add(f)
			if err != nil {
				raise(L, err)
			}
			L.Push(child.ud)
			return 1
		}
	case typemap.OpGet:
		if f.shape.Repeated() {
			return func(L *lua.LState) int {
				m := rt.check(L, t)
				checkArgs(L, method, 2)
				v, err := m.getAt(f, checkIndex(L, method))
				if err != nil {
					raise(L, err)
				}
				L.Push(v)
				return 1
			}
		}
		return func(L *lua.LState) int {
			m := rt.check(L, t)
			v, err := m.get(f)
			if err != nil {
				raise(L, err)
			}
			L.Push(v)
			return 1
		}
	case typemap.OpSet:
		if f.shape.Message() {
			return func(L *lua.LState) int {
				m := rt.check(L, t)
				var err error
				if f.shape.Repeated() {
					err = m.setAt(f, 0, lua.LNil)
				} else {
					err = m.set(f, lua.LNil)
				}
				raise(L, err)
				return 0
			}
		}
		if f.shape.Repeated() {
			return func(L *lua.LState) int {
				m := rt.check(L, t)
				checkArgs(L, method, 3)
				if err := m.setAt(f, checkIndex(L, method), L.Get(3)); err != nil {
					raise(L, err)
				}
				return 0
			}
		}
		return func(L *lua.LState) int {
			m := rt.check(L, t)
			checkArgs(L, method, 2)
			if err := m.set(f, L.Get(2)); err != nil {
				raise(L, err)
			}
			return 0
		}
	}
	return func(L *lua.LState) int {
		raise(L, newError(StateError, "%s() is not defined", method))
		return 0
	}
}
