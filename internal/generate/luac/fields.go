package luac

import (
	"fmt"

	"github.com/jptrs93/luaproto/internal/codegen"
	"github.com/jptrs93/luaproto/internal/typemap"
)

const (
	argumentError = "LUA_PROTOBUF_ARGUMENT_ERROR"
	rangeError    = "LUA_PROTOBUF_RANGE_ERROR"
	typeMismatch  = "LUA_PROTOBUF_TYPE_MISMATCH"
	stateError    = "LUA_PROTOBUF_STATE_ERROR"
	codecError    = "LUA_PROTOBUF_CODEC_ERROR"
)

func (m *messageGen) fieldFunctions(f fieldGen) codegen.Fragment {
	var b codegen.Builder
	for _, op := range f.ops {
		name := m.fieldSymbol(op, f)
		switch op {
		case typemap.OpClear:
			luaFunc(&b, name, func() { m.clearField(&b, f) })
		case typemap.OpGet:
			luaFunc(&b, name, func() { m.getField(&b, f) })
		case typemap.OpSet:
			luaFunc(&b, name, func() { m.setField(&b, f) })
		case typemap.OpHas:
			luaFunc(&b, name, func() { m.hasField(&b, f) })
		case typemap.OpSize:
			luaFunc(&b, name, func() { m.sizeField(&b, f) })
		case typemap.OpAdd:
			luaFunc(&b, name, func() { m.addField(&b, f) })
		}
	}
	return b.Fragment(m.msg.FullName + "." + f.Name)
}

// hasExpr tests presence. Fields without explicit presence count as set
// when they hold a non-default value.
func hasExpr(f fieldGen) string {
	if f.Presence {
		return fmt.Sprintf("m->has_%s()", f.cpp)
	}
	switch f.conv.Category {
	case typemap.CategoryString:
		return fmt.Sprintf("!m->%s().empty()", f.cpp)
	case typemap.CategoryBool:
		return fmt.Sprintf("m->%s()", f.cpp)
	default:
		return fmt.Sprintf("m->%s() != 0", f.cpp)
	}
}

func (m *messageGen) clearField(b *codegen.Builder, f fieldGen) {
	m.obtain(b)
	b.Pl("m->clear_%s();", f.cpp)
	b.Pl("return 0;")
}

func (m *messageGen) hasField(b *codegen.Builder, f fieldGen) {
	m.obtain(b)
	b.Pl("lua_pushboolean(L, %s);", hasExpr(f))
	b.Pl("return 1;")
}

func (m *messageGen) sizeField(b *codegen.Builder, f fieldGen) {
	m.obtain(b)
	b.Pl("lua_pushinteger(L, m->%s_size());", f.cpp)
	b.Pl("return 1;")
}

func (m *messageGen) addField(b *codegen.Builder, f fieldGen) {
	m.obtain(b)
	b.Pl("%s *msg = m->add_%s();", f.conv.CType, f.cpp)
	b.Pl("%s;", f.conv.PushValue("msg"))
	b.Pl("return 1;")
}

func (m *messageGen) getField(b *codegen.Builder, f fieldGen) {
	m.obtain(b)
	if f.shape.Repeated() {
		m.checkIndex(b, f, typemap.OpGet)
		b.If("index < 1 || index > size", func() {
			raise(b, rangeError, "index must be between 1 and current size: %d", "size")
		})
		if f.shape.Message() {
			b.Pl("%s;", f.conv.PushValue(fmt.Sprintf("m->mutable_%s(index - 1)", f.cpp)))
		} else {
			b.Pl("%s;", f.conv.PushValue(fmt.Sprintf("m->%s(index - 1)", f.cpp)))
		}
		b.Pl("return 1;")
		return
	}
	// mutable_ allocates an absent message, so a script can fill it in place.
	if f.shape.Message() {
		b.Pl("%s;", f.conv.PushValue(fmt.Sprintf("m->mutable_%s()", f.cpp)))
		b.Pl("return 1;")
		return
	}
	if f.Presence {
		b.If("!"+hasExpr(f), func() {
			b.Pl("lua_pushnil(L);")
			b.Pl("return 1;")
		})
	}
	b.Pl("%s;", f.conv.PushValue(fmt.Sprintf("m->%s()", f.cpp)))
	b.Pl("return 1;")
}

func (m *messageGen) setField(b *codegen.Builder, f fieldGen) {
	method := typemap.OpSet.String() + "_" + f.Name
	if f.shape == typemap.ShapeMessage {
		raise(b, stateError, fmt.Sprintf("to manipulate embedded message %s, fetch it with get_%s() and modify it in place", f.Name, f.Name))
		return
	}
	if f.shape == typemap.ShapeRepeatedMessage {
		raise(b, stateError, fmt.Sprintf("cannot assign elements of %s, use add_%s() and modify the returned message", f.Name, f.Name))
		return
	}
	m.obtain(b)
	if f.shape.Repeated() {
		m.checkIndex(b, f, typemap.OpSet)
		b.If("index < 1 || index > size + 1", func() {
			raise(b, rangeError, "index must be between 1 and %d", "size + 1")
		})
		b.If("lua_isnil(L, 3)", func() {
			raise(b, argumentError, fmt.Sprintf("cannot assign nil to an element of repeated field %s", f.Name))
		})
		m.convertArg(b, f, method, 3)
		b.IfElse("index == size + 1", func() {
			b.Pl("m->add_%s(%s);", f.cpp, f.valueArgs())
		}, func() {
			b.Pl("m->set_%s(index - 1, %s);", f.cpp, f.valueArgs())
		})
		b.Pl("return 0;")
		return
	}
	b.If("lua_gettop(L) != 2", func() {
		raise(b, argumentError, method+"() requires exactly one argument")
	})
	b.If("lua_isnil(L, 2)", func() {
		b.Pl("m->clear_%s();", f.cpp)
		b.Pl("return 0;")
	})
	m.convertArg(b, f, method, 2)
	b.Pl("m->set_%s(%s);", f.cpp, f.valueArgs())
	b.Pl("return 0;")
}

// checkIndex validates the argument count and declares index and size.
func (m *messageGen) checkIndex(b *codegen.Builder, f fieldGen, op typemap.Op) {
	method := op.String() + "_" + f.Name
	want := 2
	usage := "() requires an index argument"
	if op == typemap.OpSet {
		want = 3
		usage = "() requires an index and a value"
	}
	b.If(fmt.Sprintf("lua_gettop(L) != %d", want), func() {
		raise(b, argumentError, method+usage)
	})
	b.If("!lua_isnumber(L, 2)", func() {
		raise(b, argumentError, method+"() index must be a number, got %s", "luaL_typename(L, 2)")
	})
	b.Pl("lua_Number number = lua_tonumber(L, 2);")
	b.If("number != std::floor(number)", func() {
		raise(b, argumentError, method+"() index must be an integer, got %s", "lua_tostring(L, 2)")
	})
	b.Pl("int size = m->%s_size();", f.cpp)
	b.Pl("lua_Integer index = (number >= 1 && number <= size + 1) ? (lua_Integer)number : 0;")
}

// convertArg type-checks stack slot index and declares the converted value.
func (m *messageGen) convertArg(b *codegen.Builder, f fieldGen, method string, index int) {
	b.If("!"+f.conv.CheckIndex(index), func() {
		raise(b, typeMismatch, fmt.Sprintf("%s() expects a value of type %s, got %%s", method, f.conv.Category), fmt.Sprintf("luaL_typename(L, %d)", index))
	})
	if f.conv.Category == typemap.CategoryString {
		b.Pl("size_t len = 0;")
		b.Pl("const char *value = %s;", f.conv.ToIndex(index))
		return
	}
	if f.conv.Category == typemap.CategoryEnum {
		// range check before narrowing, or a wrapped number could alias a valid value
		b.Pl("lua_Number raw = lua_tonumber(L, %d);", index)
		b.If(fmt.Sprintf("raw < -2147483648.0 || raw > 2147483647.0 || raw != std::floor(raw) || !%s_IsValid((int)raw)", f.conv.CType), func() {
			raise(b, rangeError, fmt.Sprintf("%%s is not a valid %s value", f.Type), fmt.Sprintf("lua_tostring(L, %d)", index))
		})
		b.Pl("%s value = (%s)(int)raw;", f.conv.CType, f.conv.CType)
		return
	}
	b.Pl("%s value = %s;", f.conv.CType, f.conv.ToIndex(index))
}

func (f fieldGen) valueArgs() string {
	if f.conv.Category == typemap.CategoryString {
		return "value, len"
	}
	return "value"
}
