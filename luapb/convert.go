package luapb

import (
	"math"
	"strconv"
	"strings"

	"github.com/jptrs93/luaproto/internal/typemap"

	lua "github.com/yuin/gopher-lua"
	"google.golang.org/protobuf/reflect/protoreflect"
)

func toLua(fd protoreflect.FieldDescriptor, v protoreflect.Value) lua.LValue {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return lua.LBool(v.Bool())
	case protoreflect.StringKind:
		return lua.LString(v.String())
	case protoreflect.BytesKind:
		return lua.LString(string(v.Bytes()))
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return lua.LNumber(v.Int())
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return lua.LNumber(v.Uint())
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return lua.LNumber(v.Float())
	case protoreflect.EnumKind:
		return lua.LNumber(v.Enum())
	}
	return lua.LNil
}

// fromLua converts v for assignment to fd. Strings accept numbers and
// numeric kinds accept numeric strings, as lua_isstring and lua_isnumber do.
func fromLua(fd protoreflect.FieldDescriptor, f *fieldBinding, v lua.LValue) (protoreflect.Value, error) {
	c := f.conv.Category
	switch {
	case c == typemap.CategoryString:
		var s string
		switch v := v.(type) {
		case lua.LString:
			s = string(v)
		case lua.LNumber:
			s = v.String()
		default:
			return protoreflect.Value{}, mismatch(f, v)
		}
		if fd.Kind() == protoreflect.BytesKind {
			return protoreflect.ValueOfBytes([]byte(s)), nil
		}
		return protoreflect.ValueOfString(s), nil
	case c == typemap.CategoryBool:
		b, ok := v.(lua.LBool)
		if !ok {
			return protoreflect.Value{}, mismatch(f, v)
		}
		return protoreflect.ValueOfBool(bool(b)), nil
	case c.Numeric():
		n, ok := toNumber(v)
		if !ok {
			return protoreflect.Value{}, mismatch(f, v)
		}
		if fd.Kind() == protoreflect.EnumKind {
			num, ok := int32Value(float64(n))
			if !ok || fd.Enum().Values().ByNumber(protoreflect.EnumNumber(num)) == nil {
				return protoreflect.Value{}, newError(RangeError, "value %s is not valid for %s", n, fd.Enum().FullName())
			}
			return protoreflect.ValueOfEnum(protoreflect.EnumNumber(num)), nil
		}
		return numberValue(fd.Kind(), float64(n)), nil
	}
	return protoreflect.Value{}, mismatch(f, v)
}

func toNumber(v lua.LValue) (lua.LNumber, bool) {
	switch v := v.(type) {
	case lua.LNumber:
		return v, true
	case lua.LString:
		n, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return 0, false
		}
		return lua.LNumber(n), true
	}
	return 0, false
}

// int32Value reports whether n is an integer in int32 range.
func int32Value(n float64) (int32, bool) {
	if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return int32(n), true
}

func numberValue(kind protoreflect.Kind, n float64) protoreflect.Value {
	switch kind {
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return protoreflect.ValueOfInt32(int32(int64(n)))
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return protoreflect.ValueOfUint32(uint32(int64(n)))
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return protoreflect.ValueOfInt64(int64(n))
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		if n >= 1<<63 {
			return protoreflect.ValueOfUint64(uint64(n))
		}
		return protoreflect.ValueOfUint64(uint64(int64(n)))
	case protoreflect.FloatKind:
		return protoreflect.ValueOfFloat32(float32(n))
	default:
		return protoreflect.ValueOfFloat64(n)
	}
}

func mismatch(f *fieldBinding, v lua.LValue) error {
	return newError(TypeMismatch, "set_%s() expects a value of type %s, got %s", f.schema.Name, f.conv.Category, v.Type())
}
