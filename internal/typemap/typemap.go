// Package typemap holds the per-type conversion rules and the fixed operation
// set of every field shape. Both binding backends read from it.
//
// Every integer kind collapses onto the single Lua number, so 64-bit values
// above 2^53 lose precision, and float and double share one representation
// with no narrowing check. Both are accepted limitations.
package typemap

import (
	"errors"
	"fmt"

	"github.com/jptrs93/luaproto/internal/ir"
	"github.com/jptrs93/luaproto/internal/naming"
)

var (
	ErrUnsupportedFieldType = errors.New("unsupported field type")
	ErrUnknownFieldLabel    = errors.New("unknown field label")
)

type Category int

const (
	CategoryString Category = iota
	CategoryBool
	CategoryInt32
	CategoryInt64
	CategoryFloat
	CategoryEnum
	CategoryMessage
)

var categoryNames = [...]string{
	CategoryString:  "string",
	CategoryBool:    "boolean",
	CategoryInt32:   "integer",
	CategoryInt64:   "integer",
	CategoryFloat:   "number",
	CategoryEnum:    "enum",
	CategoryMessage: "message",
}

// String is the Lua-facing description used in TypeMismatch errors.
func (c Category) String() string {
	if c >= 0 && int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// Numeric reports whether Lua values of the category are numbers.
func (c Category) Numeric() bool {
	switch c {
	case CategoryInt32, CategoryInt64, CategoryFloat, CategoryEnum:
		return true
	}
	return false
}

// Conversion describes how a value crosses between C++ and the Lua stack.
// Push takes the native value expression; Check and To take a stack index.
type Conversion struct {
	Category Category
	CType    string
	Push     string
	Check    string
	To       string
}

// PushValue renders Push for the native expression expr.
func (c Conversion) PushValue(expr string) string {
	return fmt.Sprintf(c.Push, expr)
}

// CheckIndex renders Check for a stack slot.
func (c Conversion) CheckIndex(index int) string {
	return fmt.Sprintf(c.Check, index)
}

// ToIndex renders To for a stack slot.
func (c Conversion) ToIndex(index int) string {
	return fmt.Sprintf(c.To, index)
}

func integer(category Category, ctype string) Conversion {
	return Conversion{
		Category: category,
		CType:    ctype,
		Push:     "lua_pushinteger(L, %s)",
		Check:    "lua_isnumber(L, %d)",
		To:       "(" + ctype + ")lua_tointeger(L, %d)",
	}
}

func floating(ctype string) Conversion {
	return Conversion{
		Category: CategoryFloat,
		CType:    ctype,
		Push:     "lua_pushnumber(L, %s)",
		Check:    "lua_isnumber(L, %d)",
		To:       "(" + ctype + ")lua_tonumber(L, %d)",
	}
}

var stringLike = Conversion{
	Category: CategoryString,
	CType:    "::std::string",
	Push:     "lua_pushlstring(L, %[1]s.data(), %[1]s.size())",
	Check:    "lua_isstring(L, %d)",
	To:       "lua_tolstring(L, %d, &len)",
}

var scalars = map[ir.Kind]Conversion{
	ir.KindBool: {
		Category: CategoryBool,
		CType:    "bool",
		Push:     "lua_pushboolean(L, %s)",
		Check:    "lua_isboolean(L, %d)",
		To:       "lua_toboolean(L, %d) != 0",
	},
	ir.KindInt32:    integer(CategoryInt32, "int32_t"),
	ir.KindSint32:   integer(CategoryInt32, "int32_t"),
	ir.KindSfixed32: integer(CategoryInt32, "int32_t"),
	ir.KindUint32:   integer(CategoryInt32, "uint32_t"),
	ir.KindFixed32:  integer(CategoryInt32, "uint32_t"),
	ir.KindInt64:    integer(CategoryInt64, "int64_t"),
	ir.KindSint64:   integer(CategoryInt64, "int64_t"),
	ir.KindSfixed64: integer(CategoryInt64, "int64_t"),
	ir.KindUint64:   integer(CategoryInt64, "uint64_t"),
	ir.KindFixed64:  integer(CategoryInt64, "uint64_t"),
	ir.KindFloat:    floating("float"),
	ir.KindDouble:   floating("double"),
	ir.KindString:   stringLike,
	ir.KindBytes:    stringLike,
}

// Lookup returns the conversion for a field type.
func Lookup(t ir.Type) (Conversion, error) {
	switch t := t.(type) {
	case ir.Scalar:
		c, ok := scalars[t.Kind]
		if !ok {
			return Conversion{}, fmt.Errorf("%w: %s", ErrUnsupportedFieldType, t.Kind)
		}
		return c, nil
	case ir.EnumRef:
		ctype := naming.CppClass(t.Package, ir.RelativeName(t.Package, t.FullName))
		return Conversion{
			Category: CategoryEnum,
			CType:    ctype,
			Push:     "lua_pushinteger(L, %s)",
			Check:    "lua_isnumber(L, %d)",
			To:       "(" + ctype + ")lua_tointeger(L, %d)",
		}, nil
	case ir.MessageRef:
		rel := ir.RelativeName(t.Package, t.FullName)
		return Conversion{
			Category: CategoryMessage,
			CType:    naming.CppClass(t.Package, rel),
			Push:     naming.MessageFunction(t.Package, rel, "pushreference") + "(L, %s, NULL, NULL)",
		}, nil
	default:
		return Conversion{}, fmt.Errorf("%w: %v", ErrUnsupportedFieldType, t)
	}
}
