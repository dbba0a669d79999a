package luac

import (
	"github.com/jptrs93/luaproto/internal/codegen"
	"github.com/jptrs93/luaproto/internal/ir"
)

// writeEnum stores an immutable enum namespace under e.Name in the table at
// the top of the stack. The namespace is an empty userdata whose protected
// metatable reads from a values table, so scripts can neither rawset into it
// nor reach the values table.
func writeEnum(b *codegen.Builder, e ir.Enum) {
	b.Nl()
	b.Pl("// %s", e.FullName)
	b.Pl("lua_newuserdata(L, 0);")
	b.Pl("lua_newtable(L);")
	b.Pl("lua_newtable(L);")
	for _, v := range e.Values {
		b.Pl("lua_pushinteger(L, %d);", v.Number)
		b.Pl(`lua_setfield(L, -2, "%s");`, v.Name)
	}
	b.Pl("lua_newtable(L);")
	b.Pl("lua_pushcfunction(L, lua_protobuf_enum_index);")
	b.Pl(`lua_setfield(L, -2, "__index");`)
	b.Pl("lua_setmetatable(L, -2);")
	b.Pl(`lua_setfield(L, -2, "__index");`)
	b.Pl("lua_pushcfunction(L, lua_protobuf_enum_newindex);")
	b.Pl(`lua_setfield(L, -2, "__newindex");`)
	b.Pl("lua_pushboolean(L, 0);")
	b.Pl(`lua_setfield(L, -2, "__metatable");`)
	b.Pl("lua_setmetatable(L, -2);")
	b.Pl(`lua_setfield(L, -2, "%s");`, e.Name)
}
