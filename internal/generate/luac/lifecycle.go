package luac

import (
	"github.com/jptrs93/luaproto/internal/codegen"
	"github.com/jptrs93/luaproto/internal/naming"
)

// registration emits the luaL_Reg tables and the open function of a message.
func (m *messageGen) registration() codegen.Fragment {
	var b codegen.Builder
	b.Curly("static const struct luaL_Reg "+m.prefix()+"functions[] =", func() {
		b.Pl(`{"new", %s},`, m.symbol("new"))
		b.Pl(`{"parsefromstring", %s},`, m.symbol("parsefromstring"))
		b.Pl("{NULL, NULL}")
	}, ";")
	b.Nl()
	b.Curly("static const struct luaL_Reg "+m.prefix()+"methods[] =", func() {
		b.Pl(`{"serialized", %s},`, m.symbol("serialized"))
		b.Pl(`{"clear", %s},`, m.symbol("clear"))
		for _, f := range m.fields {
			for _, op := range f.ops {
				b.Pl(`{"%s", %s},`, naming.Method(op.String(), f.Name), m.fieldSymbol(op, f))
			}
		}
		b.Pl("{NULL, NULL}")
	}, ";")
	luaFunc(&b, m.symbol("open"), func() {
		b.Pl(`luaL_newmetatable(L, "%s");`, m.ns)
		b.Pl("lua_pushcfunction(L, %s);", m.symbol("gc"))
		b.Pl(`lua_setfield(L, -2, "__gc");`)
		b.Pl("lua_newtable(L);")
		b.Pl("luaL_register(L, NULL, %smethods);", m.prefix())
		b.Pl(`lua_setfield(L, -2, "__index");`)
		b.Pl("lua_pop(L, 1);")
		b.Nl()
		b.Pl(`luaL_register(L, "%s", %sfunctions);`, m.lib, m.prefix())
		for _, e := range m.msg.Enums {
			writeEnum(&b, e)
		}
		b.Pl("lua_pop(L, 1);")
		b.Pl("return 0;")
	})
	return b.Fragment(m.msg.FullName + ".registration")
}

func (m *messageGen) lifecycle() codegen.Fragment {
	var b codegen.Builder
	b.Func("bool "+m.symbol("pushcopy")+"(lua_State *L, const "+m.class+" &from)", func() {
		b.Pl(`lua_protobuf_pushudata(L, new %s(from), LUA_PROTOBUF_OWNED, NULL, NULL, "%s");`, m.class, m.ns)
		b.Pl("return true;")
	})
	b.Nl()
	b.Func("bool "+m.symbol("pushreference")+"(lua_State *L, "+m.class+" *msg, lua_protobuf_gc_callback callback, void *data)", func() {
		b.Pl(`lua_protobuf_pushudata(L, msg, LUA_PROTOBUF_BORROWED, callback, data, "%s");`, m.ns)
		b.Pl("return true;")
	})
	luaFunc(&b, m.symbol("new"), func() {
		b.Pl(`lua_protobuf_pushudata(L, new %s(), LUA_PROTOBUF_OWNED, NULL, NULL, "%s");`, m.class, m.ns)
		b.Pl("return 1;")
	})
	luaFunc(&b, m.symbol("parsefromstring"), func() {
		b.If("lua_gettop(L) != 1", func() {
			raise(&b, argumentError, "parsefromstring() requires exactly one string argument")
		})
		b.If("!lua_isstring(L, 1)", func() {
			raise(&b, typeMismatch, "parsefromstring() expects a string, got %s", "luaL_typename(L, 1)")
		})
		b.Pl("size_t len = 0;")
		b.Pl("const char *s = lua_tolstring(L, 1, &len);")
		b.Pl("%[1]s *msg = new %[1]s();", m.class)
		b.If("!msg->ParseFromArray((const void *)s, (int)len)", func() {
			b.Pl("delete msg;")
			raise(&b, codecError, "error deserializing message")
		})
		b.Pl(`lua_protobuf_pushudata(L, msg, LUA_PROTOBUF_OWNED, NULL, NULL, "%s");`, m.ns)
		b.Pl("return 1;")
	})
	luaFunc(&b, m.symbol("gc"), func() {
		b.Pl(`msg_udata *ud = (msg_udata *)luaL_checkudata(L, 1, "%s");`, m.ns)
		b.Pl("lua_protobuf_release(ud);")
		b.Pl("return 0;")
	})
	luaFunc(&b, m.symbol("clear"), func() {
		m.obtain(&b)
		b.Pl("m->Clear();")
		b.Pl("return 0;")
	})
	luaFunc(&b, m.symbol("serialized"), func() {
		m.obtain(&b)
		b.If("!m->IsInitialized()", func() {
			raise(&b, codecError, "message is missing required fields")
		})
		b.Pl("::std::string s;")
		b.If("!m->SerializeToString(&s)", func() {
			raise(&b, codecError, "error serializing message")
		})
		b.Pl("lua_pushlstring(L, s.data(), s.size());")
		b.Pl("return 1;")
	})
	return b.Fragment(m.msg.FullName + ".lifecycle")
}
