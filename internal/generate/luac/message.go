package luac

import (
	"fmt"

	"github.com/jptrs93/luaproto/internal/codegen"
	"github.com/jptrs93/luaproto/internal/ir"
	"github.com/jptrs93/luaproto/internal/naming"
	"github.com/jptrs93/luaproto/internal/typemap"
)

type messageGen struct {
	pkg    string
	msg    ir.Message
	class  string
	ns     string
	lib    string
	fields []fieldGen
}

type fieldGen struct {
	ir.Field
	shape typemap.Shape
	conv  typemap.Conversion
	ops   []typemap.Op
	cpp   string
}

// newMessageGen resolves every field up front so an unsupported field aborts
// the file before any text is produced.
func newMessageGen(pkg string, msg ir.Message) (*messageGen, error) {
	m := &messageGen{
		pkg:   pkg,
		msg:   msg,
		class: naming.CppClass(pkg, msg.Name),
		ns:    naming.Namespace(pkg, msg.Name),
		lib:   naming.Library(pkg, msg.Name),
	}
	for _, f := range msg.Fields {
		ops, err := typemap.Operations(f)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", msg.FullName, f.Name, err)
		}
		shape, err := typemap.ShapeOf(f)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", msg.FullName, f.Name, err)
		}
		conv, err := typemap.Lookup(f.Type)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", msg.FullName, f.Name, err)
		}
		m.fields = append(m.fields, fieldGen{
			Field: f,
			shape: shape,
			conv:  conv,
			ops:   ops,
			cpp:   naming.CppField(f.Name),
		})
	}
	return m, nil
}

func (m *messageGen) symbol(verb string) string {
	return naming.MessageFunction(m.pkg, m.msg.Name, verb)
}

func (m *messageGen) fieldSymbol(op typemap.Op, f fieldGen) string {
	return naming.FieldFunction(m.pkg, m.msg.Name, op.String(), f.Name)
}

func (m *messageGen) prefix() string {
	return naming.MessagePrefix(m.pkg, m.msg.Name)
}

// obtain declares m, the checked message at stack slot 1.
func (m *messageGen) obtain(b *codegen.Builder) {
	b.Pl(`%[1]s *m = (%[1]s *)lua_protobuf_checkmessage(L, 1, "%[2]s");`, m.class, m.ns)
}

func luaFunc(b *codegen.Builder, name string, body func()) {
	if len(b.Lines()) > 0 {
		b.Nl()
	}
	b.Func("int "+name+"(lua_State *L)", body)
}

func raise(b *codegen.Builder, category, format string, args ...string) {
	line := "return luaL_error(L, " + category + ` "` + format + `"`
	for _, a := range args {
		line += ", " + a
	}
	b.Pl("%s", line+");")
}

func (m *messageGen) declarations() codegen.Fragment {
	var b codegen.Builder
	b.Pl("// %s", m.msg.FullName)
	b.Pl("LUA_PROTOBUF_EXPORT int %s(lua_State *L);", m.symbol("open"))
	b.Pl("LUA_PROTOBUF_EXPORT bool %s(lua_State *L, const %s &from);", m.symbol("pushcopy"), m.class)
	b.Pl("LUA_PROTOBUF_EXPORT bool %s(lua_State *L, %s *msg, lua_protobuf_gc_callback callback, void *data);", m.symbol("pushreference"), m.class)
	for _, verb := range []string{"new", "parsefromstring", "gc", "clear", "serialized"} {
		b.Pl("LUA_PROTOBUF_EXPORT int %s(lua_State *L);", m.symbol(verb))
	}
	for _, f := range m.fields {
		b.Nl()
		b.Pl("// %s %s %s = %d", f.Label, f.Type, f.Name, f.Number)
		for _, op := range f.ops {
			b.Pl("LUA_PROTOBUF_EXPORT int %s(lua_State *L);", m.fieldSymbol(op, f))
		}
	}
	return b.Fragment(m.msg.FullName)
}

func (m *messageGen) definitions() []codegen.Fragment {
	frags := []codegen.Fragment{m.registration(), m.lifecycle()}
	for _, f := range m.fields {
		frags = append(frags, m.fieldFunctions(f))
	}
	return frags
}
