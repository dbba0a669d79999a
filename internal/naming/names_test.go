package naming

import (
	"context"
	"testing"

	"github.com/bufbuild/protocompile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageSymbols(t *testing.T) {
	assert.Equal(t, "lua_protobuf_foo_bar_", PackagePrefix("foo.bar"))
	assert.Equal(t, "lua_protobuf_foo_bar_Person_", MessagePrefix("foo.bar", "Person"))
	assert.Equal(t, "lua_protobuf_foo_bar_Person_new", MessageFunction("foo.bar", "Person", "new"))
	assert.Equal(t, "lua_protobuf_foo_bar_Person_get_name", FieldFunction("foo.bar", "Person", "get", "name"))
	assert.Equal(t, "lua_protobuf_foo_Outer_0Inner_clear", MessageFunction("foo", "Outer.Inner", "clear"))
	assert.Equal(t, "lua_protobuf_foo_Msg_set_first_1name", FieldFunction("foo", "Msg", "set", "first_name"))
}

func TestLuaIdentifiers(t *testing.T) {
	assert.Equal(t, "protobuf.foo.bar.Person", Library("foo.bar", "Person"))
	assert.Equal(t, "protobuf_.foo.bar.Person", Namespace("foo.bar", "Person"))
	assert.Equal(t, "protobuf.foo.Outer.Inner", Library("foo", "Outer.Inner"))
	assert.Equal(t, "protobuf.foo.bar", PackageLibrary("foo.bar"))
	assert.Equal(t, "protobuf", PackageLibrary(""))
	assert.Equal(t, "get_first_name", Method("get", "first_name"))
}

func TestSymbolsAreInjective(t *testing.T) {
	type path struct{ pkg, msg, verb, field string }
	paths := []path{
		{"a.b", "C", "get", "d"},
		{"a_b", "C", "get", "d"},
		{"a", "b_C", "get", "d"},
		{"a", "b.C", "get", "d"},
		{"a.b", "C_get", "get", "d"},
		{"a.b", "C", "get", "get_d"},
		{"a.b", "C", "get", "d_get"},
		{"a.b.C", "get", "get", "d"},
		{"a", "B", "clear", "x"},
		{"", "a", "get", "b"},
		{"a", "b", "get", ""},
	}
	seen := map[string]path{}
	for _, p := range paths {
		var sym string
		if p.field == "" {
			sym = MessageFunction(p.pkg, p.msg, p.verb)
		} else {
			sym = FieldFunction(p.pkg, p.msg, p.verb, p.field)
		}
		if prev, ok := seen[sym]; ok {
			t.Fatalf("%+v and %+v both map to %s", prev, p, sym)
		}
		seen[sym] = p
	}
}

func TestPackageBoundaryNeedsDistinctFullNames(t *testing.T) {
	assert.Equal(t, FieldFunction("a", "M", "get", "open"), MessageFunction("a.M", "get", "open"))

	compiler := protocompile.Compiler{
		Resolver: &protocompile.SourceResolver{
			Accessor: protocompile.SourceAccessorFromMap(map[string]string{
				"m.proto":   "syntax = \"proto3\";\npackage a;\nmessage M {}\n",
				"get.proto": "syntax = \"proto3\";\npackage a.M;\nimport \"m.proto\";\nmessage get {}\n",
			}),
		},
	}
	_, err := compiler.Compile(context.Background(), "get.proto")
	require.Error(t, err)
}

func TestOpenFunction(t *testing.T) {
	assert.Equal(t, "luaopen_protobuf_person", OpenFunction("person.proto"))
	assert.Equal(t, "luaopen_protobuf_foo__bar_ubaz", OpenFunction("foo/bar_baz.proto"))
	assert.NotEqual(t, OpenFunction("foo/bar.proto"), OpenFunction("foo_bar.proto"))
	assert.NotEqual(t, OpenFunction("a-b.proto"), OpenFunction("a_b.proto"))
	assert.Equal(t, "LUA_PROTOBUF_FOO__BAR_PB_LUA_H", HeaderGuard("foo/bar.proto"))
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "foo/bar.pb-lua.h", HeaderName("foo/bar.proto"))
	assert.Equal(t, "foo/bar.pb-lua.cc", SourceName("foo/bar.proto"))
	assert.Equal(t, "foo/bar.pb.h", ProtoHeader("foo/bar.proto"))
	assert.Equal(t, "foo/bar.pb-lua.d.lua", AnnotationName("foo/bar.proto"))
}

func TestCpp(t *testing.T) {
	assert.Equal(t, "::foo::bar::Person", CppClass("foo.bar", "Person"))
	assert.Equal(t, "::foo::Outer_Inner", CppClass("foo", "Outer.Inner"))
	assert.Equal(t, "::Person", CppClass("", "Person"))
	assert.Equal(t, "class_", CppField("class"))
	assert.Equal(t, "firstname", CppField("firstName"))
	assert.Equal(t, "first_name", CppField("first_name"))
}
