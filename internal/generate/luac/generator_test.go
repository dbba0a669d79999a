package luac

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jptrs93/luaproto/internal/generate"
	"github.com/jptrs93/luaproto/internal/ir"
	"github.com/jptrs93/luaproto/internal/testutil"
	"github.com/jptrs93/luaproto/internal/typemap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generatePeople(t *testing.T) (string, string) {
	t.Helper()
	pkgs := testutil.Packages(t, testutil.Sources(), "people.proto")
	out, err := GenerateFile(pkgs[0])
	require.NoError(t, err)
	return strings.Join(out.Declarations, "\n"), strings.Join(out.Definitions, "\n")
}

func lines(l ...string) string {
	return strings.Join(l, "\n")
}

func TestHeader(t *testing.T) {
	header, _ := generatePeople(t)
	assert.True(t, strings.HasPrefix(header, "// Generated by luaproto. DO NOT EDIT.\n// source: people.proto\n"))
	assert.Contains(t, header, "#ifndef LUA_PROTOBUF_PEOPLE_PB_LUA_H")
	assert.Contains(t, header, `#include "lua-protobuf.h"`)
	assert.Contains(t, header, `#include "people.pb.h"`)
	assert.Contains(t, header, "LUA_PROTOBUF_EXPORT int luaopen_protobuf_people(lua_State *L);")
	assert.Contains(t, header, "LUA_PROTOBUF_EXPORT bool lua_protobuf_test_people_Person_pushcopy(lua_State *L, const ::test::people::Person &from);")
	assert.Contains(t, header, "LUA_PROTOBUF_EXPORT bool lua_protobuf_test_people_Person_0Address_pushreference(lua_State *L, ::test::people::Person_Address *msg, lua_protobuf_gc_callback callback, void *data);")
	assert.Contains(t, header, "// optional int32 age = 2")
	assert.Contains(t, header, "// repeated test.people.Person.Address previous = 14")
	assert.True(t, strings.HasSuffix(header, "#endif"))
}

func TestOperationSetPerField(t *testing.T) {
	header, source := generatePeople(t)
	for _, sym := range []string{
		"lua_protobuf_test_people_Person_has_age",
		"lua_protobuf_test_people_Person_has_home",
		"lua_protobuf_test_people_Person_size_tags",
		"lua_protobuf_test_people_Person_size_previous",
		"lua_protobuf_test_people_Person_add_previous",
		"lua_protobuf_test_people_Person_set_home",
		"lua_protobuf_test_people_Person_clear_tags",
	} {
		assert.Contains(t, header, sym+"(lua_State *L);")
		assert.Contains(t, source, "int "+sym+"(lua_State *L)\n{")
	}
	for _, sym := range []string{
		"lua_protobuf_test_people_Person_has_tags",
		"lua_protobuf_test_people_Person_has_previous",
		"lua_protobuf_test_people_Person_size_age",
		"lua_protobuf_test_people_Person_add_tags",
		"lua_protobuf_test_people_Person_add_home",
	} {
		assert.NotContains(t, header, sym)
		assert.NotContains(t, source, sym)
	}
	assert.Contains(t, source, `{"get_previous", lua_protobuf_test_people_Person_get_previous},`)
}

func TestOptionalScalarGet(t *testing.T) {
	_, source := generatePeople(t)
	assert.Contains(t, source, lines(
		"int lua_protobuf_test_people_Person_get_age(lua_State *L)",
		"{",
		`    ::test::people::Person *m = (::test::people::Person *)lua_protobuf_checkmessage(L, 1, "protobuf_.test.people.Person");`,
		"    if (!m->has_age()) {",
		"        lua_pushnil(L);",
		"        return 1;",
		"    }",
		"    lua_pushinteger(L, m->age());",
		"    return 1;",
		"}",
	))
}

func TestOptionalScalarSet(t *testing.T) {
	_, source := generatePeople(t)
	assert.Contains(t, source, lines(
		"int lua_protobuf_test_people_Person_set_name(lua_State *L)",
		"{",
		`    ::test::people::Person *m = (::test::people::Person *)lua_protobuf_checkmessage(L, 1, "protobuf_.test.people.Person");`,
		"    if (lua_gettop(L) != 2) {",
		`        return luaL_error(L, LUA_PROTOBUF_ARGUMENT_ERROR "set_name() requires exactly one argument");`,
		"    }",
		"    if (lua_isnil(L, 2)) {",
		"        m->clear_name();",
		"        return 0;",
		"    }",
		"    if (!lua_isstring(L, 2)) {",
		`        return luaL_error(L, LUA_PROTOBUF_TYPE_MISMATCH "set_name() expects a value of type string, got %s", luaL_typename(L, 2));`,
		"    }",
		"    size_t len = 0;",
		"    const char *value = lua_tolstring(L, 2, &len);",
		"    m->set_name(value, len);",
		"    return 0;",
		"}",
	))
}

func TestEnumSetChecksRangeBeforeNarrowing(t *testing.T) {
	_, source := generatePeople(t)
	assert.Contains(t, source, lines(
		"    lua_Number raw = lua_tonumber(L, 2);",
		"    if (raw < -2147483648.0 || raw > 2147483647.0 || raw != std::floor(raw) || !::test::people::Person_Kind_IsValid((int)raw)) {",
		`        return luaL_error(L, LUA_PROTOBUF_RANGE_ERROR "%s is not a valid test.people.Person.Kind value", lua_tostring(L, 2));`,
		"    }",
		"    ::test::people::Person_Kind value = (::test::people::Person_Kind)(int)raw;",
		"    m->set_kind(value);",
	))
	assert.Contains(t, source, "!::test::people::Color_IsValid((int)raw)")
	assert.NotContains(t, source, "_IsValid(value)")
	assert.Contains(t, source, "#include <cmath>")
}

func TestRepeatedScalarSetAppends(t *testing.T) {
	_, source := generatePeople(t)
	assert.Contains(t, source, lines(
		"    lua_Number number = lua_tonumber(L, 2);",
		"    if (number != std::floor(number)) {",
		`        return luaL_error(L, LUA_PROTOBUF_ARGUMENT_ERROR "set_lucky() index must be an integer, got %s", lua_tostring(L, 2));`,
		"    }",
		"    int size = m->lucky_size();",
		"    lua_Integer index = (number >= 1 && number <= size + 1) ? (lua_Integer)number : 0;",
		"    if (index < 1 || index > size + 1) {",
		`        return luaL_error(L, LUA_PROTOBUF_RANGE_ERROR "index must be between 1 and %d", size + 1);`,
		"    }",
		"    if (lua_isnil(L, 3)) {",
		`        return luaL_error(L, LUA_PROTOBUF_ARGUMENT_ERROR "cannot assign nil to an element of repeated field lucky");`,
		"    }",
	))
	assert.Contains(t, source, lines(
		"    if (index == size + 1) {",
		"        m->add_lucky(value);",
		"    } else {",
		"        m->set_lucky(index - 1, value);",
		"    }",
	))
	assert.Contains(t, source, `"index must be between 1 and current size: %d", size);`)
}

func TestMessageFieldsAreReferences(t *testing.T) {
	_, source := generatePeople(t)
	assert.Contains(t, source, "    lua_protobuf_test_people_Person_0Address_pushreference(L, m->mutable_home(), NULL, NULL);")
	assert.Contains(t, source, "    lua_protobuf_test_people_Person_0Address_pushreference(L, m->mutable_previous(index - 1), NULL, NULL);")
	assert.Contains(t, source, lines(
		"    ::test::people::Person_Address *msg = m->add_previous();",
		"    lua_protobuf_test_people_Person_0Address_pushreference(L, msg, NULL, NULL);",
	))
	assert.Contains(t, source, "LUA_PROTOBUF_STATE_ERROR \"to manipulate embedded message home, fetch it with get_home() and modify it in place\"")
	assert.Contains(t, source, "LUA_PROTOBUF_STATE_ERROR \"cannot assign elements of previous, use add_previous() and modify the returned message\"")
	// self reference
	assert.Contains(t, source, "    lua_protobuf_test_people_Person_pushreference(L, m->mutable_friend_(), NULL, NULL);")
}

func TestMessageGetAlwaysReturnsReference(t *testing.T) {
	_, source := generatePeople(t)
	assert.Contains(t, source, lines(
		"int lua_protobuf_test_people_Person_get_home(lua_State *L)",
		"{",
		`    ::test::people::Person *m = (::test::people::Person *)lua_protobuf_checkmessage(L, 1, "protobuf_.test.people.Person");`,
		"    lua_protobuf_test_people_Person_0Address_pushreference(L, m->mutable_home(), NULL, NULL);",
		"    return 1;",
		"}",
	))
	assert.NotContains(t, source, "if (!m->has_home())")
	assert.NotContains(t, source, "if (!m->has_friend_())")
}

func TestLifecycle(t *testing.T) {
	_, source := generatePeople(t)
	assert.Contains(t, source, `lua_protobuf_pushudata(L, new ::test::people::Person(from), LUA_PROTOBUF_OWNED, NULL, NULL, "protobuf_.test.people.Person");`)
	assert.Contains(t, source, `lua_protobuf_pushudata(L, msg, LUA_PROTOBUF_BORROWED, callback, data, "protobuf_.test.people.Person");`)
	assert.Contains(t, source, lines(
		"    if (!msg->ParseFromArray((const void *)s, (int)len)) {",
		"        delete msg;",
		`        return luaL_error(L, LUA_PROTOBUF_CODEC_ERROR "error deserializing message");`,
		"    }",
	))
	assert.Contains(t, source, lines(
		`    msg_udata *ud = (msg_udata *)luaL_checkudata(L, 1, "protobuf_.test.people.Person");`,
		"    lua_protobuf_release(ud);",
		"    return 0;",
	))
	assert.Contains(t, source, `luaL_register(L, "protobuf.test.people.Person.Address", lua_protobuf_test_people_Person_0Address_functions);`)
}

func TestOpenRegistersEnums(t *testing.T) {
	_, source := generatePeople(t)
	assert.Contains(t, source, lines(
		"int luaopen_protobuf_people(lua_State *L)",
		"{",
		`    if (luaL_findtable(L, LUA_GLOBALSINDEX, "protobuf.test.people", 1) != NULL) {`,
		`        return luaL_error(L, "could not create table protobuf.test.people");`,
		"    }",
		"",
		"    // test.people.Color",
		"    lua_newuserdata(L, 0);",
	))
	assert.Contains(t, source, lines(
		"    lua_pushinteger(L, 1);",
		`    lua_setfield(L, -2, "RED");`,
		"    lua_pushinteger(L, 1);",
		`    lua_setfield(L, -2, "CRIMSON");`,
	))
	assert.Contains(t, source, `lua_setfield(L, -2, "__metatable");`)
	assert.Contains(t, source, "    // test.people.Person.Kind")
	openPerson := strings.Index(source, "    lua_protobuf_test_people_Person_open(L);")
	openAddress := strings.Index(source, "    lua_protobuf_test_people_Person_0Address_open(L);")
	require.True(t, openPerson > 0 && openAddress > openPerson)
}

func TestImplicitPresence(t *testing.T) {
	pkgs := testutil.Packages(t, testutil.Sources(), "flat.proto")
	out, err := GenerateFile(pkgs[0])
	require.NoError(t, err)
	header := strings.Join(out.Declarations, "\n")
	source := strings.Join(out.Definitions, "\n")

	assert.Contains(t, header, `#include "people.pb-lua.h"`)
	assert.Contains(t, source, "    lua_pushboolean(L, m->x() != 0);")
	assert.Contains(t, source, "    lua_pushboolean(L, !m->name().empty());")
	assert.Contains(t, source, "    lua_pushboolean(L, m->has_label());")
	assert.NotContains(t, source, "if (!m->x() != 0)")
	assert.Contains(t, source, "lua_protobuf_test_people_Person_pushreference(L, m->mutable_owner(), NULL, NULL);")
}

func TestGenerateIsDeterministic(t *testing.T) {
	pkgs := testutil.Packages(t, testutil.Sources(), "people.proto", "flat.proto")
	first, err := Generator{}.Generate(context.Background(), pkgs, generate.Options{Out: "out", Concurrency: 2})
	require.NoError(t, err)
	second, err := Generator{}.Generate(context.Background(), pkgs, generate.Options{Out: "out"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateOutputs(t *testing.T) {
	pkgs := testutil.Packages(t, testutil.Sources(), "people.proto", "flat.proto")
	outputs, err := Generator{}.Generate(context.Background(), pkgs, generate.Options{Out: "out"})
	require.NoError(t, err)
	var paths []string
	for _, o := range outputs {
		paths = append(paths, o.Path)
	}
	assert.Equal(t, []string{
		filepath.Join("out", "people.pb-lua.h"),
		filepath.Join("out", "people.pb-lua.cc"),
		filepath.Join("out", "flat.pb-lua.h"),
		filepath.Join("out", "flat.pb-lua.cc"),
		filepath.Join("out", "lua-protobuf.h"),
		filepath.Join("out", "lua-protobuf.cc"),
	}, paths)

	outputs, err = Generator{}.Generate(context.Background(), pkgs, generate.Options{Out: "out", SkipRuntime: true})
	require.NoError(t, err)
	assert.Len(t, outputs, 4)
}

func TestRuntimeFilesPerOutputDirectory(t *testing.T) {
	pkgs := []ir.Package{
		{Path: "a.proto", Name: "a", LuaOut: "gen1"},
		{Path: "b.proto", Name: "b", LuaOut: "gen2"},
		{Path: "c.proto", Name: "c", LuaOut: "gen1"},
	}
	outputs, err := Generator{}.Generate(context.Background(), pkgs, generate.Options{})
	require.NoError(t, err)
	var dirs []string
	for _, o := range outputs {
		if filepath.Base(o.Path) == "lua-protobuf.h" {
			dirs = append(dirs, filepath.Dir(o.Path))
		}
	}
	assert.Equal(t, []string{"gen1", "gen2"}, dirs)
	assert.Len(t, outputs, 10)
}

func TestLuaOutOptionSetsDirectory(t *testing.T) {
	pkg := ir.Package{Path: "a/b.proto", Name: "a", LuaOut: "gen"}
	outputs, err := Generator{}.Generate(context.Background(), []ir.Package{pkg}, generate.Options{SkipRuntime: true})
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	assert.Equal(t, filepath.Join("gen", "a", "b.pb-lua.h"), outputs[0].Path)
}

func TestUnsupportedFieldTypeAbortsFile(t *testing.T) {
	pkg := ir.Package{Path: "bad.proto", Name: "bad", Messages: []ir.Message{{
		Name:     "M",
		FullName: "bad.M",
		Fields: []ir.Field{
			{Name: "ok", Number: 1, Label: ir.LabelOptional, Type: ir.Scalar{Kind: ir.KindInt32}},
			{Name: "weird", Number: 2, Label: ir.LabelOptional, Type: ir.Scalar{Kind: ir.Kind(42)}},
		},
	}}}
	outputs, err := Generator{}.Generate(context.Background(), []ir.Package{pkg}, generate.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, typemap.ErrUnsupportedFieldType)
	assert.Contains(t, err.Error(), "bad.M.weird")
	assert.Nil(t, outputs)
}

func TestUnknownLabelAbortsFile(t *testing.T) {
	pkg := ir.Package{Path: "bad.proto", Name: "bad", Messages: []ir.Message{{
		Name:     "M",
		FullName: "bad.M",
		Fields:   []ir.Field{{Name: "x", Number: 1, Type: ir.Scalar{Kind: ir.KindBool}}},
	}}}
	_, err := GenerateFile(pkg)
	assert.ErrorIs(t, err, typemap.ErrUnknownFieldLabel)
}

func TestRuntimeFiles(t *testing.T) {
	files := runtimeFiles("x")
	require.Len(t, files, 2)
	header := string(files[0].Content)
	source := string(files[1].Content)
	assert.Contains(t, header, "typedef int (*lua_protobuf_gc_callback)(::google::protobuf::Message *msg, void *data);")
	assert.Contains(t, header, `#define LUA_PROTOBUF_CODEC_ERROR "CodecError: "`)
	assert.Contains(t, source, "attempting to access undefined enumeration value: %s")
	assert.Contains(t, source, "cannot modify enumeration tables")
}
