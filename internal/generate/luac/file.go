package luac

import (
	"sort"

	"github.com/jptrs93/luaproto/internal/codegen"
	"github.com/jptrs93/luaproto/internal/ir"
	"github.com/jptrs93/luaproto/internal/naming"
)

const banner = "// Generated by luaproto. DO NOT EDIT."

type fileGen struct {
	pkg  ir.Package
	msgs []*messageGen
}

func newFileGen(pkg ir.Package) (*fileGen, error) {
	f := &fileGen{pkg: pkg}
	for _, msg := range pkg.Messages {
		m, err := newMessageGen(pkg.Name, msg)
		if err != nil {
			return nil, err
		}
		f.msgs = append(f.msgs, m)
	}
	return f, nil
}

// bindingIncludes lists the headers of other files whose messages this file
// pushes references to.
func (f *fileGen) bindingIncludes() []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range f.msgs {
		for _, field := range m.fields {
			ref, ok := field.Type.(ir.MessageRef)
			if !ok || ref.File == f.pkg.Path || ref.File == "" || seen[ref.File] {
				continue
			}
			seen[ref.File] = true
			out = append(out, naming.HeaderName(ref.File))
		}
	}
	sort.Strings(out)
	return out
}

func (f *fileGen) declarations() []string {
	var pre codegen.Builder
	guard := naming.HeaderGuard(f.pkg.Path)
	pre.Pl(banner)
	pre.Pl("// source: %s", f.pkg.Path)
	pre.Nl()
	pre.Pl("#ifndef %s", guard)
	pre.Pl("#define %s", guard)
	pre.Nl()
	pre.Pl(`#include "%s"`, naming.RuntimeHeader)
	pre.Pl(`#include "%s"`, naming.ProtoHeader(f.pkg.Path))
	for _, inc := range f.bindingIncludes() {
		pre.Pl(`#include "%s"`, inc)
	}
	pre.Nl()
	pre.Pl("#ifdef __cplusplus")
	pre.Pl(`extern "C" {`)
	pre.Pl("#endif")
	pre.Nl()
	pre.Pl("#include <lua.h>")

	var open codegen.Builder
	open.Pl("// registers the messages and enumerations of %s", f.pkg.Path)
	open.Pl("LUA_PROTOBUF_EXPORT int %s(lua_State *L);", naming.OpenFunction(f.pkg.Path))

	var post codegen.Builder
	post.Pl("#ifdef __cplusplus")
	post.Pl("}")
	post.Pl("#endif")
	post.Nl()
	post.Pl("#endif")

	frags := []codegen.Fragment{pre.Fragment("preamble"), open.Fragment("open")}
	for _, m := range f.msgs {
		frags = append(frags, m.declarations())
	}
	frags = append(frags, post.Fragment("epilogue"))
	return codegen.Assemble(frags...)
}

func (f *fileGen) definitions() []string {
	var pre codegen.Builder
	pre.Pl(banner)
	pre.Pl("// source: %s", f.pkg.Path)
	pre.Nl()
	pre.Pl(`#include "%s"`, naming.HeaderName(f.pkg.Path))
	pre.Nl()
	pre.Pl("#include <cmath>")
	pre.Pl("#include <string>")
	pre.Nl()
	pre.Pl("#ifdef __cplusplus")
	pre.Pl(`extern "C" {`)
	pre.Pl("#endif")
	pre.Nl()
	pre.Pl("#include <lauxlib.h>")
	pre.Nl()
	pre.Pl("#ifdef __cplusplus")
	pre.Pl("}")
	pre.Pl("#endif")

	var open codegen.Builder
	lib := naming.PackageLibrary(f.pkg.Name)
	luaFunc(&open, naming.OpenFunction(f.pkg.Path), func() {
		open.If(`luaL_findtable(L, LUA_GLOBALSINDEX, "`+lib+`", 1) != NULL`, func() {
			open.Pl(`return luaL_error(L, "could not create table %s");`, lib)
		})
		for _, e := range f.pkg.Enums {
			writeEnum(&open, e)
		}
		if len(f.pkg.Enums) > 0 {
			open.Nl()
		}
		for _, m := range f.msgs {
			open.Pl("%s(L);", m.symbol("open"))
		}
		open.Pl("return 1;")
	})

	frags := []codegen.Fragment{pre.Fragment("preamble"), open.Fragment("open")}
	for _, m := range f.msgs {
		frags = append(frags, m.definitions()...)
	}
	return codegen.Assemble(frags...)
}
