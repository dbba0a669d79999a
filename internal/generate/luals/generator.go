// Package luals writes Lua language server stubs (---@meta files) describing
// the bound API, so editors can complete and check scripts that use it.
package luals

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jptrs93/luaproto/internal/codegen"
	"github.com/jptrs93/luaproto/internal/generate"
	"github.com/jptrs93/luaproto/internal/ir"
	"github.com/jptrs93/luaproto/internal/naming"
	"github.com/jptrs93/luaproto/internal/typemap"
)

type Generator struct {
	Logger *slog.Logger
}

func (Generator) Name() string {
	return "luals"
}

func (g Generator) Generate(ctx context.Context, pkgs []ir.Package, options generate.Options) ([]generate.OutputFile, error) {
	logger := g.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var outputs []generate.OutputFile
	for _, pkg := range pkgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines, err := GenerateFile(pkg)
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", pkg.Path, err)
		}
		dir := options.Out
		if dir == "" {
			dir = pkg.LuaOut
		}
		outputs = append(outputs, generate.OutputFile{
			Path:    filepath.Join(dir, naming.AnnotationName(pkg.Path)),
			Content: codegen.Join(lines),
		})
		logger.Debug("generated annotations", "file", pkg.Path)
	}
	return outputs, nil
}

// GenerateFile renders the stub for one package.
func GenerateFile(pkg ir.Package) ([]string, error) {
	var pre codegen.Builder
	pre.Pl("---@meta")
	pre.Pl("-- Generated by luaproto. DO NOT EDIT.")
	pre.Pl("-- source: %s", pkg.Path)

	fragments := []codegen.Fragment{pre.Fragment("preamble")}
	for _, e := range pkg.Enums {
		var b codegen.Builder
		writeEnum(&b, naming.PackageLibrary(pkg.Name), e)
		fragments = append(fragments, b.Fragment(e.FullName))
	}
	for _, msg := range pkg.Messages {
		var b codegen.Builder
		if err := writeMessage(&b, pkg.Name, msg); err != nil {
			return nil, fmt.Errorf("%s: %w", msg.FullName, err)
		}
		fragments = append(fragments, b.Fragment(msg.FullName))
	}
	return codegen.Assemble(fragments...), nil
}

func writeEnum(b *codegen.Builder, lib string, e ir.Enum) {
	b.Pl("---@enum %s", e.FullName)
	b.Pl("%s.%s = {", lib, e.Name)
	b.Suite(func() {
		for _, v := range e.Values {
			b.Pl("%s = %d,", v.Name, v.Number)
		}
	}, "}")
}

// luaType is the annotation type of one element of f.
func luaType(f ir.Field) (string, error) {
	conv, err := typemap.Lookup(f.Type)
	if err != nil {
		return "", fmt.Errorf("%s: %w", f.Name, err)
	}
	switch t := f.Type.(type) {
	case ir.EnumRef:
		return t.FullName, nil
	case ir.MessageRef:
		return t.FullName, nil
	}
	return conv.Category.String(), nil
}

func writeMessage(b *codegen.Builder, pkg string, msg ir.Message) error {
	lib := naming.Library(pkg, msg.Name)
	b.Pl("---@class %s", lib)
	for _, e := range msg.Enums {
		b.Pl("---@field %s %s", e.Name, e.FullName)
	}
	b.Pl("%s = {}", lib)
	b.Nl()
	b.Pl("---@return %s", msg.FullName)
	b.Pl("function %s.new() end", lib)
	b.Nl()
	b.Pl("---@param data string")
	b.Pl("---@return %s", msg.FullName)
	b.Pl("function %s.parsefromstring(data) end", lib)
	for _, e := range msg.Enums {
		b.Nl()
		writeEnum(b, lib, e)
	}
	b.Nl()

	var err error
	b.Pl("do")
	b.Suite(func() {
		b.Pl("---@class %s", msg.FullName)
		b.Pl("local M = {}")
		b.Nl()
		b.Pl("---@return string")
		b.Pl("function M:serialized() end")
		b.Pl("function M:clear() end")
		for _, f := range msg.Fields {
			if err = writeField(b, f); err != nil {
				return
			}
		}
	}, "end")
	return err
}

func writeField(b *codegen.Builder, f ir.Field) error {
	ops, err := typemap.Operations(f)
	if err != nil {
		return err
	}
	shape, err := typemap.ShapeOf(f)
	if err != nil {
		return err
	}
	typ, err := luaType(f)
	if err != nil {
		return err
	}
	optional := ""
	if f.Presence && shape == typemap.ShapeScalar {
		optional = "?"
	}
	b.Nl()
	b.Pl("-- %s %s %s = %d", f.Label, f.Type, f.Name, f.Number)
	for _, op := range ops {
		method := naming.Method(op.String(), f.Name)
		switch op {
		case typemap.OpClear:
			b.Pl("function M:%s() end", method)
		case typemap.OpHas:
			b.Pl("---@return boolean")
			b.Pl("function M:%s() end", method)
		case typemap.OpSize:
			b.Pl("---@return integer")
			b.Pl("function M:%s() end", method)
		case typemap.OpAdd:
			b.Pl("---@return %s", typ)
			b.Pl("function M:%s() end", method)
		case typemap.OpGet:
			if shape.Repeated() {
				b.Pl("---@param index integer")
				b.Pl("---@return %s", typ)
				b.Pl("function M:%s(index) end", method)
			} else {
				b.Pl("---@return %s%s", typ, optional)
				b.Pl("function M:%s() end", method)
			}
		case typemap.OpSet:
			switch {
			case shape.Message():
				b.Pl("---@deprecated raises StateError; modify the referenced message instead")
				b.Pl("function M:%s(...) end", method)
			case shape.Repeated():
				b.Pl("---@param index integer")
				b.Pl("---@param value %s", typ)
				b.Pl("function M:%s(index, value) end", method)
			default:
				b.Pl("---@param value %s?", typ)
				b.Pl("function M:%s(value) end", method)
			}
		}
	}
	return nil
}
