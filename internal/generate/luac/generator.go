// Package luac generates Lua C API bindings for protobuf messages: a header
// and a C++ source file per .proto file, plus the shared lua-protobuf runtime.
package luac

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/jptrs93/luaproto/internal/codegen"
	"github.com/jptrs93/luaproto/internal/generate"
	"github.com/jptrs93/luaproto/internal/ir"
	"github.com/jptrs93/luaproto/internal/naming"

	"golang.org/x/sync/errgroup"
)

type Generator struct {
	Logger *slog.Logger
}

func (Generator) Name() string {
	return "lua"
}

func (g Generator) Generate(ctx context.Context, pkgs []ir.Package, options generate.Options) ([]generate.OutputFile, error) {
	logger := g.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	limit := options.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([][]generate.OutputFile, len(pkgs))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i, pkg := range pkgs {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := GenerateFile(pkg)
			if err != nil {
				return fmt.Errorf("generate %s: %w", pkg.Path, err)
			}
			dir := outputDir(pkg, options)
			results[i] = []generate.OutputFile{
				{Path: filepath.Join(dir, naming.HeaderName(pkg.Path)), Content: codegen.Join(out.Declarations)},
				{Path: filepath.Join(dir, naming.SourceName(pkg.Path)), Content: codegen.Join(out.Definitions)},
			}
			logger.Debug("generated bindings", "file", pkg.Path, "messages", len(pkg.Messages), "enums", len(pkg.Enums))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var outputs []generate.OutputFile
	for _, r := range results {
		outputs = append(outputs, r...)
	}
	if !options.SkipRuntime {
		// every generated header includes lua-protobuf.h from its own directory
		seen := map[string]bool{}
		for _, pkg := range pkgs {
			dir := outputDir(pkg, options)
			if seen[dir] {
				continue
			}
			seen[dir] = true
			outputs = append(outputs, runtimeFiles(dir)...)
		}
	}
	logger.Info("lua bindings generated", "files", len(pkgs), "outputs", len(outputs))
	return outputs, nil
}

// File is the generated text of one .proto file.
type File struct {
	Declarations []string
	Definitions  []string
}

// GenerateFile renders one package. It fails without producing any text if a
// field cannot be bound.
func GenerateFile(pkg ir.Package) (File, error) {
	f, err := newFileGen(pkg)
	if err != nil {
		return File{}, err
	}
	return File{
		Declarations: f.declarations(),
		Definitions:  f.definitions(),
	}, nil
}

func outputDir(pkg ir.Package, options generate.Options) string {
	if options.Out != "" {
		return options.Out
	}
	return pkg.LuaOut
}
