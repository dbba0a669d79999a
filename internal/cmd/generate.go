package cmd

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/jptrs93/luaproto/internal/generate"
	"github.com/jptrs93/luaproto/internal/generate/luac"
	"github.com/jptrs93/luaproto/internal/generate/luals"
	"github.com/jptrs93/luaproto/internal/parser"
)

type Generate struct {
	Sources     `embed:""`
	Out         string `name:"lua_out" help:"Output directory; defaults to each file's luaproto.lua_out option"`
	SkipRuntime bool   `name:"skip_runtime" help:"Do not emit lua-protobuf.h and lua-protobuf.cc"`
	Concurrency int    `name:"concurrency" help:"Files generated in parallel, 0 for GOMAXPROCS" default:"0"`
	Annotations bool   `name:"annotations" help:"Also emit Lua language server stubs (.pb-lua.d.lua)"`
}

func (c *Generate) Run(logger *slog.Logger) error {
	ctx := context.Background()
	files, err := c.Sources.Load(ctx)
	if err != nil {
		return err
	}
	pkgs, err := parser.ToIR(files)
	if err != nil {
		return err
	}
	if c.Out == "" {
		for _, pkg := range pkgs {
			if pkg.LuaOut == "" {
				return errors.New("--lua_out or the luaproto.lua_out option is required for " + pkg.Path)
			}
		}
	}

	options := generate.Options{
		Out:         cleanPath(c.Out),
		SkipRuntime: c.SkipRuntime,
		Concurrency: c.Concurrency,
	}
	generators := []generate.Generator{
		luac.Generator{Logger: logger},
	}
	if c.Annotations {
		generators = append(generators, luals.Generator{Logger: logger})
	}
	for _, gen := range generators {
		outputs, err := gen.Generate(ctx, pkgs, options)
		if err != nil {
			return err
		}
		logger.Info("generated", "generator", gen.Name(), "files", len(outputs))
		if err := generate.WriteFiles(logger, outputs); err != nil {
			return err
		}
	}
	return nil
}

func cleanPath(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}
