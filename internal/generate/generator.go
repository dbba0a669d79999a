package generate

import (
	"context"

	"github.com/jptrs93/luaproto/internal/ir"
)

type OutputFile struct {
	Path    string
	Content []byte
}

type Options struct {
	// Out is the output directory. A package's luaproto.lua_out option is
	// used when Out is empty.
	Out string
	// SkipRuntime suppresses the shared lua-protobuf.h/.cc pair.
	SkipRuntime bool
	// Concurrency bounds how many files are generated at once. Zero means
	// GOMAXPROCS.
	Concurrency int
}

type Generator interface {
	Name() string
	Generate(ctx context.Context, pkgs []ir.Package, options Options) ([]OutputFile, error)
}
