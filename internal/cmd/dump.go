package cmd

import (
	"context"
	"io"
	"os"

	"github.com/jptrs93/luaproto/internal/parser"

	"github.com/davecgh/go-spew/spew"
)

type Dump struct {
	Sources `embed:""`

	Out io.Writer `kong:"-"`
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func (c *Dump) Run() error {
	files, err := c.Sources.Load(context.Background())
	if err != nil {
		return err
	}
	pkgs, err := parser.ToIR(files)
	if err != nil {
		return err
	}
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	dumpConfig.Fdump(out, pkgs)
	return nil
}
