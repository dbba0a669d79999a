package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jptrs93/luaproto/luapb"

	lua "github.com/yuin/gopher-lua"
)

type Exec struct {
	Sources `embed:""`
	Script  string `name:"script" short:"s" required:"" help:"Lua script to run"`
}

func (c *Exec) Run(logger *slog.Logger) error {
	files, err := c.Sources.Load(context.Background())
	if err != nil {
		return err
	}

	L := lua.NewState()
	defer L.Close()
	rt := luapb.New(L, luapb.WithLogger(logger))
	defer rt.Close()
	if err := rt.Open(files...); err != nil {
		return err
	}
	logger.Debug("running script", "script", c.Script, "files", len(files))
	if err := L.DoFile(c.Script); err != nil {
		return fmt.Errorf("run %s: %w", c.Script, err)
	}
	return nil
}
