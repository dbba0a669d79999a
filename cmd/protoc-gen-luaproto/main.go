// protoc-gen-luaproto is the protoc plugin form of "luaproto generate":
//
//	protoc --plugin=protoc-gen-luaproto --luaproto_out=gen --luaproto_opt=skip_runtime foo.proto
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jptrs93/luaproto/internal/log"
	"github.com/jptrs93/luaproto/internal/plugin"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/pluginpb"
)

func main() {
	if err := run(os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "protoc-gen-luaproto:", err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, console *os.File) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	req := &pluginpb.CodeGeneratorRequest{}
	if err := proto.Unmarshal(data, req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	// A bad parameter is reported by plugin.Run in the response.
	level := "warn"
	if params, err := plugin.ParseParams(req.GetParameter()); err == nil && params.LogLevel != "" {
		level = params.LogLevel
	}
	logger, closers, err := log.SetupLogger(log.Options{Level: level, Format: "text"}, console)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	resp := plugin.Run(context.Background(), logger, req)
	b, err := proto.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	_, err = out.Write(b)
	return err
}
