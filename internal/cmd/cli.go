// Package cmd holds the luaproto subcommands. Each command is a kong node
// whose Run method receives the shared *slog.Logger.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jptrs93/luaproto/internal/parser"

	"google.golang.org/protobuf/reflect/protoreflect"
)

type LogOptions struct {
	Level  string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info"`
	File   string `help:"Also write logs to this file"`
	Format string `help:"Console log format" enum:"auto,text,json" default:"auto"`
}

type CLI struct {
	ConfigFile string     `name:"config" help:"Config file (json, yaml or toml)" env:"LUAPROTO_CONFIG"`
	Log        LogOptions `embed:"" prefix:"log."`

	Generate Generate      `cmd:"" help:"Generate Lua C API bindings"`
	Exec     Exec          `cmd:"" help:"Run a Lua script with schemas bound through the Go runtime"`
	Dump     Dump          `cmd:"" help:"Print the schema model"`
	Config   ConfigCommand `cmd:"" help:"Configuration helpers"`
}

// Sources selects the schemas a command works on.
type Sources struct {
	ProtoPath       []string `name:"proto_path" short:"I" help:"Import path (repeatable)"`
	DescriptorSetIn string   `name:"descriptor_set_in" help:"Read a serialized FileDescriptorSet instead of compiling .proto sources"`
	Files           []string `arg:"" optional:"" name:"files" help:"Proto files to process"`
}

// Load compiles the selected files, or reads them from the descriptor set.
// With a descriptor set and no files, every file in the set is returned.
func (s Sources) Load(ctx context.Context) ([]protoreflect.FileDescriptor, error) {
	if s.DescriptorSetIn != "" {
		data, err := os.ReadFile(s.DescriptorSetIn)
		if err != nil {
			return nil, fmt.Errorf("read descriptor set: %w", err)
		}
		return parser.FilesFromDescriptorSet(data, s.Files...)
	}
	if len(s.Files) == 0 {
		return nil, errors.New("no proto files provided")
	}
	importPaths := s.ProtoPath
	if len(importPaths) == 0 {
		importPaths = []string{"."}
	}
	p := parser.Parser{ImportPaths: importPaths}
	return p.Compile(ctx, s.Files)
}
