// Package plugin implements the protoc plugin protocol on top of the luac
// generator.
package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jptrs93/luaproto/internal/generate"
	"github.com/jptrs93/luaproto/internal/generate/luac"
	"github.com/jptrs93/luaproto/internal/generate/luals"
	"github.com/jptrs93/luaproto/internal/parser"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/pluginpb"
)

type Params struct {
	SkipRuntime bool
	Annotations bool
	LogLevel    string
}

// ParseParams reads the comma separated --luaproto_opt parameter, e.g.
// "skip_runtime,annotations,log_level=debug".
func ParseParams(param string) (Params, error) {
	var p Params
	for _, kv := range strings.Split(param, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		key, value, hasValue := strings.Cut(kv, "=")
		switch key {
		case "skip_runtime", "annotations":
			b := true
			if hasValue {
				var err error
				if b, err = strconv.ParseBool(value); err != nil {
					return Params{}, fmt.Errorf("parameter %s: %w", key, err)
				}
			}
			if key == "skip_runtime" {
				p.SkipRuntime = b
			} else {
				p.Annotations = b
			}
		case "log_level":
			p.LogLevel = value
		default:
			return Params{}, fmt.Errorf("unknown parameter %q", key)
		}
	}
	return p, nil
}

// Run answers a code generation request. Failures are reported through the
// response's error field, as protoc expects.
func Run(ctx context.Context, logger *slog.Logger, req *pluginpb.CodeGeneratorRequest) *pluginpb.CodeGeneratorResponse {
	resp := &pluginpb.CodeGeneratorResponse{
		SupportedFeatures: proto.Uint64(uint64(pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL)),
	}
	outputs, err := generateFiles(ctx, logger, req)
	if err != nil {
		resp.Error = proto.String(err.Error())
		return resp
	}
	for _, out := range outputs {
		resp.File = append(resp.File, &pluginpb.CodeGeneratorResponse_File{
			Name:    proto.String(filepath.ToSlash(out.Path)),
			Content: proto.String(string(out.Content)),
		})
	}
	return resp
}

func generateFiles(ctx context.Context, logger *slog.Logger, req *pluginpb.CodeGeneratorRequest) ([]generate.OutputFile, error) {
	params, err := ParseParams(req.GetParameter())
	if err != nil {
		return nil, err
	}
	files, err := parser.FilesFromProtos(req.GetProtoFile(), req.GetFileToGenerate())
	if err != nil {
		return nil, err
	}
	pkgs, err := parser.ToIR(files)
	if err != nil {
		return nil, err
	}
	// Paths are relative to protoc's output directory.
	for i := range pkgs {
		if filepath.IsAbs(pkgs[i].LuaOut) {
			logger.Warn("ignoring absolute luaproto.lua_out", "file", pkgs[i].Path, "lua_out", pkgs[i].LuaOut)
			pkgs[i].LuaOut = ""
		}
	}
	generators := []generate.Generator{luac.Generator{Logger: logger}}
	if params.Annotations {
		generators = append(generators, luals.Generator{Logger: logger})
	}
	options := generate.Options{SkipRuntime: params.SkipRuntime}
	var outputs []generate.OutputFile
	for _, gen := range generators {
		out, err := gen.Generate(ctx, pkgs, options)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out...)
	}
	return outputs, nil
}
