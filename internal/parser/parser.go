package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jptrs93/luaproto/internal/ir"
	"github.com/jptrs93/luaproto/internal/typemap"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

type Parser struct {
	ImportPaths []string
	// Accessor opens source files. Defaults to os.Open.
	Accessor func(path string) (io.ReadCloser, error)
}

// Compile compiles the given .proto files and their imports.
func (p *Parser) Compile(ctx context.Context, filePaths []string) ([]protoreflect.FileDescriptor, error) {
	open := p.Accessor
	if open == nil {
		open = func(path string) (io.ReadCloser, error) { return os.Open(path) }
	}
	resolver := &protocompile.SourceResolver{
		ImportPaths: p.ImportPaths,
		Accessor: func(path string) (io.ReadCloser, error) {
			if path == optionsProtoPath || strings.HasSuffix(path, string(os.PathSeparator)+optionsProtoPath) {
				return io.NopCloser(strings.NewReader(optionsProtoSource)), nil
			}
			return open(path)
		},
	}
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(resolver),
	}
	files, err := compiler.Compile(ctx, filePaths...)
	if err != nil {
		return nil, err
	}
	result := make([]protoreflect.FileDescriptor, 0, len(files))
	for _, file := range files {
		result = append(result, file)
	}
	return result, nil
}

func (p *Parser) Parse(ctx context.Context, filePaths []string) ([]ir.Package, error) {
	files, err := p.Compile(ctx, filePaths)
	if err != nil {
		return nil, err
	}
	return ToIR(files)
}

// FilesFromDescriptorSet decodes a serialized FileDescriptorSet and returns
// the named files, or every file in the set when names is empty.
func FilesFromDescriptorSet(data []byte, names ...string) ([]protoreflect.FileDescriptor, error) {
	var set descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode descriptor set: %w", err)
	}
	return FilesFromProtos(set.GetFile(), names)
}

// FilesFromProtos links raw file descriptors. Every dependency must be
// present in protos.
func FilesFromProtos(protos []*descriptorpb.FileDescriptorProto, names []string) ([]protoreflect.FileDescriptor, error) {
	registry, err := protodesc.NewFiles(&descriptorpb.FileDescriptorSet{File: protos})
	if err != nil {
		return nil, fmt.Errorf("link descriptors: %w", err)
	}
	if len(names) == 0 {
		for _, fp := range protos {
			names = append(names, fp.GetName())
		}
	}
	result := make([]protoreflect.FileDescriptor, 0, len(names))
	for _, name := range names {
		fd, err := registry.FindFileByPath(name)
		if err != nil {
			return nil, fmt.Errorf("find file %s: %w", name, err)
		}
		result = append(result, fd)
	}
	return result, nil
}

func ToIR(files []protoreflect.FileDescriptor) ([]ir.Package, error) {
	var result []ir.Package
	for _, file := range files {
		pkg, err := FileToIR(file)
		if err != nil {
			return nil, err
		}
		result = append(result, pkg)
	}
	return result, nil
}

func FileToIR(file protoreflect.FileDescriptor) (ir.Package, error) {
	out := ir.Package{
		Path:   file.Path(),
		Name:   string(file.Package()),
		LuaOut: luaOutFromOptions(file),
		Enums:  collectEnums(file.Enums()),
	}
	imports := file.Imports()
	for i := 0; i < imports.Len(); i++ {
		out.Dependencies = append(out.Dependencies, imports.Get(i).Path())
	}
	msgs, err := collectMessages(file.Messages(), out.Name)
	if err != nil {
		return ir.Package{}, fmt.Errorf("%s: %w", file.Path(), err)
	}
	out.Messages = msgs
	return out, nil
}

func collectEnums(enums protoreflect.EnumDescriptors) []ir.Enum {
	var result []ir.Enum
	for i := 0; i < enums.Len(); i++ {
		enum := enums.Get(i)
		irEnum := ir.Enum{
			Name:     string(enum.Name()),
			FullName: string(enum.FullName()),
		}
		values := enum.Values()
		for j := 0; j < values.Len(); j++ {
			v := values.Get(j)
			irEnum.Values = append(irEnum.Values, ir.EnumValue{Name: string(v.Name()), Number: int32(v.Number())})
		}
		result = append(result, irEnum)
	}
	return result
}

func collectMessages(messages protoreflect.MessageDescriptors, pkg string) ([]ir.Message, error) {
	var result []ir.Message
	for i := 0; i < messages.Len(); i++ {
		msg := messages.Get(i)
		if msg.IsMapEntry() {
			continue
		}
		fields, err := collectFields(msg.Fields())
		if err != nil {
			return nil, err
		}
		result = append(result, ir.Message{
			Name:     ir.RelativeName(pkg, string(msg.FullName())),
			FullName: string(msg.FullName()),
			Fields:   fields,
			Enums:    collectEnums(msg.Enums()),
		})

		nested, err := collectMessages(msg.Messages(), pkg)
		if err != nil {
			return nil, err
		}
		result = append(result, nested...)
	}
	return result, nil
}

func collectFields(fields protoreflect.FieldDescriptors) ([]ir.Field, error) {
	var result []ir.Field
	for i := 0; i < fields.Len(); i++ {
		field := fields.Get(i)
		if field.IsMap() {
			return nil, fmt.Errorf("%w: map field %s", typemap.ErrUnsupportedFieldType, field.FullName())
		}
		label, err := labelFromField(field)
		if err != nil {
			return nil, err
		}
		typ, err := typeFromField(field)
		if err != nil {
			return nil, err
		}
		result = append(result, ir.Field{
			Name:     string(field.Name()),
			Number:   int(field.Number()),
			Label:    label,
			Type:     typ,
			Presence: field.HasPresence(),
		})
	}
	return result, nil
}

func labelFromField(field protoreflect.FieldDescriptor) (ir.Label, error) {
	switch field.Cardinality() {
	case protoreflect.Optional:
		return ir.LabelOptional, nil
	case protoreflect.Required:
		return ir.LabelRequired, nil
	case protoreflect.Repeated:
		return ir.LabelRepeated, nil
	default:
		return 0, fmt.Errorf("%w: %s on %s", typemap.ErrUnknownFieldLabel, field.Cardinality(), field.FullName())
	}
}

func typeFromField(field protoreflect.FieldDescriptor) (ir.Type, error) {
	switch field.Kind() {
	case protoreflect.MessageKind:
		target := field.Message()
		return ir.MessageRef{
			FullName: string(target.FullName()),
			Package:  string(target.ParentFile().Package()),
			File:     target.ParentFile().Path(),
		}, nil
	case protoreflect.EnumKind:
		target := field.Enum()
		return ir.EnumRef{
			FullName: string(target.FullName()),
			Package:  string(target.ParentFile().Package()),
		}, nil
	}
	kind, err := kindFromField(field)
	if err != nil {
		return nil, err
	}
	return ir.Scalar{Kind: kind}, nil
}

func kindFromField(field protoreflect.FieldDescriptor) (ir.Kind, error) {
	switch field.Kind() {
	case protoreflect.BoolKind:
		return ir.KindBool, nil
	case protoreflect.Int32Kind:
		return ir.KindInt32, nil
	case protoreflect.Int64Kind:
		return ir.KindInt64, nil
	case protoreflect.Uint32Kind:
		return ir.KindUint32, nil
	case protoreflect.Uint64Kind:
		return ir.KindUint64, nil
	case protoreflect.Sint32Kind:
		return ir.KindSint32, nil
	case protoreflect.Sint64Kind:
		return ir.KindSint64, nil
	case protoreflect.Fixed32Kind:
		return ir.KindFixed32, nil
	case protoreflect.Fixed64Kind:
		return ir.KindFixed64, nil
	case protoreflect.Sfixed32Kind:
		return ir.KindSfixed32, nil
	case protoreflect.Sfixed64Kind:
		return ir.KindSfixed64, nil
	case protoreflect.FloatKind:
		return ir.KindFloat, nil
	case protoreflect.DoubleKind:
		return ir.KindDouble, nil
	case protoreflect.StringKind:
		return ir.KindString, nil
	case protoreflect.BytesKind:
		return ir.KindBytes, nil
	default:
		return 0, fmt.Errorf("%w: %s field %s", typemap.ErrUnsupportedFieldType, field.Kind(), field.FullName())
	}
}

// FindMessage searches msgs and their nested messages for name.
func FindMessage(msgs protoreflect.MessageDescriptors, name protoreflect.FullName) protoreflect.MessageDescriptor {
	for i := 0; i < msgs.Len(); i++ {
		md := msgs.Get(i)
		if md.FullName() == name {
			return md
		}
		if nested := FindMessage(md.Messages(), name); nested != nil {
			return nested
		}
	}
	return nil
}
