package parser

import (
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/runtime/protoimpl"
	"google.golang.org/protobuf/types/descriptorpb"
)

const optionsProtoPath = "luaproto/options.proto"

const luaOutField = 50100

const optionsProtoSource = `
syntax = "proto3";

package luaproto;

import "google/protobuf/descriptor.proto";

extend google.protobuf.FileOptions {
  string lua_out = 50100;
}
`

var E_LuaOut = &protoimpl.ExtensionInfo{
	ExtendedType:  (*descriptorpb.FileOptions)(nil),
	ExtensionType: (*string)(nil),
	Field:         luaOutField,
	Name:          "luaproto.lua_out",
	Tag:           "bytes,50100,opt,name=lua_out",
	Filename:      optionsProtoPath,
}

func luaOutFromOptions(file protoreflect.FileDescriptor) string {
	opts := file.Options()
	if opts == nil {
		return ""
	}
	if fo, ok := opts.(*descriptorpb.FileOptions); ok && fo != nil && proto.HasExtension(fo, E_LuaOut) {
		if str, ok := proto.GetExtension(fo, E_LuaOut).(string); ok {
			return str
		}
	}
	// Options compiled against the in-memory options.proto arrive as unknown
	// fields because E_LuaOut is never registered globally.
	return stringFromUnknown(opts.ProtoReflect().GetUnknown(), luaOutField)
}

func stringFromUnknown(b []byte, field protowire.Number) string {
	var found string
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return found
		}
		b = b[n:]
		if num == field && typ == protowire.BytesType {
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return found
			}
			found = string(v)
			b = b[m:]
			continue
		}
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return found
		}
		b = b[m:]
	}
	return found
}
