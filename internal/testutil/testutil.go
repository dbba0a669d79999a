// Package testutil compiles in-memory schemas for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/jptrs93/luaproto/internal/ir"
	"github.com/jptrs93/luaproto/internal/parser"

	"github.com/bufbuild/protocompile"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const PeopleProto = `
syntax = "proto2";

package test.people;

enum Color {
  option allow_alias = true;
  RED = 1;
  CRIMSON = 1;
  GREEN = 2;
}

message Person {
  enum Kind {
    HUMAN = 0;
    ROBOT = 1;
  }

  message Address {
    optional string street = 1;
    optional uint32 number = 2;
  }

  required string name = 1;
  optional int32 age = 2;
  optional bool active = 3;
  optional bytes blob = 4;
  optional double score = 5;
  optional float ratio = 6;
  optional int64 big = 7;
  optional uint64 ubig = 8;
  optional Color color = 9;
  optional Kind kind = 10;
  repeated string tags = 11;
  repeated int32 lucky = 12;
  optional Address home = 13;
  repeated Address previous = 14;
  optional Person friend = 15;
}
`

const FlatProto = `
syntax = "proto3";

package test.flat;

import "people.proto";

message Point {
  int32 x = 1;
  string name = 2;
  optional string label = 3;
  test.people.Person owner = 4;
}
`

// Sources is the default schema set: people.proto and flat.proto.
func Sources() map[string]string {
	return map[string]string{
		"people.proto": PeopleProto,
		"flat.proto":   FlatProto,
	}
}

func Compile(t testing.TB, sources map[string]string, names ...string) []protoreflect.FileDescriptor {
	t.Helper()
	p := parser.Parser{Accessor: protocompile.SourceAccessorFromMap(sources)}
	files, err := p.Compile(context.Background(), names)
	require.NoError(t, err)
	return files
}

func Packages(t testing.TB, sources map[string]string, names ...string) []ir.Package {
	t.Helper()
	pkgs, err := parser.ToIR(Compile(t, sources, names...))
	require.NoError(t, err)
	return pkgs
}

// Message finds a message descriptor by full name in files.
func Message(t testing.TB, files []protoreflect.FileDescriptor, name protoreflect.FullName) protoreflect.MessageDescriptor {
	t.Helper()
	for _, fd := range files {
		if md := parser.FindMessage(fd.Messages(), name); md != nil {
			return md
		}
	}
	require.FailNow(t, "message not found", "%s", name)
	return nil
}
