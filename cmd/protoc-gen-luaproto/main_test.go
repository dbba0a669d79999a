package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/jptrs93/luaproto/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/types/pluginpb"
)

func TestRunRoundTripsRequest(t *testing.T) {
	files := testutil.Compile(t, testutil.Sources(), "people.proto")
	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: []string{"people.proto"},
		Parameter:      proto.String("skip_runtime,log_level=error"),
	}
	req.ProtoFile = append(req.ProtoFile, protodesc.ToFileDescriptorProto(files[0]))
	data, err := proto.Marshal(req)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(bytes.NewReader(data), &out, os.Stderr))

	resp := &pluginpb.CodeGeneratorResponse{}
	require.NoError(t, proto.Unmarshal(out.Bytes(), resp))
	assert.Empty(t, resp.GetError())
	require.Len(t, resp.GetFile(), 2)
	assert.Equal(t, "people.pb-lua.h", resp.GetFile()[0].GetName())
}

func TestRunRejectsGarbage(t *testing.T) {
	var out bytes.Buffer
	err := run(bytes.NewReader([]byte{0xff, 0xff}), &out, os.Stderr)
	assert.Error(t, err)
	assert.Zero(t, out.Len())
}
