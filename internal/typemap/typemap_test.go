package typemap

import (
	"testing"

	"github.com/jptrs93/luaproto/internal/ir"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarCategories(t *testing.T) {
	tests := []struct {
		kind ir.Kind
		want Category
	}{
		{ir.KindBool, CategoryBool},
		{ir.KindInt32, CategoryInt32},
		{ir.KindUint32, CategoryInt32},
		{ir.KindSint32, CategoryInt32},
		{ir.KindFixed32, CategoryInt32},
		{ir.KindSfixed32, CategoryInt32},
		{ir.KindInt64, CategoryInt64},
		{ir.KindUint64, CategoryInt64},
		{ir.KindSint64, CategoryInt64},
		{ir.KindFixed64, CategoryInt64},
		{ir.KindSfixed64, CategoryInt64},
		{ir.KindFloat, CategoryFloat},
		{ir.KindDouble, CategoryFloat},
		{ir.KindString, CategoryString},
		{ir.KindBytes, CategoryString},
	}
	for _, tc := range tests {
		conv, err := Lookup(ir.Scalar{Kind: tc.kind})
		require.NoError(t, err, tc.kind.String())
		assert.Equal(t, tc.want, conv.Category, tc.kind.String())
	}
}

func TestFloatAndDoubleShareRepresentation(t *testing.T) {
	f, err := Lookup(ir.Scalar{Kind: ir.KindFloat})
	require.NoError(t, err)
	d, err := Lookup(ir.Scalar{Kind: ir.KindDouble})
	require.NoError(t, err)
	assert.Equal(t, f.Push, d.Push)
	assert.Equal(t, "(float)lua_tonumber(L, 2)", f.ToIndex(2))
	assert.Equal(t, "(double)lua_tonumber(L, 2)", d.ToIndex(2))
}

func TestReferenceConversions(t *testing.T) {
	e, err := Lookup(ir.EnumRef{FullName: "foo.Outer.Color", Package: "foo"})
	require.NoError(t, err)
	assert.Equal(t, CategoryEnum, e.Category)
	assert.Equal(t, "::foo::Outer_Color", e.CType)
	assert.Equal(t, "(::foo::Outer_Color)lua_tointeger(L, 3)", e.ToIndex(3))

	m, err := Lookup(ir.MessageRef{FullName: "foo.bar.Person", Package: "foo.bar", File: "person.proto"})
	require.NoError(t, err)
	assert.Equal(t, CategoryMessage, m.Category)
	assert.Equal(t, "lua_protobuf_foo_bar_Person_pushreference(L, msg, NULL, NULL)", m.PushValue("msg"))
}

func TestStringPushUsesLength(t *testing.T) {
	s, err := Lookup(ir.Scalar{Kind: ir.KindBytes})
	require.NoError(t, err)
	assert.Equal(t, "lua_pushlstring(L, m->data().data(), m->data().size())", s.PushValue("m->data()"))
}

func TestUnsupportedType(t *testing.T) {
	_, err := Lookup(ir.Scalar{Kind: ir.Kind(99)})
	assert.ErrorIs(t, err, ErrUnsupportedFieldType)
	_, err = Lookup(nil)
	assert.ErrorIs(t, err, ErrUnsupportedFieldType)
}

func TestOperationSets(t *testing.T) {
	scalar := ir.Scalar{Kind: ir.KindInt32}
	enum := ir.EnumRef{FullName: "p.E", Package: "p"}
	msg := ir.MessageRef{FullName: "p.M", Package: "p"}
	tests := []struct {
		name  string
		field ir.Field
		shape Shape
		ops   []Op
	}{
		{"optional scalar", ir.Field{Name: "a", Label: ir.LabelOptional, Type: scalar}, ShapeScalar, []Op{OpClear, OpGet, OpSet, OpHas}},
		{"required enum", ir.Field{Name: "b", Label: ir.LabelRequired, Type: enum}, ShapeScalar, []Op{OpClear, OpGet, OpSet, OpHas}},
		{"optional message", ir.Field{Name: "c", Label: ir.LabelOptional, Type: msg}, ShapeMessage, []Op{OpClear, OpGet, OpSet, OpHas}},
		{"repeated scalar", ir.Field{Name: "d", Label: ir.LabelRepeated, Type: scalar}, ShapeRepeatedScalar, []Op{OpClear, OpGet, OpSet, OpSize}},
		{"repeated enum", ir.Field{Name: "e", Label: ir.LabelRepeated, Type: enum}, ShapeRepeatedScalar, []Op{OpClear, OpGet, OpSet, OpSize}},
		{"repeated message", ir.Field{Name: "f", Label: ir.LabelRepeated, Type: msg}, ShapeRepeatedMessage, []Op{OpClear, OpGet, OpSet, OpSize, OpAdd}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			shape, err := ShapeOf(tc.field)
			require.NoError(t, err)
			assert.Equal(t, tc.shape, shape)
			ops, err := Operations(tc.field)
			require.NoError(t, err)
			assert.Equal(t, tc.ops, ops)
			assert.False(t, shape.Repeated() && shape.Supports(OpHas))
		})
	}
}

func TestUnknownLabel(t *testing.T) {
	_, err := Operations(ir.Field{Name: "x", Type: ir.Scalar{Kind: ir.KindBool}})
	assert.ErrorIs(t, err, ErrUnknownFieldLabel)
	assert.Contains(t, err.Error(), "field x")
}
