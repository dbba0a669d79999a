package typemap

import (
	"fmt"

	"github.com/jptrs93/luaproto/internal/ir"
)

type Op int

const (
	OpClear Op = iota
	OpGet
	OpSet
	OpHas
	OpSize
	OpAdd
)

var opNames = [...]string{
	OpClear: "clear",
	OpGet:   "get",
	OpSet:   "set",
	OpHas:   "has",
	OpSize:  "size",
	OpAdd:   "add",
}

func (o Op) String() string {
	if o >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return "op"
}

type Shape int

const (
	ShapeScalar Shape = iota
	ShapeMessage
	ShapeRepeatedScalar
	ShapeRepeatedMessage
)

// Repeated reports whether the shape is indexed.
func (s Shape) Repeated() bool {
	return s == ShapeRepeatedScalar || s == ShapeRepeatedMessage
}

// Message reports whether elements are embedded messages.
func (s Shape) Message() bool {
	return s == ShapeMessage || s == ShapeRepeatedMessage
}

// Set on a message shape is still generated; it always raises StateError.
var operations = map[Shape][]Op{
	ShapeScalar:          {OpClear, OpGet, OpSet, OpHas},
	ShapeMessage:         {OpClear, OpGet, OpSet, OpHas},
	ShapeRepeatedScalar:  {OpClear, OpGet, OpSet, OpSize},
	ShapeRepeatedMessage: {OpClear, OpGet, OpSet, OpSize, OpAdd},
}

func ShapeOf(f ir.Field) (Shape, error) {
	var message bool
	switch f.Type.(type) {
	case ir.Scalar, ir.EnumRef:
	case ir.MessageRef:
		message = true
	default:
		return 0, fmt.Errorf("%w: field %s has type %v", ErrUnsupportedFieldType, f.Name, f.Type)
	}
	switch f.Label {
	case ir.LabelOptional, ir.LabelRequired:
		if message {
			return ShapeMessage, nil
		}
		return ShapeScalar, nil
	case ir.LabelRepeated:
		if message {
			return ShapeRepeatedMessage, nil
		}
		return ShapeRepeatedScalar, nil
	default:
		return 0, fmt.Errorf("%w: field %s has label %d", ErrUnknownFieldLabel, f.Name, int(f.Label))
	}
}

// Operations returns the generated operations of f in emission order. The
// returned slice must not be modified.
func Operations(f ir.Field) ([]Op, error) {
	shape, err := ShapeOf(f)
	if err != nil {
		return nil, err
	}
	return operations[shape], nil
}

// Supports reports whether op is part of the shape's operation set.
func (s Shape) Supports(op Op) bool {
	for _, o := range operations[s] {
		if o == op {
			return true
		}
	}
	return false
}
