// Package ir is the schema model the binding generators consume. Values are
// produced once by the parser and treated as read-only afterwards.
package ir

import "strconv"

type Package struct {
	// Path is the .proto file the package was declared in.
	Path         string
	Name         string
	LuaOut       string
	Dependencies []string
	Enums        []Enum
	// Messages holds every message of the file, nested ones flattened
	// depth-first after their parent.
	Messages []Message
}

type Enum struct {
	Name     string
	FullName string
	Values   []EnumValue
}

type EnumValue struct {
	Name   string
	Number int32
}

type Message struct {
	// Name is the dotted path relative to the package, e.g. "Outer.Inner".
	Name     string
	FullName string
	Fields   []Field
	Enums    []Enum
}

type Field struct {
	Name     string
	Number   int
	Label    Label
	Type     Type
	Presence bool
}

type Label int

const (
	LabelOptional Label = iota + 1
	LabelRequired
	LabelRepeated
)

func (l Label) String() string {
	switch l {
	case LabelOptional:
		return "optional"
	case LabelRequired:
		return "required"
	case LabelRepeated:
		return "repeated"
	default:
		return "unknown"
	}
}

// Type is one of Scalar, EnumRef or MessageRef.
type Type interface {
	isType()
	String() string
}

type Scalar struct {
	Kind Kind
}

type EnumRef struct {
	FullName string
	Package  string
}

type MessageRef struct {
	FullName string
	Package  string
	// File is the .proto path declaring the message.
	File string
}

func (Scalar) isType()     {}
func (EnumRef) isType()    {}
func (MessageRef) isType() {}

func (s Scalar) String() string     { return s.Kind.String() }
func (e EnumRef) String() string    { return e.FullName }
func (m MessageRef) String() string { return m.FullName }

// RelativeName strips the package from a fully qualified name.
func RelativeName(pkg, fullName string) string {
	if pkg == "" {
		return fullName
	}
	if len(fullName) > len(pkg) && fullName[:len(pkg)] == pkg && fullName[len(pkg)] == '.' {
		return fullName[len(pkg)+1:]
	}
	return fullName
}

type Kind int

const (
	KindBool Kind = iota
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindSint32
	KindSint64
	KindFixed32
	KindFixed64
	KindSfixed32
	KindSfixed64
	KindFloat
	KindDouble
	KindString
	KindBytes
)

var kindNames = [...]string{
	KindBool:     "bool",
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindUint32:   "uint32",
	KindUint64:   "uint64",
	KindSint32:   "sint32",
	KindSint64:   "sint64",
	KindFixed32:  "fixed32",
	KindFixed64:  "fixed64",
	KindSfixed32: "sfixed32",
	KindSfixed64: "sfixed64",
	KindFloat:    "float",
	KindDouble:   "double",
	KindString:   "string",
	KindBytes:    "bytes",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}
