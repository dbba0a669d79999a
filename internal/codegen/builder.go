// Package codegen accumulates generated source as lines whose indentation is
// decided by the scope they were written in, never by their text.
package codegen

import (
	"fmt"
	"strings"
)

const indentUnit = "    "

type Builder struct {
	lines []string
	depth int
}

// Pl appends one formatted line at the current depth. Arguments are never
// inspected, so braces inside string literals are harmless.
func (b *Builder) Pl(format string, args ...any) {
	line := format
	if len(args) > 0 {
		line = fmt.Sprintf(format, args...)
	}
	if line == "" {
		b.lines = append(b.lines, "")
		return
	}
	b.lines = append(b.lines, strings.Repeat(indentUnit, b.depth)+line)
}

// Nl appends an empty line.
func (b *Builder) Nl() {
	b.lines = append(b.lines, "")
}

// Suite runs cb one level deeper and then writes end, if any, at the
// original depth.
func (b *Builder) Suite(cb func(), end string) {
	b.depth++
	cb()
	b.depth--
	if end != "" {
		b.Pl("%s", end)
	}
}

// Curly writes "header {", the body, and a closing brace followed by end.
func (b *Builder) Curly(header string, cb func(), end ...string) {
	b.Pl("%s {", header)
	b.Suite(cb, "}"+strings.Join(end, ""))
}

// Func writes a function definition with its braces on their own lines.
func (b *Builder) Func(signature string, cb func()) {
	b.Pl("%s", signature)
	b.Pl("{")
	b.Suite(cb, "}")
}

// If writes a braced conditional.
func (b *Builder) If(cond string, cb func()) {
	b.Curly("if ("+cond+")", cb)
}

// IfElse writes a conditional with an else branch.
func (b *Builder) IfElse(cond string, then, otherwise func()) {
	b.Pl("if (%s) {", cond)
	b.Suite(then, "} else {")
	b.Suite(otherwise, "}")
}

// Depth is the current nesting level.
func (b *Builder) Depth() int {
	return b.depth
}

// Lines returns a copy of the accumulated lines.
func (b *Builder) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Fragment closes the builder's content into a named fragment. It panics if a
// scope was left open, which is a generator bug.
func (b *Builder) Fragment(name string) Fragment {
	if b.depth != 0 {
		panic(fmt.Sprintf("codegen: fragment %s closed at depth %d", name, b.depth))
	}
	return Fragment{Name: name, Lines: b.Lines()}
}

// Fragment is an independently generated, already indented piece of a file.
type Fragment struct {
	Name  string
	Lines []string
}

// Assemble concatenates fragments in order, separating non-empty fragments
// with a single blank line.
func Assemble(fragments ...Fragment) []string {
	var out []string
	for _, f := range fragments {
		if len(f.Lines) == 0 {
			continue
		}
		if len(out) > 0 {
			out = append(out, "")
		}
		out = append(out, f.Lines...)
	}
	return out
}

// Join renders lines as file content with a trailing newline.
func Join(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}
