package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopedIndentation(t *testing.T) {
	var b Builder
	b.Func("int f(lua_State *L)", func() {
		b.If("x > 0", func() {
			b.Pl("return %d;", 1)
		})
		b.IfElse("y", func() {
			b.Pl("a();")
		}, func() {
			b.Pl("b();")
		})
		b.Pl("return 0;")
	})
	assert.Equal(t, []string{
		"int f(lua_State *L)",
		"{",
		"    if (x > 0) {",
		"        return 1;",
		"    }",
		"    if (y) {",
		"        a();",
		"    } else {",
		"        b();",
		"    }",
		"    return 0;",
		"}",
	}, b.Lines())
	assert.Equal(t, 0, b.Depth())
}

func TestDelimitersInLiteralsDoNotAffectIndentation(t *testing.T) {
	var b Builder
	b.Curly("static const struct luaL_Reg fns[] =", func() {
		b.Pl(`{"weird{", f},`)
		b.Pl(`{"}", g},`)
		b.Pl("{NULL, NULL}")
	}, ";")
	assert.Equal(t, []string{
		"static const struct luaL_Reg fns[] = {",
		`    {"weird{", f},`,
		`    {"}", g},`,
		"    {NULL, NULL}",
		"};",
	}, b.Lines())
}

func TestBlankLinesCarryNoIndent(t *testing.T) {
	var b Builder
	b.Suite(func() {
		b.Pl("a")
		b.Nl()
		b.Pl("")
		b.Pl("b")
	}, "")
	assert.Equal(t, []string{"    a", "", "", "    b"}, b.Lines())
}

func TestPercentWithoutArgs(t *testing.T) {
	var b Builder
	b.Pl("100% literal")
	assert.Equal(t, []string{"100% literal"}, b.Lines())
}

func TestFragmentPanicsOnOpenScope(t *testing.T) {
	var b Builder
	assert.Panics(t, func() {
		b.Suite(func() {
			b.Fragment("open")
		}, "")
	})
}

func TestAssemble(t *testing.T) {
	var a, b, c Builder
	a.Pl("one")
	c.Pl("three")
	lines := Assemble(a.Fragment("a"), b.Fragment("empty"), c.Fragment("c"))
	assert.Equal(t, []string{"one", "", "three"}, lines)
	assert.Equal(t, "one\n\nthree\n", string(Join(lines)))
	assert.Nil(t, Join(nil))
}
