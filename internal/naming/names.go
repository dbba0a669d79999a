// Package naming derives every identifier the Lua bindings use from a schema
// path: C symbols, Lua library and metatable names, method keys and output
// file names. All functions are pure.
//
// Identifier components escape "_" as "_1", package segments join with "_"
// and nested message segments join with "_0". Proto identifiers never start
// with a digit, so every "_" in a symbol is a separator or an escape. The
// boundary between package and message is not marked: package "a.M" with
// message "get" shares symbols with message "a.M" and field "get". Protobuf
// forbids a package and a message with the same full name, so symbols are
// unique across any set of files that link together.
package naming

import (
	"fmt"
	"strings"
)

const (
	symbolRoot    = "lua_protobuf_"
	openRoot      = "luaopen_protobuf_"
	libraryRoot   = "protobuf"
	namespaceRoot = "protobuf_"
)

const (
	RuntimeHeader = "lua-protobuf.h"
	RuntimeSource = "lua-protobuf.cc"
)

func escape(ident string) string {
	return strings.ReplaceAll(ident, "_", "_1")
}

func escapeAll(parts []string) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = escape(p)
	}
	return out
}

// PackagePrefix is the symbol prefix shared by everything in pkg.
func PackagePrefix(pkg string) string {
	return symbolRoot + strings.Join(escapeAll(strings.Split(pkg, ".")), "_") + "_"
}

// MessagePrefix is the symbol prefix of msg, a dotted path relative to pkg.
func MessagePrefix(pkg, msg string) string {
	return PackagePrefix(pkg) + strings.Join(escapeAll(strings.Split(msg, ".")), "_0") + "_"
}

// MessageFunction names a message-level operation such as new or gc.
func MessageFunction(pkg, msg, verb string) string {
	return MessagePrefix(pkg, msg) + verb
}

// FieldFunction names a field operation such as get or add.
func FieldFunction(pkg, msg, verb, field string) string {
	return MessagePrefix(pkg, msg) + verb + "_" + escape(field)
}

// Method is the Lua-visible method key of a field operation.
func Method(verb, field string) string {
	return verb + "_" + field
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// PackageLibrary is the global table path holding a package's libraries.
func PackageLibrary(pkg string) string {
	if pkg == "" {
		return libraryRoot
	}
	return libraryRoot + "." + pkg
}

// Library is the global table path of a message's library (new,
// parsefromstring and nested enums).
func Library(pkg, msg string) string {
	return libraryRoot + "." + qualify(pkg, msg)
}

// Namespace is the registry key of a message's metatable.
func Namespace(pkg, msg string) string {
	return namespaceRoot + "." + qualify(pkg, msg)
}

// OpenFunction names the entry point registering everything declared in the
// given .proto file.
func OpenFunction(protoPath string) string {
	return openRoot + mangleStem(protoPath)
}

// mangleStem maps a file path onto identifier characters. Every "_" in the
// result starts a fixed-length escape, which keeps the mapping reversible.
func mangleStem(protoPath string) string {
	stem := strings.TrimSuffix(protoPath, ".proto")
	var b strings.Builder
	for _, r := range stem {
		switch {
		case r == '_':
			b.WriteString("_u")
		case r == '/':
			b.WriteString("__")
		case r == '.':
			b.WriteString("_d")
		case r == '-':
			b.WriteString("_h")
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "_x%06x", r)
		}
	}
	return b.String()
}

func stem(protoPath string) string {
	return strings.TrimSuffix(protoPath, ".proto")
}

// HeaderName is the Declarations file emitted for protoPath.
func HeaderName(protoPath string) string {
	return stem(protoPath) + ".pb-lua.h"
}

// SourceName is the Definitions file emitted for protoPath.
func SourceName(protoPath string) string {
	return stem(protoPath) + ".pb-lua.cc"
}

// AnnotationName is the Lua language server stub emitted for protoPath.
func AnnotationName(protoPath string) string {
	return stem(protoPath) + ".pb-lua.d.lua"
}

// ProtoHeader is the header protoc's C++ generator emits for protoPath.
func ProtoHeader(protoPath string) string {
	return stem(protoPath) + ".pb.h"
}

func HeaderGuard(protoPath string) string {
	return "LUA_PROTOBUF_" + strings.ToUpper(mangleStem(protoPath)) + "_PB_LUA_H"
}

// CppClass is the C++ type protoc generates for a message or enum. Nested
// types are joined with "_".
func CppClass(pkg, name string) string {
	var b strings.Builder
	if pkg != "" {
		for _, seg := range strings.Split(pkg, ".") {
			b.WriteString("::")
			b.WriteString(seg)
		}
	}
	b.WriteString("::")
	b.WriteString(strings.ReplaceAll(name, ".", "_"))
	return b.String()
}

// CppField is the accessor stem protoc generates for a field.
func CppField(field string) string {
	name := strings.ToLower(field)
	if cppKeywords[name] {
		return name + "_"
	}
	return name
}

var cppKeywords = map[string]bool{
	"alignas": true, "alignof": true, "and": true, "and_eq": true, "asm": true,
	"auto": true, "bitand": true, "bitor": true, "bool": true, "break": true,
	"case": true, "catch": true, "char": true, "class": true, "compl": true,
	"const": true, "constexpr": true, "const_cast": true, "continue": true,
	"decltype": true, "default": true, "delete": true, "do": true, "double": true,
	"dynamic_cast": true, "else": true, "enum": true, "explicit": true,
	"export": true, "extern": true, "false": true, "float": true, "for": true,
	"friend": true, "goto": true, "if": true, "inline": true, "int": true,
	"long": true, "mutable": true, "namespace": true, "new": true,
	"noexcept": true, "not": true, "not_eq": true, "nullptr": true,
	"operator": true, "or": true, "or_eq": true, "private": true,
	"protected": true, "public": true, "register": true,
	"reinterpret_cast": true, "return": true, "short": true, "signed": true,
	"sizeof": true, "static": true, "static_assert": true, "static_cast": true,
	"struct": true, "switch": true, "template": true, "this": true,
	"thread_local": true, "throw": true, "true": true, "try": true,
	"typedef": true, "typeid": true, "typename": true, "union": true,
	"unsigned": true, "using": true, "virtual": true, "void": true,
	"volatile": true, "wchar_t": true, "while": true, "xor": true,
	"xor_eq": true,
}
