package luapb

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jptrs93/luaproto/internal/ir"
	"github.com/jptrs93/luaproto/internal/naming"
	"github.com/jptrs93/luaproto/internal/parser"
	"github.com/jptrs93/luaproto/internal/typemap"

	lua "github.com/yuin/gopher-lua"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Runtime binds message types into one Lua state. It is not safe for
// concurrent use, matching the state it wraps.
type Runtime struct {
	L        *lua.LState
	logger   *slog.Logger
	free     func(protoreflect.Message)
	resolver protoregistry.MessageTypeResolver

	types    map[protoreflect.FullName]*messageType
	enums    map[string]*EnumTable
	enumMeta *lua.LTable
	// live holds handles whose release still has an effect.
	live []*Message
}

type Option func(*Runtime)

func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithFree installs a hook called once for every message the runtime frees.
func WithFree(fn func(protoreflect.Message)) Option {
	return func(rt *Runtime) {
		rt.free = fn
	}
}

// WithResolver sets where concrete Go types are looked up before falling
// back to dynamic messages. It defaults to protoregistry.GlobalTypes.
func WithResolver(r protoregistry.MessageTypeResolver) Option {
	return func(rt *Runtime) {
		rt.resolver = r
	}
}

type messageType struct {
	pkg    string
	schema ir.Message
	typ    protoreflect.MessageType
	ns     string
	lib    string
	meta   *lua.LTable
	fields []*fieldBinding
	byName map[string]*fieldBinding
}

type fieldBinding struct {
	schema ir.Field
	shape  typemap.Shape
	conv   typemap.Conversion
	ops    []typemap.Op
}

func New(L *lua.LState, opts ...Option) *Runtime {
	rt := &Runtime{
		L:        L,
		logger:   slog.New(slog.DiscardHandler),
		free:     func(protoreflect.Message) {},
		resolver: protoregistry.GlobalTypes,
		types:    map[protoreflect.FullName]*messageType{},
		enums:    map[string]*EnumTable{},
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.enumMeta = rt.newEnumMetatable()
	return rt
}

// Open registers every enum and message declared in files. Files opened
// twice are registered once.
func (rt *Runtime) Open(files ...protoreflect.FileDescriptor) error {
	for _, fd := range files {
		pkg, err := parser.FileToIR(fd)
		if err != nil {
			return fmt.Errorf("open %s: %w", fd.Path(), err)
		}
		if err := rt.openPackage(fd, pkg); err != nil {
			return fmt.Errorf("open %s: %w", fd.Path(), err)
		}
		rt.logger.Debug("opened proto file", "file", fd.Path(), "enums", len(pkg.Enums), "messages", len(pkg.Messages))
	}
	return nil
}

func (rt *Runtime) openPackage(fd protoreflect.FileDescriptor, pkg ir.Package) error {
	lib, err := rt.findTable(naming.PackageLibrary(pkg.Name))
	if err != nil {
		return err
	}
	for _, e := range pkg.Enums {
		rt.setEnum(lib, e)
	}
	for _, msg := range pkg.Messages {
		md := parser.FindMessage(fd.Messages(), protoreflect.FullName(msg.FullName))
		if md == nil {
			return fmt.Errorf("message %s has no descriptor", msg.FullName)
		}
		if err := rt.register(pkg.Name, msg, md); err != nil {
			return err
		}
	}
	return nil
}

func (rt *Runtime) register(pkg string, msg ir.Message, md protoreflect.MessageDescriptor) error {
	if _, ok := rt.types[md.FullName()]; ok {
		return nil
	}
	t := &messageType{
		pkg:    pkg,
		schema: msg,
		typ:    rt.messageType(md),
		ns:     naming.Namespace(pkg, msg.Name),
		lib:    naming.Library(pkg, msg.Name),
		byName: map[string]*fieldBinding{},
	}
	for _, f := range msg.Fields {
		shape, err := typemap.ShapeOf(f)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", msg.FullName, f.Name, err)
		}
		conv, err := typemap.Lookup(f.Type)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", msg.FullName, f.Name, err)
		}
		ops, err := typemap.Operations(f)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", msg.FullName, f.Name, err)
		}
		b := &fieldBinding{schema: f, shape: shape, conv: conv, ops: ops}
		t.fields = append(t.fields, b)
		t.byName[f.Name] = b
	}

	L := rt.L
	t.meta = L.NewTypeMetatable(t.ns)
	L.SetField(t.meta, "__index", L.SetFuncs(L.NewTable(), rt.methods(t)))
	L.SetField(t.meta, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(t.ns))
		return 1
	}))

	lib, err := rt.findTable(t.lib)
	if err != nil {
		return err
	}
	L.SetFuncs(lib, rt.functions(t))
	for _, e := range msg.Enums {
		rt.setEnum(lib, e)
	}
	rt.types[md.FullName()] = t
	return nil
}

func (rt *Runtime) messageType(md protoreflect.MessageDescriptor) protoreflect.MessageType {
	if rt.resolver != nil {
		if mt, err := rt.resolver.FindMessageByName(md.FullName()); err == nil {
			return mt
		}
	}
	return dynamicpb.NewMessageType(md)
}

// findTable walks a dotted path from the globals, creating missing tables.
func (rt *Runtime) findTable(path string) (*lua.LTable, error) {
	tbl := rt.L.G.Global
	for _, part := range strings.Split(path, ".") {
		switch next := tbl.RawGetString(part).(type) {
		case *lua.LTable:
			tbl = next
		case *lua.LNilType:
			created := rt.L.NewTable()
			tbl.RawSetString(part, created)
			tbl = created
		default:
			return nil, fmt.Errorf("could not create table %s: %s is a %s", path, part, next.Type())
		}
	}
	return tbl, nil
}

func (rt *Runtime) lookup(name protoreflect.FullName) (*messageType, error) {
	t, ok := rt.types[name]
	if !ok {
		return nil, fmt.Errorf("message type %s is not open", name)
	}
	return t, nil
}

func (rt *Runtime) wrap(t *messageType, msg protoreflect.Message, own Ownership) *Message {
	ud := rt.L.NewUserData()
	m := &Message{rt: rt, typ: t, msg: msg, own: own, ud: ud}
	ud.Value = m
	ud.Metatable = t.meta
	if own.frees() {
		rt.live = append(rt.live, m)
	}
	return m
}

// New creates an empty owned message of the named type.
func (rt *Runtime) New(name protoreflect.FullName) (*Message, error) {
	t, err := rt.lookup(name)
	if err != nil {
		return nil, err
	}
	return rt.wrap(t, t.typ.New(), Owned{}), nil
}

// Parse decodes data into a new owned message. Nothing is created when
// decoding fails.
func (rt *Runtime) Parse(name protoreflect.FullName, data []byte) (*Message, error) {
	t, err := rt.lookup(name)
	if err != nil {
		return nil, err
	}
	return rt.parse(t, data)
}

func (rt *Runtime) parse(t *messageType, data []byte) (*Message, error) {
	msg := t.typ.New()
	if err := proto.Unmarshal(data, msg.Interface()); err != nil {
		return nil, &Error{Kind: CodecError, Msg: "could not parse " + string(t.typ.Descriptor().FullName()), Err: err}
	}
	return rt.wrap(t, msg, Owned{}), nil
}

// PushCopy pushes an owned deep copy of msg onto the Lua stack.
func (rt *Runtime) PushCopy(msg proto.Message) (*Message, error) {
	t, err := rt.lookup(msg.ProtoReflect().Descriptor().FullName())
	if err != nil {
		return nil, err
	}
	m := rt.wrap(t, proto.Clone(msg).ProtoReflect(), Owned{})
	rt.L.Push(m.ud)
	return m, nil
}

// PushReference pushes a borrowed handle onto the Lua stack. When release
// is non-nil it decides at release time whether the runtime frees msg.
func (rt *Runtime) PushReference(msg proto.Message, release ReleaseFunc, ctx any) (*Message, error) {
	t, err := rt.lookup(msg.ProtoReflect().Descriptor().FullName())
	if err != nil {
		return nil, err
	}
	m := rt.wrap(t, msg.ProtoReflect(), Borrowed{Release: release, Context: ctx})
	rt.L.Push(m.ud)
	return m, nil
}

// Enum returns the enum namespace registered under a full name.
func (rt *Runtime) Enum(fullName string) (*EnumTable, bool) {
	e, ok := rt.enums[fullName]
	return e, ok
}

// Close releases every live handle and returns how many messages were freed.
// Released handles stay reachable from Lua but raise StateError on use.
func (rt *Runtime) Close() int {
	freed := 0
	for _, m := range rt.live {
		if m.release() {
			freed++
		}
	}
	rt.live = nil
	rt.logger.Debug("runtime closed", "freed", freed)
	return freed
}
