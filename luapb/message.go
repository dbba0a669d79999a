package luapb

import (
	"github.com/jptrs93/luaproto/internal/typemap"

	lua "github.com/yuin/gopher-lua"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Ownership is either Owned or Borrowed.
type Ownership interface {
	isOwnership()
	frees() bool
}

// Owned messages are freed by the runtime when released.
type Owned struct{}

// ReleaseFunc reports whether a borrowed message should be freed.
type ReleaseFunc func(msg proto.Message, ctx any) bool

// Borrowed messages belong to the host. Without a Release callback the
// runtime never frees them.
type Borrowed struct {
	Release ReleaseFunc
	Context any
}

func (Owned) isOwnership()    {}
func (Borrowed) isOwnership() {}

func (Owned) frees() bool      { return true }
func (b Borrowed) frees() bool { return b.Release != nil }

// Message is a Lua-visible handle. Once released it refuses every
// operation with StateError.
type Message struct {
	rt  *Runtime
	typ *messageType
	msg protoreflect.Message
	own Ownership
	ud  *lua.LUserData
}

// Value is the userdata to hand to Lua.
func (m *Message) Value() *lua.LUserData {
	return m.ud
}

// Proto returns the wrapped message, or nil once released.
func (m *Message) Proto() proto.Message {
	if m.msg == nil {
		return nil
	}
	return m.msg.Interface()
}

func (m *Message) Ownership() Ownership {
	return m.own
}

func (m *Message) Released() bool {
	return m.msg == nil
}

// release drops the handle's message and frees it according to its
// ownership. A message is freed at most once.
func (m *Message) release() bool {
	if m.msg == nil {
		return false
	}
	msg := m.msg
	m.msg = nil
	switch o := m.own.(type) {
	case Owned:
	case Borrowed:
		if o.Release == nil || !o.Release(msg.Interface(), o.Context) {
			return false
		}
	default:
		return false
	}
	m.rt.free(msg)
	return true
}

func (m *Message) live() error {
	if m.msg == nil {
		return newError(StateError, "%s has been released", m.typ.schema.FullName)
	}
	return nil
}

func (m *Message) field(name string, op typemap.Op) (*fieldBinding, error) {
	if err := m.live(); err != nil {
		return nil, err
	}
	f, ok := m.typ.byName[name]
	if !ok {
		return nil, newError(NameError, "%s has no field %s", m.typ.schema.FullName, name)
	}
	if !f.shape.Supports(op) {
		return nil, newError(StateError, "%s() is not defined for field %s", op, name)
	}
	return f, nil
}

func (m *Message) descriptor(f *fieldBinding) protoreflect.FieldDescriptor {
	return m.msg.Descriptor().Fields().ByNumber(protoreflect.FieldNumber(f.schema.Number))
}

// Get returns a singular field, or nil when a scalar field has explicit
// presence and is unset. Message fields always come back as borrowed handles
// into the parent, which marks them present.
func (m *Message) Get(field string) (lua.LValue, error) {
	f, err := m.field(field, typemap.OpGet)
	if err != nil {
		return nil, err
	}
	if f.shape.Repeated() {
		return nil, newError(ArgumentError, "get_%s() requires an index", field)
	}
	return m.get(f)
}

// GetAt returns element index (1-based) of a repeated field.
func (m *Message) GetAt(field string, index int) (lua.LValue, error) {
	f, err := m.field(field, typemap.OpGet)
	if err != nil {
		return nil, err
	}
	if !f.shape.Repeated() {
		return nil, newError(ArgumentError, "get_%s() takes no index", field)
	}
	return m.getAt(f, index)
}

// Set assigns a singular scalar field. Nil clears it.
func (m *Message) Set(field string, v lua.LValue) error {
	f, err := m.field(field, typemap.OpSet)
	if err != nil {
		return err
	}
	if f.shape.Repeated() {
		return newError(ArgumentError, "set_%s() requires an index", field)
	}
	return m.set(f, v)
}

// SetAt replaces element index of a repeated scalar field, or appends when
// index is one past the end.
func (m *Message) SetAt(field string, index int, v lua.LValue) error {
	f, err := m.field(field, typemap.OpSet)
	if err != nil {
		return err
	}
	if !f.shape.Repeated() {
		return newError(ArgumentError, "set_%s() takes no index", field)
	}
	return m.setAt(f, index, v)
}

func (m *Message) Has(field string) (bool, error) {
	f, err := m.field(field, typemap.OpHas)
	if err != nil {
		return false, err
	}
	return m.msg.Has(m.descriptor(f)), nil
}

func (m *Message) Clear(field string) error {
	f, err := m.field(field, typemap.OpClear)
	if err != nil {
		return err
	}
	m.msg.Clear(m.descriptor(f))
	return nil
}

func (m *Message) Size(field string) (int, error) {
	f, err := m.field(field, typemap.OpSize)
	if err != nil {
		return 0, err
	}
	return m.size(f), nil
}

// Add appends an empty element to a repeated message field and returns a
// borrowed handle to it.
func (m *Message) Add(field string) (*Message, error) {
	f, err := m.field(field, typemap.OpAdd)
	if err != nil {
		return nil, err
	}
	return m.add(f)
}

// ClearAll resets every field.
func (m *Message) ClearAll() error {
	if err := m.live(); err != nil {
		return err
	}
	proto.Reset(m.msg.Interface())
	return nil
}

// Serialize encodes the message deterministically. Missing required fields
// fail with CodecError.
func (m *Message) Serialize() ([]byte, error) {
	if err := m.live(); err != nil {
		return nil, err
	}
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(m.msg.Interface())
	if err != nil {
		return nil, &Error{Kind: CodecError, Msg: "could not serialize " + m.typ.schema.FullName, Err: err}
	}
	return b, nil
}

func (m *Message) get(f *fieldBinding) (lua.LValue, error) {
	fd := m.descriptor(f)
	if f.shape.Message() {
		return m.reference(fd, m.msg.Mutable(fd).Message())
	}
	if f.schema.Presence && !m.msg.Has(fd) {
		return lua.LNil, nil
	}
	return toLua(fd, m.msg.Get(fd)), nil
}

func (m *Message) getAt(f *fieldBinding, index int) (lua.LValue, error) {
	fd := m.descriptor(f)
	size := m.msg.Get(fd).List().Len()
	if index < 1 || index > size {
		return nil, newError(RangeError, "index must be between 1 and current size: %d", size)
	}
	if f.shape.Message() {
		return m.reference(fd, m.msg.Mutable(fd).List().Get(index-1).Message())
	}
	return toLua(fd, m.msg.Get(fd).List().Get(index-1)), nil
}

func (m *Message) set(f *fieldBinding, v lua.LValue) error {
	if f.shape.Message() {
		return newError(StateError, "set_%s() is not supported for message fields; use get_%s() and modify in place", f.schema.Name, f.schema.Name)
	}
	fd := m.descriptor(f)
	if v == lua.LNil {
		m.msg.Clear(fd)
		return nil
	}
	val, err := fromLua(fd, f, v)
	if err != nil {
		return err
	}
	m.msg.Set(fd, val)
	return nil
}

func (m *Message) setAt(f *fieldBinding, index int, v lua.LValue) error {
	if f.shape.Message() {
		return newError(StateError, "set_%s() is not supported for repeated message fields; use add_%s() and modify the result", f.schema.Name, f.schema.Name)
	}
	fd := m.descriptor(f)
	size := m.msg.Get(fd).List().Len()
	if index < 1 || index > size+1 {
		return newError(RangeError, "index must be between 1 and current size + 1: %d", size+1)
	}
	if v == lua.LNil {
		return newError(ArgumentError, "cannot assign nil to repeated field %s", f.schema.Name)
	}
	val, err := fromLua(fd, f, v)
	if err != nil {
		return err
	}
	list := m.msg.Mutable(fd).List()
	if index == size+1 {
		list.Append(val)
	} else {
		list.Set(index-1, val)
	}
	return nil
}

func (m *Message) size(f *fieldBinding) int {
	return m.msg.Get(m.descriptor(f)).List().Len()
}

func (m *Message) add(f *fieldBinding) (*Message, error) {
	fd := m.descriptor(f)
	list := m.msg.Mutable(fd).List()
	elem := list.NewElement()
	list.Append(elem)
	return m.referenceHandle(fd, elem.Message())
}

func (m *Message) reference(fd protoreflect.FieldDescriptor, child protoreflect.Message) (lua.LValue, error) {
	h, err := m.referenceHandle(fd, child)
	if err != nil {
		return nil, err
	}
	return h.ud, nil
}

// referenceHandle wraps an embedded message, opening the file that declares
// its type on first use.
func (m *Message) referenceHandle(fd protoreflect.FieldDescriptor, child protoreflect.Message) (*Message, error) {
	md := fd.Message()
	t, ok := m.rt.types[md.FullName()]
	if !ok {
		if err := m.rt.Open(md.ParentFile()); err != nil {
			return nil, &Error{Kind: StateError, Msg: "cannot bind " + string(md.FullName()), Err: err}
		}
		if t, ok = m.rt.types[md.FullName()]; !ok {
			return nil, newError(StateError, "message type %s is not open", md.FullName())
		}
	}
	return m.rt.wrap(t, child, Borrowed{}), nil
}
