// Package luapb exposes protobuf messages to gopher-lua scripts with the same
// shape as the generated C bindings: a library table per message under
// protobuf.<package>, a metatable per message type, get/set/has/clear/size/add
// methods per field and read-only enum namespaces.
//
//	L := lua.NewState()
//	defer L.Close()
//	rt := luapb.New(L)
//	defer rt.Close()
//	if err := rt.Open(files...); err != nil {
//		return err
//	}
//	err := L.DoString(`
//		local p = protobuf.test.people.Person.new()
//		p:set_name("ada")
//		p:set_color(protobuf.test.people.Color.GREEN)
//	`)
//
// Every number crosses as a Lua number (float64): 64-bit integers beyond
// 2^53 lose precision and float fields round silently.
package luapb
