package luac

import (
	"path/filepath"

	"github.com/jptrs93/luaproto/internal/generate"
	"github.com/jptrs93/luaproto/internal/naming"
)

const runtimeHeader = `// Generated by luaproto. DO NOT EDIT.

#ifndef LUA_PROTOBUF_H
#define LUA_PROTOBUF_H

#include <stdint.h>

#include <google/protobuf/message.h>

#ifdef __cplusplus
extern "C" {
#endif

#include <lua.h>

#ifdef WINDOWS
#define LUA_PROTOBUF_EXPORT __declspec(dllexport)
#else
#define LUA_PROTOBUF_EXPORT
#endif

#define LUA_PROTOBUF_ARGUMENT_ERROR "ArgumentError: "
#define LUA_PROTOBUF_RANGE_ERROR "RangeError: "
#define LUA_PROTOBUF_TYPE_MISMATCH "TypeMismatch: "
#define LUA_PROTOBUF_STATE_ERROR "StateError: "
#define LUA_PROTOBUF_CODEC_ERROR "CodecError: "
#define LUA_PROTOBUF_NAME_ERROR "NameError: "
#define LUA_PROTOBUF_IMMUTABLE_ERROR "ImmutableError: "

// Decides whether a borrowed message is deleted when Lua collects its
// userdata. Return nonzero to delete it.
typedef int (*lua_protobuf_gc_callback)(::google::protobuf::Message *msg, void *data);

typedef enum lua_protobuf_ownership {
    LUA_PROTOBUF_OWNED = 0,
    LUA_PROTOBUF_BORROWED = 1
} lua_protobuf_ownership;

// Userdata behind every message visible to Lua. ownership, gc_callback and
// callback_data never change after the userdata is pushed; msg is cleared
// once the message has been released.
typedef struct msg_udata {
    ::google::protobuf::Message *msg;
    lua_protobuf_ownership ownership;
    lua_protobuf_gc_callback gc_callback;
    void *callback_data;
} msg_udata;

LUA_PROTOBUF_EXPORT msg_udata *lua_protobuf_pushudata(lua_State *L, ::google::protobuf::Message *msg, lua_protobuf_ownership ownership, lua_protobuf_gc_callback callback, void *data, const char *metatable);

LUA_PROTOBUF_EXPORT ::google::protobuf::Message *lua_protobuf_checkmessage(lua_State *L, int index, const char *metatable);

// Applies the ownership protocol. Returns 1 if the message was deleted.
LUA_PROTOBUF_EXPORT int lua_protobuf_release(msg_udata *ud);

LUA_PROTOBUF_EXPORT int lua_protobuf_enum_index(lua_State *L);

LUA_PROTOBUF_EXPORT int lua_protobuf_enum_newindex(lua_State *L);

// gc callback that always deletes the message
LUA_PROTOBUF_EXPORT int lua_protobuf_gc_always_free(::google::protobuf::Message *msg, void *data);

#ifdef __cplusplus
}
#endif

#endif
`

const runtimeSource = `// Generated by luaproto. DO NOT EDIT.

#include "lua-protobuf.h"

#ifdef __cplusplus
extern "C" {
#endif

#include <lauxlib.h>

#ifdef __cplusplus
}
#endif

msg_udata *lua_protobuf_pushudata(lua_State *L, ::google::protobuf::Message *msg, lua_protobuf_ownership ownership, lua_protobuf_gc_callback callback, void *data, const char *metatable)
{
    msg_udata *ud = (msg_udata *)lua_newuserdata(L, sizeof(msg_udata));
    ud->msg = msg;
    ud->ownership = ownership;
    ud->gc_callback = callback;
    ud->callback_data = data;
    luaL_getmetatable(L, metatable);
    lua_setmetatable(L, -2);
    return ud;
}

::google::protobuf::Message *lua_protobuf_checkmessage(lua_State *L, int index, const char *metatable)
{
    msg_udata *ud = (msg_udata *)luaL_checkudata(L, index, metatable);
    if (ud->msg == NULL) {
        luaL_error(L, LUA_PROTOBUF_STATE_ERROR "message has been released");
        return NULL;
    }
    return ud->msg;
}

int lua_protobuf_release(msg_udata *ud)
{
    if (ud->msg == NULL) {
        return 0;
    }
    ::google::protobuf::Message *msg = ud->msg;
    ud->msg = NULL;
    if (ud->ownership == LUA_PROTOBUF_BORROWED) {
        if (ud->gc_callback == NULL || !ud->gc_callback(msg, ud->callback_data)) {
            return 0;
        }
    }
    delete msg;
    return 1;
}

int lua_protobuf_enum_index(lua_State *L)
{
    const char *name = lua_tostring(L, 2);
    return luaL_error(L, LUA_PROTOBUF_NAME_ERROR "attempting to access undefined enumeration value: %s", name != NULL ? name : luaL_typename(L, 2));
}

int lua_protobuf_enum_newindex(lua_State *L)
{
    return luaL_error(L, LUA_PROTOBUF_IMMUTABLE_ERROR "cannot modify enumeration tables");
}

int lua_protobuf_gc_always_free(::google::protobuf::Message *msg, void *data)
{
    return 1;
}
`

func runtimeFiles(dir string) []generate.OutputFile {
	return []generate.OutputFile{
		{Path: filepath.Join(dir, naming.RuntimeHeader), Content: []byte(runtimeHeader)},
		{Path: filepath.Join(dir, naming.RuntimeSource), Content: []byte(runtimeSource)},
	}
}
