// Package script runs Lua scripts against the event bus.
//
// Scripts see a global "bus" table:
//
//	bus.define(tag)          -- register tag with a table payload
//	bus.on(tag, fn) -> id    -- fn(payload) for every event of tag
//	bus.once(tag, fn) -> id  -- like on, released after the first event
//	bus.off(id) -> bool      -- release a registration
//	bus.emit(tag, payload?)  -- publish a table, scalar or nil payload
//	bus.topics() -> {tags}   -- registered tags in sorted order
//
// Scripts are untyped, so they use the legacy surface of the bus: emit
// pushes the raw payload and on registers through the descriptor form.
// Typed Go subscribers of a tag defined with a table payload receive
// map[string]any.
//
// A Lua state is not safe for concurrent use. Events that reach Lua
// handlers must be emitted from the goroutine that drives the Host.
package script
