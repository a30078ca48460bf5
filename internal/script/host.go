package script

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/eventbus/internal/event"
	"github.com/dshills/eventbus/internal/event/topic"
)

// handlerKey is the Lua global holding registered handler functions so the
// Lua GC keeps them alive.
const handlerKey = "_bus_handlers"

// Host owns one Lua state bound to a bus.
type Host struct {
	bus    *event.Bus
	legacy *event.Legacy
	logger *zap.Logger

	L          *lua.LState
	handlerTbl *lua.LTable

	mu     sync.Mutex
	subs   map[string]event.LegacyHandle
	keys   map[string]event.Key
	nextID uint64
	closed bool
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger for script errors.
func WithLogger(l *zap.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Lua state with the bus module registered.
func New(bus *event.Bus, legacy *event.Legacy, opts ...Option) *Host {
	h := &Host{
		bus:    bus,
		legacy: legacy,
		logger: zap.NewNop(),
		L:      lua.NewState(),
		subs:   make(map[string]event.LegacyHandle),
		keys:   make(map[string]event.Key),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.Named("script")

	h.handlerTbl = h.L.NewTable()
	h.L.SetGlobal(handlerKey, h.handlerTbl)

	mod := h.L.NewTable()
	h.L.SetField(mod, "define", h.L.NewFunction(h.define))
	h.L.SetField(mod, "on", h.L.NewFunction(h.on))
	h.L.SetField(mod, "once", h.L.NewFunction(h.once))
	h.L.SetField(mod, "off", h.L.NewFunction(h.off))
	h.L.SetField(mod, "emit", h.L.NewFunction(h.emit))
	h.L.SetField(mod, "topics", h.L.NewFunction(h.topics))
	h.L.SetGlobal("bus", mod)

	return h
}

// RunString executes a chunk of Lua source.
func (h *Host) RunString(src string) error {
	if h.isClosed() {
		return ErrClosed
	}
	return h.L.DoString(src)
}

// RunFile executes the Lua file at path.
func (h *Host) RunFile(path string) error {
	if h.isClosed() {
		return ErrClosed
	}
	if err := h.L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

// Subscriptions returns the number of live registrations made by scripts.
func (h *Host) Subscriptions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close releases every registration made by scripts and closes the Lua
// state. It is safe to call more than once.
func (h *Host) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := h.subs
	keys := h.keys
	h.subs = make(map[string]event.LegacyHandle)
	h.keys = make(map[string]event.Key)
	h.mu.Unlock()

	for id, handle := range subs {
		h.legacy.Off(keys[id], handle)
	}
	h.L.Close()
}

func (h *Host) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// define(tag)
func (h *Host) define(L *lua.LState) int {
	tag := topic.Topic(L.CheckString(1))
	if _, err := event.DefineIn[map[string]any](h.bus.Types(), tag); err != nil {
		L.RaiseError("define %s: %v", tag, err)
	}
	return 0
}

// on(tag, fn) -> id
func (h *Host) on(L *lua.LState) int {
	return h.subscribe(L, false)
}

// once(tag, fn) -> id
func (h *Host) once(L *lua.LState) int {
	return h.subscribe(L, true)
}

func (h *Host) subscribe(L *lua.LState, once bool) int {
	tag := topic.Topic(L.CheckString(1))
	fn := L.CheckFunction(2)

	desc, ok := h.bus.Types().Descriptor(tag)
	if !ok {
		L.ArgError(1, fmt.Sprintf("unknown event type %q", tag))
		return 0
	}

	h.mu.Lock()
	h.nextID++
	id := fmt.Sprintf("%s#%d", tag, h.nextID)
	h.mu.Unlock()

	h.handlerTbl.RawSetString(id, fn)

	key := event.KeyOf(desc)
	handle, err := h.legacy.On(key, h.callback(id, once), h)
	if err != nil {
		h.handlerTbl.RawSetString(id, lua.LNil)
		L.RaiseError("on %s: %v", tag, err)
		return 0
	}

	h.mu.Lock()
	h.subs[id] = handle
	h.keys[id] = key
	h.mu.Unlock()

	L.Push(lua.LString(id))
	return 1
}

// off(id) -> bool
func (h *Host) off(L *lua.LState) int {
	id := L.CheckString(1)
	L.Push(lua.LBool(h.release(id)))
	return 1
}

// emit(tag, payload?)
func (h *Host) emit(L *lua.LState) int {
	tag := L.CheckString(1)

	var payload any
	if L.GetTop() >= 2 {
		payload = toGo(L.Get(2))
	}

	if err := h.legacy.Emit(event.KeyName(tag), payload); err != nil {
		L.RaiseError("emit %s: %v", tag, err)
	}
	return 0
}

// topics() -> {tag...}
func (h *Host) topics(L *lua.LState) int {
	tbl := L.NewTable()
	for i, t := range h.bus.Types().Topics() {
		tbl.RawSetInt(i+1, lua.LString(t))
	}
	L.Push(tbl)
	return 1
}

// release drops one registration. It reports whether id was live.
func (h *Host) release(id string) bool {
	h.mu.Lock()
	handle, ok := h.subs[id]
	key := h.keys[id]
	delete(h.subs, id)
	delete(h.keys, id)
	h.mu.Unlock()

	if !ok {
		return false
	}
	h.handlerTbl.RawSetString(id, lua.LNil)
	h.legacy.Off(key, handle)
	return true
}

// callback adapts the Lua function stored under id to a legacy handler.
// Lua errors are logged; they never fail the emission.
func (h *Host) callback(id string, once bool) func(payload any) {
	return func(payload any) {
		if h.isClosed() {
			return
		}

		fn := h.L.GetField(h.handlerTbl, id)
		if fn.Type() != lua.LTFunction {
			return
		}

		if once {
			h.release(id)
		}

		h.L.Push(fn)
		h.L.Push(toLua(h.L, payload))
		if err := h.L.PCall(1, 0, nil); err != nil {
			h.logger.Error("script handler failed",
				zap.String("subscription", id),
				zap.Error(err),
			)
		}
	}
}
