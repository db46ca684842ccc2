package libwebrtc

import (
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"

	"github.com/thesyncim/libwebrtc/internal/handles"
)

// bundle is the user data of one callback registration. The native side only
// ever sees its id; the closures and the C-ABI table live here until the
// registration is torn down.
type bundle[C any] struct {
	id        uintptr
	iface     string
	callbacks C
	table     unsafe.Pointer
	pinner    runtime.Pinner
	freed     atomic.Bool
}

// teardown is implemented by every bundle so one shared OnDestroy
// trampoline can free any of them.
type teardown interface {
	free() bool
	name() string
}

// register stores callbacks and pins table, whose address is handed to the
// native create call. The returned bundle must be freed exactly once: by the
// OnDestroy trampoline, or by the owner when the interface has none.
func register[C any, Tbl any](iface string, callbacks C, table *Tbl) *bundle[C] {
	b := &bundle[C]{iface: iface, callbacks: callbacks, table: unsafe.Pointer(table)}
	b.pinner.Pin(table)
	b.id = handles.Register(b)
	return b
}

// userData is the opaque value passed as the native void* user data.
func (b *bundle[C]) userData() uintptr { return b.id }

// tablePtr is the address of the pinned C-ABI table.
func (b *bundle[C]) tablePtr() uintptr {
	return uintptr(b.table)
}

func (b *bundle[C]) name() string { return b.iface }

// free unregisters the bundle and unpins its table. It reports false when
// the bundle was already freed.
func (b *bundle[C]) free() bool {
	if !b.freed.CompareAndSwap(false, true) {
		return false
	}
	handles.Unregister(b.id)
	b.pinner.Unpin()
	return true
}

// lookup restores the bundle behind native user data. Unknown or stale user
// data is a contract violation.
func lookup[C any](iface string, userData uintptr) *bundle[C] {
	b, ok := handles.Get[*bundle[C]](userData)
	if !ok || b.freed.Load() {
		contractViolation(iface, "callback for unknown or destroyed user data %#x", userData)
	}
	return b
}

// dispatch runs one trampoline slot. The closure bundle is restored from
// userData and call runs with a fresh borrow scope. A panic never crosses the
// ABI: it is logged and the slot's failure value is returned instead.
func dispatch[C, R any](iface, slot string, userData uintptr, failure func() R, call func(c *C, s *Scope) R) (result R) {
	scope := &Scope{}
	defer func() {
		scope.End()
		if r := recover(); r != nil {
			Logger().Error("callback panicked",
				zap.String("interface", iface),
				zap.String("slot", slot),
				zap.Any("panic", r),
				zap.Stack("stack"))
			result = failure()
		}
	}()
	b := lookup[C](iface, userData)
	return call(&b.callbacks, scope)
}

// dispatchVoid is dispatch for slots without a result.
func dispatchVoid[C any](iface, slot string, userData uintptr, call func(c *C, s *Scope)) {
	dispatch(iface, slot, userData, func() struct{} { return struct{}{} }, func(c *C, s *Scope) struct{} {
		call(c, s)
		return struct{}{}
	})
}

// onDestroyTrampoline frees the bundle behind userData. It is the only path
// that frees a bundle of an interface with an OnDestroy slot.
func onDestroyTrampoline(userData uintptr) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("OnDestroy panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	t, ok := handles.Lookup(userData).(teardown)
	if !ok {
		Logger().Error("OnDestroy for unknown user data", zap.Uintptr("user_data", userData))
		return
	}
	if !t.free() {
		Logger().Error("OnDestroy called twice", zap.String("interface", t.name()))
	}
}

var onDestroyCallback = sync.OnceValue(func() uintptr {
	return newCallback(onDestroyTrampoline)
})

// abandon frees a bundle whose native create call failed, so no native
// object ever saw its user data.
func abandon[C any](b *bundle[C]) {
	b.free()
}

// completeOneShot frees the bundle of a registration that has no OnDestroy
// slot and is done once its terminal callback has run.
func completeOneShot(iface string, userData uintptr) {
	t, ok := handles.Lookup(userData).(teardown)
	if !ok || !t.free() {
		Logger().Error("terminal callback for unknown or completed registration",
			zap.String("interface", iface),
			zap.Uintptr("user_data", userData))
	}
}
