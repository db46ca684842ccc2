package libwebrtc

import (
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
)

// ScopedRef owns one reference to a refcounted native object.
//
// N live clones correspond to N AddRef calls on top of the adopted
// reference. Each owner calls Release exactly once; the native object is
// freed by whichever Release brings the count to zero.
type ScopedRef[T any] struct {
	desc     *Descriptor[T]
	ref      RefPtr[T]
	ptr      Ptr[T]
	released atomic.Bool
}

// FromRaw adopts ref, which must already carry one reference for the caller.
// No AddRef is performed. A null ref is a contract violation.
func FromRaw[T any](d *Descriptor[T], ref RefPtr[T]) *ScopedRef[T] {
	if ref == 0 {
		contractViolation(d.name, "FromRaw with null reference")
	}
	r := &ScopedRef[T]{desc: d, ref: ref, ptr: d.Get(ref)}
	runtime.SetFinalizer(r, finalizeScopedRef[T])
	return r
}

// AsPtr returns the payload pointer without changing ownership.
func (r *ScopedRef[T]) AsPtr() Ptr[T] {
	r.checkLive("AsPtr")
	return r.ptr
}

// AsRefcountedPtr returns the reference pointer without changing ownership.
func (r *ScopedRef[T]) AsRefcountedPtr() RefPtr[T] {
	r.checkLive("AsRefcountedPtr")
	return r.ref
}

// Clone adds a reference and returns a second, independent owner.
func (r *ScopedRef[T]) Clone() *ScopedRef[T] {
	r.checkLive("Clone")
	r.desc.AddRef(r.ptr)
	c := &ScopedRef[T]{desc: r.desc, ref: r.ref, ptr: r.ptr}
	runtime.SetFinalizer(c, finalizeScopedRef[T])
	return c
}

// Release gives up this owner's reference. Calling it again is a no-op.
func (r *ScopedRef[T]) Release() {
	if r == nil || !r.released.CompareAndSwap(false, true) {
		return
	}
	runtime.SetFinalizer(r, nil)
	r.desc.Release(r.ptr)
}

// Released reports whether Release has run.
func (r *ScopedRef[T]) Released() bool {
	return r.released.Load()
}

func (r *ScopedRef[T]) checkLive(op string) {
	if r == nil {
		contractViolation(op, "nil ScopedRef")
	}
	if r.released.Load() {
		contractViolation(r.desc.name+"."+op, "use after release")
	}
}

// finalizeScopedRef reports an owner that was never released. It does not
// release on its own.
func finalizeScopedRef[T any](r *ScopedRef[T]) {
	if !r.released.Load() {
		Logger().Warn("refcounted object leaked",
			zap.String("interface", r.desc.name),
			zap.Uintptr("ref", uintptr(r.ref)))
	}
}
