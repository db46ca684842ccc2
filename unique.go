package libwebrtc

import (
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
)

// UniqueDescriptor holds the accessor pair of an exclusively owned native
// type: `<prefix>_unique_get` and `<prefix>_unique_delete`.
type UniqueDescriptor[T any] struct {
	name string
	get  func(u uintptr) uintptr
	del  func(u uintptr)
}

// NewUniqueDescriptor returns a UniqueDescriptor built from explicit
// operations. A nil get means the unique pointer is the payload pointer.
func NewUniqueDescriptor[T any](name string, get func(UniquePtr[T]) Ptr[T], del func(UniquePtr[T])) *UniqueDescriptor[T] {
	d := &UniqueDescriptor[T]{
		name: name,
		del:  func(u uintptr) { del(UniquePtr[T](u)) },
	}
	if get != nil {
		d.get = func(u uintptr) uintptr { return uintptr(get(UniquePtr[T](u))) }
	}
	return d
}

// unique declares the descriptor of a `WEBRTC_DECLARE_UNIQUE` type.
func unique[T any](prefix string) *UniqueDescriptor[T] {
	d := &UniqueDescriptor[T]{name: prefix}
	bind(
		symbol{prefix + "_unique_get", &d.get},
		symbol{prefix + "_unique_delete", &d.del},
	)
	return d
}

// owned declares a plainly heap-allocated native type freed by one delete
// function. Its handle and payload pointers are the same.
func owned[T any](prefix, deleteSymbol string) *UniqueDescriptor[T] {
	d := &UniqueDescriptor[T]{name: prefix}
	bind(symbol{deleteSymbol, &d.del})
	return d
}

// Name returns the native type name.
func (d *UniqueDescriptor[T]) Name() string { return d.name }

const (
	uniqueLive int32 = iota
	uniqueClosed
	uniqueForfeited
)

// Unique owns one exclusively owned native object. Exactly one destroy
// happens over its lifetime: Close deletes it, IntoRaw hands the obligation
// to the native side.
type Unique[T any] struct {
	desc  *UniqueDescriptor[T]
	raw   UniquePtr[T]
	ptr   Ptr[T]
	state atomic.Int32
}

// FromUnique takes ownership of raw. A null raw is a contract violation.
func FromUnique[T any](d *UniqueDescriptor[T], raw UniquePtr[T]) *Unique[T] {
	if raw == 0 {
		contractViolation(d.name, "FromUnique with null pointer")
	}
	p := uintptr(raw)
	if d.get != nil {
		p = d.get(uintptr(raw))
	}
	u := &Unique[T]{desc: d, raw: raw, ptr: Ptr[T](p)}
	runtime.SetFinalizer(u, finalizeUnique[T])
	return u
}

// AsPtr returns the payload pointer without changing ownership.
func (u *Unique[T]) AsPtr() Ptr[T] {
	if u == nil {
		contractViolation("AsPtr", "nil Unique")
	}
	switch u.state.Load() {
	case uniqueClosed:
		contractViolation(u.desc.name+".AsPtr", "use after close")
	case uniqueForfeited:
		contractViolation(u.desc.name+".AsPtr", "use after IntoRaw")
	}
	return u.ptr
}

// IntoRaw forfeits ownership and returns the unique pointer for a native API
// that takes over freeing it. Close becomes a no-op afterwards.
func (u *Unique[T]) IntoRaw() UniquePtr[T] {
	if u == nil {
		contractViolation("IntoRaw", "nil Unique")
	}
	if !u.state.CompareAndSwap(uniqueLive, uniqueForfeited) {
		contractViolation(u.desc.name+".IntoRaw", "object already closed or forfeited")
	}
	runtime.SetFinalizer(u, nil)
	return u.raw
}

// Close deletes the native object unless ownership was already given up.
// It is safe to call more than once.
func (u *Unique[T]) Close() {
	if u == nil || !u.state.CompareAndSwap(uniqueLive, uniqueClosed) {
		return
	}
	runtime.SetFinalizer(u, nil)
	u.desc.del(uintptr(u.raw))
}

// Live reports whether the object is still owned by u.
func (u *Unique[T]) Live() bool {
	return u != nil && u.state.Load() == uniqueLive
}

func finalizeUnique[T any](u *Unique[T]) {
	if u.state.Load() == uniqueLive {
		Logger().Warn("unique object leaked",
			zap.String("type", u.desc.name),
			zap.Uintptr("ptr", uintptr(u.raw)))
	}
}
