package libwebrtc

import "sync/atomic"

// Scope bounds the validity of the borrowed pointers produced by one native
// call. Trampolines open a Scope for the callback and end it on return.
type Scope struct {
	ended atomic.Bool
}

// End invalidates every Borrowed created in s.
func (s *Scope) End() { s.ended.Store(true) }

// Ended reports whether End has been called.
func (s *Scope) Ended() bool { return s.ended.Load() }

// Borrowed is a non-owning view of a native object that is valid only while
// its Scope is open.
type Borrowed[T any] struct {
	ptr   Ptr[T]
	scope *Scope
}

// Borrow wraps p for the lifetime of s. A zero p yields a nil view, used for
// optional arguments.
func Borrow[T any](s *Scope, p Ptr[T]) Borrowed[T] {
	return Borrowed[T]{ptr: p, scope: s}
}

// IsNil reports whether the view refers to no object.
func (b Borrowed[T]) IsNil() bool { return b.ptr == 0 }

// Ptr returns the native pointer. It panics if the view is nil or its scope
// has ended.
func (b Borrowed[T]) Ptr() Ptr[T] {
	if b.ptr == 0 {
		contractViolation("Borrowed.Ptr", "nil borrowed pointer")
	}
	if b.scope != nil && b.scope.Ended() {
		contractViolation("Borrowed.Ptr", "borrowed pointer used after its call returned")
	}
	return b.ptr
}

// unscoped wraps a pointer whose validity is guaranteed by the caller rather
// than by a Scope, such as an object the caller owns.
func unscoped[T any](p Ptr[T]) Borrowed[T] {
	return Borrowed[T]{ptr: p}
}
