package libwebrtc

// Ptr is a payload pointer to a native object of kind T. T is a marker type
// and never instantiated; it keeps pointers of different interfaces apart.
type Ptr[T any] uintptr

// RefPtr is the `_refcounted` handle of a native object of kind T.
type RefPtr[T any] uintptr

// UniquePtr is the `_unique` handle of a native object of kind T.
type UniquePtr[T any] uintptr

// Descriptor holds the three operations the native side exports for a
// refcounted interface: get the payload from a reference, add a reference
// and release one. One Descriptor exists per interface; ScopedRef does the
// rest generically.
type Descriptor[T any] struct {
	name    string
	get     func(ref uintptr) uintptr
	addRef  func(p uintptr)
	release func(p uintptr)
}

// NewDescriptor returns a Descriptor built from explicit operations.
func NewDescriptor[T any](name string, get func(RefPtr[T]) Ptr[T], addRef, release func(Ptr[T])) *Descriptor[T] {
	return &Descriptor[T]{
		name:    name,
		get:     func(ref uintptr) uintptr { return uintptr(get(RefPtr[T](ref))) },
		addRef:  func(p uintptr) { addRef(Ptr[T](p)) },
		release: func(p uintptr) { release(Ptr[T](p)) },
	}
}

// refcounted declares the Descriptor for the native interface prefix and
// queues `<prefix>_refcounted_get`, `<prefix>_AddRef` and `<prefix>_Release`
// for binding.
func refcounted[T any](prefix string) *Descriptor[T] {
	d := &Descriptor[T]{name: prefix}
	bind(
		symbol{prefix + "_refcounted_get", &d.get},
		symbol{prefix + "_AddRef", &d.addRef},
		symbol{prefix + "_Release", &d.release},
	)
	return d
}

// Name returns the native interface name.
func (d *Descriptor[T]) Name() string { return d.name }

// Get returns the payload pointer behind ref. It must not be called after
// the last Release of the object.
func (d *Descriptor[T]) Get(ref RefPtr[T]) Ptr[T] {
	if ref == 0 {
		contractViolation(d.name+"_refcounted_get", "null reference")
	}
	return Ptr[T](d.get(uintptr(ref)))
}

// AddRef increments the native reference count.
func (d *Descriptor[T]) AddRef(p Ptr[T]) {
	if p == 0 {
		contractViolation(d.name+"_AddRef", "null pointer")
	}
	d.addRef(uintptr(p))
}

// Release drops one reference. The object is freed inside this call when the
// count reaches zero.
func (d *Descriptor[T]) Release(p Ptr[T]) {
	if p == 0 {
		contractViolation(d.name+"_Release", "null pointer")
	}
	d.release(uintptr(p))
}
