package libwebrtc

// Capability is a non-owning handle to a native callback sink that the Go
// side invokes, usually from inside another trampoline.
//
// A Capability must not be invoked after the sink it points at has been torn
// down. Nothing here can detect that; it is the holder's obligation.
type Capability[T, A, R any] struct {
	ptr  Ptr[T]
	call func(Ptr[T], A) R
}

// WrapCapability creates a Capability that invokes call with ptr.
func WrapCapability[T, A, R any](ptr Ptr[T], call func(Ptr[T], A) R) Capability[T, A, R] {
	if ptr == 0 {
		contractViolation("WrapCapability", "null sink pointer")
	}
	return Capability[T, A, R]{ptr: ptr, call: call}
}

// Valid reports whether c refers to a sink.
func (c Capability[T, A, R]) Valid() bool { return c.ptr != 0 && c.call != nil }

// Ptr returns the sink pointer.
func (c Capability[T, A, R]) Ptr() Ptr[T] { return c.ptr }

// Invoke calls through the sink and returns the owned result.
func (c Capability[T, A, R]) Invoke(arg A) R {
	if !c.Valid() {
		contractViolation("Capability.Invoke", "zero capability")
	}
	return c.call(c.ptr, arg)
}
