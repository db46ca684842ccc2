// Package handles stores Go values that native code refers to by an opaque id.
//
// Native callback tables carry a void* user data slot. Go pointers must not be
// kept in native memory, so each registration stores its state here and hands
// the returned id across the boundary instead. The id is the only thing the
// native side ever sees; it never dereferences or duplicates it.
package handles

import (
	"sync"
)

var (
	mu      sync.RWMutex
	handles         = make(map[uintptr]any)
	nextID  uintptr = 1
)

// Register stores v and returns a non-zero id for it.
// The value stays reachable until Unregister is called with the same id.
func Register(v any) uintptr {
	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	handles[id] = v
	return id
}

// Lookup returns the value registered under id, or nil.
func Lookup(id uintptr) any {
	mu.RLock()
	defer mu.RUnlock()
	return handles[id]
}

// Get returns the value registered under id if it has type T.
func Get[T any](id uintptr) (T, bool) {
	v, ok := Lookup(id).(T)
	return v, ok
}

// Unregister removes id and reports whether it was registered.
// A false result means the id was already released or never issued.
func Unregister(id uintptr) bool {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := handles[id]; !ok {
		return false
	}
	delete(handles, id)
	return true
}

// Count returns the number of live ids.
func Count() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(handles)
}
