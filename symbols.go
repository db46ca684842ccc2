package libwebrtc

import (
	"fmt"
	"sync"
	"unsafe"
)

// symbol binds a package-level function variable to a native export.
type symbol struct {
	name string
	fn   any // pointer to a func variable
}

// constant is an `extern const int` the Go side mirrors.
type constant struct {
	name string
	want int32
}

var (
	symbolsMu sync.Mutex
	symbols   []symbol
	constants []constant
)

// bind queues function variables for binding when the library loads.
// It is called from package init and from descriptor declarations.
func bind(syms ...symbol) {
	symbolsMu.Lock()
	symbols = append(symbols, syms...)
	symbolsMu.Unlock()
}

// expect records the value a native enum constant must have.
func expect(consts ...constant) {
	symbolsMu.Lock()
	constants = append(constants, consts...)
	symbolsMu.Unlock()
}

// bindSymbols resolves every queued symbol in handle. All missing names are
// reported together.
func bindSymbols(handle uintptr) error {
	symbolsMu.Lock()
	syms := append([]symbol(nil), symbols...)
	consts := append([]constant(nil), constants...)
	symbolsMu.Unlock()

	var missing []string
	for _, s := range syms {
		if _, err := dlsym(handle, s.name); err != nil {
			missing = append(missing, s.name)
			continue
		}
		registerLibFunc(s.fn, handle, s.name)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrSymbolNotFound, missing)
	}

	for _, c := range consts {
		addr, err := dlsym(handle, c.name)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrSymbolNotFound, c.name)
		}
		if got := *(*int32)(unsafe.Pointer(addr)); got != c.want {
			return fmt.Errorf("%w: %s = %d, want %d", ErrConstantMismatch, c.name, got, c.want)
		}
	}
	return nil
}
