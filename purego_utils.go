package libwebrtc

import (
	"os"
	"path/filepath"
	"runtime"
	"unsafe"
)

// goBytes copies n bytes starting at ptr into a new slice.
func goBytes(ptr uintptr, n int) []byte {
	if ptr == 0 || n <= 0 {
		return nil
	}
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
	return out
}

// bytesPtr returns the address of the first element of b, or nil.
// The caller keeps b alive for the duration of the native call.
func bytesPtr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(b))
}

// stringPtr is bytesPtr for strings. Native APIs here take an explicit
// length, so no terminator is appended.
func stringPtr(s string) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.StringData(s))
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// findSourceRoot returns the directory holding this package's sources.
// It works under `go test` and in IDEs where the working directory varies.
func findSourceRoot() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	return filepath.Dir(file)
}

// findModuleRoot walks up from the working directory to the nearest go.mod.
func findModuleRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
