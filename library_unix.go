//go:build darwin || linux

package libwebrtc

import "github.com/ebitengine/purego"

// Indirections over purego so an in-process library can stand in for the
// real one.
var (
	dlopen = func(path string) (uintptr, error) {
		return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	}
	dlsym           = purego.Dlsym
	dlclose         = purego.Dlclose
	registerLibFunc = purego.RegisterLibFunc
	newCallback     = purego.NewCallback
)
