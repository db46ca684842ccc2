//go:build !darwin && !linux

package libwebrtc

import (
	"errors"
	"runtime"

	"github.com/ebitengine/purego"
)

var errUnsupportedPlatform = errors.New("libwebrtc: dynamic loading is not supported on " + runtime.GOOS)

var (
	dlopen = func(string) (uintptr, error) {
		return 0, errUnsupportedPlatform
	}
	dlsym = func(uintptr, string) (uintptr, error) {
		return 0, errUnsupportedPlatform
	}
	dlclose = func(uintptr) error {
		return nil
	}
	registerLibFunc = purego.RegisterLibFunc
	newCallback     = purego.NewCallback
)
