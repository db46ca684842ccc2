package libwebrtc

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	libOnce   sync.Once
	libHandle uintptr
	libErr    error
	libLoaded atomic.Bool
)

// Load locates the native library, binds every symbol the package uses and
// checks the enum constants it mirrors. Only the first call does any work;
// later calls return the first result.
func Load(cfg Config) error {
	libOnce.Do(func() {
		if cfg.Logger != nil {
			SetLogger(cfg.Logger)
		}
		libHandle, libErr = openLibrary(cfg.libraryPaths())
		if libErr == nil {
			libLoaded.Store(true)
		}
	})
	return libErr
}

// Loaded reports whether Load has succeeded.
func Loaded() bool {
	return libLoaded.Load()
}

func ensureLoaded() error {
	if !libLoaded.Load() {
		return ErrLibraryNotLoaded
	}
	return nil
}

// openLibrary tries each path in order and returns the first handle whose
// symbols all bind.
func openLibrary(paths []string) (uintptr, error) {
	log := Logger()

	var lastErr error
	for _, path := range paths {
		handle, err := dlopen(path)
		if err != nil {
			log.Debug("dlopen failed", zap.String("path", path), zap.Error(err))
			lastErr = err
			continue
		}
		if err := bindSymbols(handle); err != nil {
			log.Debug("binding failed", zap.String("path", path), zap.Error(err))
			_ = dlclose(handle)
			lastErr = err
			continue
		}
		log.Info("native library loaded", zap.String("path", path))
		return handle, nil
	}

	if lastErr != nil {
		return 0, fmt.Errorf("failed to load %s: %w", libraryName(), lastErr)
	}
	return 0, errors.New(libraryName() + " not found in any standard location")
}
