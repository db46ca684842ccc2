package libwebrtc

import (
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
)

// Environment variables consulted by Load.
const (
	// EnvLibPath names the full path of the native library.
	EnvLibPath = "WEBRTC_C_LIB_PATH"
	// EnvSDKLibPath names a directory containing the native library.
	EnvSDKLibPath = "WEBRTC_SDK_LIB_PATH"
)

// Config controls how the native library is located and how the package
// reports what it does.
type Config struct {
	// LibraryPath, when set, is tried before any other location.
	LibraryPath string
	// SearchPaths are extra directories searched for the library.
	SearchPaths []string
	// Logger replaces the package logger when non-nil.
	Logger *zap.Logger
}

// libraryName returns the platform file name of the native library.
func libraryName() string {
	if runtime.GOOS == "darwin" {
		return "libwebrtc_c.dylib"
	}
	return "libwebrtc_c.so"
}

// libraryPaths returns candidate library locations, most specific first.
func (c Config) libraryPaths() []string {
	var paths []string
	libName := libraryName()

	if c.LibraryPath != "" {
		paths = append(paths, c.LibraryPath)
	}
	for _, dir := range c.SearchPaths {
		paths = append(paths, filepath.Join(dir, libName))
	}

	// Environment variable overrides
	if envPath := os.Getenv(EnvLibPath); envPath != "" {
		paths = append(paths, envPath)
	}
	if envPath := os.Getenv(EnvSDKLibPath); envPath != "" {
		paths = append(paths, filepath.Join(envPath, libName))
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, libName),
			filepath.Join(exeDir, "..", "lib", libName),
		)
	}

	if root := findSourceRoot(); root != "" {
		paths = append(paths, filepath.Join(root, "build", libName))
	}
	if root := findModuleRoot(); root != "" {
		paths = append(paths, filepath.Join(root, "build", libName))
	}

	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			libName,
			filepath.Join("/usr/local/lib", libName),
			filepath.Join("/opt/homebrew/lib", libName),
		)
	case "linux":
		paths = append(paths,
			libName,
			filepath.Join("/usr/local/lib", libName),
			filepath.Join("/usr/lib", libName),
		)
	}

	return dedupe(paths)
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
