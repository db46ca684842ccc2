// Package libwebrtc binds the libwebrtc_c flat C API from Go without cgo.
//
// The native library is opened at runtime with purego. Every object it hands
// out falls into one of three ownership kinds, each with its own wrapper:
//   - ScopedRef for refcounted objects (AddRef/Release)
//   - Unique for single-owner objects with a delete function
//   - Borrowed for views that are valid only while a callback runs
//
// Go implementations of native interfaces (encoders, observers, callbacks)
// are registered as callback bundles: a table of C-callable trampolines plus
// a user-data handle that resolves to the Go closures. Where the native
// interface has an OnDestroy slot it reports the end of the registration and
// frees the bundle. Observers and sinks without one are freed by their Go
// owner right after the native delete. Panics raised by Go callbacks are
// recovered at the trampoline and logged instead of unwinding into native
// frames.
//
// # Architecture
//
//	Load -> symbol table (bind/expect) -> descriptors -> wrappers
//	native event -> trampoline -> handle lookup -> Scope -> Go closure
//	VideoEncoder -> EncodedImageCallback -> RTPSink -> RTPPacketizer -> RTPWriter
//
// # Native Library
//
// Load searches, in order: Config.LibraryPath, Config.SearchPaths,
// WEBRTC_C_LIB_PATH, the directory named by WEBRTC_SDK_LIB_PATH, the
// executable's directory, the module's build directory and the platform
// library directories. Load fails when a symbol is missing or when an enum
// constant exported by the library differs from the value compiled into this
// package.
//
// # Logging
//
// The package logs through zap. SetLogger or Config.Logger replaces the
// default no-op logger.
package libwebrtc
