package libwebrtc

import (
	"sync"

	"go.uber.org/zap"

	"github.com/thesyncim/libwebrtc/internal/handles"
)

type thread struct{}

var threadDesc = unique[thread]("webrtc_Thread")

var (
	webrtcThreadCreate                 func() uintptr
	webrtcThreadCreateWithSocketServer func() uintptr
	webrtcThreadStart                  func(self uintptr)
	webrtcThreadStop                   func(self uintptr)
	webrtcThreadBlockingCall           func(self, fn, arg uintptr)
)

func init() {
	bind(
		symbol{"webrtc_Thread_Create", &webrtcThreadCreate},
		symbol{"webrtc_Thread_CreateWithSocketServer", &webrtcThreadCreateWithSocketServer},
		symbol{"webrtc_Thread_Start", &webrtcThreadStart},
		symbol{"webrtc_Thread_Stop", &webrtcThreadStop},
		symbol{"webrtc_Thread_BlockingCall", &webrtcThreadBlockingCall},
	)
}

// Thread is an owned webrtc::Thread.
type Thread struct {
	u       *Unique[thread]
	mu      sync.Mutex
	running bool
}

// NewThread creates a stopped thread without a socket server.
func NewThread() (*Thread, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	return adoptThread(webrtcThreadCreate()), nil
}

// NewNetworkThread creates a stopped thread with a socket server, as the
// network thread of a factory requires.
func NewNetworkThread() (*Thread, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	return adoptThread(webrtcThreadCreateWithSocketServer()), nil
}

func adoptThread(raw uintptr) *Thread {
	if raw == 0 {
		contractViolation("webrtc_Thread_Create", "returned null")
	}
	return &Thread{u: FromUnique(threadDesc, UniquePtr[thread](raw))}
}

func (t *Thread) self() uintptr { return uintptr(t.u.AsPtr()) }

// Start starts the thread. Starting a running thread does nothing.
func (t *Thread) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	webrtcThreadStart(t.self())
	t.running = true
}

// Stop stops the thread. Stopping a stopped thread does nothing.
func (t *Thread) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	webrtcThreadStop(t.self())
	t.running = false
}

// BlockingCall runs fn on the thread and waits for it. A panic in fn is
// logged and does not unwind through the native thread.
func (t *Thread) BlockingCall(fn func()) {
	id := handles.Register(fn)
	defer handles.Unregister(id)
	webrtcThreadBlockingCall(t.self(), blockingCallCallback(), id)
}

var blockingCallCallback = sync.OnceValue(func() uintptr {
	return newCallback(blockingCallTrampoline)
})

func blockingCallTrampoline(arg uintptr) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("blocking call panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn, ok := handles.Get[func()](arg)
	if !ok {
		contractViolation("webrtc_Thread_BlockingCall", "unknown closure %#x", arg)
	}
	fn()
}

// Close stops and deletes the thread.
func (t *Thread) Close() {
	if !t.u.Live() {
		return
	}
	t.Stop()
	t.u.Close()
}
