package libwebrtc

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/pion/webrtc/v4"
)

type (
	dataChannel         struct{}
	dataChannelObserver struct{}
	dataChannelInit     struct{}
)

var (
	dataChannelDesc         = refcounted[dataChannel]("webrtc_DataChannelInterface")
	dataChannelObserverDesc = owned[dataChannelObserver]("webrtc_DataChannelObserver", "webrtc_DataChannelObserver_delete")
	dataChannelInitDesc     = owned[dataChannelInit]("webrtc_DataChannelInit", "webrtc_DataChannelInit_delete")
)

var (
	webrtcDataChannelLabel              func(self uintptr) uintptr
	webrtcDataChannelState              func(self uintptr) int32
	webrtcDataChannelSend               func(self uintptr, data unsafe.Pointer, n uintptr, binary int32) int32
	webrtcDataChannelClose              func(self uintptr)
	webrtcDataChannelRegisterObserver   func(self, observer uintptr)
	webrtcDataChannelUnregisterObserver func(self uintptr)
	webrtcDataChannelObserverNew        func(cbs, userData uintptr) uintptr
	webrtcDataChannelInitNew            func() uintptr
	webrtcDataChannelInitSetOrdered     func(self uintptr, ordered int32)
	webrtcDataChannelInitSetProtocol    func(self uintptr, s unsafe.Pointer, n uintptr)
)

const (
	dataStateConnecting int32 = 0
	dataStateOpen       int32 = 1
	dataStateClosing    int32 = 2
	dataStateClosed     int32 = 3
)

func init() {
	bind(
		symbol{"webrtc_DataChannelInterface_label", &webrtcDataChannelLabel},
		symbol{"webrtc_DataChannelInterface_state", &webrtcDataChannelState},
		symbol{"webrtc_DataChannelInterface_Send", &webrtcDataChannelSend},
		symbol{"webrtc_DataChannelInterface_Close", &webrtcDataChannelClose},
		symbol{"webrtc_DataChannelInterface_RegisterObserver", &webrtcDataChannelRegisterObserver},
		symbol{"webrtc_DataChannelInterface_UnregisterObserver", &webrtcDataChannelUnregisterObserver},
		symbol{"webrtc_DataChannelObserver_new", &webrtcDataChannelObserverNew},
		symbol{"webrtc_DataChannelInit_new", &webrtcDataChannelInitNew},
		symbol{"webrtc_DataChannelInit_set_ordered", &webrtcDataChannelInitSetOrdered},
		symbol{"webrtc_DataChannelInit_set_protocol", &webrtcDataChannelInitSetProtocol},
	)
	expect(
		constant{"webrtc_DataChannelInterface_DataState_kConnecting", dataStateConnecting},
		constant{"webrtc_DataChannelInterface_DataState_kOpen", dataStateOpen},
		constant{"webrtc_DataChannelInterface_DataState_kClosing", dataStateClosing},
		constant{"webrtc_DataChannelInterface_DataState_kClosed", dataStateClosed},
	)
}

func dataChannelStateToPion(s int32) webrtc.DataChannelState {
	switch s {
	case dataStateConnecting:
		return webrtc.DataChannelStateConnecting
	case dataStateOpen:
		return webrtc.DataChannelStateOpen
	case dataStateClosing:
		return webrtc.DataChannelStateClosing
	case dataStateClosed:
		return webrtc.DataChannelStateClosed
	default:
		return webrtc.DataChannelStateUnknown
	}
}

// newDataChannelInit builds the native init. Only Ordered and Protocol are
// supported by the native surface; the remaining fields are ignored.
func newDataChannelInit(init *webrtc.DataChannelInit) *Unique[dataChannelInit] {
	u := FromUnique(dataChannelInitDesc, UniquePtr[dataChannelInit](webrtcDataChannelInitNew()))
	if init == nil {
		return u
	}
	self := uintptr(u.AsPtr())
	if init.Ordered != nil {
		webrtcDataChannelInitSetOrdered(self, boolToInt(*init.Ordered))
	}
	if init.Protocol != nil {
		webrtcDataChannelInitSetProtocol(self, stringPtr(*init.Protocol), uintptr(len(*init.Protocol)))
	}
	return u
}

// DataChannel owns a reference to a webrtc::DataChannelInterface.
type DataChannel struct {
	ref *ScopedRef[dataChannel]

	mu       sync.Mutex
	observer *DataChannelObserver
}

func adoptDataChannel(raw uintptr) *DataChannel {
	return &DataChannel{ref: FromRaw(dataChannelDesc, RefPtr[dataChannel](raw))}
}

func (dc *DataChannel) self() uintptr { return uintptr(dc.ref.AsPtr()) }

// Label returns the channel label.
func (dc *DataChannel) Label() string {
	return takeStdString(webrtcDataChannelLabel(dc.self()))
}

// State returns the channel state.
func (dc *DataChannel) State() webrtc.DataChannelState {
	return dataChannelStateToPion(webrtcDataChannelState(dc.self()))
}

// Send queues data on the channel.
func (dc *DataChannel) Send(data []byte, binary bool) error {
	if webrtcDataChannelSend(dc.self(), bytesPtr(data), uintptr(len(data)), boolToInt(binary)) == 0 {
		return fmt.Errorf("data channel %q: %w", dc.Label(), ErrSendFailed)
	}
	return nil
}

// SendText queues a text message.
func (dc *DataChannel) SendText(s string) error {
	return dc.Send([]byte(s), false)
}

// Close starts the closing handshake. The reference stays valid.
func (dc *DataChannel) Close() { webrtcDataChannelClose(dc.self()) }

// RegisterObserver installs callbacks for state changes and messages,
// replacing any observer registered before.
func (dc *DataChannel) RegisterObserver(callbacks DataChannelObserverCallbacks) *DataChannelObserver {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.unregisterLocked()

	o := newDataChannelObserver(callbacks)
	webrtcDataChannelRegisterObserver(dc.self(), uintptr(o.u.AsPtr()))
	dc.observer = o
	return o
}

// UnregisterObserver detaches and deletes the current observer, if any.
func (dc *DataChannel) UnregisterObserver() {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.unregisterLocked()
}

func (dc *DataChannel) unregisterLocked() {
	if dc.observer == nil {
		return
	}
	webrtcDataChannelUnregisterObserver(dc.self())
	dc.observer.close()
	dc.observer = nil
}

// Release detaches the observer and drops this owner's reference.
func (dc *DataChannel) Release() {
	if dc.ref.Released() {
		return
	}
	dc.UnregisterObserver()
	dc.ref.Release()
}

// DataChannelObserverCallbacks receives data channel events. OnMessage gets
// a copy of the payload that it may keep.
type DataChannelObserverCallbacks struct {
	OnStateChange func()
	OnMessage     func(data []byte, binary bool)
}

func (c DataChannelObserverCallbacks) withDefaults() DataChannelObserverCallbacks {
	if c.OnStateChange == nil {
		c.OnStateChange = func() {}
	}
	if c.OnMessage == nil {
		c.OnMessage = func([]byte, bool) {}
	}
	return c
}

type dataChannelObserverCbs struct {
	OnStateChange uintptr
	OnMessage     uintptr
}

const dataChannelObserverIface = "webrtc_DataChannelObserver"

var dataChannelObserverTrampolines = sync.OnceValue(func() dataChannelObserverCbs {
	return dataChannelObserverCbs{
		OnStateChange: newCallback(dataChannelOnStateChange),
		OnMessage:     newCallback(dataChannelOnMessage),
	}
})

func dataChannelOnStateChange(userData uintptr) {
	dispatchVoid(dataChannelObserverIface, "OnStateChange", userData,
		func(c *DataChannelObserverCallbacks, _ *Scope) {
			c.OnStateChange()
		})
}

func dataChannelOnMessage(data, n uintptr, binary int32, userData uintptr) {
	dispatchVoid(dataChannelObserverIface, "OnMessage", userData,
		func(c *DataChannelObserverCallbacks, _ *Scope) {
			c.OnMessage(goBytes(data, int(n)), binary != 0)
		})
}

// DataChannelObserver is a native observer backed by Go callbacks. The
// native interface has no destroy notification, so the registration ends
// when the owning DataChannel deletes the observer.
type DataChannelObserver struct {
	u *Unique[dataChannelObserver]
	b teardown
}

func newDataChannelObserver(callbacks DataChannelObserverCallbacks) *DataChannelObserver {
	table := new(dataChannelObserverCbs)
	*table = dataChannelObserverTrampolines()
	b := register(dataChannelObserverIface, callbacks.withDefaults(), table)

	raw := webrtcDataChannelObserverNew(b.tablePtr(), b.userData())
	if raw == 0 {
		abandon(b)
		contractViolation("webrtc_DataChannelObserver_new", "returned null")
	}
	return &DataChannelObserver{u: FromUnique(dataChannelObserverDesc, UniquePtr[dataChannelObserver](raw)), b: b}
}

// close deletes the native observer and then frees its registration, so no
// callback can arrive for a freed bundle.
func (o *DataChannelObserver) close() {
	if !o.u.Live() {
		return
	}
	o.u.Close()
	o.b.free()
}
