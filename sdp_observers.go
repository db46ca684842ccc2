package libwebrtc

import (
	"sync"
)

type (
	createSessionDescriptionObserver struct{}
	setLocalDescriptionObserver      struct{}
	setRemoteDescriptionObserver     struct{}
)

var (
	createSessionDescriptionObserverDesc = refcounted[createSessionDescriptionObserver]("webrtc_CreateSessionDescriptionObserver")
	setLocalDescriptionObserverDesc      = refcounted[setLocalDescriptionObserver]("webrtc_SetLocalDescriptionObserverInterface")
	setRemoteDescriptionObserverDesc     = refcounted[setRemoteDescriptionObserver]("webrtc_SetRemoteDescriptionObserverInterface")
)

var (
	webrtcCreateSessionDescriptionObserverMakeRefCounted func(cbs, userData uintptr) uintptr
	webrtcSetLocalDescriptionObserverMakeRefCounted      func(cbs, userData uintptr) uintptr
	webrtcSetRemoteDescriptionObserverMakeRefCounted     func(cbs, userData uintptr) uintptr
)

func init() {
	bind(
		symbol{"webrtc_CreateSessionDescriptionObserver_make_ref_counted", &webrtcCreateSessionDescriptionObserverMakeRefCounted},
		symbol{"webrtc_SetLocalDescriptionObserverInterface_make_ref_counted", &webrtcSetLocalDescriptionObserverMakeRefCounted},
		symbol{"webrtc_SetRemoteDescriptionObserverInterface_make_ref_counted", &webrtcSetRemoteDescriptionObserverMakeRefCounted},
	)
}

// CreateSessionDescriptionCallbacks receives the result of CreateOffer or
// CreateAnswer. Exactly one of the two runs. OnSuccess owns desc; when it is
// nil the description is closed.
type CreateSessionDescriptionCallbacks struct {
	OnSuccess func(desc *SessionDescription)
	OnFailure func(err *RTCError)
}

func (c CreateSessionDescriptionCallbacks) withDefaults() CreateSessionDescriptionCallbacks {
	if c.OnSuccess == nil {
		c.OnSuccess = func(desc *SessionDescription) { desc.Close() }
	}
	if c.OnFailure == nil {
		c.OnFailure = func(*RTCError) {}
	}
	return c
}

type createSessionDescriptionObserverCbs struct {
	OnSuccess uintptr
	OnFailure uintptr
}

const createSessionDescriptionIface = "webrtc_CreateSessionDescriptionObserver"

var createSessionDescriptionTrampolines = sync.OnceValue(func() createSessionDescriptionObserverCbs {
	return createSessionDescriptionObserverCbs{
		OnSuccess: newCallback(createSessionDescriptionOnSuccess),
		OnFailure: newCallback(createSessionDescriptionOnFailure),
	}
})

func createSessionDescriptionOnSuccess(desc, userData uintptr) {
	dispatchVoid(createSessionDescriptionIface, "OnSuccess", userData,
		func(c *CreateSessionDescriptionCallbacks, _ *Scope) {
			if desc == 0 {
				contractViolation(createSessionDescriptionIface, "OnSuccess with null description")
			}
			c.OnSuccess(takeSessionDescription(desc))
		})
	completeOneShot(createSessionDescriptionIface, userData)
}

func createSessionDescriptionOnFailure(rtcErr, userData uintptr) {
	dispatchVoid(createSessionDescriptionIface, "OnFailure", userData,
		func(c *CreateSessionDescriptionCallbacks, _ *Scope) {
			c.OnFailure(takeRTCFailure(rtcErr))
		})
	completeOneShot(createSessionDescriptionIface, userData)
}

// newCreateSessionDescriptionObserver returns the caller's reference to a
// native observer. Its registration ends with the first terminal callback.
func newCreateSessionDescriptionObserver(callbacks CreateSessionDescriptionCallbacks) *ScopedRef[createSessionDescriptionObserver] {
	table := new(createSessionDescriptionObserverCbs)
	*table = createSessionDescriptionTrampolines()
	b := register(createSessionDescriptionIface, callbacks.withDefaults(), table)

	raw := webrtcCreateSessionDescriptionObserverMakeRefCounted(b.tablePtr(), b.userData())
	if raw == 0 {
		abandon(b)
		contractViolation("webrtc_CreateSessionDescriptionObserver_make_ref_counted", "returned null")
	}
	return FromRaw(createSessionDescriptionObserverDesc, RefPtr[createSessionDescriptionObserver](raw))
}

// SetDescriptionCallbacks receives the outcome of SetLocalDescription or
// SetRemoteDescription. err is nil on success.
type SetDescriptionCallbacks struct {
	OnComplete func(err error)
}

func (c SetDescriptionCallbacks) withDefaults() SetDescriptionCallbacks {
	if c.OnComplete == nil {
		c.OnComplete = func(error) {}
	}
	return c
}

// setDescriptionObserverCbs mirrors both
// webrtc_SetLocalDescriptionObserverInterface_cbs and
// webrtc_SetRemoteDescriptionObserverInterface_cbs.
type setDescriptionObserverCbs struct {
	OnComplete uintptr
	OnDestroy  uintptr
}

const (
	setLocalDescriptionIface  = "webrtc_SetLocalDescriptionObserverInterface"
	setRemoteDescriptionIface = "webrtc_SetRemoteDescriptionObserverInterface"
)

var setLocalDescriptionTrampolines = sync.OnceValue(func() setDescriptionObserverCbs {
	return setDescriptionObserverCbs{
		OnComplete: newCallback(setLocalDescriptionOnComplete),
		OnDestroy:  onDestroyCallback(),
	}
})

var setRemoteDescriptionTrampolines = sync.OnceValue(func() setDescriptionObserverCbs {
	return setDescriptionObserverCbs{
		OnComplete: newCallback(setRemoteDescriptionOnComplete),
		OnDestroy:  onDestroyCallback(),
	}
})

func setLocalDescriptionOnComplete(rtcErr, userData uintptr) {
	dispatchVoid(setLocalDescriptionIface, "OnSetLocalDescriptionComplete", userData,
		func(c *SetDescriptionCallbacks, _ *Scope) {
			c.OnComplete(takeRTCError(rtcErr))
		})
}

func setRemoteDescriptionOnComplete(rtcErr, userData uintptr) {
	dispatchVoid(setRemoteDescriptionIface, "OnSetRemoteDescriptionComplete", userData,
		func(c *SetDescriptionCallbacks, _ *Scope) {
			c.OnComplete(takeRTCError(rtcErr))
		})
}

func newSetLocalDescriptionObserver(callbacks SetDescriptionCallbacks) *ScopedRef[setLocalDescriptionObserver] {
	table := new(setDescriptionObserverCbs)
	*table = setLocalDescriptionTrampolines()
	b := register(setLocalDescriptionIface, callbacks.withDefaults(), table)

	raw := webrtcSetLocalDescriptionObserverMakeRefCounted(b.tablePtr(), b.userData())
	if raw == 0 {
		abandon(b)
		contractViolation("webrtc_SetLocalDescriptionObserverInterface_make_ref_counted", "returned null")
	}
	return FromRaw(setLocalDescriptionObserverDesc, RefPtr[setLocalDescriptionObserver](raw))
}

func newSetRemoteDescriptionObserver(callbacks SetDescriptionCallbacks) *ScopedRef[setRemoteDescriptionObserver] {
	table := new(setDescriptionObserverCbs)
	*table = setRemoteDescriptionTrampolines()
	b := register(setRemoteDescriptionIface, callbacks.withDefaults(), table)

	raw := webrtcSetRemoteDescriptionObserverMakeRefCounted(b.tablePtr(), b.userData())
	if raw == 0 {
		abandon(b)
		contractViolation("webrtc_SetRemoteDescriptionObserverInterface_make_ref_counted", "returned null")
	}
	return FromRaw(setRemoteDescriptionObserverDesc, RefPtr[setRemoteDescriptionObserver](raw))
}
