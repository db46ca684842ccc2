//go:build darwin || linux

package libwebrtc

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// fakeLib is an in-process stand-in for libwebrtc_c. Objects are opaque ids
// in a table; refcounts, deletes and callback tables behave like the native
// library so ownership bugs show up as leaks or double frees.
type fakeLib struct {
	mu        sync.Mutex
	next      uintptr
	objects   map[uintptr]*fakeObject
	handlers  map[string]fakeFn
	callbacks []reflect.Value
	consts    map[string]*int32
	missing   map[string]bool
	fail      map[string]int
	errs      []string
}

type fakeObject struct {
	id         uintptr
	kind       string
	refcounted bool
	refs       int
	freed      bool
	fields     map[string]any
	mem        []byte
	cbs, ud    uintptr
	// holds are references and owned objects dropped with this object.
	holds []uintptr
}

type fakeFn func(a fakeArgs) any

type fakeArgs []reflect.Value

const (
	fakeHandle       = 0xfeed
	fakeCallbackBase = 0x7c000000
)

// onDestroySlots gives the OnDestroy index in each callback table.
var onDestroySlots = map[string]int{
	"webrtc_VideoEncoder":                          6,
	"webrtc_VideoDecoder":                          5,
	"webrtc_VideoEncoder_EncodedImageCallback":     1,
	"webrtc_SetLocalDescriptionObserverInterface":  1,
	"webrtc_SetRemoteDescriptionObserverInterface": 1,
}

var fake *fakeLib

func TestMain(m *testing.M) {
	fake = newFakeLib()
	fake.install()
	if err := Load(Config{LibraryPath: "libwebrtc_c_fake.so"}); err != nil {
		fmt.Fprintln(os.Stderr, "fake library did not load:", err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func (a fakeArgs) ptr(i int) uintptr {
	v := a[i]
	switch v.Kind() {
	case reflect.Uintptr:
		return uintptr(v.Uint())
	case reflect.UnsafePointer:
		return v.Pointer()
	}
	panic(fmt.Sprintf("fake: argument %d is %s, not a pointer", i, v.Kind()))
}

func (a fakeArgs) int(i int) int64 {
	v := a[i]
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int64(v.Uint())
	}
	panic(fmt.Sprintf("fake: argument %d is %s, not an integer", i, v.Kind()))
}

func (a fakeArgs) bytes(ptrIdx, lenIdx int) []byte {
	return goBytes(a.ptr(ptrIdx), int(a.int(lenIdx)))
}

func (a fakeArgs) out(i int) *uintptr { return a[i].Interface().(*uintptr) }

func newFakeLib() *fakeLib {
	f := &fakeLib{
		next:     0x10000,
		objects:  make(map[uintptr]*fakeObject),
		handlers: make(map[string]fakeFn),
		consts:   make(map[string]*int32),
		missing:  make(map[string]bool),
		fail:     make(map[string]int),
	}
	f.registerStrings()
	f.registerEncoder()
	f.registerDecoder()
	f.registerFrames()
	f.registerVideoTracks()
	f.registerJSEP()
	f.registerPeerConnection()
	return f
}

// install points the package's loader indirections at f.
func (f *fakeLib) install() {
	symbolsMu.Lock()
	for _, c := range constants {
		v := new(int32)
		*v = c.want
		f.consts[c.name] = v
	}
	symbolsMu.Unlock()

	dlopen = func(string) (uintptr, error) { return fakeHandle, nil }
	dlclose = func(uintptr) error { return nil }
	dlsym = f.dlsym
	registerLibFunc = f.registerLibFunc
	newCallback = f.newCallback
}

func (f *fakeLib) dlsym(_ uintptr, name string) (uintptr, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[name] {
		return 0, fmt.Errorf("fake: undefined symbol %s", name)
	}
	if v, ok := f.consts[name]; ok {
		return uintptr(unsafe.Pointer(v)), nil
	}
	return fakeHandle, nil
}

func (f *fakeLib) registerLibFunc(fptr any, _ uintptr, name string) {
	fn := reflect.ValueOf(fptr).Elem()
	ft := fn.Type()
	h := f.handler(name)
	fn.Set(reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		var ret any
		if !f.consumeFailure(name) {
			ret = h(fakeArgs(in))
		}
		if ft.NumOut() == 0 {
			return nil
		}
		if ret == nil {
			return []reflect.Value{reflect.Zero(ft.Out(0))}
		}
		return []reflect.Value{reflect.ValueOf(ret).Convert(ft.Out(0))}
	}))
}

func (f *fakeLib) newCallback(fn any) uintptr {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic("fake: callback is not a func")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, v)
	return fakeCallbackBase + uintptr(len(f.callbacks)-1)*8
}

// invoke calls a function pointer produced by newCallback, converting args
// to its parameter types.
func (f *fakeLib) invoke(fnPtr uintptr, args ...any) reflect.Value {
	f.mu.Lock()
	idx := int((fnPtr - fakeCallbackBase) / 8)
	if fnPtr < fakeCallbackBase || idx >= len(f.callbacks) {
		f.mu.Unlock()
		panic(fmt.Sprintf("fake: %#x is not a callback", fnPtr))
	}
	fn := f.callbacks[idx]
	f.mu.Unlock()

	ft := fn.Type()
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		in[i] = reflect.ValueOf(a).Convert(ft.In(i))
	}
	out := fn.Call(in)
	if len(out) == 0 {
		return reflect.Value{}
	}
	return out[0]
}

// slot reads entry i of a callback table.
func slot(cbs uintptr, i int) uintptr {
	return *(*uintptr)(unsafe.Add(unsafe.Pointer(cbs), i*int(unsafe.Sizeof(uintptr(0)))))
}

// call invokes slot i of obj's callback table with obj's user data appended.
func (f *fakeLib) call(obj uintptr, i int, args ...any) reflect.Value {
	o := f.get(obj)
	return f.invoke(slot(o.cbs, i), append(args, o.ud)...)
}

func (f *fakeLib) handle(name string, fn fakeFn) { f.handlers[name] = fn }

func (f *fakeLib) handler(name string) fakeFn {
	if h, ok := f.handlers[name]; ok {
		return h
	}
	switch {
	case strings.HasSuffix(name, "_refcounted_get"), strings.HasSuffix(name, "_unique_get"):
		return func(a fakeArgs) any { return f.get(a.ptr(0)).id }
	case strings.HasSuffix(name, "_AddRef"):
		return func(a fakeArgs) any { f.addRef(a.ptr(0)); return nil }
	case strings.HasSuffix(name, "_Release"):
		return func(a fakeArgs) any { f.release(a.ptr(0)); return nil }
	case strings.HasSuffix(name, "_delete"):
		return func(a fakeArgs) any { f.free(a.ptr(0)); return nil }
	case strings.HasSuffix(name, "_new"), strings.HasSuffix(name, "_make_ref_counted"):
		kind := strings.TrimSuffix(strings.TrimSuffix(name, "_new"), "_make_ref_counted")
		refcounted := strings.HasSuffix(name, "_make_ref_counted")
		return func(a fakeArgs) any {
			o := f.alloc(kind, refcounted)
			switch len(a) {
			case 1:
				o.fields["arg0"] = a[0].Interface()
			case 2:
				o.cbs, o.ud = a.ptr(0), a.ptr(1)
			}
			return o.id
		}
	case strings.Contains(name, "_set_"):
		key := name[strings.LastIndex(name, "_set_")+len("_set_"):]
		return func(a fakeArgs) any {
			o := f.get(a.ptr(0))
			f.mu.Lock()
			defer f.mu.Unlock()
			if len(a) == 3 {
				o.fields[key] = string(a.bytes(1, 2))
			} else {
				o.fields[key] = a.int(1)
			}
			return nil
		}
	}
	return func(fakeArgs) any { panic("fake: " + name + " not implemented") }
}

// getter serves a field stored by a setter, or def when unset.
func (f *fakeLib) getter(name, key string, def any) {
	f.handle(name, func(a fakeArgs) any {
		if v, ok := f.field(a.ptr(0), key); ok {
			return v
		}
		return def
	})
}

func (f *fakeLib) consumeFailure(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[name] == 0 {
		return false
	}
	f.fail[name]--
	return true
}

// failNext makes the next call of name return a zero value without running.
func (f *fakeLib) failNext(name string) {
	f.mu.Lock()
	f.fail[name]++
	f.mu.Unlock()
}

func (f *fakeLib) alloc(kind string, refcounted bool) *fakeObject {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := &fakeObject{id: f.next, kind: kind, refcounted: refcounted, fields: map[string]any{}}
	if refcounted {
		o.refs = 1
	}
	f.next += 0x10
	f.objects[o.id] = o
	return o
}

func (f *fakeLib) violation(format string, args ...any) {
	f.mu.Lock()
	f.errs = append(f.errs, fmt.Sprintf(format, args...))
	f.mu.Unlock()
	panic(fmt.Sprintf("fake: "+format, args...))
}

func (f *fakeLib) get(id uintptr) *fakeObject {
	f.mu.Lock()
	o, ok := f.objects[id]
	f.mu.Unlock()
	if !ok {
		f.violation("unknown object %#x", id)
	}
	if o.freed {
		f.violation("use of freed %s %#x", o.kind, id)
	}
	return o
}

func (f *fakeLib) field(id uintptr, key string) (any, bool) {
	o := f.get(id)
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := o.fields[key]
	return v, ok
}

func (f *fakeLib) setField(id uintptr, key string, v any) {
	o := f.get(id)
	f.mu.Lock()
	o.fields[key] = v
	f.mu.Unlock()
}

func (f *fakeLib) hold(owner, held uintptr) {
	o := f.get(owner)
	f.mu.Lock()
	o.holds = append(o.holds, held)
	f.mu.Unlock()
}

func (f *fakeLib) addRef(id uintptr) {
	o := f.get(id)
	if !o.refcounted {
		f.violation("AddRef on non-refcounted %s", o.kind)
	}
	f.mu.Lock()
	o.refs++
	f.mu.Unlock()
}

func (f *fakeLib) release(id uintptr) {
	o := f.get(id)
	f.mu.Lock()
	if !o.refcounted || o.refs <= 0 {
		f.mu.Unlock()
		f.violation("Release of %s %#x with no references", o.kind, id)
	}
	o.refs--
	last := o.refs == 0
	f.mu.Unlock()
	if last {
		f.destroy(o)
	}
}

func (f *fakeLib) free(id uintptr) {
	f.mu.Lock()
	o, ok := f.objects[id]
	f.mu.Unlock()
	if !ok {
		f.violation("delete of unknown object %#x", id)
	}
	if o.freed {
		f.violation("double delete of %s %#x", o.kind, id)
	}
	if o.refcounted {
		f.violation("delete of refcounted %s %#x", o.kind, id)
	}
	f.destroy(o)
}

// destroy frees o, drops what it holds and then fires its OnDestroy slot.
func (f *fakeLib) destroy(o *fakeObject) {
	f.mu.Lock()
	o.freed = true
	holds := o.holds
	o.holds = nil
	f.mu.Unlock()

	for _, h := range holds {
		f.drop(h)
	}
	if i, ok := onDestroySlots[o.kind]; ok && o.cbs != 0 {
		f.invoke(slot(o.cbs, i), o.ud)
	}
}

func (f *fakeLib) drop(id uintptr) {
	if f.get(id).refcounted {
		f.release(id)
	} else {
		f.free(id)
	}
}

// live counts unfreed objects of kind.
func (f *fakeLib) live(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.objects {
		if o.kind == kind && !o.freed {
			n++
		}
	}
	return n
}

func (f *fakeLib) refs(id uintptr) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[id].refs
}

func (f *fakeLib) requireClean(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Empty(t, f.errs, "native contract errors")
}

// requireNoLeaks checks that no object of kinds survived fn.
func (f *fakeLib) requireNoLeaks(t *testing.T, fn func(), kinds ...string) {
	t.Helper()
	before := make(map[string]int, len(kinds))
	for _, k := range kinds {
		before[k] = f.live(k)
	}
	fn()
	for _, k := range kinds {
		require.Equal(t, before[k], f.live(k), "live %s objects", k)
	}
	f.requireClean(t)
}

func (f *fakeLib) newString(s string) uintptr {
	o := f.alloc("std_string", false)
	o.mem = append([]byte(s), 0)
	o.fields["value"] = s
	return o.id
}

func (f *fakeLib) str(id uintptr) string {
	v, _ := f.field(id, "value")
	s, _ := v.(string)
	return s
}

func (f *fakeLib) memPtr(id uintptr) uintptr {
	o := f.get(id)
	if len(o.mem) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&o.mem[0]))
}

// newRTCError returns an RTCError_unique; an empty message means ok.
func (f *fakeLib) newRTCError(msg string) uintptr {
	o := f.alloc("webrtc_RTCError", false)
	o.mem = []byte(msg)
	o.fields["message"] = msg
	return o.id
}

func (f *fakeLib) registerStrings() {
	f.handle("std_string_new_from_bytes", func(a fakeArgs) any { return f.newString(string(a.bytes(0, 1))) })
	f.handle("std_string_size", func(a fakeArgs) any { return len(f.str(a.ptr(0))) })
	f.handle("std_string_c_str", func(a fakeArgs) any { return f.memPtr(a.ptr(0)) })
	f.handle("std_string_vector_push_back", func(a fakeArgs) any {
		vec, s := a.ptr(0), f.str(a.ptr(1))
		values, _ := f.field(vec, "values")
		list, _ := values.([]string)
		f.setField(vec, "values", append(list, s))
		return nil
	})
	f.handle("std_string_vector_size", func(a fakeArgs) any {
		values, _ := f.field(a.ptr(0), "values")
		list, _ := values.([]string)
		return len(list)
	})

	f.handle("webrtc_RTCError_ok", func(a fakeArgs) any {
		msg, _ := f.field(a.ptr(0), "message")
		return boolToInt(msg == "")
	})
	f.handle("webrtc_RTCError_message", func(a fakeArgs) any {
		o := f.get(a.ptr(0))
		*a.out(1) = f.memPtr(o.id)
		*a.out(2) = uintptr(len(o.mem))
		return nil
	})
}

func (f *fakeLib) registerEncoder() {
	const enc = "webrtc_VideoEncoder_"
	f.handle(enc+"InitEncode", func(a fakeArgs) any {
		codec, settings := a.ptr(1), a.ptr(2)
		if codec == 0 {
			c := f.alloc("webrtc_VideoCodec", false)
			c.fields["width"], c.fields["height"] = 640, 480
			c.fields["codec_type"] = int32(VideoCodecVP8)
			codec = c.id
			defer f.free(codec)
		}
		if settings == 0 {
			s := f.alloc("webrtc_VideoEncoder_Settings", false)
			settings = s.id
			defer f.free(settings)
		}
		return f.call(a.ptr(0), 0, codec, settings).Interface()
	})
	f.handle(enc+"Encode", func(a fakeArgs) any {
		return f.call(a.ptr(0), 1, a.ptr(1), a.ptr(2)).Interface()
	})
	f.handle(enc+"RegisterEncodeCompleteCallback", func(a fakeArgs) any {
		return f.call(a.ptr(0), 2, a.ptr(1)).Interface()
	})
	f.handle(enc+"SetRates", func(a fakeArgs) any {
		f.call(a.ptr(0), 4, a.ptr(1))
		return nil
	})
	f.handle(enc+"GetEncoderInfo", func(a fakeArgs) any {
		return f.call(a.ptr(0), 5).Interface()
	})

	f.getter("webrtc_VideoCodec_codec_type", "codec_type", int32(VideoCodecGeneric))
	f.getter("webrtc_VideoCodec_width", "width", 0)
	f.getter("webrtc_VideoCodec_height", "height", 0)
	f.getter("webrtc_VideoCodec_start_bitrate_kbps", "start_bitrate_kbps", 300)
	f.getter("webrtc_VideoCodec_max_bitrate_kbps", "max_bitrate_kbps", 2000)
	f.getter("webrtc_VideoCodec_min_bitrate_kbps", "min_bitrate_kbps", 30)
	f.getter("webrtc_VideoCodec_max_framerate", "max_framerate", 30)
	f.getter(enc+"Settings_number_of_cores", "number_of_cores", 1)
	f.getter(enc+"Settings_max_payload_size", "max_payload_size", DefaultMTU)
	f.getter(enc+"Settings_loss_notification", "loss_notification", 0)
	f.getter(enc+"RateControlParameters_framerate_fps", "framerate_fps", 30.0)
	f.getter(enc+"RateControlParameters_target_bitrate_sum_bps", "target_bitrate_sum_bps", 500000)
	f.getter(enc+"RateControlParameters_bitrate_sum_bps", "bitrate_sum_bps", 500000)
	f.getter(enc+"RateControlParameters_bandwidth_allocation_bps", "bandwidth_allocation_bps", 600000)

	const info = enc + "EncoderInfo_"
	f.handle(info+"set_implementation_name", func(a fakeArgs) any {
		name := a.ptr(1)
		f.setField(a.ptr(0), "implementation_name", f.str(name))
		f.free(name)
		return nil
	})
	f.handle(info+"get_implementation_name", func(a fakeArgs) any {
		v, _ := f.field(a.ptr(0), "implementation_name")
		s, _ := v.(string)
		return f.newString(s)
	})
	f.getter(info+"get_is_hardware_accelerated", "is_hardware_accelerated", 0)

	const result = enc + "EncodedImageCallback_Result_"
	f.handle(result+"new", func(a fakeArgs) any {
		o := f.alloc("webrtc_VideoEncoder_EncodedImageCallback_Result", false)
		o.fields["error"] = a.int(0)
		return o.id
	})
	f.handle(result+"new_with_frame_id", func(a fakeArgs) any {
		o := f.alloc("webrtc_VideoEncoder_EncodedImageCallback_Result", false)
		o.fields["error"] = a.int(0)
		o.fields["frame_id"] = a.int(1)
		return o.id
	})
	f.getter(result+"error", "error", 0)
	f.getter(result+"frame_id", "frame_id", 0)
	f.getter(result+"drop_next_frame", "drop_next_frame", 0)

	f.handle(enc+"EncodedImageCallback_OnEncodedImage", func(a fakeArgs) any {
		return f.call(a.ptr(0), 0, a.ptr(1), a.ptr(2)).Interface()
	})

	f.handle("webrtc_CreateBuiltinVideoEncoderFactory", func(fakeArgs) any {
		return f.alloc("webrtc_VideoEncoderFactory", false).id
	})

	f.handle("webrtc_VideoFrameType_vector_push_back_value", func(a fakeArgs) any {
		elem := f.alloc("webrtc_VideoFrameType", false)
		elem.fields["value"] = a.int(1)
		f.hold(a.ptr(0), elem.id)
		return nil
	})
	f.handle("webrtc_VideoFrameType_vector_size", func(a fakeArgs) any {
		return len(f.get(a.ptr(0)).holds)
	})
	f.handle("webrtc_VideoFrameType_vector_get", func(a fakeArgs) any {
		return f.get(a.ptr(0)).holds[a.int(1)]
	})
	f.getter("webrtc_VideoFrameType_value", "value", int32(VideoFrameTypeEmpty))
	f.getter("webrtc_CodecSpecificInfo_codec_type", "codec_type", int32(VideoCodecGeneric))
}

func (f *fakeLib) registerFrames() {
	f.handle("webrtc_EncodedImageBuffer_Create_from_data", func(a fakeArgs) any {
		o := f.alloc("webrtc_EncodedImageBuffer", true)
		o.mem = a.bytes(0, 1)
		return o.id
	})
	f.handle("webrtc_EncodedImageBuffer_size", func(a fakeArgs) any { return len(f.get(a.ptr(0)).mem) })
	f.handle("webrtc_EncodedImageBuffer_data", func(a fakeArgs) any { return f.memPtr(a.ptr(0)) })

	const img = "webrtc_EncodedImage_"
	f.handle(img+"set_encoded_data", func(a fakeArgs) any {
		self, buf := a.ptr(0), a.ptr(1)
		f.addRef(buf)
		if old, ok := f.field(self, "encoded_data"); ok {
			f.release(old.(uintptr))
		}
		f.setField(self, "encoded_data", buf)
		return nil
	})
	f.handle(img+"encoded_data", func(a fakeArgs) any {
		v, ok := f.field(a.ptr(0), "encoded_data")
		if !ok {
			return nil
		}
		f.addRef(v.(uintptr))
		return v
	})
	f.handle(img+"unique_delete", func(a fakeArgs) any {
		if v, ok := f.field(a.ptr(0), "encoded_data"); ok {
			f.release(v.(uintptr))
		}
		f.free(a.ptr(0))
		return nil
	})
	f.getter(img+"rtp_timestamp", "rtp_timestamp", 0)
	f.getter(img+"encoded_width", "encoded_width", 0)
	f.getter(img+"encoded_height", "encoded_height", 0)
	f.getter(img+"frame_type", "frame_type", int32(VideoFrameTypeEmpty))
	f.getter(img+"qp", "qp", -1)

	const i420 = "webrtc_I420Buffer_"
	f.handle(i420+"Create", func(a fakeArgs) any {
		w, h := int(a.int(0)), int(a.int(1))
		o := f.alloc("webrtc_I420Buffer", true)
		o.fields["width"], o.fields["height"] = w, h
		o.mem = make([]byte, I420Size(w, h))
		return o.id
	})
	f.getter(i420+"width", "width", 0)
	f.getter(i420+"height", "height", 0)
	plane := func(id uintptr, n int) uintptr {
		o := f.get(id)
		w, h := o.fields["width"].(int), o.fields["height"].(int)
		cw, ch := (w+1)/2, (h+1)/2
		offsets := []int{0, w * h, w*h + cw*ch}
		return uintptr(unsafe.Pointer(&o.mem[offsets[n]]))
	}
	stride := func(id uintptr, n int) int {
		w := f.get(id).fields["width"].(int)
		if n == 0 {
			return w
		}
		return (w + 1) / 2
	}
	for n, p := range []string{"Y", "U", "V"} {
		n := n
		f.handle(i420+"MutableData"+p, func(a fakeArgs) any { return plane(a.ptr(0), n) })
		f.handle(i420+"Stride"+p, func(a fakeArgs) any { return stride(a.ptr(0), n) })
	}

	const frame = "webrtc_VideoFrame_"
	f.handle(frame+"Create_with_timestamp_rtp", func(a fakeArgs) any {
		buf := a.ptr(0)
		f.addRef(buf)
		o := f.alloc("webrtc_VideoFrame", false)
		o.fields["buffer"] = buf
		o.fields["timestamp_us"] = a.int(2)
		o.fields["timestamp_rtp"] = a.int(3)
		o.holds = []uintptr{buf}
		return o.id
	})
	bufferField := func(id uintptr, key string) any {
		buf, _ := f.field(id, "buffer")
		v, _ := f.field(buf.(uintptr), key)
		return v
	}
	f.handle(frame+"width", func(a fakeArgs) any { return bufferField(a.ptr(0), "width") })
	f.handle(frame+"height", func(a fakeArgs) any { return bufferField(a.ptr(0), "height") })
	f.getter(frame+"timestamp_us", "timestamp_us", 0)
	f.getter(frame+"timestamp_rtp", "timestamp_rtp", 0)
	f.handle(frame+"video_frame_buffer", func(a fakeArgs) any {
		buf, _ := f.field(a.ptr(0), "buffer")
		f.addRef(buf.(uintptr))
		return buf
	})
}

const fakeOfferSDP = "v=0\r\n" +
	"o=- 4611731400430051336 2 IN IP4 127.0.0.1\r\n" +
	"s=-\r\n" +
	"t=0 0\r\n" +
	"a=group:BUNDLE 0\r\n" +
	"m=application 9 UDP/DTLS/SCTP webrtc-datachannel\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"a=mid:0\r\n" +
	"a=sctp-port:5000\r\n"

func (f *fakeLib) newSessionDescription(t SDPType, text string) uintptr {
	o := f.alloc("webrtc_SessionDescriptionInterface", false)
	o.fields["type"] = int32(t)
	o.fields["sdp"] = text
	return o.id
}

func (f *fakeLib) registerJSEP() {
	f.handle("webrtc_CreateSessionDescription", func(a fakeArgs) any {
		return f.newSessionDescription(SDPType(a.int(0)), string(a.bytes(1, 2)))
	})
	f.getter("webrtc_SessionDescriptionInterface_GetType", "type", int32(SDPTypeOffer))
	f.handle("webrtc_SessionDescriptionInterface_ToString", func(a fakeArgs) any {
		v, _ := f.field(a.ptr(0), "sdp")
		*a.out(1) = f.newString(v.(string))
		return 1
	})

	f.handle("webrtc_CreateIceCandidate", func(a fakeArgs) any {
		mid := string(a.bytes(0, 1))
		candidate := string(a.bytes(3, 4))
		if !strings.HasPrefix(candidate, "candidate:") {
			e := f.alloc("webrtc_SdpParseError", false)
			e.fields["line"] = []byte("a=" + candidate)
			e.fields["description"] = []byte("Expect line: candidate:<candidate-str>")
			*a.out(5) = e.id
			return nil
		}
		o := f.alloc("webrtc_IceCandidate", false)
		o.fields["mid"] = mid
		o.fields["mline_index"] = a.int(2)
		o.fields["candidate"] = candidate
		return o.id
	})
	sdpErrField := func(key string) fakeFn {
		return func(a fakeArgs) any {
			v, _ := f.field(a.ptr(0), key)
			b := v.([]byte)
			*a.out(1) = uintptr(unsafe.Pointer(&b[0]))
			*a.out(2) = uintptr(len(b))
			return nil
		}
	}
	f.handle("webrtc_SdpParseError_line", sdpErrField("line"))
	f.handle("webrtc_SdpParseError_description", sdpErrField("description"))
	f.handle("webrtc_IceCandidate_sdp_mid", func(a fakeArgs) any {
		v, _ := f.field(a.ptr(0), "mid")
		*a.out(1) = f.newString(v.(string))
		return nil
	})
	f.getter("webrtc_IceCandidate_sdp_mline_index", "mline_index", 0)
	f.handle("webrtc_IceCandidate_ToString", func(a fakeArgs) any {
		v, _ := f.field(a.ptr(0), "candidate")
		*a.out(1) = f.newString(v.(string))
		return 1
	})
}

const fakeStatsJSON = `[` +
	`{"id":"T01","type":"transport","timestamp":1700000000000,"bytesSent":1200},` +
	`{"id":"OT01V1234","type":"outbound-rtp","timestamp":1700000000000,"ssrc":1234,"kind":"video"},` +
	`{"id":"OT01A5678","type":"outbound-rtp","timestamp":1700000000000,"ssrc":5678,"kind":"audio"}` +
	`]`

func (f *fakeLib) registerPeerConnection() {
	newThread := func(fakeArgs) any { return f.alloc("webrtc_Thread", false).id }
	f.handle("webrtc_Thread_Create", newThread)
	f.handle("webrtc_Thread_CreateWithSocketServer", newThread)
	f.handle("webrtc_Thread_Start", func(a fakeArgs) any { f.setField(a.ptr(0), "running", true); return nil })
	f.handle("webrtc_Thread_Stop", func(a fakeArgs) any { f.setField(a.ptr(0), "running", false); return nil })
	f.handle("webrtc_Thread_BlockingCall", func(a fakeArgs) any {
		if running, _ := f.field(a.ptr(0), "running"); running != true {
			f.violation("BlockingCall on a stopped thread")
		}
		f.invoke(a.ptr(1), a.ptr(2))
		return nil
	})

	const deps = "webrtc_PeerConnectionFactoryDependencies_"
	for _, name := range []string{"network_thread", "worker_thread", "signaling_thread"} {
		key := name
		f.handle(deps+"set_"+key, func(a fakeArgs) any { f.setField(a.ptr(0), key, a.ptr(1)); return nil })
	}
	holdFactory := func(a fakeArgs) any {
		f.hold(a.ptr(0), a.ptr(1))
		return nil
	}
	f.handle(deps+"set_video_encoder_factory", holdFactory)
	f.handle(deps+"set_video_decoder_factory", holdFactory)
	f.handle("webrtc_EnableMedia", func(a fakeArgs) any { f.setField(a.ptr(0), "media", true); return nil })
	f.handle("webrtc_CreateModularPeerConnectionFactory", func(a fakeArgs) any {
		d := f.get(a.ptr(0))
		for _, k := range []string{"network_thread", "worker_thread", "signaling_thread"} {
			if _, ok := d.fields[k]; !ok {
				f.violation("factory created without %s", k)
			}
		}
		o := f.alloc("webrtc_PeerConnectionFactoryInterface", true)
		f.mu.Lock()
		o.fields["media"] = d.fields["media"]
		o.holds, d.holds = d.holds, nil
		f.mu.Unlock()
		return o.id
	})
	f.handle("webrtc_PeerConnectionFactoryInterface_SetOptions", func(a fakeArgs) any {
		opts := f.get(a.ptr(1))
		f.mu.Lock()
		defer f.mu.Unlock()
		factory := f.objects[a.ptr(0)]
		for k, v := range opts.fields {
			factory.fields["options_"+k] = v
		}
		return nil
	})

	const cfg = "webrtc_PeerConnectionInterface_"
	childVector := func(owner uintptr, key string) uintptr {
		if v, ok := f.field(owner, key); ok {
			return v.(uintptr)
		}
		vec := f.alloc("std_string_vector", false)
		f.hold(owner, vec.id)
		f.setField(owner, key, vec.id)
		return vec.id
	}
	f.handle(cfg+"RTCConfiguration_get_servers", func(a fakeArgs) any { return childVector(a.ptr(0), "servers") })
	f.handle(cfg+"IceServer_get_urls", func(a fakeArgs) any { return childVector(a.ptr(0), "urls") })
	f.handle(cfg+"IceServer_vector_push_back", func(a fakeArgs) any {
		srv := f.get(a.ptr(1))
		urls, _ := f.field(srv.fields["urls"].(uintptr), "values")
		rec := map[string]any{"urls": urls, "username": srv.fields["username"], "password": srv.fields["password"]}
		list, _ := f.field(a.ptr(0), "records")
		records, _ := list.([]map[string]any)
		f.setField(a.ptr(0), "records", append(records, rec))
		return nil
	})

	f.handle("webrtc_PeerConnectionFactoryInterface_CreatePeerConnectionOrError", func(a fakeArgs) any {
		conf, d := a.ptr(1), a.ptr(2)
		observer, _ := f.field(d, "arg0")
		servers, _ := f.field(conf, "servers")
		var records any
		if servers != nil {
			records, _ = f.field(servers.(uintptr), "records")
		}
		if t, _ := f.field(conf, "type"); t == int64(iceTransportsTypeRelay) && records == nil {
			*a.out(4) = f.newRTCError("relay policy requires an ICE server")
			return nil
		}
		pc := f.alloc("webrtc_PeerConnectionInterface", true)
		pc.fields["observer"] = observer
		pc.fields["ice_servers"] = records
		*a.out(3) = pc.id
		*a.out(4) = f.newRTCError("")
		return nil
	})

	createDescription := func(t SDPType) fakeFn {
		return func(a fakeArgs) any {
			self, observer := a.ptr(0), a.ptr(1)
			opts := f.get(a.ptr(2))
			f.mu.Lock()
			snapshot := make(map[string]any, len(opts.fields))
			for k, v := range opts.fields {
				snapshot[k] = v
			}
			f.mu.Unlock()
			f.setField(self, "last_options", snapshot)

			f.addRef(observer)
			defer f.release(observer)
			if fail, _ := f.field(self, "fail_create"); fail == true {
				f.call(observer, 1, f.newRTCError("session error"))
				return nil
			}
			f.call(observer, 0, f.newSessionDescription(t, fakeOfferSDP))
			return nil
		}
	}
	f.handle(cfg+"CreateOffer", createDescription(SDPTypeOffer))
	f.handle(cfg+"CreateAnswer", createDescription(SDPTypeAnswer))

	setDescription := func(key string) fakeFn {
		return func(a fakeArgs) any {
			self, desc, observer := a.ptr(0), a.ptr(1), a.ptr(2)
			f.addRef(observer)
			defer f.release(observer)
			f.hold(self, desc)
			f.setField(self, key, desc)
			f.call(observer, 0, f.newRTCError(""))
			return nil
		}
	}
	f.handle(cfg+"SetLocalDescription", setDescription("local_description"))
	f.handle(cfg+"SetRemoteDescription", setDescription("remote_description"))
	f.handle(cfg+"AddIceCandidate", func(a fakeArgs) any {
		if _, ok := f.field(a.ptr(0), "remote_description"); !ok {
			return 0
		}
		return 1
	})
	f.handle(cfg+"SetConfiguration", func(a fakeArgs) any {
		*a.out(2) = f.newRTCError("")
		return nil
	})
	f.handle(cfg+"CreateDataChannelOrError", func(a fakeArgs) any {
		label := string(a.bytes(1, 2))
		init := f.get(a.ptr(3))
		if label == "" {
			*a.out(5) = f.newRTCError("empty label")
			return nil
		}
		dc := f.alloc("webrtc_DataChannelInterface", true)
		dc.fields["label"] = label
		dc.fields["state"] = dataStateOpen
		f.mu.Lock()
		dc.fields["ordered"] = init.fields["ordered"]
		dc.fields["protocol"] = init.fields["protocol"]
		f.mu.Unlock()
		*a.out(4) = dc.id
		return nil
	})
	f.handle(cfg+"GetStats", func(a fakeArgs) any {
		report := f.alloc("webrtc_RTCStatsReport", true)
		report.fields["json"] = fakeStatsJSON
		f.invoke(slot(a.ptr(1), 0), report.id, a.ptr(2))
		return nil
	})
	f.handle("webrtc_RTCStatsReport_ToJson", func(a fakeArgs) any {
		v, _ := f.field(a.ptr(0), "json")
		return f.newString(v.(string))
	})

	const dc = "webrtc_DataChannelInterface_"
	f.handle(dc+"label", func(a fakeArgs) any {
		v, _ := f.field(a.ptr(0), "label")
		return f.newString(v.(string))
	})
	f.getter(dc+"state", "state", dataStateConnecting)
	f.handle(dc+"Send", func(a fakeArgs) any {
		self := a.ptr(0)
		if s, _ := f.field(self, "state"); s != dataStateOpen {
			return 0
		}
		sent, _ := f.field(self, "sent")
		list, _ := sent.([]fakeMessage)
		f.setField(self, "sent", append(list, fakeMessage{data: a.bytes(1, 2), binary: a.int(3) != 0}))
		return 1
	})
	f.handle(dc+"Close", func(a fakeArgs) any {
		self := a.ptr(0)
		f.setField(self, "state", dataStateClosed)
		if obs, ok := f.field(self, "observer"); ok {
			f.call(obs.(uintptr), 0)
		}
		return nil
	})
	f.handle(dc+"RegisterObserver", func(a fakeArgs) any {
		f.setField(a.ptr(0), "observer", a.ptr(1))
		return nil
	})
	f.handle(dc+"UnregisterObserver", func(a fakeArgs) any {
		o := f.get(a.ptr(0))
		f.mu.Lock()
		delete(o.fields, "observer")
		f.mu.Unlock()
		return nil
	})

	f.handle(cfg+"AddTrack", func(a fakeArgs) any {
		self, track := a.ptr(0), a.ptr(1)
		ids, _ := f.field(a.ptr(2), "values")
		added, _ := f.field(self, "tracks")
		tracks, _ := added.([]uintptr)
		for _, t := range tracks {
			if t == track {
				*a.out(4) = f.newRTCError("Sender already exists for track")
				return nil
			}
		}
		f.setField(self, "tracks", append(tracks, track))

		sender := f.alloc("webrtc_RtpSenderInterface", true)
		sender.fields["track"] = track
		sender.fields["stream_ids"] = ids
		f.addRef(track)
		sender.holds = []uintptr{track}
		f.addRef(sender.id)
		f.hold(self, sender.id)
		*a.out(3) = sender.id
		*a.out(4) = f.newRTCError("")
		return nil
	})

	f.handle("webrtc_RtpTransceiverInterface_receiver", func(a fakeArgs) any {
		v, _ := f.field(a.ptr(0), "receiver")
		f.addRef(v.(uintptr))
		return v
	})
	f.handle("webrtc_RtpReceiverInterface_track", func(a fakeArgs) any {
		v, _ := f.field(a.ptr(0), "track")
		f.addRef(v.(uintptr))
		return v
	})
	f.handle("webrtc_MediaStreamTrackInterface_kind", func(a fakeArgs) any {
		v, _ := f.field(a.ptr(0), "kind")
		return f.newString(v.(string))
	})
	f.handle("webrtc_MediaStreamTrackInterface_id", func(a fakeArgs) any {
		v, _ := f.field(a.ptr(0), "id")
		return f.newString(v.(string))
	})
}

func (f *fakeLib) registerDecoder() {
	const dec = "webrtc_VideoDecoder_"
	f.handle(dec+"Configure", func(a fakeArgs) any {
		settings := a.ptr(1)
		if settings == 0 {
			settings = f.alloc("webrtc_VideoDecoder_Settings", false).id
			defer f.free(settings)
		}
		return f.call(a.ptr(0), 0, settings).Interface()
	})
	f.handle(dec+"Decode", func(a fakeArgs) any {
		return f.call(a.ptr(0), 1, a.ptr(1), a.int(2)).Interface()
	})
	f.handle(dec+"GetDecoderInfo", func(a fakeArgs) any {
		return f.call(a.ptr(0), 4).Interface()
	})

	const info = dec + "DecoderInfo_"
	f.handle(info+"set_implementation_name", func(a fakeArgs) any {
		name := a.ptr(1)
		f.setField(a.ptr(0), "implementation_name", f.str(name))
		f.free(name)
		return nil
	})
	f.handle(info+"get_implementation_name", func(a fakeArgs) any {
		v, _ := f.field(a.ptr(0), "implementation_name")
		s, _ := v.(string)
		return f.newString(s)
	})
	f.getter(info+"get_is_hardware_accelerated", "is_hardware_accelerated", 0)

	f.getter(dec+"Settings_number_of_cores", "number_of_cores", 1)
	f.getter(dec+"Settings_codec_type", "codec_type", int32(VideoCodecVP8))
	f.getter(dec+"Settings_has_buffer_pool_size", "has_buffer_pool_size", 0)
	f.getter(dec+"Settings_buffer_pool_size", "buffer_pool_size", 0)
	f.getter(dec+"Settings_max_render_resolution_width", "max_render_resolution_width", 0)
	f.getter(dec+"Settings_max_render_resolution_height", "max_render_resolution_height", 0)

	f.handle("webrtc_CreateBuiltinVideoDecoderFactory", func(fakeArgs) any {
		return f.alloc("webrtc_VideoDecoderFactory", false).id
	})
}

// uintptrs reads a []uintptr field.
func (f *fakeLib) uintptrs(id uintptr, key string) []uintptr {
	v, _ := f.field(id, key)
	list, _ := v.([]uintptr)
	return list
}

func (f *fakeLib) isLive(id uintptr) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[id]
	return ok && !o.freed
}

func (f *fakeLib) registerVideoTracks() {
	sameObject := func(a fakeArgs) any {
		f.addRef(a.ptr(0))
		return a.ptr(0)
	}
	f.handle("webrtc_MediaStreamTrackInterface_refcounted_cast_to_webrtc_VideoTrackInterface", sameObject)
	f.handle("webrtc_VideoTrackInterface_refcounted_cast_to_webrtc_MediaStreamTrackInterface", sameObject)
	f.handle("webrtc_AdaptedVideoTrackSource_refcounted_cast_to_webrtc_VideoTrackSourceInterface", sameObject)

	const track = "webrtc_VideoTrackInterface_"
	f.handle(track+"AddOrUpdateSink", func(a fakeArgs) any {
		self, sink := a.ptr(0), a.ptr(1)
		f.get(sink)
		f.get(a.ptr(2))
		sinks := f.uintptrs(self, "sinks")
		for _, s := range sinks {
			if s == sink {
				return nil
			}
		}
		f.setField(self, "sinks", append(sinks, sink))
		return nil
	})
	f.handle(track+"RemoveSink", func(a fakeArgs) any {
		self, sink := a.ptr(0), a.ptr(1)
		var kept []uintptr
		for _, s := range f.uintptrs(self, "sinks") {
			if s != sink {
				kept = append(kept, s)
			}
		}
		f.setField(self, "sinks", kept)
		return nil
	})

	f.handle("webrtc_PeerConnectionFactoryInterface_CreateVideoTrack", func(a fakeArgs) any {
		source := a.ptr(1)
		t := f.alloc("webrtc_VideoTrackInterface", true)
		t.fields["kind"] = "video"
		t.fields["id"] = string(a.bytes(2, 3))
		f.addRef(source)
		t.holds = []uintptr{source}
		f.setField(source, "tracks", append(f.uintptrs(source, "tracks"), t.id))
		*a.out(4) = t.id
		return nil
	})

	const src = "webrtc_AdaptedVideoTrackSource_"
	f.handle(src+"Create", func(fakeArgs) any {
		return f.alloc("webrtc_AdaptedVideoTrackSource", true).id
	})
	f.handle(src+"AdaptFrame", func(a fakeArgs) any {
		w, h := int32(a.int(1)), int32(a.int(2))
		if w <= 0 || h <= 0 {
			return 0
		}
		den := int32(1)
		if v, ok := f.field(a.ptr(0), "scale_down"); ok {
			den = v.(int32)
		}
		outs := make([]*int32, 6)
		for i := range outs {
			outs[i] = a[4+i].Interface().(*int32)
		}
		*outs[0], *outs[1] = w/den, h/den
		*outs[2], *outs[3] = w, h
		*outs[4], *outs[5] = 0, 0
		return 1
	})
	f.handle(src+"OnFrame", func(a fakeArgs) any {
		frame := f.get(a.ptr(1)).id
		for _, t := range f.uintptrs(a.ptr(0), "tracks") {
			if !f.isLive(t) {
				continue
			}
			for _, sink := range f.uintptrs(t, "sinks") {
				f.call(sink, 0, frame)
			}
		}
		return nil
	})
}

type fakeMessage struct {
	data   []byte
	binary bool
}

// deliverMessage fires OnMessage on the observer registered with dc.
func (f *fakeLib) deliverMessage(dc uintptr, data []byte, binary bool) {
	obs, ok := f.field(dc, "observer")
	if !ok {
		return
	}
	var p uintptr
	if len(data) > 0 {
		p = uintptr(unsafe.Pointer(&data[0]))
	}
	f.call(obs.(uintptr), 1, p, uintptr(len(data)), boolToInt(binary))
}

// newRemoteTrack builds a transceiver holding a receiver and a track, each
// with one reference owned by its parent.
func (f *fakeLib) newRemoteTrack(kind, id string) uintptr {
	track := f.alloc("webrtc_MediaStreamTrackInterface", true)
	track.fields["kind"], track.fields["id"] = kind, id
	receiver := f.alloc("webrtc_RtpReceiverInterface", true)
	receiver.fields["track"] = track.id
	receiver.holds = []uintptr{track.id}
	transceiver := f.alloc("webrtc_RtpTransceiverInterface", true)
	transceiver.fields["receiver"] = receiver.id
	transceiver.holds = []uintptr{receiver.id}
	return transceiver.id
}

// firePeerConnectionEvent invokes slot i of the observer attached to pc.
func (f *fakeLib) firePeerConnectionEvent(pc uintptr, i int, args ...any) {
	obs, _ := f.field(pc, "observer")
	f.call(obs.(uintptr), i, args...)
}
