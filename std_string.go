package libwebrtc

import "unsafe"

type (
	stdString       struct{}
	stdStringVector struct{}
)

var (
	stdStringDesc       = unique[stdString]("std_string")
	stdStringVectorDesc = owned[stdStringVector]("std_string_vector", "std_string_vector_delete")
)

var (
	stdStringSize           func(self uintptr) int32
	stdStringCStr           func(self uintptr) uintptr
	stdStringNewFromBytes   func(bytes unsafe.Pointer, n uintptr) uintptr
	stdStringVectorNew      func(size int32) uintptr
	stdStringVectorPushBack func(self, value uintptr)
	stdStringVectorSize     func(self uintptr) int32
)

func init() {
	bind(
		symbol{"std_string_size", &stdStringSize},
		symbol{"std_string_c_str", &stdStringCStr},
		symbol{"std_string_new_from_bytes", &stdStringNewFromBytes},
		symbol{"std_string_vector_new", &stdStringVectorNew},
		symbol{"std_string_vector_push_back", &stdStringVectorPushBack},
		symbol{"std_string_vector_size", &stdStringVectorSize},
	)
}

// newStdString copies s into a native std::string.
func newStdString(s string) *Unique[stdString] {
	raw := stdStringNewFromBytes(stringPtr(s), uintptr(len(s)))
	return FromUnique(stdStringDesc, UniquePtr[stdString](raw))
}

// stdStringValue copies the contents of a native std::string.
func stdStringValue(p Ptr[stdString]) string {
	n := int(stdStringSize(uintptr(p)))
	return string(goBytes(stdStringCStr(uintptr(p)), n))
}

// takeStdString copies and deletes a std_string_unique returned by the
// native side. A null result reads as the empty string.
func takeStdString(raw uintptr) string {
	if raw == 0 {
		return ""
	}
	u := FromUnique(stdStringDesc, UniquePtr[stdString](raw))
	defer u.Close()
	return stdStringValue(u.AsPtr())
}

// appendStdStrings pushes copies of values onto a native std::vector of
// strings owned by someone else.
func appendStdStrings(vec Ptr[stdStringVector], values []string) {
	for _, v := range values {
		s := newStdString(v)
		stdStringVectorPushBack(uintptr(vec), uintptr(s.AsPtr()))
		s.Close()
	}
}

// newStdStringVector returns an owned native vector holding copies of
// values.
func newStdStringVector(values []string) *Unique[stdStringVector] {
	u := FromUnique(stdStringVectorDesc, UniquePtr[stdStringVector](stdStringVectorNew(0)))
	appendStdStrings(u.AsPtr(), values)
	return u
}
