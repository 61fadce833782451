package layout

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"
)

var (
	ErrSizeMismatch  = errors.New("size mismatch")
	ErrAlignMismatch = errors.New("alignment mismatch")
	ErrArrayPadding  = errors.New("array has interior padding")
)

// IsIndirect reports whether values of kind k reference storage outside
// themselves. A projection path may end at such a value but never step through it.
func IsIndirect(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.UnsafePointer,
		reflect.Slice, reflect.Map, reflect.Interface,
		reflect.Chan, reflect.Func, reflect.String:
		return true
	default:
		return false
	}
}

// CheckTransparent verifies that wrapper has exactly the size and alignment of inner.
func CheckTransparent(wrapper, inner reflect.Type) error {
	if wrapper.Size() != inner.Size() {
		return fmt.Errorf("%w: %s is %d bytes, %s is %d bytes",
			ErrSizeMismatch, Describe(wrapper), wrapper.Size(), Describe(inner), inner.Size())
	}
	if wrapper.Align() != inner.Align() {
		return fmt.Errorf("%w: %s aligns to %d, %s aligns to %d",
			ErrAlignMismatch, Describe(wrapper), wrapper.Align(), Describe(inner), inner.Align())
	}
	return nil
}

// CheckArray verifies that an array type is its element layout repeated Len times.
func CheckArray(t reflect.Type) error {
	if t.Kind() != reflect.Array {
		return fmt.Errorf("%s is not an array", Describe(t))
	}
	want := uintptr(t.Len()) * t.Elem().Size()
	if t.Size() != want {
		return fmt.Errorf("%w: %s is %d bytes, want %d", ErrArrayPadding, Describe(t), t.Size(), want)
	}
	return nil
}

// Contains reports whether the psize bytes at p lie within the size bytes at base.
func Contains(base unsafe.Pointer, size uintptr, p unsafe.Pointer, psize uintptr) bool {
	b, q := uintptr(base), uintptr(p)
	if q < b {
		return false
	}
	off := q - b
	return off <= size && psize <= size-off
}

// Describe returns the type name used in error messages.
func Describe(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
