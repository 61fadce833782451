package cellproj

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrEmptyPath    = errors.New("empty projection path")
	ErrNotStruct    = errors.New("named accessor on a non-struct value")
	ErrNotTuple     = errors.New("index accessor on a non-tuple value")
	ErrNoField      = errors.New("no such field")
	ErrIndexRange   = errors.New("tuple index out of range")
	ErrUnexported   = errors.New("field is unexported")
	ErrIndirect     = errors.New("path steps through indirection")
	ErrTypeMismatch = errors.New("projected type mismatch")
	ErrNotArray     = errors.New("expected cell of fixed-size array")
	ErrOutOfBounds  = errors.New("selector escapes the projected cell")
)

// PathError is a structural projection error. Step is the index of the
// offending accessor within Path, or -1 when the whole path is at fault.
type PathError struct {
	Root       reflect.Type
	Path       string
	Step       int
	Type       reflect.Type // compound in scope at Step
	Err        error
	Suggestion string
}

func (e *PathError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cellproj: project %s", typeName(e.Root))
	if e.Path != "" {
		fmt.Fprintf(&b, ".%s", e.Path)
	}
	if e.Step >= 0 {
		acc := accessorAt(e.Path, e.Step)
		fmt.Fprintf(&b, ": accessor %q on %s", acc, typeName(e.Type))
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (%s)", e.Suggestion)
	}
	return b.String()
}

func (e *PathError) Unwrap() error { return e.Err }

// LayoutError reports a broken layout precondition. It is raised as a panic,
// never returned.
type LayoutError struct {
	Type reflect.Type
	Err  error
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("cellproj: layout precondition violated for %s: %v", typeName(e.Type), e.Err)
}

func (e *LayoutError) Unwrap() error { return e.Err }

// ShapeError reports an array reinterpretation between incompatible types.
type ShapeError struct {
	From, To reflect.Type
	Err      error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("cellproj: cannot view %s as %s: %v", typeName(e.From), typeName(e.To), e.Err)
}

func (e *ShapeError) Unwrap() error { return e.Err }

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func accessorAt(path string, step int) string {
	parts := strings.Split(path, ".")
	if step < 0 || step >= len(parts) {
		return ""
	}
	return parts[step]
}
