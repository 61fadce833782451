package cellproj

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/rawbytedev/cellproj/internal/layout"
)

// Field projects c onto the sub-value selected by sel. The selector is plain
// Go, so a path naming a missing field or tuple position does not compile:
//
//	leaf := cellproj.Field(c, func(o *Outer) *int { return &o.Inner.Leaf })
//	pair := cellproj.Field(t, func(t *cellproj.Tuple2[int, Foo]) *int { return &t.V1.X })
//
// sel must return a pointer into *T. A pointer to any other storage panics
// with a *PathError wrapping ErrOutOfBounds.
func Field[T, F any](c *Cell[T], sel func(*T) *F) *Cell[F] {
	p := sel(c.Ptr())
	if p == nil || !layout.Contains(unsafe.Pointer(c), unsafe.Sizeof(c.v), unsafe.Pointer(p), unsafe.Sizeof(*p)) {
		panic(&PathError{
			Root: reflect.TypeFor[T](),
			Step: -1,
			Err:  ErrOutOfBounds,
		})
	}
	return (*Cell[F])(unsafe.Pointer(p))
}

// Path is a projection from T to F resolved against T's layout. The zero
// Path is invalid; build one with NewPath.
type Path[T, F any] struct {
	offset uintptr
	expr   string
	valid  bool
}

// NewPath resolves a dotted accessor path such as "Inner.Leaf" or "0.1" from T
// down to a value of type F. Field names select struct fields, decimal indices
// select tuple elements. All structural errors are *PathError values.
func NewPath[T, F any](path string) (Path[T, F], error) {
	root, want := reflect.TypeFor[T](), reflect.TypeFor[F]()
	plan := plans.field(root, path)
	if plan.err != nil {
		return Path[T, F]{}, plan.err
	}
	if plan.typ != want {
		return Path[T, F]{}, &PathError{
			Root: root, Path: path, Step: -1, Type: plan.typ,
			Err: fmt.Errorf("%w: path yields %s, not %s", ErrTypeMismatch, plan.typ, want),
		}
	}
	return Path[T, F]{offset: plan.offset, expr: path, valid: true}, nil
}

// MustPath is like NewPath but panics on error. It suits package-level vars,
// where a bad path fails at program start.
func MustPath[T, F any](path string) Path[T, F] {
	p, err := NewPath[T, F](path)
	if err != nil {
		panic(err)
	}
	return p
}

// Of returns the cell at p within c.
func (p Path[T, F]) Of(c *Cell[T]) *Cell[F] {
	if !p.valid {
		panic("cellproj: use of zero Path")
	}
	if c == nil {
		panic("cellproj: Path.Of on nil cell")
	}
	return (*Cell[F])(unsafe.Add(unsafe.Pointer(c), p.offset))
}

// Offset is the byte offset of the projected value within T.
func (p Path[T, F]) Offset() uintptr { return p.offset }

func (p Path[T, F]) String() string { return p.expr }

// Then composes p with q. Projecting through the result equals projecting
// through p and then q.
func Then[T, M, F any](p Path[T, M], q Path[M, F]) Path[T, F] {
	if !p.valid || !q.valid {
		panic("cellproj: use of zero Path")
	}
	return Path[T, F]{offset: p.offset + q.offset, expr: p.expr + "." + q.expr, valid: true}
}

// Project resolves path against T and returns the projected cell. Resolution
// is cached, so repeated calls with the same path only pay a lookup.
func Project[F, T any](c *Cell[T], path string) (*Cell[F], error) {
	p, err := NewPath[T, F](path)
	if err != nil {
		return nil, err
	}
	return p.Of(c), nil
}
