package cellproj

import (
	"fmt"
	"reflect"
	"strings"
	"unsafe"

	"github.com/rawbytedev/cellproj/internal/layout"
)

var cellPkg = reflect.TypeFor[Cell[struct{}]]().PkgPath()

// ArrayOf views a cell holding [N]V as an array of N cells, [N]Cell[V].
// Element i of the result aliases element i of the source array.
//
//	c := cellproj.New([3]int{1, 2, 3})
//	arr, err := cellproj.ArrayOf[[3]cellproj.Cell[int]](&c)
//	arr[0].Set(99) // c.Get() == [3]int{99, 2, 3}
//
// The type check runs once per type pair; later calls are a cache hit and a
// pointer conversion.
func ArrayOf[CA, A any](c *Cell[A]) (*CA, error) {
	from, to := reflect.TypeFor[A](), reflect.TypeFor[CA]()
	plan := plans.array(from, to, false, func() *arrayPlan { return resolveArrayOf(from, to) })
	if plan.err != nil {
		return nil, plan.err
	}
	return (*CA)(unsafe.Pointer(c)), nil
}

// MustArrayOf is like ArrayOf but panics if CA is not the cell array of A.
func MustArrayOf[CA, A any](c *Cell[A]) *CA {
	arr, err := ArrayOf[CA](c)
	if err != nil {
		panic(err)
	}
	return arr
}

// Elems views a cell holding [N]V as a slice of N cells over the same storage.
// A zero-length array yields an empty slice.
func Elems[V, A any](c *Cell[A]) ([]Cell[V], error) {
	from, to := reflect.TypeFor[A](), reflect.TypeFor[Cell[V]]()
	plan := plans.array(from, to, true, func() *arrayPlan { return resolveElems(from, reflect.TypeFor[V](), to) })
	if plan.err != nil {
		return nil, plan.err
	}
	if plan.n == 0 {
		return []Cell[V]{}, nil
	}
	return unsafe.Slice((*Cell[V])(unsafe.Pointer(c)), plan.n), nil
}

// MustElems is like Elems but panics on a shape error.
func MustElems[V, A any](c *Cell[A]) []Cell[V] {
	s, err := Elems[V](c)
	if err != nil {
		panic(err)
	}
	return s
}

func resolveArrayOf(from, to reflect.Type) *arrayPlan {
	if from.Kind() != reflect.Array {
		return &arrayPlan{err: &ShapeError{From: from, To: to, Err: ErrNotArray}}
	}
	if to.Kind() != reflect.Array || !isCellOf(to.Elem(), from.Elem()) {
		return &arrayPlan{err: &ShapeError{From: from, To: to,
			Err: fmt.Errorf("%w: want [%d]Cell[%s]", ErrTypeMismatch, from.Len(), from.Elem())}}
	}
	if to.Len() != from.Len() {
		return &arrayPlan{err: &ShapeError{From: from, To: to,
			Err: fmt.Errorf("%w: length %d, want %d", ErrTypeMismatch, to.Len(), from.Len())}}
	}
	mustLayout(to.Elem(), from.Elem(), from, to)
	return &arrayPlan{n: from.Len()}
}

func resolveElems(from, elem, cell reflect.Type) *arrayPlan {
	if from.Kind() != reflect.Array {
		return &arrayPlan{err: &ShapeError{From: from, To: cell, Err: ErrNotArray}}
	}
	if from.Elem() != elem {
		return &arrayPlan{err: &ShapeError{From: from, To: cell,
			Err: fmt.Errorf("%w: element is %s", ErrTypeMismatch, from.Elem())}}
	}
	mustLayout(cell, elem, from)
	return &arrayPlan{n: from.Len()}
}

// isCellOf reports whether t is Cell[elem].
func isCellOf(t, elem reflect.Type) bool {
	return t.Kind() == reflect.Struct &&
		t.PkgPath() == cellPkg &&
		strings.HasPrefix(t.Name(), "Cell[") &&
		t.NumField() == 1 &&
		t.Field(0).Type == elem
}

// mustLayout panics with a *LayoutError when the wrapper/array layout facts
// the reinterpretation depends on do not hold.
func mustLayout(cell, elem reflect.Type, arrays ...reflect.Type) {
	if err := layout.CheckTransparent(cell, elem); err != nil {
		panic(&LayoutError{Type: cell, Err: err})
	}
	for _, a := range arrays {
		if err := layout.CheckArray(a); err != nil {
			panic(&LayoutError{Type: a, Err: err})
		}
	}
}
