// Package cellproj provides interior-mutable cells over compound values and
// two zero-copy views derived from them: an array cell seen as an array of
// cells, and a compound cell projected onto one of its fields.
//
// A Cell[T] has exactly the layout of T. Every cell derived from another one
// aliases its storage, so a write through any of them is visible through all.
// Cells are not safe for concurrent use.
package cellproj

import "unsafe"

// Cell is a transparent mutable container for a value of type T.
// The zero value holds the zero T.
type Cell[T any] struct {
	v T
}

// New returns a cell holding v.
func New[T any](v T) Cell[T] {
	return Cell[T]{v: v}
}

// FromPtr views the storage at p as a cell. The cell aliases *p and must not
// be used after the storage is gone.
func FromPtr[T any](p *T) *Cell[T] {
	if p == nil {
		panic("cellproj: FromPtr of nil pointer")
	}
	return (*Cell[T])(unsafe.Pointer(p))
}

func (c *Cell[T]) Get() T { return c.v }

func (c *Cell[T]) Set(v T) { c.v = v }

// Replace stores v and returns the previous value.
func (c *Cell[T]) Replace(v T) T {
	old := c.v
	c.v = v
	return old
}

// Swap exchanges the contents of two cells. Swapping a cell with itself is a no-op.
func (c *Cell[T]) Swap(o *Cell[T]) {
	if c == o {
		return
	}
	c.v, o.v = o.v, c.v
}

// Take returns the value and leaves the zero T in its place.
func (c *Cell[T]) Take() T {
	var zero T
	return c.Replace(zero)
}

// Ptr returns a pointer to the contained value.
func (c *Cell[T]) Ptr() *T { return &c.v }

// IntoInner returns the contained value.
func (c Cell[T]) IntoInner() T { return c.v }
