// Package scoped ties projected cells to the lifetime of an owning value.
//
// An Owner holds a value in a cell. Handles derived from it, directly or by
// projection, carry the owner's generation and stop working once the owner is
// released. Owners and handles are not safe for concurrent use.
package scoped

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rawbytedev/cellproj"
)

var (
	ErrReleased = errors.New("owner released")
	ErrInScope  = errors.New("owner released inside its own scope")
)

type life struct {
	gen    uint64
	scopes int
}

type Owner[T any] struct {
	cell cellproj.Cell[T]
	life *life
}

func NewOwner[T any](v T) *Owner[T] {
	return &Owner[T]{cell: cellproj.New(v), life: &life{gen: 1}}
}

// Handle returns a handle to the whole value, valid until the next Release.
func (o *Owner[T]) Handle() Handle[T] {
	return Handle[T]{cell: &o.cell, life: o.life, gen: o.life.gen}
}

// Scope runs f with the owner's cell. The cell and anything projected from
// it must not be used after f returns. Releasing the owner inside f panics.
func (o *Owner[T]) Scope(f func(c *cellproj.Cell[T])) {
	o.life.scopes++
	defer func() { o.life.scopes-- }()
	f(&o.cell)
}

// Release invalidates every handle derived from o and returns the value it held.
// The owner keeps the value; handles made afterwards belong to a new generation.
func (o *Owner[T]) Release() T {
	if o.life.scopes > 0 {
		panic(ErrInScope)
	}
	cellproj.Logger().Debug("owner released", zap.Uint64("generation", o.life.gen))
	o.life.gen++
	return o.cell.Get()
}

// Generation counts releases, starting at 1.
func (o *Owner[T]) Generation() uint64 { return o.life.gen }

// Handle is a liveness-checked reference to a cell inside an Owner.
type Handle[F any] struct {
	cell *cellproj.Cell[F]
	life *life
	gen  uint64
}

func (h Handle[F]) Valid() bool {
	return h.life != nil && h.life.gen == h.gen
}

// Cell returns the underlying cell, or ErrReleased when the owner has been
// released since h was made.
func (h Handle[F]) Cell() (*cellproj.Cell[F], error) {
	if !h.Valid() {
		return nil, fmt.Errorf("scoped: handle of generation %d: %w", h.gen, ErrReleased)
	}
	return h.cell, nil
}

func (h Handle[F]) must() *cellproj.Cell[F] {
	c, err := h.Cell()
	if err != nil {
		panic(err)
	}
	return c
}

// Get reads the value. It panics on a stale handle.
func (h Handle[F]) Get() F { return h.must().Get() }

// Set writes the value. It panics on a stale handle.
func (h Handle[F]) Set(v F) { h.must().Set(v) }

// Replace writes v and returns the previous value. It panics on a stale handle.
func (h Handle[F]) Replace(v F) F { return h.must().Replace(v) }

// Sub projects h along p. The result shares h's liveness. It panics if h is stale.
func Sub[T, F any](h Handle[T], p cellproj.Path[T, F]) Handle[F] {
	return Handle[F]{cell: p.Of(h.must()), life: h.life, gen: h.gen}
}

// SubField projects h with a compile-time checked selector.
func SubField[T, F any](h Handle[T], sel func(*T) *F) Handle[F] {
	return Handle[F]{cell: cellproj.Field(h.must(), sel), life: h.life, gen: h.gen}
}

// Elem returns a handle to element i of the array held by h.
func Elem[V, A any](h Handle[A], i int) (Handle[V], error) {
	c, err := h.Cell()
	if err != nil {
		return Handle[V]{}, err
	}
	elems, err := cellproj.Elems[V](c)
	if err != nil {
		return Handle[V]{}, err
	}
	if i < 0 || i >= len(elems) {
		return Handle[V]{}, fmt.Errorf("scoped: index %d out of range [0:%d]", i, len(elems))
	}
	return Handle[V]{cell: &elems[i], life: h.life, gen: h.gen}, nil
}
