// Package withcell provides a cell that can lend out its contents by pointer
// for the duration of a callback. Mutating a cell while one of its loans is
// active panics with ErrBorrowed.
//
// Loans are counted per cell address in a table shared by the process, so
// cells used on different goroutines never see each other's loans. A single
// WithCell is not safe for concurrent use: its loans and mutations must stay
// on one goroutine.
package withcell

import (
	"errors"
	"sync"
	"unsafe"
)

var ErrBorrowed = errors.New("address is borrowed")

// loans counts the active With calls per cell address.
var loans = struct {
	sync.Mutex
	active map[unsafe.Pointer]int
}{active: make(map[unsafe.Pointer]int)}

func lend(addr unsafe.Pointer) {
	loans.Lock()
	loans.active[addr]++
	loans.Unlock()
}

func giveBack(addr unsafe.Pointer) {
	loans.Lock()
	if n := loans.active[addr]; n > 1 {
		loans.active[addr] = n - 1
	} else {
		delete(loans.active, addr)
	}
	loans.Unlock()
}

func lent(addr unsafe.Pointer) bool {
	loans.Lock()
	defer loans.Unlock()
	return loans.active[addr] > 0
}

type WithCell[T any] struct {
	v T
}

func New[T any](v T) WithCell[T] {
	return WithCell[T]{v: v}
}

// FromPtr views the storage at p as a WithCell.
func FromPtr[T any](p *T) *WithCell[T] {
	if p == nil {
		panic("withcell: FromPtr of nil pointer")
	}
	return (*WithCell[T])(unsafe.Pointer(p))
}

func (c *WithCell[T]) IntoInner() T { return c.v }

// With lends the contents to f. f must only read through the pointer and
// must not retain it. While f runs, Set, Replace, Swap and Take on c panic.
func (c *WithCell[T]) With(f func(v *T)) {
	Read(c, func(v *T) struct{} {
		f(v)
		return struct{}{}
	})
}

// Read is With for callbacks that produce a value.
func Read[T, U any](c *WithCell[T], f func(v *T) U) U {
	addr := c.addr()
	lend(addr)
	defer giveBack(addr)
	return f(&c.v)
}

// Get returns a copy of the contents. Reading is always allowed.
func (c *WithCell[T]) Get() T { return c.v }

func (c *WithCell[T]) Replace(v T) T {
	c.assertNotBorrowed()
	old := c.v
	c.v = v
	return old
}

func (c *WithCell[T]) Set(v T) { c.Replace(v) }

// Swap exchanges the contents of c and o. Swapping a cell with itself is a
// no-op, even while it is borrowed.
func (c *WithCell[T]) Swap(o *WithCell[T]) {
	if c == o {
		return
	}
	c.assertNotBorrowed()
	o.assertNotBorrowed()
	c.v, o.v = o.v, c.v
}

// Take returns the contents and leaves the zero T behind.
func (c *WithCell[T]) Take() T {
	var zero T
	return c.Replace(zero)
}

// Clone returns a copy of the contents taken under a loan.
func (c *WithCell[T]) Clone() T {
	return Read(c, func(v *T) T { return *v })
}

func (c *WithCell[T]) addr() unsafe.Pointer { return unsafe.Pointer(c) }

func (c *WithCell[T]) assertNotBorrowed() {
	if lent(c.addr()) {
		panic(ErrBorrowed)
	}
}

// Borrowed reports whether c has an active loan.
func (c *WithCell[T]) Borrowed() bool { return lent(c.addr()) }
