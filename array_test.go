package cellproj

import (
	"errors"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayOfCells(t *testing.T) {
	c := New([3]int{1, 2, 3})
	arr, err := ArrayOf[[3]Cell[int]](&c)
	require.NoError(t, err)
	arr[0].Set(99)
	require.Equal(t, [3]int{99, 2, 3}, c.IntoInner())
}

func TestArrayOfAliasing(t *testing.T) {
	condition := func(start [8]int32, x int32) bool {
		for i := range start {
			c := New(start)
			arr := MustArrayOf[[8]Cell[int32]](&c)
			arr[i].Set(x)
			want := start
			want[i] = x
			if c.Get() != want {
				return false
			}
			if arr[i].Get() != x {
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(condition, &quick.Config{}))
}

func TestArrayOfRoundTrip(t *testing.T) {
	type ops struct {
		Idx [16]uint8
		Val [16]uint64
	}
	condition := func(start [5]uint64, o ops) bool {
		c := New(start)
		elems := MustElems[uint64](&c)
		want := start
		for k := range o.Idx {
			i := int(o.Idx[k]) % len(want)
			elems[i].Set(o.Val[k])
			want[i] = o.Val[k]
		}
		return c.Get() == want
	}
	require.NoError(t, quick.Check(condition, &quick.Config{}))
}

func TestArrayOfZeroLength(t *testing.T) {
	c := New([0]string{})
	arr, err := ArrayOf[[0]Cell[string]](&c)
	require.NoError(t, err)
	require.NotNil(t, arr)
	assert.Len(t, *arr, 0)

	elems, err := Elems[string](&c)
	require.NoError(t, err)
	assert.Empty(t, elems)
}

func TestArrayOfCompoundElems(t *testing.T) {
	type point struct{ X, Y int16 }
	c := New([2]point{{1, 2}, {3, 4}})
	arr := MustArrayOf[[2]Cell[point]](&c)
	Field(&arr[1], func(p *point) *int16 { return &p.Y }).Set(40)
	assert.Equal(t, [2]point{{1, 2}, {3, 40}}, c.Get())
}

func TestArrayOfShapeErrors(t *testing.T) {
	c := New([3]int{})
	_, err := ArrayOf[[4]Cell[int]](&c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = ArrayOf[[3]Cell[int64]](&c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = ArrayOf[[3]int](&c)
	require.Error(t, err)
	var shape *ShapeError
	require.ErrorAs(t, err, &shape)

	n := New(7)
	_, err = ArrayOf[[1]Cell[int]](&n)
	assert.True(t, errors.Is(err, ErrNotArray))

	_, err = Elems[int](&n)
	assert.True(t, errors.Is(err, ErrNotArray))

	_, err = Elems[uint](&c)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	assert.Panics(t, func() { MustElems[uint](&c) })
	assert.Panics(t, func() { MustArrayOf[[2]Cell[int]](&c) })
}

func TestArrayOfCachedError(t *testing.T) {
	ResetPlans()
	c := New([2]bool{})
	_, err1 := ArrayOf[[3]Cell[bool]](&c)
	_, err2 := ArrayOf[[3]Cell[bool]](&c)
	require.Error(t, err1)
	require.Same(t, err1, err2)
}

func TestArrayOfAndElemsKeepSeparatePlans(t *testing.T) {
	c := New([3]int{1, 2, 3})

	ResetPlans()
	_, err := ArrayOf[Cell[int]](&c)
	require.True(t, errors.Is(err, ErrTypeMismatch))
	elems, err := Elems[int](&c)
	require.NoError(t, err)
	assert.Len(t, elems, 3)

	ResetPlans()
	elems = MustElems[int](&c)
	assert.Len(t, elems, 3)
	arr, err := ArrayOf[Cell[int]](&c)
	assert.Nil(t, arr)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}
