package cellproj

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type Foo struct {
	X int32
}

type Pair struct {
	F1 int64
	F2 uint8
}

type Leaf struct {
	A uint8
	B float64
}

type Inner struct {
	Tag  uint16
	Leaf Leaf
	Arr  [3]int
}

type Outer struct {
	ID    int
	Inner Inner
	Name  string
	Ptr   *Inner
	Pair  Tuple2[int8, Foo]
	Embed
	hidden int
}

type Embed struct {
	E int
}

func TestProjectTuple(t *testing.T) {
	tuple := T2(Foo{X: 0}, Foo{X: 1})
	tc := FromPtr(&tuple)
	Field(tc, func(v *Tuple2[Foo, Foo]) *int32 { return &v.V0.X }).Set(99)
	assert.Equal(t, int32(99), tuple.V0.X)

	p, err := Project[int32](tc, "1.X")
	require.NoError(t, err)
	p.Set(7)
	assert.Equal(t, T2(Foo{X: 99}, Foo{X: 7}), tuple)
}

func TestProjectSingleField(t *testing.T) {
	c := New(Pair{F1: 1, F2: 2})
	f1 := Field(&c, func(p *Pair) *int64 { return &p.F1 })
	f1.Set(10)
	assert.Equal(t, Pair{F1: 10, F2: 2}, c.Get())

	f2 := MustPath[Pair, uint8]("F2").Of(&c)
	f2.Set(20)
	assert.Equal(t, Pair{F1: 10, F2: 20}, c.Get())

	// Manual reinterpretation of the same field.
	manual := (*Cell[uint8])(unsafe.Add(unsafe.Pointer(&c), unsafe.Offsetof(c.v.F2)))
	assert.Same(t, manual, f2)
}

func TestProjectChaining(t *testing.T) {
	var direct, stepped Outer
	dc, sc := FromPtr(&direct), FromPtr(&stepped)

	MustPath[Outer, float64]("Inner.Leaf.B").Of(dc).Set(2.5)

	inner := Field(sc, func(o *Outer) *Inner { return &o.Inner })
	leaf := Field(inner, func(i *Inner) *Leaf { return &i.Leaf })
	Field(leaf, func(l *Leaf) *float64 { return &l.B }).Set(2.5)

	assert.Equal(t, stepped, direct)
	assert.Equal(t, 2.5, direct.Inner.Leaf.B)

	deep := Field(dc, func(o *Outer) *float64 { return &o.Inner.Leaf.B })
	assert.Same(t, MustPath[Outer, float64]("Inner.Leaf.B").Of(dc), deep)
}

func TestProjectThen(t *testing.T) {
	outer := MustPath[Outer, Inner]("Inner")
	leaf := MustPath[Inner, Leaf]("Leaf")
	a := MustPath[Leaf, uint8]("A")
	p := Then(Then(outer, leaf), a)

	direct := MustPath[Outer, uint8]("Inner.Leaf.A")
	assert.Equal(t, direct.Offset(), p.Offset())
	assert.Equal(t, "Inner.Leaf.A", p.String())

	var o Outer
	c := FromPtr(&o)
	p.Of(c).Set(3)
	assert.Equal(t, uint8(3), o.Inner.Leaf.A)
	assert.Same(t, direct.Of(c), p.Of(c))
}

func TestProjectTupleIndices(t *testing.T) {
	type named struct {
		A int16
		B struct {
			C int32
			D int64
		}
	}
	var tup Tuple2[int16, Tuple2[int32, int64]]
	var str named
	tp := MustPath[Tuple2[int16, Tuple2[int32, int64]], int64]("1.1")
	sp := MustPath[named, int64]("B.D")
	assert.Equal(t, sp.Offset(), tp.Offset())

	tp.Of(FromPtr(&tup)).Set(-5)
	sp.Of(FromPtr(&str)).Set(-5)
	assert.Equal(t, int64(-5), tup.V1.V1)
	assert.Equal(t, int64(-5), str.B.D)

	mixed := MustPath[Outer, int32]("Pair.1.X")
	var o Outer
	mixed.Of(FromPtr(&o)).Set(11)
	assert.Equal(t, int32(11), o.Pair.V1.X)
}

func TestProjectArrayFieldNeedsArrayOf(t *testing.T) {
	var o Outer
	arrCell := MustPath[Outer, [3]int]("Inner.Arr").Of(FromPtr(&o))
	elems := MustArrayOf[[3]Cell[int]](arrCell)
	elems[2].Set(8)
	assert.Equal(t, [3]int{0, 0, 8}, o.Inner.Arr)
}

func TestProjectEmbedded(t *testing.T) {
	var o Outer
	MustPath[Outer, int]("Embed.E").Of(FromPtr(&o)).Set(4)
	assert.Equal(t, 4, o.E)

	_, err := NewPath[Outer, int]("E")
	assert.True(t, errors.Is(err, ErrNoField))
}

func TestProjectInvalidPaths(t *testing.T) {
	cases := []struct {
		path string
		want error
		step int
	}{
		{"", ErrEmptyPath, -1},
		{"Inner..Tag", ErrEmptyPath, 1},
		{"Missing", ErrNoField, 0},
		{"Inner.Nope", ErrNoField, 1},
		{"0", ErrNotTuple, 0},
		{"Pair.X", ErrNotStruct, 1},
		{"Pair.2", ErrIndexRange, 1},
		{"Pair.01", ErrIndexRange, 1},
		{"hidden", ErrUnexported, 0},
		{"Ptr.Tag", ErrIndirect, 1},
		{"Name.0", ErrIndirect, 1},
		{"Inner.Arr.0", ErrNotTuple, 2},
		{"Inner.Tag.X", ErrNotStruct, 2},
		{"In-ner", ErrNoField, 0},
		{"_", ErrNoField, 0},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			_, err := NewPath[Outer, uint16](tc.path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			var pe *PathError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.step, pe.Step)
			assert.Contains(t, pe.Error(), "cellproj: project")
		})
	}
}

func TestProjectTypeMismatch(t *testing.T) {
	_, err := NewPath[Outer, int32]("Inner.Tag")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	c := New(Outer{})
	_, err = Project[string](&c, "ID")
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	assert.Panics(t, func() { MustPath[Outer, int32]("Inner.Tag") })
}

func TestFieldOutOfBounds(t *testing.T) {
	var other int64
	c := New(Pair{})
	assert.PanicsWithError(t,
		"cellproj: project cellproj.Pair: selector escapes the projected cell",
		func() { Field(&c, func(*Pair) *int64 { return &other }) })
	assert.Panics(t, func() { Field(&c, func(*Pair) *int64 { return nil }) })
}

func TestZeroPathPanics(t *testing.T) {
	var p Path[Pair, int64]
	c := New(Pair{})
	assert.Panics(t, func() { p.Of(&c) })
	assert.Panics(t, func() { Then(p, Path[int64, int64]{}) })
}

func TestPathOfNilCellPanics(t *testing.T) {
	p := MustPath[Pair, int64]("F1")
	assert.PanicsWithValue(t, "cellproj: Path.Of on nil cell", func() { p.Of(nil) })
}

type definedPair Tuple2[int16, int32]

type aliasPair = Tuple2[int16, int32]

func TestDefinedTupleIsStruct(t *testing.T) {
	byName, err := NewPath[definedPair, int32]("V1")
	require.NoError(t, err)
	assert.Equal(t, uintptr(4), byName.Offset())
	_, err = NewPath[definedPair, int32]("1")
	assert.True(t, errors.Is(err, ErrNotTuple))

	byIndex, err := NewPath[aliasPair, int32]("1")
	require.NoError(t, err)
	assert.Equal(t, uintptr(4), byIndex.Offset())
	_, err = NewPath[aliasPair, int32]("V1")
	assert.True(t, errors.Is(err, ErrNotStruct))

	c := New(definedPair{V0: 1, V1: 2})
	byName.Of(&c).Set(7)
	assert.Equal(t, int32(7), c.Get().V1)
}

func TestPlanLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)
	ResetPlans()

	_ = MustPath[Outer, int]("ID")
	_ = MustPath[Outer, int]("ID")
	_, _ = NewPath[Outer, int]("Nope")

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, "projection resolved", entries[0].Message)
	assert.Equal(t, "projection rejected", entries[1].Message)
}
