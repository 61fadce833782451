package cellproj

import (
	"reflect"
	"strconv"
)

// tupleLike marks positional compounds. Projection paths address them by
// decimal index instead of by field name.
type tupleLike interface {
	tupleArity() int
}

var tupleIface = reflect.TypeFor[tupleLike]()

type Tuple2[A, B any] struct {
	V0 A
	V1 B
}

type Tuple3[A, B, C any] struct {
	V0 A
	V1 B
	V2 C
}

type Tuple4[A, B, C, D any] struct {
	V0 A
	V1 B
	V2 C
	V3 D
}

func (Tuple2[A, B]) tupleArity() int       { return 2 }
func (Tuple3[A, B, C]) tupleArity() int    { return 3 }
func (Tuple4[A, B, C, D]) tupleArity() int { return 4 }

func T2[A, B any](a A, b B) Tuple2[A, B] { return Tuple2[A, B]{a, b} }

func T3[A, B, C any](a A, b B, c C) Tuple3[A, B, C] { return Tuple3[A, B, C]{a, b, c} }

func T4[A, B, C, D any](a A, b B, c C, d D) Tuple4[A, B, C, D] {
	return Tuple4[A, B, C, D]{a, b, c, d}
}

// isTuple excludes structs that merely embed a tuple.
func isTuple(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || !t.Implements(tupleIface) {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Name != "V"+strconv.Itoa(i) {
			return false
		}
	}
	return true
}
