package cellproj

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rawbytedev/cellproj/internal/layout"
)

// fieldPlan is a resolved projection path. A plan that failed to resolve
// keeps its error so the same bad path is diagnosed once.
type fieldPlan struct {
	offset uintptr
	typ    reflect.Type
	err    error
}

type arrayPlan struct {
	n   int
	err error
}

type fieldKey struct {
	root reflect.Type
	path string
}

// arrayKey includes the view kind: ArrayOf and Elems may be asked about the
// same pair of types and must not share a verdict.
type arrayKey struct {
	from, to reflect.Type
	slice    bool
}

type planCache struct {
	mu     sync.RWMutex
	fields map[fieldKey]*fieldPlan
	arrays map[arrayKey]*arrayPlan
}

var plans = newPlanCache()

func newPlanCache() *planCache {
	return &planCache{
		fields: make(map[fieldKey]*fieldPlan),
		arrays: make(map[arrayKey]*arrayPlan),
	}
}

// ResetPlans drops every cached projection and array plan.
func ResetPlans() {
	plans.mu.Lock()
	plans.fields = make(map[fieldKey]*fieldPlan)
	plans.arrays = make(map[arrayKey]*arrayPlan)
	plans.mu.Unlock()
}

func (p *planCache) field(root reflect.Type, path string) *fieldPlan {
	key := fieldKey{root, path}
	p.mu.RLock()
	if plan, ok := p.fields[key]; ok {
		p.mu.RUnlock()
		return plan
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check
	if plan, ok := p.fields[key]; ok {
		return plan
	}
	plan := resolvePath(root, path)
	if plan.err != nil {
		Logger().Debug("projection rejected",
			zap.Stringer("root", root),
			zap.String("path", path),
			zap.Error(plan.err))
	} else {
		Logger().Debug("projection resolved",
			zap.Stringer("root", root),
			zap.String("path", path),
			zap.Uintptr("offset", plan.offset),
			zap.Stringer("field", plan.typ))
	}
	p.fields[key] = plan
	return plan
}

func (p *planCache) array(from, to reflect.Type, slice bool, resolve func() *arrayPlan) *arrayPlan {
	key := arrayKey{from, to, slice}
	p.mu.RLock()
	if plan, ok := p.arrays[key]; ok {
		p.mu.RUnlock()
		return plan
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if plan, ok := p.arrays[key]; ok {
		return plan
	}
	plan := resolve()
	Logger().Debug("array view resolved",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.Bool("slice", slice),
		zap.Int("len", plan.n),
		zap.Error(plan.err))
	p.arrays[key] = plan
	return plan
}

// splitPath breaks a dotted path into accessors. An accessor is either a Go
// identifier or a decimal tuple index without leading zeros.
func splitPath(path string) ([]string, int, error) {
	if path == "" {
		return nil, -1, ErrEmptyPath
	}
	parts := strings.Split(path, ".")
	for i, acc := range parts {
		if acc == "" {
			return nil, i, ErrEmptyPath
		}
		if isDigit(acc[0]) {
			if len(acc) > 1 && acc[0] == '0' {
				return nil, i, ErrIndexRange
			}
			for j := 1; j < len(acc); j++ {
				if !isDigit(acc[j]) {
					return nil, i, ErrNoField
				}
			}
			continue
		}
		for j, r := range acc {
			if !(r == '_' || isLetter(r) || (j > 0 && r >= '0' && r <= '9')) {
				return nil, i, ErrNoField
			}
		}
	}
	return parts, -1, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isLetter(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 0x7f }

func resolvePath(root reflect.Type, path string) *fieldPlan {
	fail := func(step int, cur reflect.Type, err error, hint string) *fieldPlan {
		return &fieldPlan{err: &PathError{
			Root: root, Path: path, Step: step, Type: cur, Err: err, Suggestion: hint,
		}}
	}

	parts, bad, err := splitPath(path)
	if err != nil {
		return fail(bad, root, err, "")
	}

	plan := &fieldPlan{}
	cur := root
	for i, acc := range parts {
		switch {
		case layout.IsIndirect(cur.Kind()):
			return fail(i, cur, ErrIndirect, "project to the reference, then build a new cell from its target")
		case cur.Kind() == reflect.Array:
			if isDigit(acc[0]) {
				return fail(i, cur, ErrNotTuple, "view array elements with ArrayOf or Elems")
			}
			return fail(i, cur, ErrNotStruct, "")
		case cur.Kind() != reflect.Struct:
			if isDigit(acc[0]) {
				return fail(i, cur, ErrNotTuple, "")
			}
			return fail(i, cur, ErrNotStruct, "")
		}

		var sf reflect.StructField
		if isDigit(acc[0]) {
			if !isTuple(cur) {
				return fail(i, cur, ErrNotTuple, "struct fields are addressed by name")
			}
			idx, err := strconv.Atoi(acc)
			if err != nil || idx >= cur.NumField() {
				return fail(i, cur, ErrIndexRange, "tuple has "+strconv.Itoa(cur.NumField())+" elements")
			}
			sf = cur.Field(idx)
		} else {
			if isTuple(cur) {
				return fail(i, cur, ErrNotStruct, "tuple elements are addressed by index")
			}
			var ok bool
			sf, ok = directField(cur, acc)
			if !ok {
				return fail(i, cur, ErrNoField, "")
			}
			if !sf.IsExported() {
				return fail(i, cur, ErrUnexported, "")
			}
		}

		plan.offset += sf.Offset
		cur = sf.Type
	}
	plan.typ = cur
	return plan
}

// directField finds a field declared directly on t. Promoted fields are not
// visible: a path names every compound it crosses.
func directField(t reflect.Type, name string) (reflect.StructField, bool) {
	if name == "_" {
		return reflect.StructField{}, false
	}
	for i := 0; i < t.NumField(); i++ {
		if sf := t.Field(i); sf.Name == name {
			return sf, true
		}
	}
	return reflect.StructField{}, false
}
