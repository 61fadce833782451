package gen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/types"
	"strconv"
	"strings"
)

var basicNonIndirect = map[string]bool{
	"bool": true, "byte": true, "rune": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
}

// typeRef is a type expression together with the file it is written in.
type typeRef struct {
	expr ast.Expr
	file *sourceFile
}

// compound is a typeRef with named types looked through.
type compound struct {
	kind   compoundKind
	fields *ast.FieldList // struct
	args   []ast.Expr     // tuple type arguments
	length ast.Expr       // array
	elem   ast.Expr       // array
	file   *sourceFile
	desc   string
}

type compoundKind int

const (
	kindOther compoundKind = iota
	kindStruct
	kindTuple
	kindArray
	kindIndirect
	kindForeign
)

// resolvedPath is a projection path checked against the package source.
type resolvedPath struct {
	selectors []string
	leaf      typeRef
}

func parseTypeString(s string) (ast.Expr, error) {
	return parser.ParseExpr(s)
}

// underlying follows named types declared in pkg until a type literal or a
// type it cannot see into.
func (pkg *pkgSource) underlying(t typeRef) (compound, error) {
	seen := make(map[string]bool)
	defined := false
	for {
		desc := types.ExprString(t.expr)
		switch e := t.expr.(type) {
		case *ast.ParenExpr:
			t.expr = e.X
			continue
		case *ast.Ident:
			decl, ok := pkg.types[e.Name]
			if !ok {
				if basicNonIndirect[e.Name] {
					return compound{kind: kindOther, desc: desc}, nil
				}
				if e.Name == "string" || e.Name == "any" || e.Name == "error" {
					return compound{kind: kindIndirect, desc: desc}, nil
				}
				return compound{}, fmt.Errorf("unknown type %s", e.Name)
			}
			if decl.spec.TypeParams != nil {
				return compound{}, fmt.Errorf("generic type %s is not supported", e.Name)
			}
			if seen[e.Name] {
				return compound{}, fmt.Errorf("invalid recursive type %s", e.Name)
			}
			seen[e.Name] = true
			if !decl.spec.Assign.IsValid() {
				defined = true
			}
			t = typeRef{expr: decl.spec.Type, file: decl.file}
			continue
		case *ast.StructType:
			return compound{kind: kindStruct, fields: e.Fields, file: t.file, desc: desc}, nil
		case *ast.ArrayType:
			if e.Len == nil {
				return compound{kind: kindIndirect, desc: desc}, nil
			}
			return compound{kind: kindArray, length: e.Len, elem: e.Elt, file: t.file, desc: desc}, nil
		case *ast.StarExpr, *ast.MapType, *ast.ChanType, *ast.FuncType, *ast.InterfaceType:
			return compound{kind: kindIndirect, desc: desc}, nil
		case *ast.IndexListExpr:
			if n, ok := t.file.tupleArity(e.X); ok && n == len(e.Indices) {
				// A defined type over a tuple drops the tuple methods and is
				// addressed like any struct, through V0..Vn.
				if defined {
					return compound{kind: kindStruct, fields: tupleFields(e.Indices), file: t.file, desc: desc}, nil
				}
				return compound{kind: kindTuple, args: e.Indices, file: t.file, desc: desc}, nil
			}
			return compound{kind: kindForeign, desc: desc}, nil
		case *ast.SelectorExpr, *ast.IndexExpr:
			return compound{kind: kindForeign, desc: desc}, nil
		default:
			return compound{}, fmt.Errorf("unsupported type expression %s", desc)
		}
	}
}

// tupleArity reports whether x names cellproj.TupleN in f, and N.
func (f *sourceFile) tupleArity(x ast.Expr) (int, bool) {
	sel, ok := x.(*ast.SelectorExpr)
	if !ok {
		return 0, false
	}
	pkg, ok := sel.X.(*ast.Ident)
	if !ok || f.imports[pkg.Name] != CellprojPath {
		return 0, false
	}
	switch sel.Sel.Name {
	case "Tuple2":
		return 2, true
	case "Tuple3":
		return 3, true
	case "Tuple4":
		return 4, true
	}
	return 0, false
}

func tupleFields(args []ast.Expr) *ast.FieldList {
	fl := &ast.FieldList{}
	for i, a := range args {
		fl.List = append(fl.List, &ast.Field{
			Names: []*ast.Ident{ast.NewIdent("V" + strconv.Itoa(i))},
			Type:  a,
		})
	}
	return fl
}

// resolvePath walks path from root, mirroring the checks cellproj.NewPath
// performs at run time. Unexported fields are allowed: generated code lives in
// the same package.
func (pkg *pkgSource) resolvePath(root typeRef, path string) (*resolvedPath, error) {
	if path == "" {
		return nil, fmt.Errorf("empty projection path")
	}
	out := &resolvedPath{}
	cur := root
	for i, acc := range strings.Split(path, ".") {
		if acc == "" {
			return nil, fmt.Errorf("empty accessor at step %d", i)
		}
		c, err := pkg.underlying(cur)
		if err != nil {
			return nil, err
		}
		numeric := acc[0] >= '0' && acc[0] <= '9'
		switch c.kind {
		case kindIndirect:
			return nil, fmt.Errorf("accessor %q: path steps through indirection at %s", acc, c.desc)
		case kindForeign:
			return nil, fmt.Errorf("accessor %q: %s is declared outside this package", acc, c.desc)
		case kindArray:
			return nil, fmt.Errorf("accessor %q: %s is an array; view it with an array accessor", acc, c.desc)
		case kindOther:
			return nil, fmt.Errorf("accessor %q: %s has no fields", acc, c.desc)
		case kindTuple:
			if !numeric {
				return nil, fmt.Errorf("accessor %q: tuple %s is addressed by index", acc, c.desc)
			}
			idx, err := strconv.Atoi(acc)
			if err != nil || idx >= len(c.args) || (len(acc) > 1 && acc[0] == '0') {
				return nil, fmt.Errorf("accessor %q: tuple index out of range for %s", acc, c.desc)
			}
			out.selectors = append(out.selectors, "V"+strconv.Itoa(idx))
			cur = typeRef{expr: c.args[idx], file: c.file}
		case kindStruct:
			if numeric {
				return nil, fmt.Errorf("accessor %q: struct %s is addressed by field name", acc, c.desc)
			}
			ft, ok := fieldType(c.fields, acc)
			if !ok {
				return nil, fmt.Errorf("accessor %q: no field %s in %s", acc, acc, c.desc)
			}
			out.selectors = append(out.selectors, acc)
			cur = typeRef{expr: ft, file: c.file}
		}
	}
	out.leaf = cur
	return out, nil
}

// fieldType finds a field declared directly in fields. Embedded fields are
// named by their type name.
func fieldType(fields *ast.FieldList, name string) (ast.Expr, bool) {
	if name == "_" || fields == nil {
		return nil, false
	}
	for _, f := range fields.List {
		if len(f.Names) == 0 {
			if embeddedName(f.Type) == name {
				return f.Type, true
			}
			continue
		}
		for _, n := range f.Names {
			if n.Name == name {
				return f.Type, true
			}
		}
	}
	return nil, false
}

func embeddedName(x ast.Expr) string {
	switch e := x.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		return embeddedName(e.X)
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(e.X)
	case *ast.IndexListExpr:
		return embeddedName(e.X)
	}
	return ""
}

// resolveArray checks that t is a fixed-size array and returns its length
// and element type.
func (pkg *pkgSource) resolveArray(t typeRef) (length, elem typeRef, err error) {
	c, err := pkg.underlying(t)
	if err != nil {
		return typeRef{}, typeRef{}, err
	}
	if c.kind != kindArray {
		return typeRef{}, typeRef{}, fmt.Errorf("%s is not a fixed-size array", c.desc)
	}
	if _, ok := c.length.(*ast.Ellipsis); ok {
		return typeRef{}, typeRef{}, fmt.Errorf("%s has no explicit length", c.desc)
	}
	return typeRef{expr: c.length, file: c.file}, typeRef{expr: c.elem, file: c.file}, nil
}
