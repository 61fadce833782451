package gen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/types"
	"sort"
	"strconv"
	"strings"
)

// projection and arrayView are resolved entries ready to be written out.
type projection struct {
	name      string
	root      string
	leaf      string
	selectors []string
	path      string
}

type arrayView struct {
	name   string
	typ    string
	length string
	elem   string
}

// importSet maps local package names to import paths for the generated file.
type importSet map[string]string

// qualify prints t and records the imports it needs.
func (s importSet) qualify(t typeRef) (string, error) {
	var err error
	ast.Inspect(t.expr, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok || err != nil {
			return err == nil
		}
		id, ok := sel.X.(*ast.Ident)
		if !ok {
			return true
		}
		p, ok := t.file.imports[id.Name]
		if !ok {
			err = fmt.Errorf("%s: unknown package %s", types.ExprString(t.expr), id.Name)
			return false
		}
		if have, dup := s[id.Name]; dup && have != p {
			err = fmt.Errorf("package name %s refers to both %s and %s", id.Name, have, p)
			return false
		}
		s[id.Name] = p
		return false
	})
	if err != nil {
		return "", err
	}
	return types.ExprString(t.expr), nil
}

// emit renders the generated file. The result is gofmt'ed.
func emit(pkgName string, imports importSet, projections []projection, arrays []arrayView) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString("// Code generated by cellgen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", pkgName)

	if len(arrays) > 0 {
		imports["unsafe"] = "unsafe"
	}
	imports["cellproj"] = CellprojPath
	names := make([]string, 0, len(imports))
	for n := range imports {
		names = append(names, n)
	}
	sort.Strings(names)
	b.WriteString("import (\n")
	for _, n := range names {
		p := imports[n]
		if n == p[strings.LastIndex(p, "/")+1:] {
			fmt.Fprintf(&b, "\t%s\n", strconv.Quote(p))
		} else {
			fmt.Fprintf(&b, "\t%s %s\n", n, strconv.Quote(p))
		}
	}
	b.WriteString(")\n")

	for _, p := range projections {
		fmt.Fprintf(&b, "\n// %s projects %s.%s.\n", p.name, p.root, p.path)
		fmt.Fprintf(&b, "func %s(c *cellproj.Cell[%s]) *cellproj.Cell[%s] {\n", p.name, p.root, p.leaf)
		b.WriteString("\treturn cellproj.FromPtr(&c.Ptr()")
		for _, s := range p.selectors {
			fmt.Fprintf(&b, ".%s", s)
		}
		b.WriteString(")\n}\n")
	}

	for _, a := range arrays {
		cells := fmt.Sprintf("[%s]cellproj.Cell[%s]", a.length, a.elem)
		fmt.Fprintf(&b, "\n// %s views a cell of %s as an array of cells.\n", a.name, a.typ)
		fmt.Fprintf(&b, "func %s(c *cellproj.Cell[%s]) *%s {\n", a.name, a.typ, cells)
		fmt.Fprintf(&b, "\treturn (*%s)(unsafe.Pointer(c))\n}\n", cells)
		fmt.Fprintf(&b, "\nvar _ = [1]struct{}{}[unsafe.Sizeof(*new(%s))-unsafe.Sizeof(*new(%s))]\n", a.typ, cells)
	}

	src, err := format.Source(b.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated code: %w", err)
	}
	return src, nil
}
