package gen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	projectDirective = "//cellgen:project"
	arrayDirective   = "//cellgen:array"
)

// sourceFile is one parsed file of the target package.
type sourceFile struct {
	name    string
	ast     *ast.File
	imports map[string]string // local name -> import path
}

type typeDecl struct {
	spec *ast.TypeSpec
	file *sourceFile
}

// pkgSource is the parsed target package.
type pkgSource struct {
	fset  *token.FileSet
	name  string
	files []*sourceFile
	types map[string]typeDecl
	decls map[string]bool // every top-level identifier
}

// genFile is the context for type strings given in config and directives:
// they are written as if inside the generated file.
var genFile = &sourceFile{name: "<generated>", imports: map[string]string{"cellproj": CellprojPath}}

// loadPackage parses the non-test Go files in dir, skipping output.
func loadPackage(dir, output string) (*pkgSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasSuffix(n, ".go") || strings.HasSuffix(n, "_test.go") || n == output {
			continue
		}
		names = append(names, n)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoPackage)
	}
	sort.Strings(names)

	pkg := &pkgSource{
		fset:  token.NewFileSet(),
		types: make(map[string]typeDecl),
		decls: make(map[string]bool),
	}
	for _, n := range names {
		path := filepath.Join(dir, n)
		file, err := parser.ParseFile(pkg.fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
		}
		if pkg.name == "" {
			pkg.name = file.Name.Name
		} else if file.Name.Name != pkg.name {
			return nil, fmt.Errorf("%s: found packages %s and %s", dir, pkg.name, file.Name.Name)
		}
		sf := &sourceFile{name: path, ast: file, imports: fileImports(file)}
		pkg.files = append(pkg.files, sf)
		pkg.index(sf)
	}
	return pkg, nil
}

func fileImports(f *ast.File) map[string]string {
	out := make(map[string]string, len(f.Imports))
	for _, imp := range f.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := p[strings.LastIndex(p, "/")+1:]
		if imp.Name != nil {
			name = imp.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		out[name] = p
	}
	return out
}

func (pkg *pkgSource) index(sf *sourceFile) {
	for _, d := range sf.ast.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil {
				pkg.decls[d.Name.Name] = true
			}
		case *ast.GenDecl:
			for _, s := range d.Specs {
				switch s := s.(type) {
				case *ast.TypeSpec:
					pkg.decls[s.Name.Name] = true
					pkg.types[s.Name.Name] = typeDecl{spec: s, file: sf}
				case *ast.ValueSpec:
					for _, n := range s.Names {
						pkg.decls[n.Name] = true
					}
				}
			}
		}
	}
}

// directives collects //cellgen: comments from every file of the package.
func (pkg *pkgSource) directives() ([]ProjectionSpec, []ArraySpec, error) {
	var (
		projections []ProjectionSpec
		arrays      []ArraySpec
		errs        []error
	)
	for _, sf := range pkg.files {
		for _, group := range sf.ast.Comments {
			for _, c := range group.List {
				pos := positionOf(pkg.fset, c.Slash)
				switch {
				case strings.HasPrefix(c.Text, projectDirective+" "):
					fields := strings.Fields(strings.TrimPrefix(c.Text, projectDirective))
					if len(fields) < 3 {
						errs = append(errs, errorAt(pos,
							"write //cellgen:project Name Type Path", "malformed project directive"))
						continue
					}
					projections = append(projections, ProjectionSpec{
						Name: fields[0],
						Type: strings.Join(fields[1:len(fields)-1], " "),
						Path: fields[len(fields)-1],
						pos:  pos,
					})
				case strings.HasPrefix(c.Text, arrayDirective+" "):
					fields := strings.Fields(strings.TrimPrefix(c.Text, arrayDirective))
					if len(fields) < 2 {
						errs = append(errs, errorAt(pos,
							"write //cellgen:array Name Type", "malformed array directive"))
						continue
					}
					arrays = append(arrays, ArraySpec{
						Name: fields[0],
						Type: strings.Join(fields[1:], " "),
						pos:  pos,
					})
				}
			}
		}
	}
	return projections, arrays, joinErrors(errs)
}
