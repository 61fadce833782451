// Package gen expands projection paths and array views into plain Go
// functions ahead of the build.
//
// Each requested projection becomes
//
//	func Name(c *cellproj.Cell[Root]) *cellproj.Cell[Leaf] {
//		return cellproj.FromPtr(&c.Ptr().A.B)
//	}
//
// so compiling the generated file checks every path a second time, and each
// array view becomes a pointer conversion guarded by a constant size check.
//
// Thread Safety: a Generator may run several packages concurrently; each
// package is handled by one goroutine.
package gen

import (
	"context"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Logger *zap.Logger
	DryRun bool // resolve and render, but write nothing
	Jobs   int  // packages processed in parallel, 0 means GOMAXPROCS
}

type Generator struct {
	opts Options
	log  *zap.Logger
}

// Result describes one generated package.
type Result struct {
	Dir         string
	ImportPath  string
	Output      string
	Projections int
	Arrays      int
	Source      []byte
	Written     bool
}

func New(opts Options) *Generator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{opts: opts, log: log}
}

// Run generates every package in cfg. Errors from all packages are combined.
func (g *Generator) Run(ctx context.Context, cfg *Config) ([]Result, error) {
	results := make([]Result, len(cfg.Packages))
	errs := make([]error, len(cfg.Packages))

	eg, ctx := errgroup.WithContext(ctx)
	jobs := g.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	eg.SetLimit(jobs)
	for i, pc := range cfg.Packages {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = g.Package(ctx, pc)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return results, err
	}
	return results, multierr.Combine(errs...)
}

// Package generates one package.
func (g *Generator) Package(ctx context.Context, pc PackageConfig) (Result, error) {
	if pc.Output == "" {
		pc.Output = DefaultOutput
	}
	res := Result{Dir: pc.Dir, Output: filepath.Join(pc.Dir, pc.Output)}
	log := g.log.With(zap.String("dir", pc.Dir))

	mod, err := findModule(pc.Dir)
	if err != nil {
		return res, err
	}
	if mod == nil {
		log.Warn("no go.mod found; generated code needs " + CellprojPath)
	} else {
		res.ImportPath = mod.importPath(pc.Dir)
		if !mod.requires {
			log.Warn("module does not require cellproj",
				zap.String("module", mod.path),
				zap.String("require", CellprojPath))
		}
	}

	pkg, err := loadPackage(pc.Dir, pc.Output)
	if err != nil {
		return res, err
	}

	projections, arrays := pc.Projections, pc.Arrays
	if pc.scanDirectives() {
		dp, da, err := pkg.directives()
		if err != nil {
			return res, err
		}
		projections = append(append([]ProjectionSpec(nil), projections...), dp...)
		arrays = append(append([]ArraySpec(nil), arrays...), da...)
	}
	if len(projections) == 0 && len(arrays) == 0 {
		log.Info("nothing to generate")
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	src, err := g.render(pkg, projections, arrays)
	if err != nil {
		return res, err
	}
	res.Source = src
	res.Projections = len(projections)
	res.Arrays = len(arrays)

	if g.opts.DryRun {
		log.Debug("dry run", zap.Int("projections", res.Projections), zap.Int("arrays", res.Arrays))
		return res, nil
	}
	if err := os.WriteFile(res.Output, src, 0o644); err != nil {
		return res, fmt.Errorf("write %s: %w", res.Output, err)
	}
	res.Written = true
	log.Info("generated",
		zap.String("package", res.ImportPath),
		zap.String("output", res.Output),
		zap.Int("projections", res.Projections),
		zap.Int("arrays", res.Arrays))
	return res, nil
}

func (g *Generator) render(pkg *pkgSource, specs []ProjectionSpec, arrSpecs []ArraySpec) ([]byte, error) {
	var errs []error
	imports := importSet{}
	seen := make(map[string]position)

	claim := func(name string, pos position) bool {
		if !token.IsIdentifier(name) {
			errs = append(errs, errorAt(pos, "", "%q is not a valid Go identifier", name))
			return false
		}
		if prev, dup := seen[name]; dup {
			errs = append(errs, errorAt(pos, "", "%v: %s also requested at %s:%d",
				ErrDuplicate, name, prev.file, prev.line))
			return false
		}
		if pkg.decls[name] {
			errs = append(errs, errorAt(pos, "choose another name", "%s is already declared in package %s", name, pkg.name))
			return false
		}
		seen[name] = pos
		return true
	}

	var projections []projection
	for _, s := range specs {
		if !claim(s.Name, s.pos) {
			continue
		}
		p, err := g.projection(pkg, imports, s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		projections = append(projections, p)
	}

	var arrays []arrayView
	for _, s := range arrSpecs {
		if !claim(s.Name, s.pos) {
			continue
		}
		a, err := g.array(pkg, imports, s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		arrays = append(arrays, a)
	}

	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	return emit(pkg.name, imports, projections, arrays)
}

func (g *Generator) projection(pkg *pkgSource, imports importSet, s ProjectionSpec) (projection, error) {
	rootExpr, err := parseTypeString(s.Type)
	if err != nil {
		return projection{}, errorAt(s.pos, "", "invalid type %q: %v", s.Type, err)
	}
	root := typeRef{expr: rootExpr, file: genFile}
	rp, err := pkg.resolvePath(root, s.Path)
	if err != nil {
		return projection{}, errorAt(s.pos, "", "project %s.%s: %v", s.Type, s.Path, err)
	}
	rootStr, err := imports.qualify(root)
	if err != nil {
		return projection{}, errorAt(s.pos, "", "%v", err)
	}
	leafStr, err := imports.qualify(rp.leaf)
	if err != nil {
		return projection{}, errorAt(s.pos, "", "%v", err)
	}
	g.log.Debug("projection",
		zap.String("name", s.Name),
		zap.String("root", rootStr),
		zap.String("path", s.Path),
		zap.String("leaf", leafStr))
	return projection{
		name:      s.Name,
		root:      rootStr,
		leaf:      leafStr,
		selectors: rp.selectors,
		path:      s.Path,
	}, nil
}

func (g *Generator) array(pkg *pkgSource, imports importSet, s ArraySpec) (arrayView, error) {
	expr, err := parseTypeString(s.Type)
	if err != nil {
		return arrayView{}, errorAt(s.pos, "", "invalid type %q: %v", s.Type, err)
	}
	t := typeRef{expr: expr, file: genFile}
	length, elem, err := pkg.resolveArray(t)
	if err != nil {
		return arrayView{}, errorAt(s.pos, "use a type such as [4]T", "array %s: %v", s.Type, err)
	}
	typStr, err := imports.qualify(t)
	if err != nil {
		return arrayView{}, errorAt(s.pos, "", "%v", err)
	}
	lenStr, err := imports.qualify(length)
	if err != nil {
		return arrayView{}, errorAt(s.pos, "", "%v", err)
	}
	elemStr, err := imports.qualify(elem)
	if err != nil {
		return arrayView{}, errorAt(s.pos, "", "%v", err)
	}
	g.log.Debug("array view", zap.String("name", s.Name), zap.String("type", typStr))
	return arrayView{name: s.Name, typ: typStr, length: lenStr, elem: elemStr}, nil
}

func joinErrors(errs []error) error {
	return multierr.Combine(errs...)
}
