package gen

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// CellprojPath is the import path generated files depend on.
const CellprojPath = "github.com/rawbytedev/cellproj"

type moduleInfo struct {
	path     string // module path
	dir      string // directory holding go.mod
	requires bool   // module is cellproj or requires it
}

// findModule walks up from dir to the nearest go.mod and parses it.
func findModule(dir string) (*moduleInfo, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for d := abs; ; {
		gomod := filepath.Join(d, "go.mod")
		data, err := os.ReadFile(gomod)
		if err == nil {
			f, err := modfile.ParseLax(gomod, data, nil)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", gomod, err)
			}
			if f.Module == nil {
				return nil, fmt.Errorf("%s: missing module directive", gomod)
			}
			info := &moduleInfo{path: f.Module.Mod.Path, dir: d}
			info.requires = info.path == CellprojPath
			for _, r := range f.Require {
				if r.Mod.Path == CellprojPath {
					info.requires = true
				}
			}
			return info, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		parent := filepath.Dir(d)
		if parent == d {
			return nil, nil
		}
		d = parent
	}
}

// importPath returns the import path of the package in dir.
func (m *moduleInfo) importPath(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(m.dir, abs)
	if err != nil {
		return ""
	}
	if rel == "." {
		return m.path
	}
	return path.Join(m.path, filepath.ToSlash(rel))
}
