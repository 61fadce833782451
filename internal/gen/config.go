package gen

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultOutput is the generated file name used when a package sets none.
const DefaultOutput = "cellproj_gen.go"

// Config lists the packages to generate accessors for.
//
//	packages:
//	  - dir: ./geometry
//	    output: cells_gen.go
//	    projections:
//	      - name: ShapeOriginY
//	        type: Shape
//	        path: Origin.Y
//	    arrays:
//	      - name: ShapeVerts
//	        type: "[3]Point"
type Config struct {
	Packages []PackageConfig `yaml:"packages"`

	path string
}

type PackageConfig struct {
	Dir         string           `yaml:"dir"`
	Output      string           `yaml:"output"`
	Directives  *bool            `yaml:"directives"` // scan //cellgen: comments, default true
	Projections []ProjectionSpec `yaml:"projections"`
	Arrays      []ArraySpec      `yaml:"arrays"`
}

// ProjectionSpec asks for a function Name projecting a cell of Type along Path.
type ProjectionSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Path string `yaml:"path"`

	pos position
}

// ArraySpec asks for a function Name viewing a cell of array Type as an array of cells.
type ArraySpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	pos position
}

type position struct {
	file         string
	line, column int
}

func (p *ProjectionSpec) UnmarshalYAML(n *yaml.Node) error {
	type plain ProjectionSpec
	if err := n.Decode((*plain)(p)); err != nil {
		return err
	}
	p.pos = position{line: n.Line, column: n.Column}
	return nil
}

func (a *ArraySpec) UnmarshalYAML(n *yaml.Node) error {
	type plain ArraySpec
	if err := n.Decode((*plain)(a)); err != nil {
		return err
	}
	a.pos = position{line: n.Line, column: n.Column}
	return nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.path = path
	for i := range cfg.Packages {
		pc := &cfg.Packages[i]
		for j := range pc.Projections {
			pc.Projections[j].pos.file = path
		}
		for j := range pc.Arrays {
			pc.Arrays[j].pos.file = path
		}
	}
	return cfg, nil
}

// ParseConfig decodes YAML configuration and fills in defaults.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for i := range cfg.Packages {
		pc := &cfg.Packages[i]
		if pc.Dir == "" {
			pc.Dir = "."
		}
		if pc.Output == "" {
			pc.Output = DefaultOutput
		}
	}
	return &cfg, nil
}

func (pc PackageConfig) scanDirectives() bool {
	return pc.Directives == nil || *pc.Directives
}

// Path is the file the configuration was loaded from, if any.
func (c *Config) Path() string { return c.path }
