package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawbytedev/cellproj/internal/gen"
)

const source = `package geo

type Point struct{ X, Y int32 }

//cellgen:project SegmentEndX Segment End.X
//cellgen:array PathPoints Path
type Segment struct {
	Start, End Point
}

type Path [4]Point
`

func setup(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	mod := "module example.com/geo\n\ngo 1.24\n\nrequire github.com/rawbytedev/cellproj v0.1.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(mod), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geo.go"), []byte(src), 0o644))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"cellgen", "--logfmt", "none"}, args...))
	return out.String(), err
}

func TestGenerateThenCheck(t *testing.T) {
	dir := setup(t, source)
	output := filepath.Join(dir, gen.DefaultOutput)

	_, err := run(t, "check", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 generated file(s) out of date")

	out, err := run(t, "generate", "--dry-run", dir)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoFileExists(t, output)

	out, err = run(t, "generate", dir)
	require.NoError(t, err)
	assert.Equal(t, output+"\n", out)
	assert.FileExists(t, output)

	_, err = run(t, "check", dir)
	assert.NoError(t, err)
}

func TestGenerateReportsPositions(t *testing.T) {
	dir := setup(t, strings.Replace(source, "End.X", "1.X", 1))
	_, err := run(t, "generate", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join(dir, "geo.go")+":5:1:")
	assert.Contains(t, err.Error(), "addressed by field name")
}

func TestGenerateFromConfig(t *testing.T) {
	dir := setup(t, "package geo\n\ntype Point struct{ X, Y int32 }\n")
	cfg := filepath.Join(t.TempDir(), "cells.yaml")
	data := "packages:\n  - dir: " + dir + "\n    output: cells_gen.go\n" +
		"    projections:\n      - name: PointY\n        type: Point\n        path: Y\n"
	require.NoError(t, os.WriteFile(cfg, []byte(data), 0o644))

	out, err := run(t, "generate", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cells_gen.go")+"\n", out)

	src, err := os.ReadFile(filepath.Join(dir, "cells_gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "return cellproj.FromPtr(&c.Ptr().Y)")
}

func TestMissingExplicitConfig(t *testing.T) {
	_, err := run(t, "generate", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
