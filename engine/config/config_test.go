package config

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-lines/engine/geometry"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

const sampleDocument = `
viewport: [320, 240]
background: [0, 0, 0, 1]
shaders:
  vertex: mem://localhost/shaders/line.vert.wgsl
  fragment: mem://localhost/shaders/line.frag.wgsl
styles:
  default:
    width: 4
  rounded:
    join: round
    cap: round
    joinResolution: 4
    width: 10
    color: [1, 0, 0, 1]
  butt:
    join: bevel
    cap: butt
    insertCaps: true
lines:
  - name: zigzag
    style: rounded
    points: [[0, 0], [10, 0], [10, 10], [20, 10], [20, 20]]
  - points: [[0, 0], [5, 5], null, [8, 8], [9, 9]]
  - style: butt
    width: 2
    points: [[1, 1], [2, 2]]
`

func TestParseAndResolve(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.config")
	defer teardown()

	doc, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)
	assert.Equal(t, [2]int{320, 240}, doc.ViewportSize([2]int{1, 1}))
	require.Len(t, doc.Styles, 3)

	lines, err := doc.Resolve()
	require.NoError(t, err)
	require.Len(t, lines, 3)

	zig := lines[0]
	assert.Equal(t, "zigzag", zig.Name)
	assert.Equal(t, geometry.JoinRound, zig.Style.Join)
	assert.Equal(t, geometry.CapRound, zig.Style.Cap)
	assert.Equal(t, 4, zig.Style.JoinResolution)
	assert.Equal(t, 10.0, zig.Width)
	assert.Equal(t, [4]float64{1, 0, 0, 1}, zig.Color)
	assert.Equal(t, geometry.Vec2{20, 20}, zig.Points[4])

	broken := lines[1]
	assert.Equal(t, "line1", broken.Name)
	assert.Equal(t, 4.0, broken.Width)
	assert.Equal(t, geometry.JoinMiter, broken.Style.Join)
	assert.Equal(t, [4]float64{1, 1, 1, 1}, broken.Color)
	assert.True(t, math.IsNaN(broken.Points[2][0]))

	butt := lines[2]
	assert.Equal(t, geometry.CapNone, butt.Style.Cap)
	assert.True(t, butt.InsertCaps)
	assert.Equal(t, 2.0, butt.Width)
}

func TestParseErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.config")
	defer teardown()

	cases := map[string]string{
		"unknown key":   "linez: []\n",
		"bad join":      "styles:\n  x:\n    join: sharp\n",
		"bad miter":     "styles:\n  x:\n    miterLimit: 0.5\n",
		"unknown style": "lines:\n  - style: nope\n    points: [[0, 0]]\n",
		"point arity":   "lines:\n  - points: [[0, 0, 1]]\n",
		"viewport":      "viewport: [10]\n",
		"color":         "styles:\n  x:\n    color: [1, 2]\n",
	}
	for name, src := range cases {
		_, err := Parse([]byte(src))
		assert.Error(t, err, name)
	}
}

func TestLoad(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.config")
	defer teardown()

	ctx := context.Background()
	fs := afs.New()
	require.NoError(t, fs.Upload(ctx, "mem://localhost/docs/lines.yaml", 0644, strings.NewReader(sampleDocument)))
	require.NoError(t, fs.Upload(ctx, "mem://localhost/shaders/line.vert.wgsl", 0644, strings.NewReader("// vertex")))
	require.NoError(t, fs.Upload(ctx, "mem://localhost/shaders/line.frag.wgsl", 0644, strings.NewReader("// fragment")))

	doc, err := Load(ctx, "mem://localhost/docs/lines.yaml")
	require.NoError(t, err)
	assert.Len(t, doc.Lines, 3)

	vertex, fragment, err := doc.LoadShaders(ctx)
	require.NoError(t, err)
	assert.Equal(t, "// vertex", vertex)
	assert.Equal(t, "// fragment", fragment)

	path := filepath.Join(t.TempDir(), "lines.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o644))
	doc, err = Load(ctx, path)
	require.NoError(t, err)
	assert.Len(t, doc.Styles, 3)

	_, err = Load(ctx, "mem://localhost/docs/missing.yaml")
	assert.Error(t, err)

	_, _, err = (&Document{}).LoadShaders(ctx)
	assert.Error(t, err)
}
