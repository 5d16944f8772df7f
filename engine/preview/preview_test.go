package preview

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-lines/engine/config"
	"github.com/Carmen-Shannon/oxy-lines/engine/geometry"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func straightLine(style geometry.Style) config.ResolvedLine {
	return config.ResolvedLine{
		Name:   "straight",
		Style:  style,
		Width:  10,
		Color:  [4]float64{1, 1, 1, 1},
		Points: []geometry.Vec2{{20, 50}, {80, 50}},
	}
}

func TestCoverageStraightLine(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.preview")
	defer teardown()

	r := NewRenderer(WithSize(100, 100), WithWorkers(2))
	mask := r.Coverage(straightLine(geometry.Style{Cap: geometry.CapNone}))

	assert.Equal(t, uint8(255), mask.AlphaAt(50, 50).A)
	assert.Equal(t, uint8(255), mask.AlphaAt(50, 47).A)
	assert.Equal(t, uint8(0), mask.AlphaAt(50, 60).A)
	assert.Equal(t, uint8(0), mask.AlphaAt(10, 50).A)
	assert.Equal(t, uint8(0), mask.AlphaAt(90, 50).A)
}

func TestCoverageCapsExtendLine(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.preview")
	defer teardown()

	r := NewRenderer(WithSize(100, 100))
	none := r.Coverage(straightLine(geometry.Style{Cap: geometry.CapNone}))
	square := r.Coverage(straightLine(geometry.Style{Cap: geometry.CapSquare}))
	round := r.Coverage(straightLine(geometry.Style{Cap: geometry.CapRound}))

	assert.Greater(t, Covered(square), Covered(none))
	assert.Greater(t, Covered(round), Covered(none))
	assert.Greater(t, Covered(square), Covered(round))
	assert.Equal(t, uint8(0), none.AlphaAt(17, 50).A)
	assert.Equal(t, uint8(255), square.AlphaAt(17, 50).A)
}

func reversed(l config.ResolvedLine) config.ResolvedLine {
	l.Points = slices.Clone(l.Points)
	slices.Reverse(l.Points)
	return l
}

func TestReversalCongruence(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.preview")
	defer teardown()

	base := []geometry.Vec2{{0, 0}, {1, 0}, {1, 1}, {2, 1}, {2, 2}}
	points := make([]geometry.Vec2, len(base))
	for i, p := range base {
		points[i] = geometry.Vec2{40 + 60*p[0], 40 + 60*p[1]}
	}

	r := NewRenderer(WithSize(200, 200), WithWorkers(3), WithChunkSize(1))
	styles := map[string]geometry.Style{
		"round":  {Join: geometry.JoinRound, Cap: geometry.CapRound, JoinResolution: 4},
		"miter":  {Join: geometry.JoinMiter, Cap: geometry.CapSquare},
		"bevel":  {Join: geometry.JoinBevel, Cap: geometry.CapNone},
		"capped": {Join: geometry.JoinRound, Cap: geometry.CapSquare, JoinResolution: 4},
	}
	for name, style := range styles {
		for _, insertCaps := range []bool{false, true} {
			line := config.ResolvedLine{Name: name, Style: style, InsertCaps: insertCaps, Width: 10, Points: points}
			forward := r.Coverage(line)
			backward := r.Coverage(reversed(line))

			covered := Covered(forward)
			require.Positive(t, covered, name)
			assert.InDelta(t, covered, Covered(backward), 0.03*float64(covered), "%s insertCaps=%t", name, insertCaps)

			diff, err := Compare(forward, backward, 128)
			require.NoError(t, err)
			assert.LessOrEqual(t, diff, covered/50, "%s insertCaps=%t", name, insertCaps)
		}
	}
}

func TestCoverageDeterministic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.preview")
	defer teardown()

	line := config.ResolvedLine{
		Style:  geometry.Style{Join: geometry.JoinRound, Cap: geometry.CapRound},
		Width:  6,
		Points: []geometry.Vec2{{10, 10}, {60, 20}, {30, 70}, {90, 90}},
	}
	a := NewRenderer(WithSize(100, 100), WithWorkers(1)).Coverage(line)
	b := NewRenderer(WithSize(100, 100), WithWorkers(4), WithChunkSize(1)).Coverage(line)
	diff, err := Compare(a, b, 0)
	require.NoError(t, err)
	assert.Zero(t, diff)
}

func TestRunsSplitAtBreaks(t *testing.T) {
	pts := []geometry.Vec4{{0, 0, 0, 1}, {1, 0, 0, 1}, invalidPoint, {2, 0, 0, 1}, invalidPoint, {3, 0, 0, 1}, {4, 0, 0, 1}, {5, 0, 0, 1}}
	got := runs(pts)
	require.Len(t, got, 2)
	assert.Len(t, got[0], 2)
	assert.Len(t, got[1], 3)

	line := config.ResolvedLine{
		Style:  geometry.Style{},
		Width:  4,
		Points: []geometry.Vec2{{10, 10}, {20, 10}, {math.NaN(), math.NaN()}, {30, 10}, {40, 10}},
	}
	instances := lineInstances(line, [2]float64{100, 100})
	// four segment windows and a start and end cap per run
	assert.Len(t, instances, 4+4)
}

func TestRenderAndWritePNG(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.preview")
	defer teardown()

	r := NewRenderer(WithSize(100, 100), WithBackground(image.Black))
	line := straightLine(geometry.Style{})
	line.Color = [4]float64{1, 0, 0, 1}
	img := r.Render([]config.ResolvedLine{line})

	c := img.RGBAAt(50, 50)
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(0), c.G)
	assert.Equal(t, uint8(255), img.RGBAAt(5, 5).A)
	assert.Equal(t, uint8(0), img.RGBAAt(5, 5).R)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, img))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}
