package scene

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-lines/engine/camera"
	"github.com/Carmen-Shannon/oxy-lines/engine/config"
	"github.com/Carmen-Shannon/oxy-lines/engine/geometry"
	"github.com/Carmen-Shannon/oxy-lines/engine/lines"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	limits    renderer.Limits
	buffers   map[string][]byte
	released  []*wgpu.Buffer
	bindInits []int
	writes    []bind_group_provider.BufferWrite
	draws     []renderer.LineDrawCall
	failInit  bool
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{
		limits:  renderer.Limits{MaxVertexBuffers: 16, MaxVertexAttributes: 16},
		buffers: make(map[string][]byte),
	}
}

func (f *fakeRenderer) RegisterPipelines(...pipeline.Pipeline) error { return nil }
func (f *fakeRenderer) SurfaceSize() (int, int)                       { return 800, 600 }
func (f *fakeRenderer) Limits() renderer.Limits                       { return f.limits }

func (f *fakeRenderer) DrawLines(_ string, call renderer.LineDrawCall) error {
	f.draws = append(f.draws, call)
	return nil
}

func (f *fakeRenderer) InitBuffer(label string, _ wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	if f.failInit {
		return nil, errors.New("out of memory")
	}
	f.buffers[label] = append([]byte(nil), data...)
	return &wgpu.Buffer{}, nil
}

func (f *fakeRenderer) UpdateBuffer(*wgpu.Buffer, uint64, []byte) {}

func (f *fakeRenderer) ReleaseBuffer(buf *wgpu.Buffer) {
	f.released = append(f.released, buf)
}

func (f *fakeRenderer) InitBindGroup(p bind_group_provider.BindGroupProvider, _ wgpu.BindGroupLayoutDescriptor, _ map[int]uint64) error {
	f.bindInits = append(f.bindInits, p.Group())
	p.SetBindGroup(&wgpu.BindGroup{})
	return nil
}

func (f *fakeRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	f.writes = append(f.writes, writes...)
}

func zigzag() config.ResolvedLine {
	return config.ResolvedLine{
		Name:   "zigzag",
		Style:  geometry.Style{Join: geometry.JoinRound, Cap: geometry.CapRound},
		Width:  8,
		Color:  [4]float64{1, 0, 0, 1},
		Points: []geometry.Vec2{{100, 100}, {200, 100}, {200, 200}, {300, 200}},
	}
}

func newPolylineScene(t *testing.T, r *fakeRenderer, opts ...SceneBuilderOption) Scene {
	t.Helper()
	l, err := NewPolylineLines(r)
	require.NoError(t, err)
	return NewScene("test", camera.NewCamera(), r, l, opts...)
}

func TestNewSceneBindsCamera(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.scene")
	defer teardown()

	r := newFakeRenderer()
	s := newPolylineScene(t, r)
	assert.Equal(t, []int{1}, r.bindInits)
	w, h := s.Camera().Viewport()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)

	s.Prepare(0.016)
	require.Len(t, r.writes, 1)
	assert.Len(t, r.writes[0].Data, 80)
	assert.Equal(t, s.Camera().BindGroupProvider(), r.writes[0].Provider)
}

func TestPackPolyline(t *testing.T) {
	line := zigzag()
	line.Points = []geometry.Vec2{{0, 0}, {1, 0}, {math.NaN(), math.NaN()}, {2, 0}, {3, 0}, {4, 0}}
	p := packPolyline(line)

	assert.Equal(t, 8, p.vertexCount)
	require.Len(t, p.segments, 8*polylineFloats)
	assert.True(t, math.IsNaN(float64(p.segments[0])))
	assert.Equal(t, []float32{0, 0, 4, 1, 0, 0, 1}, p.segments[polylineFloats:2*polylineFloats])
	assert.True(t, math.IsNaN(float64(p.segments[3*polylineFloats])))

	assert.Equal(t, 4, p.endpointCount)
	require.Len(t, p.endpoints, 4*3*polylineFloats)
	window := func(i, point int) []float32 {
		off := (i*3 + point) * polylineFloats
		return p.endpoints[off : off+polylineFloats]
	}
	assert.Equal(t, float32(0), window(0, 0)[0])
	assert.True(t, math.IsNaN(float64(window(0, 2)[0])))
	assert.Equal(t, float32(1), window(1, 0)[0])
	assert.Equal(t, float32(0), window(1, 1)[0])
	assert.Equal(t, float32(4), window(2, 2)[0])
	assert.Equal(t, float32(4), window(3, 0)[0])
	assert.Equal(t, float32(2), window(3, 2)[0])

	line.InsertCaps = true
	p = packPolyline(line)
	assert.Zero(t, p.endpointCount)
	assert.Empty(t, p.endpoints)
}

func TestAddPolylineAndDraw(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.scene")
	defer teardown()

	r := newFakeRenderer()
	extra := bind_group_provider.NewBindGroupProvider("extra", bind_group_provider.WithGroup(2))
	s := newPolylineScene(t, r, WithBindGroups(extra), WithActive(true))
	assert.True(t, s.Active())

	id, err := s.AddPolyline(zigzag())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())
	assert.Len(t, r.buffers["zigzag segments"], 6*polylineStride)
	assert.Len(t, r.buffers["zigzag endpoints"], 6*polylineStride)

	rec, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, 6, rec.VertexCount)
	assert.Equal(t, 2, rec.EndpointCount)
	assert.Equal(t, uint64(polylineStride), rec.VertexAttributes["color"].Stride)
	assert.Equal(t, uint64(12), rec.VertexAttributes["color"].Offset)

	require.NoError(t, s.DrawCalls())
	// segments, start caps, end caps
	require.Len(t, r.draws, 3)
	assert.Equal(t, uint32(3), r.draws[0].InstanceCount)
	assert.Equal(t, uint32(1), r.draws[1].InstanceCount)
	assert.Equal(t, uint32(1), r.draws[2].InstanceCount)
	for _, d := range r.draws {
		require.Len(t, d.BindGroups, 2)
		assert.Equal(t, 1, d.BindGroups[0].Group())
		assert.Equal(t, extra, d.BindGroups[1])
	}

	stored, _ := s.Get(id)
	assert.Empty(t, stored.BindGroups)

	s.Remove(id)
	assert.Zero(t, s.Count())
	assert.Len(t, r.released, 2)
}

func TestAddPolylineErrors(t *testing.T) {
	r := newFakeRenderer()
	s := newPolylineScene(t, r)

	line := zigzag()
	line.Points = line.Points[:1]
	_, err := s.AddPolyline(line)
	assert.Error(t, err)

	r.failInit = true
	_, err = s.AddPolyline(zigzag())
	assert.Error(t, err)
	assert.Zero(t, s.Count())
}

const plainVertex = `
#pragma lines: attribute vec2 xy
#pragma lines: attribute float width
#pragma lines: position = getPosition(xy)
#pragma lines: width = getWidth(width)
fn getPosition(p: vec2f) -> vec4f { return vec4f(p, 0.0, 1.0); }
fn getWidth(w: f32) -> f32 { return w; }
`

const plainFragment = `
@fragment
fn main(in: LineVertexOutput) -> @location(0) vec4f {
  return vec4f(1.0);
}
`

func TestSceneWithoutCameraGroup(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.scene")
	defer teardown()

	r := newFakeRenderer()
	l, err := lines.NewLines(r, lines.WithVertexShader(plainVertex), lines.WithFragmentShader(plainFragment))
	require.NoError(t, err)

	buf := &wgpu.Buffer{}
	record := lines.LineDrawRecord{
		VertexCount: 5,
		VertexAttributes: map[string]lines.AttributeBuffer{
			"xy":    {Buffer: buf, Stride: 12},
			"width": {Buffer: buf, Offset: 8, Stride: 12},
		},
	}
	s := NewScene("plain", camera.NewCamera(), r, l, WithRecords(record, record))
	assert.Empty(t, r.bindInits)
	assert.Equal(t, 2, s.Count())

	s.Prepare(0)
	assert.Empty(t, r.writes)

	require.NoError(t, s.DrawCalls())
	require.Len(t, r.draws, 2)
	assert.Empty(t, r.draws[0].BindGroups)

	bad := record
	bad.VertexCount = -1
	require.True(t, s.Replace(2, bad))
	assert.False(t, s.Replace(99, bad))
	err = s.DrawCalls()
	var recErr *lines.RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, 1, recErr.Record)
	assert.Contains(t, err.Error(), `scene "plain"`)

	s.Clear()
	assert.Zero(t, s.Count())
	assert.NoError(t, s.DrawCalls())
}

func TestNewScenePanics(t *testing.T) {
	r := newFakeRenderer()
	l, err := NewPolylineLines(r)
	require.NoError(t, err)
	assert.Panics(t, func() { NewScene("x", nil, r, l) })
	assert.Panics(t, func() { NewScene("x", camera.NewCamera(), nil, l) })
	assert.Panics(t, func() { NewScene("x", camera.NewCamera(), r, nil) })
}

func TestPolylineVariantsCompile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.scene")
	defer teardown()

	vertex, fragment := PolylineShaders()
	meta, err := shader.Analyze(vertex)
	require.NoError(t, err)

	for _, pass := range []shader.Pass{shader.PassSegment, shader.PassEndpoint} {
		for _, insertCaps := range []bool{false, true} {
			for _, mode := range []shader.BindingMode{shader.BindingDirect, shader.BindingIndirect} {
				for _, debug := range []bool{false, true} {
					name := fmt.Sprintf("%s/%s/caps=%v/debug=%v", pass, mode, insertCaps, debug)
					t.Run(name, func(t *testing.T) {
						p := shader.AssembleProgram(meta, fragment, shader.ProgramOptions{
							Pass: pass, InsertCaps: insertCaps, Mode: mode, Debug: debug,
						})
						assert.NoError(t, shader.Validate(name+"/vertex", p.VertexSource))
						assert.NoError(t, shader.Validate(name+"/fragment", p.FragmentSource))
					})
				}
			}
		}
	}
}
