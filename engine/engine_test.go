package engine

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-lines/engine/camera"
	"github.com/Carmen-Shannon/oxy-lines/engine/scene"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFrames struct {
	log      *[]string
	beginErr error
	resized  [2]int
}

func (f *fakeFrames) BeginFrame() error {
	*f.log = append(*f.log, "begin")
	return f.beginErr
}
func (f *fakeFrames) EndFrame()                { *f.log = append(*f.log, "end") }
func (f *fakeFrames) Present()                 { *f.log = append(*f.log, "present") }
func (f *fakeFrames) Resize(width, height int) { f.resized = [2]int{width, height} }

// fakeScene overrides the parts of scene.Scene the engine uses.
type fakeScene struct {
	scene.Scene
	name    string
	active  bool
	records int
	drawErr error
	cam     camera.Camera
	log     *[]string
}

func (s *fakeScene) Active() bool          { return s.active }
func (s *fakeScene) Count() int            { return s.records }
func (s *fakeScene) Camera() camera.Camera { return s.cam }
func (s *fakeScene) Prepare(float32)       { *s.log = append(*s.log, "prepare "+s.name) }
func (s *fakeScene) DrawCalls() error {
	*s.log = append(*s.log, "draw "+s.name)
	return s.drawErr
}

func TestRenderFrameOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.engine")
	defer teardown()

	var log []string
	r := &fakeFrames{log: &log}
	back := &fakeScene{name: "back", active: true, records: 2, cam: camera.NewCamera(), log: &log}
	front := &fakeScene{name: "front", active: true, records: 3, cam: camera.NewCamera(), log: &log}
	hidden := &fakeScene{name: "hidden", records: 7, cam: camera.NewCamera(), log: &log}

	e := NewEngine(WithRenderer(r), WithScene(10, front), WithScene(-1, back), WithScene(0, hidden)).(*engine)
	n := e.renderFrame(0.016)

	assert.Equal(t, 5, n)
	assert.Equal(t, []string{
		"prepare back", "prepare front",
		"begin",
		"draw back", "draw front",
		"end", "present",
	}, log)
}

func TestRenderFrameSceneError(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.engine")
	defer teardown()

	var log []string
	r := &fakeFrames{log: &log}
	bad := &fakeScene{name: "bad", active: true, records: 4, drawErr: errors.New("boom"), log: &log}
	good := &fakeScene{name: "good", active: true, records: 1, log: &log}

	e := NewEngine(WithRenderer(r), WithScene(0, bad), WithScene(1, good)).(*engine)
	assert.Equal(t, 1, e.renderFrame(0))
	assert.Contains(t, log, "draw good")
	assert.Equal(t, "present", log[len(log)-1])
}

func TestRenderFrameSkipped(t *testing.T) {
	var log []string
	r := &fakeFrames{log: &log, beginErr: errors.New("surface lost")}
	s := &fakeScene{name: "s", active: true, records: 1, log: &log}

	e := NewEngine(WithRenderer(r), WithScene(0, s)).(*engine)
	assert.Zero(t, e.renderFrame(0))
	assert.NotContains(t, log, "draw s")
	assert.NotContains(t, log, "present")

	log = log[:0]
	s.active = false
	assert.Zero(t, e.renderFrame(0))
	assert.Empty(t, log)
}

func TestResizeUpdatesCameras(t *testing.T) {
	var log []string
	r := &fakeFrames{log: &log}
	cam := camera.NewCamera()
	e := NewEngine(WithRenderer(r), WithScene(0, &fakeScene{cam: cam, log: &log}), WithScene(1, &fakeScene{log: &log})).(*engine)

	e.resize(1024, 512)
	assert.Equal(t, [2]int{1024, 512}, r.resized)
	w, h := cam.Viewport()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 512, h)

	e.resize(0, 0)
	assert.Equal(t, [2]int{1024, 512}, r.resized)
}

func TestSceneRegistry(t *testing.T) {
	var log []string
	e := NewEngine()
	s := &fakeScene{name: "a", log: &log}
	e.AddScene(3, s)
	require.Equal(t, scene.Scene(s), e.Scene(3))

	m := e.Scenes()
	delete(m, 3)
	assert.NotNil(t, e.Scene(3))

	e.RemoveScene(3)
	assert.Nil(t, e.Scene(3))
	assert.Nil(t, e.Renderer())
}

func TestRates(t *testing.T) {
	e := NewEngine(WithTickRate(0), WithRenderFrameLimit(50)).(*engine)
	assert.InDelta(t, 1.0/60, e.tickInterval.Seconds(), 1e-6)
	assert.InDelta(t, 0.02, e.minFrameTime.Seconds(), 1e-9)

	e.SetTickRate(120)
	assert.InDelta(t, 1.0/120, e.tickInterval.Seconds(), 1e-6)
	e.SetRenderFrameLimit(0)
	assert.Zero(t, e.minFrameTime)

	e.Quit()
	e.Quit()
	select {
	case <-e.done:
	default:
		t.Fatal("quit channel still open")
	}
}
