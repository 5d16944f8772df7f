package scene

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-lines/common"
	"github.com/Carmen-Shannon/oxy-lines/engine/camera"
	"github.com/Carmen-Shannon/oxy-lines/engine/config"
	"github.com/Carmen-Shannon/oxy-lines/engine/lines"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("oxy.scene")
}

// Renderer is the part of renderer.Renderer a scene uses.
type Renderer interface {
	lines.LineRenderer
	InitBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error)
	UpdateBuffer(buf *wgpu.Buffer, offset uint64, data []byte)
	ReleaseBuffer(buf *wgpu.Buffer)
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error
	WriteBuffers(writes []bind_group_provider.BufferWrite)
}

var _ Renderer = renderer.Renderer(nil)

// Scene is a set of line draws rendered with one line system and camera. Draws are issued in the
// order they were added. Scenes can be swapped through the Active flag.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// Lines returns the line system the scene draws with.
	Lines() lines.Lines

	// Add registers a draw record. The camera and the scene bind groups are bound in addition to
	// the record's own bind groups.
	//
	// Parameters:
	//   - record: the draw record; its buffers stay owned by the caller
	//
	// Returns:
	//   - uint64: the assigned ID
	Add(record lines.LineDrawRecord) uint64

	// AddPolyline uploads a resolved line into scene-owned buffers for the program of
	// PolylineShaders and registers its draw. The buffers are released on Remove.
	//
	// Parameters:
	//   - line: the line in world coordinates
	//
	// Returns:
	//   - uint64: the assigned ID
	//   - error: an error if the line has fewer than two points or a buffer cannot be created
	AddPolyline(line config.ResolvedLine) (uint64, error)

	// Get returns the record registered under id.
	Get(id uint64) (lines.LineDrawRecord, bool)

	// Replace swaps the record registered under id, keeping its draw position.
	//
	// Returns:
	//   - bool: false if id is unknown
	Replace(id uint64, record lines.LineDrawRecord) bool

	// Remove unregisters a record and releases the buffers the scene created for it.
	Remove(id uint64)

	// Count returns the number of registered records.
	Count() int

	// Clear removes all records.
	Clear()

	// Prepare uploads the camera uniform. Call once per frame before DrawCalls.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	Prepare(deltaTime float32)

	// DrawCalls draws every record with one lines.Lines.Draw call.
	// Must be called within a BeginFrame/EndFrame block on the renderer.
	//
	// Returns:
	//   - error: the first record or draw error
	DrawCalls() error
}

type entry struct {
	record  lines.LineDrawRecord
	buffers []*wgpu.Buffer
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	cam   camera.Camera
	r     Renderer
	lines lines.Lines

	// cameraBound is set when a shader declares the camera's group.
	cameraBound bool
	bindGroups  []bind_group_provider.BindGroupProvider

	entries map[uint64]*entry
	order   []uint64
	nextID  uint64

	// recordPool is reused by DrawCalls to avoid per-frame allocations.
	recordPool []lines.LineDrawRecord
}

var _ Scene = &scene{}

// NewScene creates a scene drawing with l through r. The camera's bind group is initialized from
// the layout l reports for the camera provider's group; a program that does not declare that
// group draws without it. NewScene panics if any argument is nil or the camera bind group cannot
// be created.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach
//   - r: the renderer to draw through
//   - l: the line system to draw with
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r Renderer, l lines.Lines, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}
	if l == nil {
		panic("scene: NewScene requires a non-nil Lines")
	}

	s := &scene{
		mu:      &sync.RWMutex{},
		name:    name,
		cam:     cam,
		r:       r,
		lines:   l,
		entries: make(map[uint64]*entry),
		nextID:  1,
	}
	for _, option := range options {
		option(s)
	}

	if w, h := r.SurfaceSize(); w > 0 && h > 0 {
		vw, vh := cam.Viewport()
		if vw != w || vh != h {
			cam.SetViewport(w, h)
		}
	}

	if bgp := cam.BindGroupProvider(); bgp != nil {
		if desc, ok := l.BindGroupLayoutDescriptor(bgp.Group()); ok {
			if err := r.InitBindGroup(bgp, desc, nil); err != nil {
				panic(fmt.Sprintf("scene: failed to init camera bind group: %v", err))
			}
			s.cameraBound = true
		}
	}
	tracer().Debugf("scene %q created, camera bound: %t", name, s.cameraBound)
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) Lines() lines.Lines {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lines
}

func (s *scene) Add(record lines.LineDrawRecord) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(&entry{record: record})
}

// add registers e. Caller must hold the write lock.
func (s *scene) add(e *entry) uint64 {
	id := s.nextID
	s.nextID++
	s.entries[id] = e
	s.order = append(s.order, id)
	return id
}

func (s *scene) AddPolyline(line config.ResolvedLine) (uint64, error) {
	if len(line.Points) < 2 {
		return 0, fmt.Errorf("scene: polyline %q needs at least two points, got %d", line.Name, len(line.Points))
	}
	packed := packPolyline(line)
	usage := wgpu.BufferUsageVertex | wgpu.BufferUsageStorage

	segBuf, err := s.r.InitBuffer(line.Name+" segments", usage, common.SliceToBytes(packed.segments))
	if err != nil {
		return 0, fmt.Errorf("scene: polyline %q: %w", line.Name, err)
	}
	e := &entry{
		buffers: []*wgpu.Buffer{segBuf},
		record: lines.LineDrawRecord{
			Join:             line.Style.Join,
			Cap:              line.Style.Cap,
			JoinResolution:   line.Style.JoinResolution,
			CapResolution:    line.Style.CapResolution,
			MiterLimit:       line.Style.MiterLimit,
			InsertCaps:       line.InsertCaps,
			VertexCount:      packed.vertexCount,
			VertexAttributes: polylineAttributes(lines.Raw(segBuf)),
		},
	}
	if packed.endpointCount > 0 {
		endBuf, err := s.r.InitBuffer(line.Name+" endpoints", usage, common.SliceToBytes(packed.endpoints))
		if err != nil {
			s.r.ReleaseBuffer(segBuf)
			return 0, fmt.Errorf("scene: polyline %q: %w", line.Name, err)
		}
		e.buffers = append(e.buffers, endBuf)
		e.record.EndpointCount = packed.endpointCount
		e.record.EndpointAttributes = polylineAttributes(lines.Raw(endBuf))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.add(e)
	tracer().Debugf("polyline %q added as %d: %d points, %d caps", line.Name, id, len(line.Points), packed.endpointCount)
	return id, nil
}

func (s *scene) Get(id uint64) (lines.LineDrawRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return lines.LineDrawRecord{}, false
	}
	return e.record, true
}

func (s *scene) Replace(id uint64, record lines.LineDrawRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	e.record = record
	return true
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return
	}
	for _, buf := range e.buffers {
		s.r.ReleaseBuffer(buf)
	}
	delete(s.entries, id)
	s.order = slices.DeleteFunc(s.order, func(v uint64) bool { return v == id })
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		for _, buf := range e.buffers {
			s.r.ReleaseBuffer(buf)
		}
	}
	clear(s.entries)
	s.order = s.order[:0]
}

func (s *scene) Prepare(deltaTime float32) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.cameraBound {
		return
	}
	u := s.cam.Uniform()
	s.r.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: s.cam.BindGroupProvider(),
		Binding:  0,
		Offset:   0,
		Data:     u.Marshal(),
	}})
}

func (s *scene) DrawCalls() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) == 0 {
		return nil
	}
	shared := s.bindGroups
	if s.cameraBound {
		shared = append([]bind_group_provider.BindGroupProvider{s.cam.BindGroupProvider()}, shared...)
	}

	records := s.recordPool[:0]
	for _, id := range s.order {
		rec := s.entries[id].record
		if len(shared) > 0 {
			rec.BindGroups = append(slices.Clip(shared), rec.BindGroups...)
		}
		records = append(records, rec)
	}
	s.recordPool = records

	if err := s.lines.Draw(records...); err != nil {
		return fmt.Errorf("scene %q: %w", s.name, err)
	}
	return nil
}
