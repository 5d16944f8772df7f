// Package preview rasterizes line documents on the CPU with the reference geometry of the vertex
// program. It exists to inspect styles without a GPU and to check the synthesis for congruence.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-lines/engine/config"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/vector"
)

func tracer() tracing.Trace {
	return tracing.Select("oxy.preview")
}

const (
	defaultWidth     = 512
	defaultHeight    = 512
	defaultWorkers   = 4
	defaultChunkSize = 64
)

// Renderer rasterizes resolved lines into coverage masks and images.
type Renderer interface {
	// Size returns the image size in pixels.
	Size() (int, int)

	// Coverage rasterizes one line into an alpha mask. Overlapping triangles of the line do not
	// accumulate beyond full coverage.
	//
	// Parameters:
	//   - line: the line to rasterize
	//
	// Returns:
	//   - *image.Alpha: the coverage mask
	Coverage(line config.ResolvedLine) *image.Alpha

	// Render composites every line in order over the background.
	//
	// Parameters:
	//   - lines: the lines to draw
	//
	// Returns:
	//   - *image.RGBA: the composited image
	Render(lines []config.ResolvedLine) *image.RGBA
}

type renderer struct {
	width, height int
	workers       int
	chunkSize     int
	background    color.Color

	pool worker.DynamicWorkerPool
	mu   sync.Mutex
	task int
}

var _ Renderer = &renderer{}

// NewRenderer creates a preview renderer. Without options it renders 512x512 images over
// transparent black with four workers.
//
// Parameters:
//   - opts: builder options applied in order
//
// Returns:
//   - Renderer: the configured renderer
func NewRenderer(opts ...RendererBuilderOption) Renderer {
	r := &renderer{
		width:      defaultWidth,
		height:     defaultHeight,
		workers:    defaultWorkers,
		chunkSize:  defaultChunkSize,
		background: color.Transparent,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.width <= 0 || r.height <= 0 {
		panic(fmt.Sprintf("preview: invalid image size %dx%d", r.width, r.height))
	}
	r.pool = worker.NewDynamicWorkerPool(max(1, r.workers), 256, 1*time.Second)
	return r
}

func (r *renderer) Size() (int, int) {
	return r.width, r.height
}

func (r *renderer) Coverage(line config.ResolvedLine) *image.Alpha {
	resolution := [2]float64{float64(r.width), float64(r.height)}
	instances := lineInstances(line, resolution)
	tris := r.evaluate(instances)

	rast := vector.NewRasterizer(r.width, r.height)
	rast.DrawOp = draw.Src
	for _, t := range tris {
		rast.MoveTo(float32(t[0][0]), float32(t[0][1]))
		rast.LineTo(float32(t[1][0]), float32(t[1][1]))
		rast.LineTo(float32(t[2][0]), float32(t[2][1]))
		rast.ClosePath()
	}
	mask := image.NewAlpha(image.Rect(0, 0, r.width, r.height))
	rast.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	tracer().Debugf("line %s: %d instances, %d triangles", line.Name, len(instances), len(tris))
	return mask
}

// evaluate synthesizes the triangles of all instances on the worker pool. Chunks are merged in
// instance order so the result does not depend on scheduling.
func (r *renderer) evaluate(instances []instance) []triangle {
	chunks := (len(instances) + r.chunkSize - 1) / r.chunkSize
	results := make([][]triangle, chunks)

	var wg sync.WaitGroup
	for c := range chunks {
		lo := c * r.chunkSize
		hi := min(lo+r.chunkSize, len(instances))
		wg.Add(1)
		r.pool.SubmitTask(worker.Task{
			ID: r.nextTaskID(),
			Do: func() (any, error) {
				defer wg.Done()
				var tris []triangle
				for _, in := range instances[lo:hi] {
					tris = append(tris, in.triangles()...)
				}
				results[c] = tris
				return nil, nil
			},
		})
	}
	wg.Wait()

	var out []triangle
	for _, tris := range results {
		out = append(out, tris...)
	}
	return out
}

func (r *renderer) nextTaskID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.task++
	return r.task
}

func (r *renderer) Render(lines []config.ResolvedLine) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.background), image.Point{}, draw.Src)
	for _, l := range lines {
		mask := r.Coverage(l)
		src := image.NewUniform(color.NRGBA{
			R: channel(l.Color[0]), G: channel(l.Color[1]), B: channel(l.Color[2]), A: channel(l.Color[3]),
		})
		draw.DrawMask(img, img.Bounds(), src, image.Point{}, mask, image.Point{}, draw.Over)
	}
	tracer().Infof("rendered %d lines at %dx%d", len(lines), r.width, r.height)
	return img
}

func channel(v float64) uint8 {
	return uint8(min(1, max(0, v))*255 + 0.5)
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("preview: cannot encode png: %w", err)
	}
	return nil
}

// Compare counts the pixels whose coverage differs by more than tolerance.
//
// Parameters:
//   - a: the first mask
//   - b: the second mask, of the same bounds
//   - tolerance: the largest ignored difference
//
// Returns:
//   - int: the number of differing pixels
//   - error: an error if the bounds differ
func Compare(a, b *image.Alpha, tolerance uint8) (int, error) {
	if a.Bounds() != b.Bounds() {
		return 0, fmt.Errorf("preview: mask bounds differ: %v and %v", a.Bounds(), b.Bounds())
	}
	diff := 0
	for i := range a.Pix {
		d := int(a.Pix[i]) - int(b.Pix[i])
		if d < 0 {
			d = -d
		}
		if d > int(tolerance) {
			diff++
		}
	}
	return diff, nil
}

// Covered counts the pixels with any coverage.
func Covered(m *image.Alpha) int {
	n := 0
	for _, v := range m.Pix {
		if v > 0 {
			n++
		}
	}
	return n
}
