package preview

import "image/color"

// RendererBuilderOption is a functional option applied to a preview renderer during NewRenderer.
type RendererBuilderOption func(*renderer)

// WithSize sets the image size in pixels. It is also the resolution of the line uniforms.
func WithSize(width, height int) RendererBuilderOption {
	return func(r *renderer) {
		r.width = width
		r.height = height
	}
}

// WithWorkers sets the number of workers evaluating instances.
func WithWorkers(n int) RendererBuilderOption {
	return func(r *renderer) { r.workers = n }
}

// WithChunkSize sets the number of instances evaluated per worker task.
func WithChunkSize(n int) RendererBuilderOption {
	return func(r *renderer) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// WithBackground sets the color Render clears to.
func WithBackground(c color.Color) RendererBuilderOption {
	return func(r *renderer) { r.background = c }
}
