package lines

import "github.com/Carmen-Shannon/oxy-lines/engine/renderer/pipeline"

// LinesBuilderOption is a functional option applied to the line system during NewLines.
type LinesBuilderOption func(*lines)

// WithVertexShader sets the annotated vertex WGSL: attribute, property and varying pragmas
// followed by the functions they name.
//
// Parameters:
//   - source: the vertex WGSL
//
// Returns:
//   - LinesBuilderOption: the option
func WithVertexShader(source string) LinesBuilderOption {
	return func(l *lines) { l.vertexSource = source }
}

// WithFragmentShader sets the fragment WGSL. Its entry point takes a LineVertexOutput, which is
// declared ahead of the source.
//
// Parameters:
//   - source: the fragment WGSL
//
// Returns:
//   - LinesBuilderOption: the option
func WithFragmentShader(source string) LinesBuilderOption {
	return func(l *lines) { l.fragmentSource = source }
}

// WithDebug adds the instanceID and triStripCoord varyings to every variant.
func WithDebug(debug bool) LinesBuilderOption {
	return func(l *lines) { l.debug = debug }
}

// WithReorder lets Draw group draws by resolved pipeline instead of keeping record order, so each
// pipeline is bound once per Draw. Segment pipelines draw before cap pipelines, and round joins or
// caps draw first within a pipeline. It is ignored when pipeline options are forwarded.
func WithReorder(reorder bool) LinesBuilderOption {
	return func(l *lines) { l.reorder = reorder }
}

// WithPipelineOptions forwards render state such as depth and blending to every variant pipeline.
// Options setting the topology, shaders or vertex layouts make NewLines fail.
//
// Parameters:
//   - opts: the pipeline options to forward
//
// Returns:
//   - LinesBuilderOption: the option
func WithPipelineOptions(opts ...pipeline.PipelineBuilderOption) LinesBuilderOption {
	return func(l *lines) { l.pipelineOptions = append(l.pipelineOptions, opts...) }
}

// WithShaderValidation compiles every generated variant through naga before it is used.
func WithShaderValidation(validate bool) LinesBuilderOption {
	return func(l *lines) { l.validate = validate }
}
