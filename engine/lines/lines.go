package lines

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-lines/engine/renderer"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("oxy.lines")
}

const lineTopology = wgpu.PrimitiveTopologyTriangleStrip

// defaultMaxVertexBuffers is used when the renderer reports no vertex buffer limit.
const defaultMaxVertexBuffers = 8

// LineRenderer is the part of renderer.Renderer the line system draws through.
type LineRenderer interface {
	RegisterPipelines(pipelines ...pipeline.Pipeline) error
	SurfaceSize() (int, int)
	Limits() renderer.Limits
	DrawLines(pipelineKey string, call renderer.LineDrawCall) error
}

var _ LineRenderer = renderer.Renderer(nil)

// Lines draws wide polylines with a caller-supplied pair of annotated shaders.
type Lines interface {
	// Draw validates every record, then issues the segment and endpoint draws of each. No draw is
	// issued when any record is invalid.
	//
	// Parameters:
	//   - records: the polylines to draw
	//
	// Returns:
	//   - error: a *RecordError or *BindingError naming the first invalid record, or a renderer error
	Draw(records ...LineDrawRecord) error

	// Meta returns the analyzed vertex program.
	Meta() *shader.ProgramMeta

	// Variant returns the program variant for key, generating it on first use.
	Variant(key VariantKey) (*ProgramVariant, error)

	// Variants returns the number of generated variants.
	Variants() int

	// Groups returns the sorted caller bind group indices declared by either shader.
	Groups() []int

	// BindGroupLayoutDescriptor returns the layout of a caller group merged across both shaders,
	// for use with renderer.Renderer.InitBindGroup.
	BindGroupLayoutDescriptor(group int) (wgpu.BindGroupLayoutDescriptor, bool)
}

type lines struct {
	renderer LineRenderer

	vertexSource   string
	fragmentSource string
	meta           *shader.ProgramMeta

	// copies is the attribute copy count of each pass.
	copies map[shader.Pass]int

	groupLayouts map[int]wgpu.BindGroupLayoutDescriptor
	variants     *VariantCache

	pipelineOptions []pipeline.PipelineBuilderOption
	debug           bool
	reorder         bool
	validate        bool
}

var _ Lines = &lines{}

// NewLines analyzes the caller shaders and prepares the variant cache. Variants are generated
// lazily on the first draw that needs them.
//
// Parameters:
//   - r: the renderer to draw through
//   - opts: builder options; WithVertexShader and WithFragmentShader are required
//
// Returns:
//   - Lines: the line system
//   - error: *MissingShaderError, *ReservedGroupError, *ConfigurationError or a wrapped analysis error
func NewLines(r LineRenderer, opts ...LinesBuilderOption) (Lines, error) {
	l := &lines{renderer: r}
	for _, opt := range opts {
		opt(l)
	}

	if l.vertexSource == "" {
		return nil, &MissingShaderError{Stage: shader.ShaderTypeVertex}
	}
	if l.fragmentSource == "" {
		return nil, &MissingShaderError{Stage: shader.ShaderTypeFragment}
	}
	if slices.Contains(shader.DeclaredGroups(l.vertexSource), shader.LineBindGroup) {
		return nil, &ReservedGroupError{Stage: shader.ShaderTypeVertex}
	}
	if slices.Contains(shader.DeclaredGroups(l.fragmentSource), shader.LineBindGroup) {
		return nil, &ReservedGroupError{Stage: shader.ShaderTypeFragment}
	}

	meta, err := shader.Analyze(l.vertexSource)
	if err != nil {
		return nil, fmt.Errorf("lines: %w", err)
	}
	l.meta = meta

	if err := checkPipelineOptions(l.pipelineOptions); err != nil {
		return nil, err
	}
	if l.reorder && len(l.pipelineOptions) > 0 {
		tracer().Infof("reorder disabled: %d pipeline options are forwarded", len(l.pipelineOptions))
		l.reorder = false
	}

	l.copies = map[shader.Pass]int{
		shader.PassSegment:  len(shader.GenerateBindings(meta, shader.PassSegment).Copies),
		shader.PassEndpoint: len(shader.GenerateBindings(meta, shader.PassEndpoint).Copies),
	}

	vs := shader.NewShader("lines/caller/vertex", shader.ShaderTypeVertex, l.vertexSource)
	fs := shader.NewShader("lines/caller/fragment", shader.ShaderTypeFragment, l.fragmentSource)
	l.groupLayouts = renderer.MergeBindGroupLayouts(vs.BindGroupLayoutDescriptors(), fs.BindGroupLayoutDescriptors())

	l.variants = NewVariantCache(l.buildVariant)

	tracer().Infof("lines ready: %d attributes, %d segment copies, %d endpoint copies, orientation=%t",
		len(meta.Attributes), l.copies[shader.PassSegment], l.copies[shader.PassEndpoint], meta.Orientation != nil)
	return l, nil
}

// checkPipelineOptions rejects forwarded options that set line-owned pipeline state.
func checkPipelineOptions(opts []pipeline.PipelineBuilderOption) error {
	if len(opts) == 0 {
		return nil
	}
	forwarded := pipeline.NewPipeline("lines/forwarded-options", opts...)
	switch {
	case forwarded.Topology() != lineTopology:
		return &ConfigurationError{Field: "topology", Reason: "line programs draw triangle strips"}
	case forwarded.Shader(shader.ShaderTypeVertex) != nil:
		return &ConfigurationError{Field: "vertexShader", Reason: "the vertex stage is generated"}
	case forwarded.Shader(shader.ShaderTypeFragment) != nil:
		return &ConfigurationError{Field: "fragmentShader", Reason: "the fragment stage is set with WithFragmentShader"}
	case forwarded.VertexLayouts() != nil:
		return &ConfigurationError{Field: "vertexLayouts", Reason: "vertex layouts are derived from attribute buffers"}
	}
	return nil
}

// buildVariant generates the program, shaders and binding descriptors of a variant.
func (l *lines) buildVariant(key VariantKey) (*ProgramVariant, error) {
	prog := shader.AssembleProgram(l.meta, l.fragmentSource, shader.ProgramOptions{
		Pass:       key.Pass(),
		InsertCaps: key.InsertCaps(),
		Mode:       key.Mode(),
		Debug:      l.debug,
	})

	vertexKey := fmt.Sprintf("lines/%s/vertex", key)
	fragmentKey := fmt.Sprintf("lines/%s/fragment", key)
	if l.validate {
		if err := shader.Validate(vertexKey, prog.VertexSource); err != nil {
			return nil, fmt.Errorf("lines: variant %s: %w", key, err)
		}
		if err := shader.Validate(fragmentKey, prog.FragmentSource); err != nil {
			return nil, fmt.Errorf("lines: variant %s: %w", key, err)
		}
	}

	v := &ProgramVariant{
		Key:         key,
		Program:     prog,
		Vertex:      shader.NewShader(vertexKey, shader.ShaderTypeVertex, prog.VertexSource),
		Fragment:    shader.NewShader(fragmentKey, shader.ShaderTypeFragment, prog.FragmentSource),
		Descriptors: describeBindings(prog.Bindings, key.Mode()),
	}
	tracer().Debugf("generated variant %s: %d copies, %d uniform bytes", key, len(prog.Bindings.Copies), prog.UniformSize())
	return v, nil
}

func (l *lines) Meta() *shader.ProgramMeta {
	return l.meta
}

func (l *lines) Variant(key VariantKey) (*ProgramVariant, error) {
	return l.variants.Get(key)
}

func (l *lines) Variants() int {
	return l.variants.Len()
}

func (l *lines) Groups() []int {
	return slices.Sorted(maps.Keys(l.groupLayouts))
}

func (l *lines) BindGroupLayoutDescriptor(group int) (wgpu.BindGroupLayoutDescriptor, bool) {
	d, ok := l.groupLayouts[group]
	return d, ok
}

// maxVertexBuffers is the direct-mode slot budget of the renderer.
func (l *lines) maxVertexBuffers() int {
	limits := l.renderer.Limits()
	n := int(limits.MaxVertexBuffers)
	if n == 0 {
		n = defaultMaxVertexBuffers
	}
	if limits.MaxVertexAttributes > 0 {
		n = min(n, int(limits.MaxVertexAttributes))
	}
	return n
}
