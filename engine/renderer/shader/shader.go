package shader

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
	"github.com/viant/afs"
)

// ShaderType identifies the pipeline stage a shader module is compiled for.
type ShaderType int

const (
	// ShaderTypeVertex is the stage running the generated line geometry entry point.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the caller's fragment stage fed by LineVertexOutput.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	if t == ShaderTypeFragment {
		return "fragment"
	}
	return "vertex"
}

// shader is the implementation of the Shader interface.
// It holds the assembled WGSL of one stage together with the layouts reflected from it.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	entryPoint                 string
	module                     *wgpu.ShaderModuleDescriptor
}

// Shader is one compiled stage of a line program variant. It exposes the WGSL, its entry
// point and the bind group layouts declared by the source, which the renderer merges across
// stages when it builds the pipeline layout.
type Shader interface {
	// Key retrieves the unique identifier of the shader, used as the module label.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL source of the shader.
	//
	// Returns:
	//   - string: the WGSL source code
	Source() string

	// BindGroupLayoutDescriptors retrieves the bind group layouts reflected from the source, keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// Groups returns the sorted indices of every bind group the source declares.
	//
	// Returns:
	//   - []int: the declared group indices
	Groups() []int

	// BindGroupVarName retrieves the resource name declared at a group and binding, or "".
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the declared resource name
	BindGroupVarName(group, binding int) string

	// EntryPoint returns the name of the stage's entry point.
	//
	// Returns:
	//   - string: the entry point name, or "" if none was found
	EntryPoint() string

	// Module returns the shader module descriptor built from the source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the WGSL module descriptor labelled with the key
	Module() *wgpu.ShaderModuleDescriptor

	// ShaderType returns the stage of the shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType
}

var _ Shader = &shader{}

// NewShader reflects a WGSL stage into a Shader. It panics if the source is empty.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the pipeline stage of the source
//   - source: the complete WGSL of the stage
//
// Returns:
//   - Shader: the reflected shader
func NewShader(key string, shaderType ShaderType, source string) Shader {
	if source == "" {
		panic(fmt.Sprintf("shader: %s must have a non-empty source", key))
	}
	visibility := wgpu.ShaderStageVertex
	if shaderType == ShaderTypeFragment {
		visibility = wgpu.ShaderStageFragment
	}
	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
		entryPoint: parseEntryPoint(source, shaderType),
		module: &wgpu.ShaderModuleDescriptor{
			Label:          key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
		},
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(source, visibility)
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) Groups() []int {
	return slices.Sorted(maps.Keys(s.bindGroupLayoutDescriptors))
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

// DeclaredGroups returns the sorted bind group indices used by caller WGSL source.
func DeclaredGroups(source string) []int {
	seen := make(map[int]struct{})
	for _, d := range parseResourceDecls(source) {
		seen[d.group] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Validate compiles WGSL through naga and reports the first front-end or validation error.
//
// Parameters:
//   - key: the shader key used in the error message
//   - source: the WGSL to validate
//
// Returns:
//   - error: nil when the source compiles
func Validate(key, source string) error {
	if _, err := naga.Compile(source); err != nil {
		return fmt.Errorf("shader %s: %w", key, err)
	}
	return nil
}

// LoadSource downloads WGSL from any location afs understands (a local path, file:// or mem:// URLs).
//
// Parameters:
//   - ctx: context of the download
//   - location: the URL or path of the source
//
// Returns:
//   - string: the downloaded source
//   - error: the download error, if any
func LoadSource(ctx context.Context, location string) (string, error) {
	data, err := afs.New().DownloadWithURL(ctx, location)
	if err != nil {
		return "", fmt.Errorf("shader: failed to load source %q: %w", location, err)
	}
	return string(data), nil
}
