package shader

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// structBlockRegex matches struct declarations and captures the name and body.
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// memberRegex captures the type of a struct member after its optional attributes.
	memberRegex = regexp.MustCompile(`^(?:@\w+(?:\([^)]*\))?\s*)*\w+\s*:\s*(.+)$`)

	// entryPointRegex captures the stage attribute and function name of an entry point.
	entryPointRegex = regexp.MustCompile(`(?s)@(vertex|fragment)\b.*?\bfn\s+(\w+)`)

	// resourceDeclRegex captures group, binding, optional address space, name and type of a resource.
	resourceDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseResourceDecls lists every bound resource declared in the source in source order.
//
// Parameters:
//   - source: WGSL source, comments allowed
//
// Returns:
//   - []resourceDecl: the bound resource declarations
func parseResourceDecls(source string) []resourceDecl {
	matches := resourceDeclRegex.FindAllStringSubmatch(stripComments(source), -1)
	decls := make([]resourceDecl, 0, len(matches))
	for _, m := range matches {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		decls = append(decls, resourceDecl{
			group:    group,
			binding:  binding,
			space:    strings.ReplaceAll(strings.TrimSpace(m[3]), " ", ""),
			name:     m[4],
			typeName: strings.ReplaceAll(strings.TrimSpace(m[5]), " ", ""),
		})
	}
	return decls
}

// parseBindGroupLayouts derives one bind group layout descriptor per group from the resource
// declarations of the source. Buffer entries get a MinBindingSize resolved from the struct
// layouts of the same source, and the line uniforms are marked for dynamic offsets.
//
// Parameters:
//   - source: WGSL source
//   - visibility: the shader stages that see every entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
//   - map[int]map[int]string: resource names keyed by group and binding index
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	layouts := structLayouts(parseStructBlocks(stripComments(source)))
	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)

	for _, d := range parseResourceDecls(source) {
		entry := classifyResource(d, visibility)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if l, ok := resolveTypeLayout(d.typeName, layouts); ok {
				entry.Buffer.MinBindingSize = l.size
			}
			if d.group == LineBindGroup && d.name == uniformVarName {
				entry.Buffer.HasDynamicOffset = true
			}
		}
		entries[d.group] = append(entries[d.group], entry)
		if names[d.group] == nil {
			names[d.group] = make(map[int]string)
		}
		names[d.group][d.binding] = d.name
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for g, e := range entries {
		slices.SortFunc(e, func(a, b wgpu.BindGroupLayoutEntry) int {
			return int(a.Binding) - int(b.Binding)
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: e}
	}
	return result, names
}

// parseEntryPoint returns the name of the first entry point of the given stage, or "".
func parseEntryPoint(source string, shaderType ShaderType) string {
	want := "vertex"
	if shaderType == ShaderTypeFragment {
		want = "fragment"
	}
	for _, m := range entryPointRegex.FindAllStringSubmatch(stripComments(source), -1) {
		if m[1] == want {
			return m[2]
		}
	}
	return ""
}

// parseStructBlocks returns every struct of the comment-free source with its member types.
func parseStructBlocks(source string) []structDecl {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]structDecl, 0, len(matches))
	for _, m := range matches {
		s := structDecl{name: m[1]}
		for _, field := range splitAtTopLevelCommas(m[2]) {
			field = strings.TrimSpace(field)
			if field == "" || strings.Contains(field, "@builtin") {
				continue
			}
			if fm := memberRegex.FindStringSubmatch(field); fm != nil {
				s.members = append(s.members, strings.ReplaceAll(strings.TrimSpace(fm[1]), " ", ""))
			}
		}
		structs = append(structs, s)
	}
	return structs
}
