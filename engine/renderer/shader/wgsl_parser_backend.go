package shader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// scalarLayouts holds the size and alignment of the scalar types allowed in buffers.
var scalarLayouts = map[string]typeLayout{
	"f32": {4, 4}, "i32": {4, 4}, "u32": {4, 4}, "f16": {2, 2},
}

// vectorSuffixes maps short vector suffixes to their scalar type.
var vectorSuffixes = map[string]string{"f": "f32", "i": "i32", "u": "u32", "h": "f16"}

// roundUpAlign rounds value up to the next multiple of a power-of-two alignment.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// vectorLayout returns the layout of an n-component vector of the given scalar.
func vectorLayout(n int, scalar typeLayout) typeLayout {
	size := uint64(n) * scalar.size
	align := size
	if n == 3 {
		align = 4 * scalar.size
	}
	return typeLayout{size: size, align: align}
}

// resolveTypeLayout resolves scalars, vectors, matrices, fixed and runtime arrays and known structs.
// A runtime-sized array resolves to a single element, the smallest binding that is still useful.
//
// Parameters:
//   - t: the type name with whitespace removed
//   - structs: the layouts of already resolved structs
//
// Returns:
//   - typeLayout: the layout of the type
//   - bool: false when the type is unknown
func resolveTypeLayout(t string, structs map[string]typeLayout) (typeLayout, bool) {
	if l, ok := scalarLayouts[t]; ok {
		return l, true
	}
	if l, ok := structs[t]; ok {
		return l, true
	}
	if strings.HasPrefix(t, "atomic<") {
		return typeLayout{4, 4}, true
	}

	base, param := splitTypeParams(t)
	switch {
	case len(base) >= 4 && strings.HasPrefix(base, "vec"):
		n, scalar, ok := shapeOf(base[3:], param)
		if !ok {
			return typeLayout{}, false
		}
		return vectorLayout(n, scalar), true

	case strings.HasPrefix(base, "mat") && len(base) >= 6 && base[4] == 'x':
		cols, _ := strconv.Atoi(base[3:4])
		rows, scalar, ok := shapeOf(base[5:], param)
		if !ok || cols < 2 {
			return typeLayout{}, false
		}
		col := vectorLayout(rows, scalar)
		return typeLayout{size: uint64(cols) * roundUpAlign(col.align, col.size), align: col.align}, true

	case base == "array":
		elem, count, sized := strings.Cut(param, ",")
		el, ok := resolveTypeLayout(elem, structs)
		if !ok {
			return typeLayout{}, false
		}
		stride := roundUpAlign(el.align, el.size)
		if !sized {
			return typeLayout{size: stride, align: el.align}, true
		}
		n, err := strconv.ParseUint(count, 10, 64)
		if err != nil {
			return typeLayout{}, false
		}
		return typeLayout{size: n * stride, align: el.align}, true
	}
	return typeLayout{}, false
}

// shapeOf decodes the component count and scalar of `2f`, `3` + `<f32>` and similar suffixes.
func shapeOf(suffix, param string) (int, typeLayout, bool) {
	if suffix == "" {
		return 0, typeLayout{}, false
	}
	n, err := strconv.Atoi(suffix[:1])
	if err != nil || n < 2 || n > 4 {
		return 0, typeLayout{}, false
	}
	scalarName := param
	if len(suffix) > 1 {
		scalarName = vectorSuffixes[suffix[1:]]
	}
	scalar, ok := scalarLayouts[scalarName]
	return n, scalar, ok
}

// structLayouts resolves struct layouts in dependency order. A trailing runtime-sized array
// contributes a single element.
func structLayouts(structs []structDecl) map[string]typeLayout {
	resolved := make(map[string]typeLayout, len(structs))
	pending := structs
	for len(pending) > 0 {
		var next []structDecl
		for _, s := range pending {
			if l, ok := structLayout(s, resolved); ok {
				resolved[s.name] = l
			} else {
				next = append(next, s)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return resolved
}

func structLayout(s structDecl, known map[string]typeLayout) (typeLayout, bool) {
	var offset uint64
	align := uint64(1)
	for _, m := range s.members {
		l, ok := resolveTypeLayout(m, known)
		if !ok {
			return typeLayout{}, false
		}
		offset = roundUpAlign(l.align, offset) + l.size
		align = max(align, l.align)
	}
	return typeLayout{size: roundUpAlign(align, offset), align: align}, true
}

// classifyResource builds the layout entry of a resource from its address space and type.
// Only the resource kinds a line program can bind are recognized: uniform and storage buffers,
// samplers and sampled 2D textures.
func classifyResource(d resourceDecl, visibility wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{Binding: uint32(d.binding), Visibility: visibility}

	switch {
	case d.space == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case strings.HasPrefix(d.space, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.HasSuffix(d.space, "read_write") {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
	case d.typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case d.typeName == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(d.typeName, "texture_depth_2d"):
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case strings.HasPrefix(d.typeName, "texture_"):
		_, param := splitTypeParams(d.typeName)
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		entry.Texture.Multisampled = strings.HasPrefix(d.typeName, "texture_multisampled")
		switch param {
		case "i32":
			entry.Texture.SampleType = wgpu.TextureSampleTypeSint
		case "u32":
			entry.Texture.SampleType = wgpu.TextureSampleTypeUint
		default:
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		}
	}
	return entry
}

// splitTypeParams splits `base<params>` into base and params. Types without parameters return "" params.
func splitTypeParams(t string) (string, string) {
	base, rest, ok := strings.Cut(t, "<")
	if !ok {
		return t, ""
	}
	return base, strings.TrimSuffix(rest, ">")
}

// stripComments removes nested block comments and line comments.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch source[i : i+2] {
			case "/*":
				depth++
				i++
				continue
			case "*/":
				if depth > 0 {
					depth--
					i++
					continue
				}
			case "//":
				if depth == 0 {
					for i < len(source) && source[i] != '\n' {
						i++
					}
					if i < len(source) {
						sb.WriteByte('\n')
					}
					continue
				}
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

// splitAtTopLevelCommas splits at commas outside angle brackets, keeping `array<T, N>` whole.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth = max(0, depth-1)
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
