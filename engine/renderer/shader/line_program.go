package shader

import (
	"fmt"
	"strings"
)

const (
	// VertexEntryPoint is the entry point of every generated line vertex program.
	VertexEntryPoint = "lines_vertex"

	// VertexOutputStruct is the struct handed from the generated vertex stage to the caller's fragment stage.
	VertexOutputStruct = "LineVertexOutput"

	// UniformHeaderSize is the byte size of LineUniforms without the indirect attribute table.
	UniformHeaderSize = 48

	// UniformAttributeEntrySize is the byte size of one vec4u attribute table entry.
	UniformAttributeEntrySize = 16

	// LineBindGroup is the bind group reserved for the line uniforms and attribute storage buffers.
	LineBindGroup = 0

	uniformVarName = "lines"
)

// reservedVaryingNames are LineVertexOutput fields owned by the line program.
var reservedVaryingNames = []string{"position", "lineCoord", "instanceID", "triStripCoord"}

// ProgramOptions selects the features of one line program variant.
type ProgramOptions struct {
	Pass       Pass
	InsertCaps bool
	Mode       BindingMode

	// Debug adds instanceID and triStripCoord varyings to the vertex output.
	Debug bool
}

// LineProgram is the assembled WGSL of one variant.
type LineProgram struct {
	Options  ProgramOptions
	Bindings *BindingSet

	// VertexSource is the caller vertex source followed by the generated declarations and entry point.
	VertexSource string

	// FragmentSource is the generated LineVertexOutput struct followed by the caller fragment source.
	FragmentSource string
}

// UniformSize returns the byte size of the LineUniforms struct for the variant.
func (p *LineProgram) UniformSize() uint64 {
	return UniformSize(p.Options.Mode, len(p.Bindings.Copies))
}

// UniformSize returns the byte size of LineUniforms for a binding mode and copy count.
func UniformSize(mode BindingMode, copies int) uint64 {
	if mode == BindingIndirect {
		return UniformHeaderSize + UniformAttributeEntrySize*uint64(copies)
	}
	return UniformHeaderSize
}

// AssembleProgram renders the complete vertex and fragment WGSL of a variant.
//
// Parameters:
//   - meta: the analyzed caller program
//   - fragmentSource: the caller fragment WGSL
//   - opts: the variant features
//
// Returns:
//   - *LineProgram: the assembled program
func AssembleProgram(meta *ProgramMeta, fragmentSource string, opts ProgramOptions) *LineProgram {
	bindings := GenerateBindings(meta, opts.Pass)
	p := &LineProgram{Options: opts, Bindings: bindings}

	var sb strings.Builder
	sb.WriteString(meta.Source)
	sb.WriteString("\n\n// ---- generated line program ----\n\n")
	sb.WriteString(linePrelude)
	writeUniformDeclaration(&sb, opts.Mode, len(bindings.Copies))
	sb.WriteString(VertexOutputDeclaration(meta, opts.Debug))
	sb.WriteByte('\n')
	sb.WriteString(bindings.Declarations(opts.Mode))
	sb.WriteByte('\n')
	writeVertexEntryPoint(&sb, meta, bindings, opts)
	p.VertexSource = sb.String()

	p.FragmentSource = VertexOutputDeclaration(meta, opts.Debug) + "\n" + fragmentSource
	return p
}

// VertexOutputDeclaration renders the LineVertexOutput struct: the clip position, lineCoord at
// location 0, then one location per varying in declaration order and the debug varyings last.
func VertexOutputDeclaration(meta *ProgramMeta, debug bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "struct %s {\n", VertexOutputStruct)
	sb.WriteString("  @builtin(position) position: vec4f,\n")
	sb.WriteString("  @location(0) lineCoord: vec3f,\n")
	loc := 1
	for _, v := range meta.Varyings {
		fmt.Fprintf(&sb, "  @location(%d) %s: %s,\n", loc, v.Name, v.Type.WGSL())
		loc++
	}
	if debug {
		fmt.Fprintf(&sb, "  @location(%d) instanceID: f32,\n", loc)
		fmt.Fprintf(&sb, "  @location(%d) triStripCoord: vec2f,\n", loc+1)
	}
	sb.WriteString("}\n")
	return sb.String()
}

const linePrelude = `const LINES_CAP_START: f32 = 0.0;
const LINES_CAP_END: f32 = 1.0;
const LINES_PI: f32 = 3.141592653589793;
const LINES_COLLINEAR_TOL: f32 = 1e-4;

fn lines_is_nan(x: f32) -> bool {
  return (bitcast<u32>(x) & 0x7fffffffu) > 0x7f800000u;
}

fn lines_invalid(p: vec4f) -> bool {
  return p.w == 0.0 || lines_is_nan(p.x);
}

fn lines_project(p: vec4f) -> vec4f {
  return vec4f(vec3f(p.xy * lines.resolution, p.z) / p.w, 1.0);
}

fn lines_join_index(index: f32, count: vec2f, res: f32, mirror: bool, rightTurn: bool) -> f32 {
  let n = count.x + count.y + 6.0;
  var i = select(index, n - index, mirror);
  i = i - max(0.0, select(count.x, count.y, mirror) - res);
  i = i - select(0.0, 1.0, rightTurn);
  i = i - select(0.0, 1.0, mirror);
  return max(0.0, i);
}

`

func writeUniformDeclaration(sb *strings.Builder, mode BindingMode, copies int) {
	sb.WriteString(`struct LineUniforms {
  vertCnt2: vec2f,
  capJoinRes2: vec2f,
  resolution: vec2f,
  capScale: vec2f,
  miterLimit: f32,
  isRound: u32,
  orientation: f32,
  padding: f32,
`)
	if mode == BindingIndirect {
		fmt.Fprintf(sb, "  attributes: array<vec4u, %d>,\n", copies)
	}
	sb.WriteString("}\n\n@group(0) @binding(0) var<uniform> lines: LineUniforms;\n\n")
}

// writeVertexEntryPoint renders the geometry synthesis entry point. Pass and cap insertion are
// resolved at generation time; join style, resolutions and orientation come from the uniforms.
func writeVertexEntryPoint(sb *strings.Builder, meta *ProgramMeta, b *BindingSet, opts ProgramOptions) {
	endpoint := opts.Pass == PassEndpoint
	position := b.Properties[PropertyPosition].Generate
	width := b.Properties[PropertyWidth].Generate
	prefix := attributesVar + "."

	w := func(format string, args ...any) {
		fmt.Fprintf(sb, format, args...)
		sb.WriteByte('\n')
	}

	w("@vertex")
	if opts.Mode == BindingDirect {
		w("fn %s(@builtin(vertex_index) vertexIndex: u32, @builtin(instance_index) instanceIndex: u32, %s: %s) -> %s {",
			VertexEntryPoint, attributesVar, attributesStructName, VertexOutputStruct)
	} else {
		w("fn %s(@builtin(vertex_index) vertexIndex: u32, @builtin(instance_index) instanceIndex: u32) -> %s {",
			VertexEntryPoint, VertexOutputStruct)
		w("  let %s = lines_fetch_attributes(vertexIndex, instanceIndex);", attributesVar)
	}
	w("  var out: %s;", VertexOutputStruct)
	w("  let index = f32(vertexIndex);")
	if opts.Debug {
		if endpoint {
			w("  out.instanceID = -1.0;")
		} else {
			w("  out.instanceID = f32(instanceIndex);")
		}
		w("  out.triStripCoord = vec2f(floor(index * 0.5), index %% 2.0);")
	}

	// Project.
	if endpoint {
		w("  var pA = vec4f(0.0);")
	} else {
		w("  var pA = %s;", position(RoleA, prefix))
	}
	w("  var pB = %s;", position(RoleB, prefix))
	w("  var pC = %s;", position(RoleC, prefix))
	w("  var pD = %s;", position(RoleD, prefix))
	w("  out.position = pB;")
	if endpoint {
		w("  var aInvalid = false;")
	} else {
		w("  var aInvalid = lines_invalid(pA);")
	}
	w("  let bInvalid = lines_invalid(pB);")
	w("  let cInvalid = lines_invalid(pC);")
	w("  var dInvalid = lines_invalid(pD);")
	w("  let v = lines.vertCnt2 + 3.0;")
	w("  let mirror = index >= v.x;")
	if endpoint {
		w("  if (dInvalid && mirror) {")
		w("    return out;")
		w("  }")
	}
	w("  let pw = select(pB.w, pC.w, mirror);")
	if !endpoint {
		w("  pA = lines_project(pA);")
	}
	w("  pB = lines_project(pB);")
	w("  pC = lines_project(pC);")
	w("  pD = lines_project(pD);")
	if endpoint {
		w("  pA = pC;")
	}

	// Validate B and C.
	w("  if (bInvalid || cInvalid || max(abs(pB.z), abs(pC.z)) > 1.0) {")
	w("    return out;")
	w("  }")

	// Mirror.
	w("  if (mirror) {")
	w("    var tmp = pC;")
	w("    pC = pB;")
	w("    pB = tmp;")
	w("    tmp = pD;")
	w("    pD = pA;")
	w("    pA = tmp;")
	w("    let invalidTmp = dInvalid;")
	w("    dInvalid = aInvalid;")
	w("    aInvalid = invalidTmp;")
	w("  }")

	// Resolve missing neighbours.
	if endpoint {
		w("  var isCap = !mirror;")
	} else {
		w("  var isCap = false;")
	}
	w("  if (aInvalid) {")
	if opts.InsertCaps {
		w("    pA = pC;")
		w("    isCap = true;")
	} else {
		w("    pA = 2.0 * pB - pC;")
	}
	w("  }")
	w("  if (dInvalid) {")
	if opts.InsertCaps {
		w("    pD = pB;")
	} else {
		w("    pD = 2.0 * pC - pB;")
	}
	w("  }")
	w("  let roundOrCap = lines.isRound != 0u || isCap;")
	w("  let lineWidth = select(%s, %s, mirror);", width(RoleB, prefix), width(RoleC, prefix))

	// Tangents and turn signs.
	w("  var tBC = pC.xy - pB.xy;")
	w("  let lBC = length(tBC);")
	w("  if (lBC == 0.0) {")
	w("    return out;")
	w("  }")
	w("  tBC = tBC / lBC;")
	w("  let nBC = vec2f(-tBC.y, tBC.x);")
	w("  var tAB = pB.xy - pA.xy;")
	w("  let lAB = length(tAB);")
	w("  if (lAB > 0.0) {")
	w("    tAB = tAB / lAB;")
	w("  } else {")
	w("    tAB = tBC;")
	w("  }")
	w("  let nAB = vec2f(-tAB.y, tAB.x);")
	w("  let cosB = clamp(dot(tAB, tBC), -1.0, 1.0);")
	w("  let mirrorSign = select(1.0, -1.0, mirror);")
	w("  var dirB = -dot(tBC, nAB);")
	w("  let bCollinear = abs(dirB) < LINES_COLLINEAR_TOL;")
	w("  let bIsHairpin = bCollinear && cosB < 0.0;")
	w("  dirB = select(sign(dirB), -mirrorSign, bCollinear);")
	w("  let miter = select(0.5 * (nAB + nBC) * dirB, -tBC, bIsHairpin);")

	// Index decomposition.
	w("  let res = select(lines.capJoinRes2.y, lines.capJoinRes2.x, isCap);")
	w("  let i = lines_join_index(index, lines.vertCnt2, res, mirror, dirB < 0.0);")

	// Geometry selection.
	w("  var xBasis = tBC;")
	w("  var yBasis = nBC * dirB;")
	w("  var xy = vec2f(0.0);")
	w("  out.lineCoord.y = dirB * mirrorSign;")
	w("  if (i == res + 1.0) {")
	w("    let m = select(0.0, (tAB.x * tBC.y - tAB.y * tBC.x) / (1.0 + cosB), cosB > -0.9999);")
	w("    xy = vec2f(min(abs(m), min(lBC, lAB) / lineWidth), -1.0);")
	w("    out.lineCoord.y = -out.lineCoord.y;")
	w("  } else {")
	w("    let m2 = dot(miter, miter);")
	w("    let lm = sqrt(m2);")
	w("    yBasis = miter / lm;")
	w("    xBasis = dirB * vec2f(yBasis.y, -yBasis.x);")
	w("    let isBevel = 1.0 > lines.miterLimit * m2;")
	w("    if (i %% 2.0 == 0.0) {")
	w("      if (roundOrCap || i != 0.0) {")
	w("        let theta = -0.5 * (acos(cosB) * (clamp(i, 0.0, res) / res) - LINES_PI) * select(1.0, 2.0, isCap);")
	w("        xy = vec2f(cos(theta), sin(theta));")
	w("        if (isCap) {")
	w("          if (xy.y > 0.001) {")
	w("            xy = xy * lines.capScale;")
	w("          }")
	w("          let capCoord = xy.yx * out.lineCoord.y;")
	w("          out.lineCoord = vec3f(capCoord, out.lineCoord.z);")
	w("        }")
	w("      } else {")
	w("        yBasis = select(miter, vec2f(0.0), bIsHairpin);")
	w("        xy.y = select(1.0 / m2, 1.0, isBevel);")
	w("      }")
	w("    } else {")
	w("      out.lineCoord.y = 0.0;")
	w("      if (isBevel && !roundOrCap) {")
	w("        xy.y = -1.0 + sqrt((1.0 + cosB) * 0.5);")
	w("      }")
	w("    }")
	w("  }")

	if endpoint {
		if o, ok := b.Properties[PropertyOrientation]; ok {
			w("  let orientation = %s;", o.Generate(RoleNone, prefix))
		} else {
			w("  let orientation = lines.orientation %% 2.0;")
		}
		w("  if (orientation == LINES_CAP_END) {")
		w("    out.lineCoord = vec3f(-out.lineCoord.xy, out.lineCoord.z);")
		w("  }")
	}

	// Final offset and varyings.
	w("  let dP = mat2x2f(xBasis, yBasis) * xy;")
	w("  let dx = dot(dP, tBC) * mirrorSign;")
	w("  let useC = select(0.0, 1.0, mirror) + dx * (lineWidth / lBC);")
	w("  out.lineCoord.z = select(0.0, 1.0, useC < 0.0 || useC > 1.0);")
	for _, v := range b.Varyings {
		w("  %s", v.Generate("useC", RoleB, RoleC))
	}
	w("  var pos = pB;")
	w("  pos = vec4f((pos.xy + lineWidth * dP) / lines.resolution, pos.zw);")
	w("  pos = pos * pw;")
	if meta.Postproject != nil {
		w("  out.position = %s(pos);", meta.Postproject.Function)
	} else {
		w("  out.position = pos;")
	}
	w("  return out;")
	w("}")
}
