package geometry

import (
	"fmt"
	"math"
	"strings"

	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/shader"
)

// JoinStyle is the geometry drawn where two segments meet.
type JoinStyle int

const (
	JoinMiter JoinStyle = iota
	JoinBevel
	JoinRound
)

func (j JoinStyle) String() string {
	switch j {
	case JoinBevel:
		return "bevel"
	case JoinRound:
		return "round"
	default:
		return "miter"
	}
}

// ParseJoinStyle resolves "miter", "bevel" or "round"; "" is miter.
func ParseJoinStyle(s string) (JoinStyle, error) {
	switch strings.ToLower(s) {
	case "", "miter":
		return JoinMiter, nil
	case "bevel":
		return JoinBevel, nil
	case "round":
		return JoinRound, nil
	}
	return JoinMiter, fmt.Errorf("geometry: unknown join style %q", s)
}

// CapStyle is the geometry drawn at the free end of a polyline.
type CapStyle int

const (
	CapSquare CapStyle = iota
	CapRound
	CapNone
)

func (c CapStyle) String() string {
	switch c {
	case CapRound:
		return "round"
	case CapNone:
		return "none"
	default:
		return "square"
	}
}

// ParseCapStyle resolves "square", "round" or "none"; "" is square.
func ParseCapStyle(s string) (CapStyle, error) {
	switch strings.ToLower(s) {
	case "", "square":
		return CapSquare, nil
	case "round":
		return CapRound, nil
	case "none", "butt":
		return CapNone, nil
	}
	return CapSquare, fmt.Errorf("geometry: unknown cap style %q", s)
}

// Endpoint orientation sentinels read by the endpoint pass.
const (
	CapStart = 0
	CapEnd   = 1

	// CapShort marks an endpoint of a two-point line; it resolves to CapStart modulo 2.
	CapShort = 2
)

const (
	DefaultJoinResolution = 8
	DefaultCapResolution  = 12
	DefaultMiterLimit     = 4
)

// Style is the join and cap configuration of one draw. Zero resolutions and miter limit take the defaults.
type Style struct {
	Join           JoinStyle
	Cap            CapStyle
	JoinResolution int
	CapResolution  int
	MiterLimit     float64
}

// Resolved applies defaults and the style-dependent overrides: square caps use resolution 3,
// no cap uses resolution 1, bevel joins use miter limit 1 and non-round joins use resolution 1.
func (s Style) Resolved() Style {
	if s.JoinResolution == 0 {
		s.JoinResolution = DefaultJoinResolution
	}
	if s.CapResolution == 0 {
		s.CapResolution = DefaultCapResolution
	}
	if s.MiterLimit == 0 {
		s.MiterLimit = DefaultMiterLimit
	}
	switch s.Cap {
	case CapSquare:
		s.CapResolution = 3
	case CapNone:
		s.CapResolution = 1
	}
	if s.Join == JoinBevel {
		s.MiterLimit = 1
	}
	if s.Join != JoinRound {
		s.JoinResolution = 1
	}
	return s
}

// Validate reports resolutions below 1 and miter limits below 1.
func (s Style) Validate() error {
	if s.JoinResolution < 0 || s.CapResolution < 0 {
		return fmt.Errorf("geometry: resolutions must be >= 1, got join %d cap %d", s.JoinResolution, s.CapResolution)
	}
	if s.MiterLimit != 0 && (s.MiterLimit < 1 || math.IsNaN(s.MiterLimit)) {
		return fmt.Errorf("geometry: miter limit must be >= 1, got %g", s.MiterLimit)
	}
	return nil
}

// CapScale returns the (sideways, along) scale applied to cap vertices above the baseline.
func (s Style) CapScale() [2]float64 {
	if s.Cap == CapSquare {
		return [2]float64{2, 2 / math.Sqrt(3)}
	}
	return [2]float64{1, 1}
}

// Counts returns the number of join vertices of the first and second half of an instance.
//
// Parameters:
//   - s: a resolved style
//   - pass: the pass being drawn
//   - insertCaps: whether invalid neighbours become caps
//
// Returns:
//   - [2]int: the per-half join vertex counts
func Counts(s Style, pass shader.Pass, insertCaps bool) [2]int {
	capRes2 := 2 * s.CapResolution
	joinRes2 := 2 * s.JoinResolution
	wide := max(capRes2, joinRes2)
	switch {
	case pass == shader.PassEndpoint && insertCaps:
		return [2]int{capRes2, wide}
	case pass == shader.PassEndpoint:
		return [2]int{capRes2, joinRes2}
	case insertCaps:
		return [2]int{wide, wide}
	default:
		return [2]int{joinRes2, joinRes2}
	}
}

// VerticesPerInstance is the triangle strip length of one instance.
func VerticesPerInstance(count [2]int) int {
	return 6 + count[0] + count[1]
}

// Params is the per-draw uniform state consumed by the geometry synthesis.
type Params struct {
	Pass       shader.Pass
	InsertCaps bool

	VertCnt2    [2]float64
	CapJoinRes2 [2]float64
	Resolution  [2]float64
	CapScale    [2]float64

	// MiterLimit holds the squared miter limit.
	MiterLimit float64
	IsRound    bool

	// Orientation is the fallback endpoint orientation when no orientation property is bound.
	Orientation float64
}

// NewParams derives the uniform state of a draw.
//
// Parameters:
//   - s: the draw style, resolved internally
//   - pass: the pass being drawn
//   - insertCaps: whether invalid neighbours become caps
//   - resolution: the viewport size in pixels
//
// Returns:
//   - Params: the uniform state
func NewParams(s Style, pass shader.Pass, insertCaps bool, resolution [2]float64) Params {
	s = s.Resolved()
	c := Counts(s, pass, insertCaps)
	return Params{
		Pass:        pass,
		InsertCaps:  insertCaps,
		VertCnt2:    [2]float64{float64(c[0]), float64(c[1])},
		CapJoinRes2: [2]float64{float64(2 * s.CapResolution), float64(2 * s.JoinResolution)},
		Resolution:  resolution,
		CapScale:    s.CapScale(),
		MiterLimit:  s.MiterLimit * s.MiterLimit,
		IsRound:     s.Join == JoinRound,
	}
}

// VertexCount is the number of strip vertices per instance for the params.
func (p Params) VertexCount() int {
	return 6 + int(p.VertCnt2[0]) + int(p.VertCnt2[1])
}
