package geometry

import (
	"math"

	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/shader"
)

const collinearTolerance = 1e-4

// Vec2 is a 2D vector in pixel space.
type Vec2 [2]float64

func (a Vec2) add(b Vec2) Vec2 { return Vec2{a[0] + b[0], a[1] + b[1]} }
func (a Vec2) sub(b Vec2) Vec2 { return Vec2{a[0] - b[0], a[1] - b[1]} }
func (a Vec2) scale(s float64) Vec2 { return Vec2{a[0] * s, a[1] * s} }
func (a Vec2) dot(b Vec2) float64 { return a[0]*b[0] + a[1]*b[1] }
func (a Vec2) cross(b Vec2) float64 { return a[0]*b[1] - a[1]*b[0] }
func (a Vec2) length() float64 { return math.Hypot(a[0], a[1]) }
func (a Vec2) perp() Vec2 { return Vec2{-a[1], a[0]} }
func (a Vec2) mul(b [2]float64) Vec2 { return Vec2{a[0] * b[0], a[1] * b[1]} }

// Vec4 is a homogeneous clip-space position.
type Vec4 [4]float64

// Invalid reports the break sentinel: a zero w or a NaN x.
func (p Vec4) Invalid() bool {
	return p[3] == 0 || math.IsNaN(p[0])
}

// project maps clip space to pixel space with depth, as vec4(vec3(xy*res, z)/w, 1).
func (p Vec4) project(res [2]float64) Vec4 {
	return Vec4{p[0] * res[0] / p[3], p[1] * res[1] / p[3], p[2] / p[3], 1}
}

func (p Vec4) xy() Vec2 { return Vec2{p[0], p[1]} }

// Window is the evaluated point window of one instance: positions A..D in clip space and the
// widths at B and C. The endpoint pass ignores A.
type Window struct {
	A, B, C, D     Vec4
	WidthB, WidthC float64

	// Orientation is the endpoint orientation when an orientation property is bound.
	Orientation    float64
	HasOrientation bool
}

// Vertex is one synthesized strip vertex.
type Vertex struct {
	Position  Vec4
	LineCoord [3]float64

	// UseC is the interpolation fraction from B towards C used for varyings.
	UseC float64

	// Join is the intra-join index the vertex was placed at.
	Join int

	// Rejected is set when the vertex collapsed onto the raw B position.
	Rejected bool
}

// JoinIndex maps a strip vertex index to the intra-join index of its half. Slots beyond the
// resolution of the half collapse onto index 0, a right turn shifts the index down by one and
// the mirrored half is shifted down by one more so the halves share their seam vertices.
//
// Parameters:
//   - index: the strip vertex index
//   - count: the per-half join vertex counts
//   - res: the join or cap vertex count of the current half
//   - mirror: whether the vertex belongs to the second half
//   - rightTurn: whether the turn sign at B is negative
//
// Returns:
//   - int: the intra-join index in [0, res+2]
func JoinIndex(index int, count [2]int, res int, mirror, rightTurn bool) int {
	n := count[0] + count[1] + 6
	i := index
	half := count[0]
	if mirror {
		i = n - index
		half = count[1]
	}
	i -= max(0, half-res)
	if rightTurn {
		i--
	}
	if mirror {
		i--
	}
	return max(0, i)
}

// Synthesize evaluates one strip vertex of an instance on the CPU, following the generated
// vertex program step for step.
//
// Parameters:
//   - index: the strip vertex index
//   - w: the instance's point window
//   - p: the draw's uniform state
//
// Returns:
//   - Vertex: the clip-space vertex and its interpolants
func Synthesize(index int, w Window, p Params) Vertex {
	endpoint := p.Pass == shader.PassEndpoint
	out := Vertex{Position: w.B, Rejected: true}

	pA, pB, pC, pD := w.A, w.B, w.C, w.D
	aInvalid := !endpoint && pA.Invalid()
	bInvalid, cInvalid, dInvalid := pB.Invalid(), pC.Invalid(), pD.Invalid()

	mirror := float64(index) >= p.VertCnt2[0]+3
	if endpoint && dInvalid && mirror {
		return out
	}
	pw := pB[3]
	if mirror {
		pw = pC[3]
	}
	if !endpoint {
		pA = pA.project(p.Resolution)
	}
	pB = pB.project(p.Resolution)
	pC = pC.project(p.Resolution)
	pD = pD.project(p.Resolution)
	if endpoint {
		pA = pC
	}
	if bInvalid || cInvalid || math.Max(math.Abs(pB[2]), math.Abs(pC[2])) > 1 {
		return out
	}

	if mirror {
		pB, pC = pC, pB
		pA, pD = pD, pA
		aInvalid, dInvalid = dInvalid, aInvalid
	}

	isCap := endpoint && !mirror
	if aInvalid {
		if p.InsertCaps {
			pA = pC
			isCap = true
		} else {
			pA = Vec4{2*pB[0] - pC[0], 2*pB[1] - pC[1], 2*pB[2] - pC[2], 1}
		}
	}
	if dInvalid {
		if p.InsertCaps {
			pD = pB
		} else {
			pD = Vec4{2*pC[0] - pB[0], 2*pC[1] - pB[1], 2*pC[2] - pB[2], 1}
		}
	}
	roundOrCap := p.IsRound || isCap
	lineWidth := w.WidthB
	if mirror {
		lineWidth = w.WidthC
	}

	tBC := pC.xy().sub(pB.xy())
	lBC := tBC.length()
	if lBC == 0 {
		return out
	}
	tBC = tBC.scale(1 / lBC)
	nBC := tBC.perp()
	tAB := pB.xy().sub(pA.xy())
	lAB := tAB.length()
	if lAB > 0 {
		tAB = tAB.scale(1 / lAB)
	} else {
		tAB = tBC
	}
	nAB := tAB.perp()
	cosB := math.Max(-1, math.Min(1, tAB.dot(tBC)))
	mirrorSign := 1.0
	if mirror {
		mirrorSign = -1
	}
	dirB := -tBC.dot(nAB)
	collinear := math.Abs(dirB) < collinearTolerance
	hairpin := collinear && cosB < 0
	if collinear {
		dirB = -mirrorSign
	} else {
		dirB = sign(dirB)
	}
	miter := nAB.add(nBC).scale(0.5 * dirB)
	if hairpin {
		miter = tBC.scale(-1)
	}

	res := p.CapJoinRes2[1]
	if isCap {
		res = p.CapJoinRes2[0]
	}
	join := JoinIndex(index, [2]int{int(p.VertCnt2[0]), int(p.VertCnt2[1])}, int(res), mirror, dirB < 0)
	i := float64(join)

	xBasis := tBC
	yBasis := nBC.scale(dirB)
	var xy Vec2
	lineCoord := [3]float64{0, dirB * mirrorSign, 0}

	if i == res+1 {
		m := 0.0
		if cosB > -0.9999 {
			m = tAB.cross(tBC) / (1 + cosB)
		}
		xy = Vec2{math.Min(math.Abs(m), math.Min(lBC, lAB)/lineWidth), -1}
		lineCoord[1] = -lineCoord[1]
	} else {
		m2 := miter.dot(miter)
		yBasis = miter.scale(1 / math.Sqrt(m2))
		xBasis = Vec2{yBasis[1], -yBasis[0]}.scale(dirB)
		isBevel := 1 > p.MiterLimit*m2
		if math.Mod(i, 2) == 0 {
			if roundOrCap || i != 0 {
				capFactor := 1.0
				if isCap {
					capFactor = 2
				}
				theta := -0.5 * (math.Acos(cosB)*(math.Max(0, math.Min(res, i))/res) - math.Pi) * capFactor
				xy = Vec2{math.Cos(theta), math.Sin(theta)}
				if isCap {
					if xy[1] > 0.001 {
						xy = xy.mul(p.CapScale)
					}
					lineCoord[0] = xy[1] * lineCoord[1]
					lineCoord[1] = xy[0] * lineCoord[1]
				}
			} else {
				yBasis = miter
				if hairpin {
					yBasis = Vec2{}
				}
				xy[1] = 1 / m2
				if isBevel {
					xy[1] = 1
				}
			}
		} else {
			lineCoord[1] = 0
			if isBevel && !roundOrCap {
				xy[1] = -1 + math.Sqrt((1+cosB)/2)
			}
		}
	}

	if endpoint {
		orientation := math.Mod(p.Orientation, 2)
		if w.HasOrientation {
			orientation = w.Orientation
		}
		if orientation == CapEnd {
			lineCoord[0], lineCoord[1] = -lineCoord[0], -lineCoord[1]
		}
	}

	dP := xBasis.scale(xy[0]).add(yBasis.scale(xy[1]))
	dx := dP.dot(tBC) * mirrorSign
	useC := dx * (lineWidth / lBC)
	if mirror {
		useC++
	}
	if useC < 0 || useC > 1 {
		lineCoord[2] = 1
	}

	pos := pB.xy().add(dP.scale(lineWidth))
	out.Position = Vec4{pos[0] / p.Resolution[0] * pw, pos[1] / p.Resolution[1] * pw, pB[2] * pw, pB[3] * pw}
	out.LineCoord = lineCoord
	out.UseC = useC
	out.Join = join
	out.Rejected = false
	return out
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
