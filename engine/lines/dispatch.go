package lines

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-lines/engine/geometry"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/shader"
)

// drawClass orders draws when reordering: round segments, other segments, round caps, other caps.
type drawClass int

const (
	classRoundSegments drawClass = iota
	classSegments
	classRoundCaps
	classCaps
)

// plannedDraw is a validated draw waiting for its variant and pipeline.
type plannedDraw struct {
	draw       ResolvedDraw
	key        VariantKey
	params     geometry.Params
	bindGroups []bind_group_provider.BindGroupProvider
	class      drawClass
}

// preparedDraw is a planned draw resolved to its pipeline and draw call.
type preparedDraw struct {
	plan        *plannedDraw
	pipelineKey string
	call        renderer.LineDrawCall
}

// compareDraws groups prepared draws by pipeline. Segment pipelines come before cap pipelines,
// and round joins or caps come first within a pipeline.
func compareDraws(a, b preparedDraw) int {
	return cmp.Or(
		cmp.Compare(a.plan.key.Pass(), b.plan.key.Pass()),
		strings.Compare(a.pipelineKey, b.pipelineKey),
		cmp.Compare(a.plan.class, b.plan.class),
	)
}

func (l *lines) Draw(records ...LineDrawRecord) error {
	plan, err := l.plan(records)
	if err != nil {
		return err
	}

	prepared := make([]preparedDraw, 0, len(plan))
	for i := range plan {
		key, call, err := l.prepare(&plan[i])
		if err != nil {
			return err
		}
		prepared = append(prepared, preparedDraw{plan: &plan[i], pipelineKey: key, call: call})
	}
	if l.reorder {
		slices.SortStableFunc(prepared, compareDraws)
	}

	switches := 0
	last := ""
	for _, d := range prepared {
		if err := l.renderer.DrawLines(d.pipelineKey, d.call); err != nil {
			return fmt.Errorf("lines: record %d %s draw: %w", d.plan.draw.Record, d.plan.draw.Pass, err)
		}
		if d.pipelineKey != last {
			switches++
			last = d.pipelineKey
		}
	}
	if len(prepared) > 0 {
		tracer().Debugf("drew %d records: %d draws, %d pipeline switches", len(records), len(prepared), switches)
	}
	return nil
}

// plan validates every record and expands it into its draws. Nothing is drawn unless every
// record is valid.
func (l *lines) plan(records []LineDrawRecord) ([]plannedDraw, error) {
	width, height := l.renderer.SurfaceSize()
	maxSlots := l.maxVertexBuffers()

	var plan []plannedDraw
	for i := range records {
		rec := &records[i]
		style, err := sanitizeRecord(i, rec)
		if err != nil {
			return nil, err
		}

		resolution := [2]float64{float64(width), float64(height)}
		if rec.ViewportSize[0] > 0 {
			resolution[0] = float64(rec.ViewportSize[0])
		}
		if rec.ViewportSize[1] > 0 {
			resolution[1] = float64(rec.ViewportSize[1])
		}

		add := func(pass shader.Pass, mode shader.BindingMode, attrs map[string]AttributeBuffer, instances int, split bool, orientation int) {
			if instances <= 0 {
				return
			}
			params := geometry.NewParams(style, pass, rec.InsertCaps, resolution)
			params.Orientation = float64(orientation)
			class := classSegments
			switch {
			case pass == shader.PassSegment && style.Join == JoinRound:
				class = classRoundSegments
			case pass == shader.PassEndpoint && style.Cap == CapRound:
				class = classRoundCaps
			case pass == shader.PassEndpoint:
				class = classCaps
			}
			plan = append(plan, plannedDraw{
				draw: ResolvedDraw{
					Record:      i,
					Pass:        pass,
					Mode:        mode,
					InsertCaps:  rec.InsertCaps,
					Attributes:  attrs,
					Split:       split,
					Orientation: orientation,
					Instances:   instances,
				},
				key:        variantKeyOf(pass, rec.InsertCaps, mode),
				params:     params,
				bindGroups: rec.BindGroups,
				class:      class,
			})
		}

		if rec.VertexAttributes != nil {
			mode := l.bindingMode(rec, shader.PassSegment, maxSlots)
			attrs, err := sanitizeAttributes(i, l.meta, shader.PassSegment, rec.VertexAttributes, mode)
			if err != nil {
				return nil, err
			}
			add(shader.PassSegment, mode, attrs, rec.VertexCount-3, false, CapStart)
		}

		if rec.EndpointAttributes != nil {
			mode := l.bindingMode(rec, shader.PassEndpoint, maxSlots)
			attrs, err := sanitizeAttributes(i, l.meta, shader.PassEndpoint, rec.EndpointAttributes, mode)
			if err != nil {
				return nil, err
			}
			if l.meta.Orientation != nil {
				add(shader.PassEndpoint, mode, attrs, rec.EndpointCount, false, CapStart)
			} else {
				add(shader.PassEndpoint, mode, attrs, (rec.EndpointCount+1)/2, true, CapStart)
				add(shader.PassEndpoint, mode, attrs, rec.EndpointCount/2, true, CapEnd)
			}
		}
	}
	return plan, nil
}

// bindingMode picks indirect binding when the record asks for it or the pass has more copies
// than the renderer has vertex buffer slots.
func (l *lines) bindingMode(rec *LineDrawRecord, pass shader.Pass, maxSlots int) shader.BindingMode {
	if rec.Indirect {
		return shader.BindingIndirect
	}
	if l.copies[pass] > maxSlots {
		tracer().Debugf("%s pass needs %d vertex buffers, %d available: binding indirectly", pass, l.copies[pass], maxSlots)
		return shader.BindingIndirect
	}
	return shader.BindingDirect
}

// prepare resolves the variant and pipeline of a planned draw and builds its draw call.
func (l *lines) prepare(p *plannedDraw) (string, renderer.LineDrawCall, error) {
	v, err := l.variants.Get(p.key)
	if err != nil {
		return "", renderer.LineDrawCall{}, err
	}

	evaluated := make([]EvaluatedBinding, len(v.Descriptors))
	for i, d := range v.Descriptors {
		evaluated[i] = d.Evaluate(&p.draw)
	}

	call := renderer.LineDrawCall{
		BindGroups:    p.bindGroups,
		VertexCount:   uint32(p.params.VertexCount()),
		InstanceCount: uint32(p.draw.Instances),
	}

	var (
		table       [][4]uint32
		fingerprint uint64
		layoutOpt   pipeline.PipelineBuilderOption
	)
	if p.key.Mode() == shader.BindingIndirect {
		table, call.StorageBuffers = indirectBindings(v.Program.Bindings, evaluated)
		fingerprint = layoutFingerprint(nil)
	} else {
		layouts, buffers := directBindings(evaluated)
		call.VertexBuffers = buffers
		fingerprint = layoutFingerprint(layouts)
		layoutOpt = pipeline.WithVertexLayouts(layouts)
	}
	call.Uniforms = newGPULineUniforms(p.params, table).Marshal()

	pl, err := v.pipeline(l.renderer, fingerprint, layoutOpt, l.pipelineOptions)
	if err != nil {
		return "", renderer.LineDrawCall{}, err
	}
	return pl.PipelineKey(), call, nil
}
