// Package config loads declarative line documents: named styles, polylines and the shader
// sources used to draw them.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/Carmen-Shannon/oxy-lines/engine/geometry"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/shader"
	"github.com/npillmayer/schuko/tracing"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

func tracer() tracing.Trace {
	return tracing.Select("oxy.config")
}

// DefaultStyleName is the style used by lines that do not name one.
const DefaultStyleName = "default"

// LineStyle is the YAML form of a line style. Zero values take the geometry defaults.
type LineStyle struct {
	Join           string    `yaml:"join"`
	Cap            string    `yaml:"cap"`
	JoinResolution int       `yaml:"joinResolution"`
	CapResolution  int       `yaml:"capResolution"`
	MiterLimit     float64   `yaml:"miterLimit"`
	InsertCaps     bool      `yaml:"insertCaps"`
	Width          float64   `yaml:"width"`
	Color          []float64 `yaml:"color"`
}

// Polyline is one line of a document. Points are in pixels; a point of null coordinates breaks the line.
type Polyline struct {
	Name   string      `yaml:"name"`
	Style  string      `yaml:"style"`
	Width  float64     `yaml:"width"`
	Points [][]float64 `yaml:"points"`
}

// Shaders holds the locations of the annotated WGSL sources.
type Shaders struct {
	Vertex   string `yaml:"vertex"`
	Fragment string `yaml:"fragment"`
}

// Document is a parsed line document.
type Document struct {
	Viewport   []int                `yaml:"viewport"`
	Background []float64            `yaml:"background"`
	Shaders    Shaders              `yaml:"shaders"`
	Styles     map[string]LineStyle `yaml:"styles"`
	Lines      []Polyline           `yaml:"lines"`
}

// ResolvedLine is a polyline with its style parsed and defaults applied.
type ResolvedLine struct {
	Name       string
	Style      geometry.Style
	InsertCaps bool
	Width      float64
	Color      [4]float64
	Points     []geometry.Vec2
}

// Load downloads and parses a document from any location afs understands.
//
// Parameters:
//   - ctx: context of the download
//   - location: a path or URL (file://, mem://, ...)
//
// Returns:
//   - *Document: the parsed document
//   - error: a download, syntax or validation error
func Load(ctx context.Context, location string) (*Document, error) {
	data, err := afs.New().DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("config: failed to load %q: %w", location, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", location, err)
	}
	tracer().Infof("loaded %s: %d styles, %d lines", location, len(doc.Styles), len(doc.Lines))
	return doc, nil
}

// Parse decodes a document and checks it. Unknown keys are errors.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks style names, style values and point arity.
func (d *Document) Validate() error {
	if len(d.Viewport) != 0 && (len(d.Viewport) != 2 || d.Viewport[0] <= 0 || d.Viewport[1] <= 0) {
		return fmt.Errorf("config: viewport must be two positive integers, got %v", d.Viewport)
	}
	if len(d.Background) != 0 && len(d.Background) != 4 {
		return fmt.Errorf("config: background must have 4 components, got %d", len(d.Background))
	}
	for _, name := range slices.Sorted(maps.Keys(d.Styles)) {
		if _, err := d.Styles[name].Style(); err != nil {
			return fmt.Errorf("config: style %q: %w", name, err)
		}
		if c := d.Styles[name].Color; len(c) != 0 && len(c) != 4 {
			return fmt.Errorf("config: style %q: color must have 4 components, got %d", name, len(c))
		}
	}
	for i, l := range d.Lines {
		if l.Style != "" && l.Style != DefaultStyleName {
			if _, ok := d.Styles[l.Style]; !ok {
				return fmt.Errorf("config: line %d: unknown style %q", i, l.Style)
			}
		}
		for j, p := range l.Points {
			if len(p) != 0 && len(p) != 2 {
				return fmt.Errorf("config: line %d point %d: want 2 coordinates, got %d", i, j, len(p))
			}
		}
		if l.Width < 0 {
			return fmt.Errorf("config: line %d: negative width %g", i, l.Width)
		}
	}
	return nil
}

// Style parses the join and cap names and validates the style.
func (s LineStyle) Style() (geometry.Style, error) {
	st := geometry.Style{
		JoinResolution: s.JoinResolution,
		CapResolution:  s.CapResolution,
		MiterLimit:     s.MiterLimit,
	}
	var err error
	if s.Join != "" {
		if st.Join, err = geometry.ParseJoinStyle(s.Join); err != nil {
			return geometry.Style{}, err
		}
	}
	if s.Cap != "" {
		if st.Cap, err = geometry.ParseCapStyle(s.Cap); err != nil {
			return geometry.Style{}, err
		}
	}
	if err := st.Validate(); err != nil {
		return geometry.Style{}, err
	}
	return st, nil
}

// ViewportSize returns the document viewport or fallback when none is set.
func (d *Document) ViewportSize(fallback [2]int) [2]int {
	if len(d.Viewport) == 2 {
		return [2]int{d.Viewport[0], d.Viewport[1]}
	}
	return fallback
}

// Resolve applies styles to every line. A line's own width overrides its style's; lines without
// either are one pixel wide. Colors default to opaque white.
func (d *Document) Resolve() ([]ResolvedLine, error) {
	out := make([]ResolvedLine, 0, len(d.Lines))
	for i, l := range d.Lines {
		name := l.Style
		if name == "" {
			name = DefaultStyleName
		}
		ls := d.Styles[name]
		style, err := ls.Style()
		if err != nil {
			return nil, fmt.Errorf("config: line %d: %w", i, err)
		}

		r := ResolvedLine{
			Name:       l.Name,
			Style:      style,
			InsertCaps: ls.InsertCaps,
			Width:      1,
			Color:      [4]float64{1, 1, 1, 1},
			Points:     make([]geometry.Vec2, len(l.Points)),
		}
		if r.Name == "" {
			r.Name = fmt.Sprintf("line%d", i)
		}
		switch {
		case l.Width > 0:
			r.Width = l.Width
		case ls.Width > 0:
			r.Width = ls.Width
		}
		if len(ls.Color) == 4 {
			copy(r.Color[:], ls.Color)
		}
		for j, p := range l.Points {
			if len(p) == 0 {
				r.Points[j] = geometry.Vec2{math.NaN(), math.NaN()}
				continue
			}
			r.Points[j] = geometry.Vec2{p[0], p[1]}
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadShaders downloads the vertex and fragment sources the document names.
//
// Parameters:
//   - ctx: context of the downloads
//
// Returns:
//   - string: the vertex WGSL
//   - string: the fragment WGSL
//   - error: an error if a source is not set or cannot be downloaded
func (d *Document) LoadShaders(ctx context.Context) (string, string, error) {
	if d.Shaders.Vertex == "" || d.Shaders.Fragment == "" {
		return "", "", errors.New("config: document must name both a vertex and a fragment shader")
	}
	vertex, err := shader.LoadSource(ctx, d.Shaders.Vertex)
	if err != nil {
		return "", "", err
	}
	fragment, err := shader.LoadSource(ctx, d.Shaders.Fragment)
	if err != nil {
		return "", "", err
	}
	return vertex, fragment, nil
}
