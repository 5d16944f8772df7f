// pre_processor.go implements the line-program pre-processor. It scans caller WGSL
// vertex source for `#pragma lines:` directives, parses each one into a typed
// Directive, and blanks the directive line so the remaining text is plain WGSL with
// unchanged line numbering. Lines starting with any other `#pragma` are kept verbatim.
package shader

import (
	"regexp"
	"strings"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'oxy.shader'.
func tracer() tracing.Trace {
	return tracing.Select("oxy.shader")
}

// pragmaLineRegex matches a lines directive and captures its body.
var pragmaLineRegex = regexp.MustCompile(`(?i)^\s*#pragma\s+lines\s*:(.*)$`)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// declarations accumulates the directives parsed during a Process call, in source order.
	declarations []Directive
}

// PreProcessor strips `#pragma lines:` directives out of WGSL vertex source and collects
// them for the usage analyzer.
type PreProcessor interface {
	// Process parses every directive line of the source and returns the source with those
	// lines replaced by empty lines. The declarations list is reset at the start of each call.
	//
	// Parameters:
	//   - source: caller WGSL vertex source containing directives
	//
	// Returns:
	//   - string: the source with directive lines blanked
	//   - error: a *DirectiveSyntaxError for the first malformed directive
	Process(source string) (string, error)

	// Declarations returns the directives collected during the most recent call to Process,
	// in source order. Returns nil if Process has not been called.
	//
	// Returns:
	//   - []Directive: the directives collected during the last Process call
	Declarations() []Directive
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with an empty declarations list.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = nil

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		m := pragmaLineRegex.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		d, err := parseDirective(i+1, m[1])
		if err != nil {
			return "", err
		}
		tracer().Debugf("line %d: %T", i+1, d)
		p.declarations = append(p.declarations, d)
		out = append(out, "")
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Directive {
	return p.declarations
}
