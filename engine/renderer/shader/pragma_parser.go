package shader

import (
	"fmt"
	"slices"
	"strings"
)

// pragmaParser is a recursive-descent parser over the tokens of a single directive body.
//
//	directive   := ( attribute | property | varying | postproject ) [ ";" ] EOF
//	attribute   := "attribute" type IDENT
//	property    := ( "position" | "width" | "orientation" ) "=" call
//	varying     := [ "extrapolate" ] "varying" type IDENT "=" call
//	postproject := "postproject" "=" IDENT
//	call        := IDENT "(" IDENT { "," IDENT } ")"
//
// Keywords are matched case-insensitively; names are kept verbatim.
type pragmaParser struct {
	line   int
	body   string
	tokens []token
	pos    int
}

// parseDirective parses one directive body (the text after `#pragma lines:`).
//
// Parameters:
//   - line: the 1-based source line, used for error reporting
//   - body: the directive body
//
// Returns:
//   - Directive: the parsed directive
//   - error: a *DirectiveSyntaxError when the body does not follow the grammar
func parseDirective(line int, body string) (Directive, error) {
	p := &pragmaParser{
		line:   line,
		body:   strings.TrimSpace(body),
		tokens: tokenize(body),
	}
	return p.parse()
}

func (p *pragmaParser) parse() (Directive, error) {
	head := p.peek()
	if head.kind != tokenIdent {
		return nil, p.errorf("expected a directive keyword, found %s", head)
	}

	var (
		d   Directive
		err error
	)
	keyword := strings.ToLower(head.text)
	switch {
	case keyword == "attribute":
		d, err = p.parseAttribute()
	case keyword == "varying" || keyword == "extrapolate":
		d, err = p.parseVarying()
	case keyword == "postproject":
		d, err = p.parsePostproject()
	case slices.Contains(validPropertyKinds, PropertyKind(keyword)):
		d, err = p.parseProperty()
	default:
		return nil, p.errorf("unknown directive %q", head.text)
	}
	if err != nil {
		return nil, err
	}

	if p.peek().kind == tokenSemicolon {
		p.advance()
	}
	if t := p.peek(); t.kind != tokenEOF {
		return nil, p.errorf("unexpected %s after directive", t)
	}
	return d, nil
}

func (p *pragmaParser) parseAttribute() (Directive, error) {
	p.advance()
	typ, err := p.expectType()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(tokenIdent, "attribute name")
	if err != nil {
		return nil, err
	}
	return AttributeDirective{Line: p.line, Name: name.text, Type: typ}, nil
}

func (p *pragmaParser) parseProperty() (Directive, error) {
	kind := PropertyKind(strings.ToLower(p.advance().text))
	if _, err := p.expect(tokenEquals, "'='"); err != nil {
		return nil, err
	}
	fn, inputs, err := p.parseCall()
	if err != nil {
		return nil, err
	}
	return PropertyDirective{Line: p.line, Kind: kind, Function: fn, Inputs: inputs}, nil
}

func (p *pragmaParser) parseVarying() (Directive, error) {
	extrapolate := false
	if strings.EqualFold(p.peek().text, "extrapolate") {
		extrapolate = true
		p.advance()
	}
	kw, err := p.expect(tokenIdent, "'varying'")
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(kw.text, "varying") {
		return nil, p.errorf("expected 'varying', found %s", kw)
	}
	typ, err := p.expectType()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(tokenIdent, "varying name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenEquals, "'='"); err != nil {
		return nil, err
	}
	fn, inputs, err := p.parseCall()
	if err != nil {
		return nil, err
	}
	return VaryingDirective{
		Line:        p.line,
		Name:        name.text,
		Type:        typ,
		Extrapolate: extrapolate,
		Function:    fn,
		Inputs:      inputs,
	}, nil
}

func (p *pragmaParser) parsePostproject() (Directive, error) {
	p.advance()
	if _, err := p.expect(tokenEquals, "'='"); err != nil {
		return nil, err
	}
	fn, err := p.expect(tokenIdent, "function name")
	if err != nil {
		return nil, err
	}
	return PostprojectDirective{Line: p.line, Function: fn.text}, nil
}

// parseCall parses `fn(a, b, ...)` and returns the function name and its argument names.
func (p *pragmaParser) parseCall() (string, []string, error) {
	fn, err := p.expect(tokenIdent, "function name")
	if err != nil {
		return "", nil, err
	}
	if _, err := p.expect(tokenLParen, "'('"); err != nil {
		return "", nil, err
	}
	var inputs []string
	for {
		arg, err := p.expect(tokenIdent, "attribute name")
		if err != nil {
			return "", nil, err
		}
		inputs = append(inputs, arg.text)

		t := p.advance()
		if t.kind == tokenRParen {
			return fn.text, inputs, nil
		}
		if t.kind != tokenComma {
			return "", nil, p.errorf("expected ',' or ')', found %s", t)
		}
	}
}

func (p *pragmaParser) expectType() (ValueType, error) {
	t, err := p.expect(tokenIdent, "type")
	if err != nil {
		return 0, err
	}
	typ, ok := ParseValueType(t.text)
	if !ok {
		return 0, p.errorf("unsupported type %q, expected float, vec2, vec3 or vec4", t.text)
	}
	return typ, nil
}

func (p *pragmaParser) expect(kind tokenKind, what string) (token, error) {
	t := p.advance()
	if t.kind != kind {
		return t, p.errorf("expected %s, found %s", what, t)
	}
	return t, nil
}

func (p *pragmaParser) peek() token {
	return p.tokens[p.pos]
}

// advance consumes and returns the current token. The trailing EOF token is never consumed.
func (p *pragmaParser) advance() token {
	t := p.tokens[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

func (p *pragmaParser) errorf(format string, args ...any) error {
	return &DirectiveSyntaxError{
		Line:   p.line,
		Text:   p.body,
		Reason: fmt.Sprintf(format, args...),
	}
}
