package shader

import "fmt"

// tokenKind classifies a lexeme of a directive body.
type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenEquals
	tokenLParen
	tokenRParen
	tokenComma
	tokenSemicolon
	tokenIllegal
)

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of directive"
	case tokenIdent:
		return "identifier"
	case tokenEquals:
		return "'='"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenComma:
		return "','"
	case tokenSemicolon:
		return "';'"
	default:
		return "illegal character"
	}
}

// token is one lexeme together with its byte offset in the directive body.
type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokenIdent || t.kind == tokenIllegal {
		return fmt.Sprintf("%s %q", t.kind, t.text)
	}
	return t.kind.String()
}

// pragmaLexer splits a directive body into tokens. Identifiers follow WGSL rules
// (a letter or underscore, then letters, digits or underscores).
type pragmaLexer struct {
	src string
	pos int
}

func newPragmaLexer(src string) *pragmaLexer {
	return &pragmaLexer{src: src}
}

// next returns the following token, or tokenEOF once the body is consumed.
func (l *pragmaLexer) next() token {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{kind: tokenEOF, pos: l.pos}
	}

	start := l.pos
	c := l.src[l.pos]
	switch {
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokenIdent, text: l.src[start:l.pos], pos: start}
	case c == '=':
		l.pos++
		return token{kind: tokenEquals, text: "=", pos: start}
	case c == '(':
		l.pos++
		return token{kind: tokenLParen, text: "(", pos: start}
	case c == ')':
		l.pos++
		return token{kind: tokenRParen, text: ")", pos: start}
	case c == ',':
		l.pos++
		return token{kind: tokenComma, text: ",", pos: start}
	case c == ';':
		l.pos++
		return token{kind: tokenSemicolon, text: ";", pos: start}
	default:
		l.pos++
		return token{kind: tokenIllegal, text: string(c), pos: start}
	}
}

// tokenize lexes the whole body. The returned slice always ends with a tokenEOF.
func tokenize(src string) []token {
	l := newPragmaLexer(src)
	var tokens []token
	for {
		t := l.next()
		tokens = append(tokens, t)
		if t.kind == tokenEOF {
			return tokens
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
