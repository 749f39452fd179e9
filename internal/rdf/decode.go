package rdf

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Decode parses RDF from r in the given format into a new graph.
func Decode(r io.Reader, format Format) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	switch format {
	case FormatNTriples:
		return DecodeNTriples(string(data))
	case FormatTurtle:
		return DecodeTurtle(string(data))
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// DecodeNTriples parses an N-Triples document.
func DecodeNTriples(src string) (*Graph, error) {
	g := NewGraph()
	p := &parser{src: src, line: 1, prefixes: map[string]string{}}
	for {
		p.skipWS()
		if p.eof() {
			return g, nil
		}
		subj, err := p.parseTerm()
		if err != nil {
			return nil, p.errf("subject: %v", err)
		}
		p.skipWS()
		pred, err := p.parsePredicate()
		if err != nil {
			return nil, p.errf("predicate: %v", err)
		}
		p.skipWS()
		obj, err := p.parseTerm()
		if err != nil {
			return nil, p.errf("object: %v", err)
		}
		p.skipWS()
		if !p.consume('.') {
			return nil, p.errf("expected '.' terminating statement")
		}
		if _, err := g.Add(Triple{Subject: subj, Predicate: pred, Object: obj}); err != nil {
			return nil, p.errf("%v", err)
		}
	}
}

// DecodeTurtle parses a Turtle document. Supported syntax covers what the
// platform reads and writes: @prefix / PREFIX directives, prefixed names,
// 'a', ';' and ',' lists, typed and language-tagged literals, numeric and
// boolean shorthand, and labeled blank nodes. Anonymous blank nodes and
// collections are not supported.
func DecodeTurtle(src string) (*Graph, error) {
	g := NewGraph()
	p := &parser{src: src, line: 1, prefixes: map[string]string{}}
	for {
		p.skipWS()
		if p.eof() {
			return g, nil
		}
		if p.peek() == '@' {
			if err := p.parseAtDirective(); err != nil {
				return nil, err
			}
			continue
		}
		if kw, ok := p.peekKeyword(); ok && (strings.EqualFold(kw, "prefix") || strings.EqualFold(kw, "base")) {
			if err := p.parseSparqlDirective(kw); err != nil {
				return nil, err
			}
			continue
		}
		if err := p.parseStatement(g); err != nil {
			return nil, err
		}
	}
}

type parser struct {
	src      string
	pos      int
	line     int
	prefixes map[string]string
	base     string
}

func (p *parser) eof() bool  { return p.pos >= len(p.src) }
func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) consume(c byte) bool {
	if !p.eof() && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) errf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", p.line, fmt.Sprintf(format, args...))
}

func (p *parser) skipWS() {
	for !p.eof() {
		switch c := p.src[p.pos]; {
		case c == '\n':
			p.line++
			p.pos++
		case c == ' ' || c == '\t' || c == '\r':
			p.pos++
		case c == '#':
			for !p.eof() && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

// peekKeyword returns the bare word at the cursor without consuming it.
func (p *parser) peekKeyword() (string, bool) {
	end := p.pos
	for end < len(p.src) {
		c := p.src[end]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			end++
			continue
		}
		break
	}
	if end == p.pos {
		return "", false
	}
	return p.src[p.pos:end], true
}

func (p *parser) parseAtDirective() error {
	p.pos++ // '@'
	kw, ok := p.peekKeyword()
	if !ok {
		return p.errf("bare '@'")
	}
	p.pos += len(kw)
	switch strings.ToLower(kw) {
	case "prefix":
		if err := p.readPrefixBinding(); err != nil {
			return err
		}
		p.skipWS()
		if !p.consume('.') {
			return p.errf("expected '.' after @prefix")
		}
		return nil
	case "base":
		p.skipWS()
		iri, err := p.readIRIRef()
		if err != nil {
			return err
		}
		p.base = iri
		p.skipWS()
		if !p.consume('.') {
			return p.errf("expected '.' after @base")
		}
		return nil
	default:
		return p.errf("unknown directive @%s", kw)
	}
}

func (p *parser) parseSparqlDirective(kw string) error {
	p.pos += len(kw)
	if strings.EqualFold(kw, "base") {
		p.skipWS()
		iri, err := p.readIRIRef()
		if err != nil {
			return err
		}
		p.base = iri
		return nil
	}
	return p.readPrefixBinding()
}

func (p *parser) readPrefixBinding() error {
	p.skipWS()
	label := p.readToken(":")
	if !p.consume(':') {
		return p.errf("expected ':' in prefix declaration")
	}
	p.skipWS()
	iri, err := p.readIRIRef()
	if err != nil {
		return err
	}
	p.prefixes[label] = iri
	return nil
}

func (p *parser) parseStatement(g *Graph) error {
	subj, err := p.parseTerm()
	if err != nil {
		return p.errf("subject: %v", err)
	}
	if subj.Kind() == KindLiteral {
		return p.errf("literal in subject position")
	}
	for {
		p.skipWS()
		pred, err := p.parsePredicate()
		if err != nil {
			return p.errf("predicate: %v", err)
		}
		for {
			p.skipWS()
			obj, err := p.parseTerm()
			if err != nil {
				return p.errf("object: %v", err)
			}
			if _, err := g.Add(Triple{Subject: subj, Predicate: pred, Object: obj}); err != nil {
				return p.errf("%v", err)
			}
			p.skipWS()
			if !p.consume(',') {
				break
			}
		}
		if p.consume('.') {
			return nil
		}
		if !p.consume(';') {
			return p.errf("expected ';' or '.'")
		}
		// Trailing or repeated semicolons before the final dot.
		for {
			p.skipWS()
			if p.consume(';') {
				continue
			}
			break
		}
		if p.consume('.') {
			return nil
		}
	}
}

func (p *parser) parsePredicate() (IRI, error) {
	if kw, ok := p.peekKeyword(); ok && kw == "a" {
		next := p.pos + 1
		if next >= len(p.src) || isTokenDelim(p.src[next]) {
			p.pos++
			return RDFType, nil
		}
	}
	t, err := p.parseTerm()
	if err != nil {
		return IRI{}, err
	}
	iri, ok := t.(IRI)
	if !ok {
		return IRI{}, fmt.Errorf("predicate must be an IRI, got %s", t)
	}
	return iri, nil
}

func (p *parser) parseTerm() (Term, error) {
	if p.eof() {
		return nil, fmt.Errorf("unexpected end of input")
	}
	switch c := p.peek(); {
	case c == '<':
		iri, err := p.readIRIRef()
		if err != nil {
			return nil, err
		}
		return NewIRI(iri)
	case c == '_':
		return p.readBNode()
	case c == '"':
		return p.readLiteral()
	case c == '+' || c == '-' || (c >= '0' && c <= '9'):
		return p.readNumber()
	default:
		return p.readPrefixedOrKeyword()
	}
}

func (p *parser) readIRIRef() (string, error) {
	if !p.consume('<') {
		return "", fmt.Errorf("expected '<'")
	}
	start := p.pos
	for !p.eof() {
		if p.peek() == '>' {
			iri := p.src[start:p.pos]
			p.pos++
			if p.base != "" && !strings.Contains(iri, ":") {
				iri = p.base + iri
			}
			return decodeUCHAR(iri), nil
		}
		p.pos++
	}
	return "", fmt.Errorf("unterminated IRI")
}

func (p *parser) readBNode() (Term, error) {
	if p.pos+1 >= len(p.src) || p.src[p.pos+1] != ':' {
		return nil, fmt.Errorf("expected '_:'")
	}
	p.pos += 2
	label := p.readToken("")
	if label == "" {
		return nil, fmt.Errorf("empty blank node label")
	}
	return BNode{ID: label}, nil
}

func (p *parser) readLiteral() (Term, error) {
	val, err := p.readQuoted()
	if err != nil {
		return nil, err
	}
	if p.consume('@') {
		start := p.pos
		for !p.eof() {
			c := p.peek()
			if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' {
				p.pos++
				continue
			}
			break
		}
		if p.pos == start {
			return nil, fmt.Errorf("empty language tag")
		}
		return NewLangLiteral(val, p.src[start:p.pos]), nil
	}
	if strings.HasPrefix(p.src[p.pos:], "^^") {
		p.pos += 2
		t, err := p.parseTerm()
		if err != nil {
			return nil, fmt.Errorf("datatype: %v", err)
		}
		dt, ok := t.(IRI)
		if !ok {
			return nil, fmt.Errorf("datatype must be an IRI")
		}
		return NewTypedLiteral(val, dt), nil
	}
	return NewLiteral(val), nil
}

func (p *parser) readQuoted() (string, error) {
	if !p.consume('"') {
		return "", fmt.Errorf("expected '\"'")
	}
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.eof() {
				return "", fmt.Errorf("dangling escape")
			}
			esc := p.src[p.pos]
			p.pos++
			switch esc {
			case 't':
				b.WriteByte('\t')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case '"', '\\', '\'':
				b.WriteByte(esc)
			case 'u', 'U':
				width := 4
				if esc == 'U' {
					width = 8
				}
				if p.pos+width > len(p.src) {
					return "", fmt.Errorf("truncated \\%c escape", esc)
				}
				code, err := strconv.ParseUint(p.src[p.pos:p.pos+width], 16, 32)
				if err != nil {
					return "", fmt.Errorf("bad \\%c escape: %v", esc, err)
				}
				p.pos += width
				b.WriteRune(rune(code))
			default:
				return "", fmt.Errorf("unknown escape \\%c", esc)
			}
		case '\n':
			return "", fmt.Errorf("newline in literal")
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated literal")
}

func (p *parser) readNumber() (Term, error) {
	start := p.pos
	decimal := false
	if p.peek() == '+' || p.peek() == '-' {
		p.pos++
	}
	for !p.eof() {
		c := p.peek()
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' && p.pos+1 < len(p.src) && p.src[p.pos+1] >= '0' && p.src[p.pos+1] <= '9' {
			decimal = true
			p.pos++
			continue
		}
		break
	}
	text := p.src[start:p.pos]
	if text == "" || text == "+" || text == "-" {
		return nil, fmt.Errorf("malformed number")
	}
	if decimal {
		return NewTypedLiteral(text, XSDDecimal), nil
	}
	return NewTypedLiteral(text, XSDInteger), nil
}

func (p *parser) readPrefixedOrKeyword() (Term, error) {
	token := p.readToken("")
	if token == "" {
		return nil, fmt.Errorf("unexpected character %q", p.peek())
	}
	switch token {
	case "true", "false":
		return NewTypedLiteral(token, XSDBoolean), nil
	}
	idx := strings.Index(token, ":")
	if idx < 0 {
		return nil, fmt.Errorf("expected prefixed name, got %q", token)
	}
	ns, ok := p.prefixes[token[:idx]]
	if !ok {
		return nil, fmt.Errorf("undeclared prefix %q", token[:idx])
	}
	return NewIRI(ns + token[idx+1:])
}

// readToken reads until a delimiter; extra lists additional stop bytes.
func (p *parser) readToken(extra string) string {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if isTokenDelim(c) || strings.IndexByte(extra, c) >= 0 {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func isTokenDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', ';', ',', '.', '<', '>', '"', '#', '(', ')', '[', ']':
		return true
	}
	return false
}

func decodeUCHAR(s string) string {
	if !strings.Contains(s, "\\u") && !strings.Contains(s, "\\U") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == 'u' || s[i+1] == 'U') {
			width := 4
			if s[i+1] == 'U' {
				width = 8
			}
			if i+2+width <= len(s) {
				if code, err := strconv.ParseUint(s[i+2:i+2+width], 16, 32); err == nil {
					b.WriteRune(rune(code))
					i += 2 + width
					continue
				}
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}
