package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParseLiteral parses a Python-style literal (list, dict, tuple, string,
// number, True/False/None) into Go values without evaluating anything.
// Lists and tuples become []any, dicts become map[string]any with keys
// rendered as strings, integers become int64 and floats float64.
func ParseLiteral(s string) (any, error) {
	p := &literalParser{input: s}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("trailing input at offset %d", p.pos)
	}
	return v, nil
}

type literalParser struct {
	input string
	pos   int
}

func (p *literalParser) errf(format string, args ...any) error {
	return fmt.Errorf("offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) peek() (byte, bool) {
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *literalParser) parseValue() (any, error) {
	c, ok := p.peek()
	if !ok {
		return nil, p.errf("unexpected end of input")
	}
	switch {
	case c == '[':
		return p.parseSeq('[', ']')
	case c == '(':
		return p.parseSeq('(', ')')
	case c == '{':
		return p.parseDict()
	case c == '\'' || c == '"':
		return p.parseString()
	case c == '-' || c == '+' || (c >= '0' && c <= '9') || c == '.':
		return p.parseNumber()
	default:
		return p.parseKeyword()
	}
}

func (p *literalParser) parseSeq(open, closing byte) (any, error) {
	p.pos++ // consume open
	items := []any{}
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, p.errf("unterminated sequence")
		}
		if c == closing {
			p.pos++
			return items, nil
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
		c, ok = p.peek()
		switch {
		case !ok:
			return nil, p.errf("unterminated sequence")
		case c == ',':
			p.pos++
		case c == closing:
			// closed on next loop iteration
		default:
			return nil, p.errf("expected ',' or %q, got %q", closing, c)
		}
	}
}

func (p *literalParser) parseDict() (any, error) {
	p.pos++ // consume '{'
	out := map[string]any{}
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, p.errf("unterminated dict")
		}
		if c == '}' {
			p.pos++
			return out, nil
		}
		key, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		c, ok = p.peek()
		if !ok || c != ':' {
			return nil, p.errf("expected ':' after dict key")
		}
		p.pos++
		p.skipSpace()
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out[dictKey(key)] = val
		p.skipSpace()
		c, ok = p.peek()
		switch {
		case !ok:
			return nil, p.errf("unterminated dict")
		case c == ',':
			p.pos++
		case c == '}':
			// closed on next loop iteration
		default:
			return nil, p.errf("expected ',' or '}', got %q", c)
		}
	}
}

// dictKey renders a parsed key as a string so dicts marshal cleanly to JSON.
func dictKey(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

func (p *literalParser) parseString() (any, error) {
	quote := p.input[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if err := p.parseEscape(&b); err != nil {
				return nil, err
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return nil, p.errf("unterminated string")
}

func (p *literalParser) parseEscape(b *strings.Builder) error {
	if p.pos >= len(p.input) {
		return p.errf("dangling escape")
	}
	c := p.input[p.pos]
	p.pos++
	switch c {
	case '\'', '"', '\\':
		b.WriteByte(c)
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '0':
		b.WriteByte(0)
	case 'x':
		return p.writeCodepoint(b, 2)
	case 'u':
		return p.writeCodepoint(b, 4)
	case 'U':
		return p.writeCodepoint(b, 8)
	default:
		// Python keeps unrecognized escapes verbatim.
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return nil
}

func (p *literalParser) writeCodepoint(b *strings.Builder, width int) error {
	if p.pos+width > len(p.input) {
		return p.errf("truncated escape")
	}
	n, err := strconv.ParseUint(p.input[p.pos:p.pos+width], 16, 32)
	if err != nil {
		return p.errf("bad escape: %v", err)
	}
	p.pos += width
	r := rune(n)
	if !utf8.ValidRune(r) {
		return p.errf("invalid codepoint %#x", n)
	}
	b.WriteRune(r)
	return nil
}

func (p *literalParser) parseNumber() (any, error) {
	start := p.pos
	if c, ok := p.peek(); ok && (c == '-' || c == '+') {
		p.pos++
	}
	isFloat := false
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case c >= '0' && c <= '9':
			p.pos++
		case c == '.' || c == 'e' || c == 'E':
			isFloat = true
			p.pos++
		case (c == '-' || c == '+') && isFloat:
			// exponent sign
			p.pos++
		default:
			goto done
		}
	}
done:
	text := p.input[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.errf("bad float %q", text)
		}
		return f, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, p.errf("bad int %q", text)
	}
	return n, nil
}

func (p *literalParser) parseKeyword() (any, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			p.pos++
			continue
		}
		break
	}
	switch p.input[start:p.pos] {
	case "None", "null":
		return nil, nil
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	}
	p.pos = start
	return nil, p.errf("unexpected token")
}
