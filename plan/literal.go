package plan

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLiteral parses a complete literal expression: quoted string,
// number, boolean, null, list or mapping, nested arbitrarily. Both
// Python spellings (True/False/None) and JSON spellings
// (true/false/null) are accepted, since models mix them freely.
// Trailing input after the literal is an error.
func ParseLiteral(s string) (any, error) {
	p := &literalParser{input: s}
	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("plan: trailing input after literal at offset %d", p.pos)
	}
	return value, nil
}

// literalParser is a recursive-descent parser over the literal grammar.
// It deliberately accepts nothing beyond literals: no identifiers, no
// operators, no calls.
type literalParser struct {
	input string
	pos   int
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.input) && isSpace(p.input[p.pos]) {
		p.pos++
	}
}

func (p *literalParser) peek() (byte, bool) {
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *literalParser) parseValue() (any, error) {
	p.skipSpace()
	c, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("plan: unexpected end of literal")
	}

	switch {
	case c == '\'' || c == '"':
		return p.parseString()
	case c == '[':
		return p.parseList()
	case c == '{':
		return p.parseMap()
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return p.parseKeyword()
	}
}

func (p *literalParser) parseString() (string, error) {
	quote := p.input[p.pos]
	p.pos++

	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case '\\':
			if p.pos+1 >= len(p.input) {
				return "", fmt.Errorf("plan: dangling escape in string")
			}
			p.pos++
			switch esc := p.input[p.pos]; esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				// Covers \' \" \\ and anything else verbatim.
				b.WriteByte(esc)
			}
			p.pos++
		case quote:
			p.pos++
			return b.String(), nil
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("plan: unterminated string literal")
}

func (p *literalParser) parseList() ([]any, error) {
	p.pos++ // consume '['
	list := []any{}

	p.skipSpace()
	if c, ok := p.peek(); ok && c == ']' {
		p.pos++
		return list, nil
	}

	for {
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		list = append(list, value)

		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("plan: unterminated list literal")
		}
		switch c {
		case ',':
			p.pos++
			// Tolerate a trailing comma before the closing bracket.
			p.skipSpace()
			if c, ok := p.peek(); ok && c == ']' {
				p.pos++
				return list, nil
			}
		case ']':
			p.pos++
			return list, nil
		default:
			return nil, fmt.Errorf("plan: expected ',' or ']' in list at offset %d", p.pos)
		}
	}
}

func (p *literalParser) parseMap() (map[string]any, error) {
	p.pos++ // consume '{'
	m := map[string]any{}

	p.skipSpace()
	if c, ok := p.peek(); ok && c == '}' {
		p.pos++
		return m, nil
	}

	for {
		keyValue, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		key, ok := keyValue.(string)
		if !ok {
			// Non-string keys (numbers) are stringified; Go maps with
			// mixed key types have no useful representation here.
			key = fmt.Sprint(keyValue)
		}

		p.skipSpace()
		if c, ok := p.peek(); !ok || c != ':' {
			return nil, fmt.Errorf("plan: expected ':' in mapping at offset %d", p.pos)
		}
		p.pos++

		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		m[key] = value

		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("plan: unterminated mapping literal")
		}
		switch c {
		case ',':
			p.pos++
			p.skipSpace()
			if c, ok := p.peek(); ok && c == '}' {
				p.pos++
				return m, nil
			}
		case '}':
			p.pos++
			return m, nil
		default:
			return nil, fmt.Errorf("plan: expected ',' or '}' in mapping at offset %d", p.pos)
		}
	}
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
			// Exponent sign.
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
			return nil, fmt.Errorf("plan: invalid number %q: %w", text, err)
		}
		return f, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil, fmt.Errorf("plan: invalid number %q: %w", text, err)
	}
	return n, nil
}

func (p *literalParser) parseKeyword() (any, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if !isIdentChar(c) {
			break
		}
		p.pos++
	}
	switch p.input[start:p.pos] {
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	case "None", "null", "nil":
		return nil, nil
	default:
		return nil, fmt.Errorf("plan: not a literal: %q", p.input[start:p.pos])
	}
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
