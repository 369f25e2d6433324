package plan

// scanState labels where the splitter is relative to quoted strings.
type scanState int

const (
	stateDefault scanState = iota
	stateSingleQuote
	stateDoubleQuote
)

// splitTopLevel splits s on commas that sit outside every level of
// (), [] and {} nesting and outside quoted strings, so commas inside
// argument values never act as separators. The final segment needs no
// trailing comma. Empty segments (trailing commas) are dropped.
func splitTopLevel(s string) []string {
	var segments []string
	var depthParen, depthBracket, depthBrace int
	state := stateDefault
	start := 0

	flush := func(end int) {
		segment := trimSpace(s[start:end])
		if segment != "" {
			segments = append(segments, segment)
		}
		start = end + 1
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch state {
		case stateSingleQuote:
			if c == '\\' {
				i++ // skip escaped character
			} else if c == '\'' {
				state = stateDefault
			}
		case stateDoubleQuote:
			if c == '\\' {
				i++
			} else if c == '"' {
				state = stateDefault
			}
		case stateDefault:
			switch c {
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			case '(':
				depthParen++
			case ')':
				depthParen--
			case '[':
				depthBracket++
			case ']':
				depthBracket--
			case '{':
				depthBrace++
			case '}':
				depthBrace--
			case ',':
				if depthParen == 0 && depthBracket == 0 && depthBrace == 0 {
					flush(i)
				}
			}
		}
	}
	flush(len(s))
	return segments
}

func trimSpace(s string) string {
	start := 0
	for start < len(s) && isSpace(s[start]) {
		start++
	}
	end := len(s)
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
