// Package plan parses the constrained textual plan format emitted by
// the language model into an executable intermediate representation.
//
// The grammar is a hard external contract with the model prompt:
//
//	identifier = [identifier(key=literal, ...), ...]
//
// where literal is a string, number, boolean, null, list or mapping,
// nested to arbitrary depth. No general-purpose expression evaluator is
// involved; values go through a small recursive-descent literal parser
// and anything that fails it falls back to a plain string.
//
// Information Hiding:
// - Depth/quote tracking for call and argument splitting
// - Literal value grammar and its fallback rules

package plan

import (
	"fmt"
	"regexp"
	"strings"
)

// Level identifies which stage of parsing rejected the input.
type Level int

const (
	// LevelTopLevel is the outer `variable = [...]` anchor.
	LevelTopLevel Level = iota
	// LevelCall is the per-call `name(args)` anchor.
	LevelCall
	// LevelArgument is the per-argument `key=value` anchor.
	LevelArgument
)

// String returns a human-readable stage name.
func (l Level) String() string {
	switch l {
	case LevelTopLevel:
		return "top-level"
	case LevelCall:
		return "call"
	case LevelArgument:
		return "argument"
	default:
		return "unknown"
	}
}

// ParseError reports malformed plan text. The caller should treat it as
// malformed model output, not a retryable transport condition.
type ParseError struct {
	// Stage is the parsing level that failed.
	Stage Level
	// Input is the offending substring.
	Input string
}

func (e *ParseError) Error() string {
	input := e.Input
	if len(input) > 120 {
		input = input[:120] + "..."
	}
	return fmt.Sprintf("plan: invalid %s format: %q", e.Stage, input)
}

// Call is one parsed capability invocation.
type Call struct {
	Name string
	Args map[string]any
}

// Plan is the parsed representation of one plan line. Calls preserve
// the left-to-right order of the source text.
type Plan struct {
	VariableName string
	Calls        []Call
}

var (
	topLevelPattern = regexp.MustCompile(`(?s)^([a-zA-Z_][a-zA-Z0-9_]*)\s*=\s*\[(.*)\]$`)
	callPattern     = regexp.MustCompile(`(?s)^([a-zA-Z_][a-zA-Z0-9_]*)\s*\((.*)\)$`)
	argPattern      = regexp.MustCompile(`(?s)^([a-zA-Z_][a-zA-Z0-9_]*)\s*=(.*)$`)
)

// Parse parses a single plan line. An empty calls list (`var = []`) is
// valid and yields zero calls.
func Parse(input string) (Plan, error) {
	input = strings.TrimSpace(input)

	match := topLevelPattern.FindStringSubmatch(input)
	if match == nil {
		return Plan{}, &ParseError{Stage: LevelTopLevel, Input: input}
	}

	result := Plan{VariableName: match[1]}
	body := strings.TrimSpace(match[2])
	if body == "" {
		return result, nil
	}

	for _, raw := range splitTopLevel(body) {
		call, err := parseCall(raw)
		if err != nil {
			return Plan{}, err
		}
		result.Calls = append(result.Calls, call)
	}
	return result, nil
}

// ParseResponse strips markdown code fences from a raw model response
// and parses the remaining text as a plan line.
func ParseResponse(response string) (Plan, error) {
	return Parse(stripCodeFences(response))
}

// stripCodeFences removes surrounding markdown code block markers
// (```python ... ``` and the like) that models habitually add.
func stripCodeFences(response string) string {
	trimmed := strings.TrimSpace(response)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		// Drop an optional language tag on the fence line.
		if idx := strings.IndexByte(trimmed, '\n'); idx != -1 {
			first := strings.TrimSpace(trimmed[:idx])
			if first != "" && !strings.ContainsAny(first, " =([") {
				trimmed = trimmed[idx+1:]
			}
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "```"))
	}
	return trimmed
}

func parseCall(raw string) (Call, error) {
	match := callPattern.FindStringSubmatch(raw)
	if match == nil {
		return Call{}, &ParseError{Stage: LevelCall, Input: raw}
	}

	call := Call{Name: match[1], Args: map[string]any{}}
	argsBody := strings.TrimSpace(match[2])
	if argsBody == "" {
		return call, nil
	}

	for _, pair := range splitTopLevel(argsBody) {
		key, value, err := parseArgument(raw, pair)
		if err != nil {
			return Call{}, err
		}
		// Repeated keys: last occurrence wins, standard mapping semantics.
		call.Args[key] = value
	}
	return call, nil
}

func parseArgument(callText, pair string) (string, any, error) {
	match := argPattern.FindStringSubmatch(pair)
	if match == nil {
		return "", nil, &ParseError{Stage: LevelArgument, Input: pair}
	}

	key := match[1]
	raw := strings.TrimSpace(match[2])

	value, err := ParseLiteral(raw)
	if err != nil {
		// Bare-word fallback: strip a matching pair of enclosing quotes
		// if present, otherwise keep the raw text as a plain string.
		value = stripMatchingQuotes(raw)
	}
	return key, value, nil
}

func stripMatchingQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '\'' || first == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
