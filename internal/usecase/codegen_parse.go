package usecase

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"telegram-ai-forge/internal/domain"
)

var (
	fencedBlockRe = regexp.MustCompile("(?s)```[a-zA-Z0-9]*[ \t]*\r?\n?(.*?)```")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// parseCodegenResponse recovers a JSON object from raw model output.
// The fix-up passes run in a fixed order: trim, unwrap the first fenced
// block, cut from the first '{' to the last '}', drop trailing commas,
// then parse. A failed parse gets exactly one more attempt with comments
// stripped; after that the error is final.
//
// The result is an untyped tree. Shape rules are validateCodegenTree's
// job, not the parser's.
func parseCodegenResponse(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)

	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}

	text = trailingComma.ReplaceAllString(text, "$1")

	tree, err := decodeObject(text)
	if err == nil {
		return tree, nil
	}

	stripped := stripJSONComments(text)
	tree, retryErr := decodeObject(stripped)
	if retryErr == nil {
		return tree, nil
	}

	return nil, &domain.ParseError{
		ResponseLen: len(raw),
		Offset:      syntaxOffset(retryErr),
		Err:         retryErr,
	}
}

func decodeObject(text string) (map[string]any, error) {
	var tree map[string]any
	if err := json.Unmarshal([]byte(text), &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func syntaxOffset(err error) int64 {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return syn.Offset
	}
	var typ *json.UnmarshalTypeError
	if errors.As(err, &typ) {
		return typ.Offset
	}
	return -1
}

// stripJSONComments removes // line comments and /* */ block comments
// while leaving string literals untouched, so URLs like "https://x"
// survive the pass.
func stripJSONComments(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inString := false
	escaped := false
	i := 0
	for i < len(text) {
		c := text[i]

		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			i++
			continue
		}

		switch {
		case c == '"':
			inString = true
			b.WriteByte(c)
			i++
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			for i < len(text) && text[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			i += 2
			for i+1 < len(text) && !(text[i] == '*' && text[i+1] == '/') {
				i++
			}
			i += 2
			if i > len(text) {
				i = len(text)
			}
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}
