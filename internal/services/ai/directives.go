package ai

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/wayfarerhq/wayfarer/internal/models"
)

const directivesType = "ui_directives"

// ExtractDirectives pulls a trailing ui_directives JSON block out of an
// assistant reply. It returns the reply with the block removed and the parsed
// directives, or the original reply and nil when no well-formed block exists.
// Directives come out of generative text: anything malformed is ignored, never
// an error.
func ExtractDirectives(reply string) (string, *models.UIDirectives) {
	body := reply

	// Unwrap a trailing fenced code block first, the common model output shape.
	if fenced, rest, ok := trailingFence(body); ok {
		if d := parseDirectives(fenced); d != nil {
			return strings.TrimSpace(rest), d
		}
	}

	marker := strings.LastIndex(body, directivesType)
	if marker < 0 {
		return reply, nil
	}

	// Walk opening braces backward from the marker until one of them brace-
	// matches to a complete object that parses as a directive payload.
	search := body[:marker]
	for {
		start := strings.LastIndex(search, "{")
		if start < 0 {
			return reply, nil
		}
		end, ok := matchBraces(body, start)
		if ok {
			if d := parseDirectives(body[start : end+1]); d != nil {
				clean := strings.TrimSpace(body[:start] + body[end+1:])
				return clean, d
			}
		}
		search = search[:start]
	}
}

func parseDirectives(raw string) *models.UIDirectives {
	var d models.UIDirectives
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil
	}
	if d.Type != directivesType {
		return nil
	}
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = time.Now().UTC()
	}
	return &d
}

// trailingFence returns the contents of a ``` block that closes the reply,
// plus everything before the fence.
func trailingFence(s string) (inner, rest string, ok bool) {
	trimmed := strings.TrimRight(s, " \t\n")
	if !strings.HasSuffix(trimmed, "```") {
		return "", "", false
	}
	body := trimmed[:len(trimmed)-3]
	open := strings.LastIndex(body, "```")
	if open < 0 {
		return "", "", false
	}
	inner = body[open+3:]
	// Drop a language tag like ```json.
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		if lang := strings.TrimSpace(inner[:nl]); lang == "" || isFenceLang(lang) {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner), body[:open], true
}

func isFenceLang(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// matchBraces returns the index of the brace closing the object opened at
// start, honoring JSON string literals and escapes.
func matchBraces(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
