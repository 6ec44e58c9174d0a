package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractObject recovers a JSON object from a model response. It tries,
// in order: strict parse, markdown-fence strip, first balanced {...}
// block, stray-backtick strip. The error carries the original snippet
// for diagnostics.
func ExtractObject(response string) (map[string]any, error) {
	trimmed := strings.TrimSpace(response)

	if obj, err := parseObject(trimmed); err == nil {
		return obj, nil
	}

	if inner, ok := stripFence(trimmed); ok {
		if obj, err := parseObject(inner); err == nil {
			return obj, nil
		}
	}

	if block, ok := firstJSONBlock(trimmed); ok {
		if obj, err := parseObject(block); err == nil {
			return obj, nil
		}
	}

	bare := strings.TrimSpace(strings.ReplaceAll(trimmed, "`", ""))
	if obj, err := parseObject(bare); err == nil {
		return obj, nil
	}
	if block, ok := firstJSONBlock(bare); ok {
		if obj, err := parseObject(block); err == nil {
			return obj, nil
		}
	}

	return nil, fmt.Errorf("no JSON object in response: %q", snippet(response))
}

func parseObject(s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// stripFence removes a ``` or ```json markdown fence.
func stripFence(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		// Language hint like "json" on the fence line.
		if firstLine == "" || !strings.ContainsAny(firstLine, "{}[]") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest), true
}

// firstJSONBlock extracts the first balanced {...} or [...] run,
// respecting string literals and escapes.
func firstJSONBlock(s string) (string, bool) {
	start := -1
	var open, close byte
	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			start = i
			open = s[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return "", false
	}

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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

// String returns obj[key] as a string when present.
func String(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// Number returns obj[key] as a float64 and whether it was present. JSON
// numbers decode as float64; numeric strings are accepted too.
func Number(obj map[string]any, key string) (float64, bool) {
	switch v := obj[key].(type) {
	case float64:
		return v, true
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

// Object returns obj[key] as a nested object.
func Object(obj map[string]any, key string) map[string]any {
	m, _ := obj[key].(map[string]any)
	return m
}

// StringMap returns obj[key] as a parameters map.
func StringMap(obj map[string]any, key string) map[string]any {
	m, _ := obj[key].(map[string]any)
	return m
}

// Bool returns obj[key] as a bool, tolerating "true"/"false" strings.
func Bool(obj map[string]any, key string) (bool, bool) {
	switch v := obj[key].(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// Strings returns obj[key] as a string slice.
func Strings(obj map[string]any, key string) []string {
	arr, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
