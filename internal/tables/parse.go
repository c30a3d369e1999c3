package tables

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strings"
)

var trailingCommaRe = regexp.MustCompile(`,(\s*[\]}])`)

// repairStep rewrites a candidate payload. ok is false when the step does not
// apply, in which case no decode attempt is made for it.
type repairStep func(s string) (out string, ok bool)

// repairSteps run in order over the bracketed candidate; every step that
// applies is followed by a decode attempt.
var repairSteps = []repairStep{
	stripTrailingCommas,
	closeDanglingQuote,
	closeBrackets,
}

// Parse recovers tables from raw backend text. It never fails: text that
// cannot be decoded even after repair yields an empty slice.
func Parse(raw string) []Table {
	v, ok := decodeLenient(raw)
	if !ok {
		return []Table{}
	}
	return normalize(v)
}

// ParseResult wraps Parse into an ExtractionResult with the given summary.
func ParseResult(raw, summary string) ExtractionResult {
	return ExtractionResult{Tables: Parse(raw), Summary: summary}
}

func decodeLenient(raw string) (any, bool) {
	text := stripFence(raw)
	if v, ok := decode(text); ok {
		return v, true
	}

	candidate, ok := bracketedRegion(text)
	if !ok {
		return nil, false
	}
	if v, ok := decode(candidate); ok {
		return v, true
	}
	for _, step := range repairSteps {
		next, applied := step(candidate)
		if !applied {
			continue
		}
		candidate = next
		if v, ok := decode(candidate); ok {
			return v, true
		}
	}
	return nil, false
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = s[len("```json"):]
	case strings.HasPrefix(s, "```"):
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func decode(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	// Anything but whitespace after the first value, stray closers
	// included, rejects the candidate.
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return v, true
}

// bracketedRegion returns the outermost array region, falling back to the
// outermost object region.
func bracketedRegion(s string) (string, bool) {
	if start, end := strings.IndexByte(s, '['), strings.LastIndexByte(s, ']'); start != -1 && end > start {
		return s[start : end+1], true
	}
	if start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}'); start != -1 && end > start {
		return s[start : end+1], true
	}
	return "", false
}

func stripTrailingCommas(s string) (string, bool) {
	out := trailingCommaRe.ReplaceAllString(s, "$1")
	return out, out != s
}

func closeDanglingQuote(s string) (string, bool) {
	if unescapedQuotes(s)%2 == 0 {
		return s, false
	}
	return s + `"`, true
}

// closeBrackets appends the closers for every bracket still open at the end
// of s, innermost first. Brackets inside strings are ignored.
func closeBrackets(s string) (string, bool) {
	var open []byte
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
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
		case '[':
			open = append(open, ']')
		case '{':
			open = append(open, '}')
		case ']', '}':
			if n := len(open); n > 0 && open[n-1] == c {
				open = open[:n-1]
			}
		}
	}
	if len(open) == 0 {
		return s, false
	}
	var b strings.Builder
	b.WriteString(strings.TrimRight(s, " \t\r\n,"))
	for i := len(open) - 1; i >= 0; i-- {
		b.WriteByte(open[i])
	}
	out, _ := stripTrailingCommas(b.String())
	return out, true
}

func unescapedQuotes(s string) int {
	n := 0
	escaped := false
	for i := 0; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == '"':
			n++
		}
	}
	return n
}

// payload is the tagged intermediate form between raw JSON and Table. It is
// the only place where the top-level shape and key aliases are resolved.
type payload struct {
	shape   payloadShape
	entries []map[string]any
}

type payloadShape int

const (
	shapeUnknown payloadShape = iota
	shapeArray
	shapeObject
)

func toPayload(v any) payload {
	var list []any
	p := payload{}
	switch t := v.(type) {
	case []any:
		p.shape = shapeArray
		list = t
	case map[string]any:
		p.shape = shapeObject
		list, _ = t["tables"].([]any)
	default:
		return p
	}
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			p.entries = append(p.entries, m)
		}
	}
	return p
}

func normalize(v any) []Table {
	p := toPayload(v)
	out := make([]Table, 0, len(p.entries))
	for _, m := range p.entries {
		out = append(out, tableFromEntry(m))
	}
	return out
}

func tableFromEntry(m map[string]any) Table {
	name := DefaultTableName
	if v, ok := m["tableName"]; ok && v != nil {
		name = cellString(v)
	}

	rawHeaders := firstList(m, "headers", "h")
	headers := make([]string, 0, len(rawHeaders))
	for _, h := range rawHeaders {
		headers = append(headers, cellString(h))
	}

	rawRows := firstList(m, "rows", "r")
	rows := make([][]string, 0, len(rawRows))
	for _, r := range rawRows {
		cells, ok := r.([]any)
		if !ok {
			continue
		}
		row := make([]string, 0, len(cells))
		for _, c := range cells {
			row = append(row, cellString(c))
		}
		rows = append(rows, row)
	}

	return Table{Name: name, Headers: headers, Rows: rows}
}

// firstList returns the first non-empty list stored under one of keys.
func firstList(m map[string]any, keys ...string) []any {
	for _, k := range keys {
		if l, ok := m[k].([]any); ok && len(l) > 0 {
			return l
		}
	}
	return nil
}

// cellString coerces a decoded JSON value to cell text. Falsy values become "".
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
		return "true"
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return ""
		}
		return t.String()
	case []any:
		if len(t) == 0 {
			return ""
		}
	case map[string]any:
		if len(t) == 0 {
			return ""
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}
