// Package docpath resolves property paths written in the lodash get() notation
// ("items", "a.b[0].c", `a["key"].d`) against canonical values, and renders them
// as MongoDB dotted field names.
package docpath

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"jsonbin/pkg/canonical"
)

var (
	ErrEmptyPath     = errors.New("path is empty")
	ErrSyntax        = errors.New("malformed path")
	ErrUnaddressable = errors.New("path segment cannot be addressed as a field")
)

type Path []string

// Parse splits a path into segments. Bracketed segments may be a bare index
// ([0]) or a quoted key (["a.b"], ['x']).
func Parse(raw string) (Path, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyPath
	}

	var (
		segments Path
		current  strings.Builder
	)
	flush := func() {
		segments = append(segments, current.String())
		current.Reset()
	}

	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; c {
		case '.':
			if current.Len() == 0 {
				return nil, fmt.Errorf("%w: empty segment at offset %d", ErrSyntax, i)
			}
			flush()
		case '[':
			if current.Len() > 0 {
				flush()
			}
			end, seg, err := parseBracket(raw, i)
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
			i = end
			if i+1 < len(raw) && raw[i+1] == '.' {
				i++
				if i+1 == len(raw) {
					return nil, fmt.Errorf("%w: trailing dot", ErrSyntax)
				}
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		flush()
	} else if strings.HasSuffix(raw, ".") {
		return nil, fmt.Errorf("%w: trailing dot", ErrSyntax)
	}

	if len(segments) == 0 {
		return nil, ErrEmptyPath
	}
	return segments, nil
}

// parseBracket reads the bracket starting at raw[open] and returns the index of
// the closing bracket and the segment it holds.
func parseBracket(raw string, open int) (int, string, error) {
	if open+1 >= len(raw) {
		return 0, "", fmt.Errorf("%w: unterminated bracket", ErrSyntax)
	}

	if q := raw[open+1]; q == '"' || q == '\'' {
		closeQuote := strings.IndexByte(raw[open+2:], q)
		if closeQuote < 0 {
			return 0, "", fmt.Errorf("%w: unterminated quote", ErrSyntax)
		}
		keyEnd := open + 2 + closeQuote
		if keyEnd+1 >= len(raw) || raw[keyEnd+1] != ']' {
			return 0, "", fmt.Errorf("%w: expected ] after quoted key", ErrSyntax)
		}
		return keyEnd + 1, raw[open+2 : keyEnd], nil
	}

	closeBracket := strings.IndexByte(raw[open:], ']')
	if closeBracket < 0 {
		return 0, "", fmt.Errorf("%w: unterminated bracket", ErrSyntax)
	}
	seg := strings.TrimSpace(raw[open+1 : open+closeBracket])
	if seg == "" {
		return 0, "", fmt.Errorf("%w: empty brackets", ErrSyntax)
	}
	return open + closeBracket, seg, nil
}

func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		if isIndex(seg) {
			b.WriteString("[" + seg + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

// Field renders the path as a MongoDB dotted field name.
func (p Path) Field() (string, error) {
	for _, seg := range p {
		if seg == "" || strings.Contains(seg, ".") || strings.HasPrefix(seg, "$") || strings.ContainsRune(seg, 0) {
			return "", fmt.Errorf("%w: %q", ErrUnaddressable, seg)
		}
	}
	return strings.Join(p, "."), nil
}

// Lookup walks v along p. Object segments match the last member with that
// key; array segments must be indexes in range written without sign or
// leading zeros, so that the field name Mongo sees names the same element. A missing
// segment reports ok == false, like lodash get() returning undefined.
func (p Path) Lookup(v canonical.Value) (canonical.Value, bool) {
	cur := v
	for _, seg := range p {
		switch node := cur.(type) {
		case canonical.Object:
			next, ok := node.Get(seg)
			if !ok {
				return nil, false
			}
			cur = next
		case canonical.Array:
			idx, ok := index(seg, len(node))
			if !ok {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Replace returns a copy of v with the value at p swapped for repl. Only the
// containers along the path are copied; v itself is left untouched. The path
// must resolve exactly as it does for Lookup.
func (p Path) Replace(v canonical.Value, repl canonical.Value) (canonical.Value, bool) {
	if len(p) == 0 {
		return repl, true
	}

	switch node := v.(type) {
	case canonical.Object:
		idx := -1
		for i := len(node) - 1; i >= 0; i-- {
			if node[i].Key == p[0] {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, false
		}
		child, ok := p[1:].Replace(node[idx].Value, repl)
		if !ok {
			return nil, false
		}
		out := slices.Clone(node)
		out[idx].Value = child
		return out, true
	case canonical.Array:
		idx, ok := index(p[0], len(node))
		if !ok {
			return nil, false
		}
		child, ok := p[1:].Replace(node[idx], repl)
		if !ok {
			return nil, false
		}
		out := slices.Clone(node)
		out[idx] = child
		return out, true
	default:
		return nil, false
	}
}

// isIndex reports whether seg is a decimal array index in its shortest form:
// "0" or a digit run without a leading zero.
func isIndex(seg string) bool {
	if seg == "" || len(seg) > 1 && seg[0] == '0' {
		return false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return false
		}
	}
	return true
}

func index(seg string, n int) (int, bool) {
	if !isIndex(seg) {
		return 0, false
	}
	idx, err := strconv.Atoi(seg)
	if err != nil || idx >= n {
		return 0, false
	}
	return idx, true
}
