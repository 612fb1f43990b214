package medial

import "strings"

// Marker is the canonical placeholder in statement text built by this
// package.
const Marker = '?'

// Tokenizer splits a query into the text segments between placeholder
// markers, leaving markers inside single-quoted literals alone. A query
// with N markers outside literals yields N+1 segments, so that joining the
// segments with Marker reproduces the query.
//
// A Tokenizer makes one pass over its input and cannot be restarted.
type Tokenizer struct {
	query string
	pos   int
	text  string
	done  bool
}

// NewTokenizer returns a Tokenizer reading query.
func NewTokenizer(query string) *Tokenizer {
	return &Tokenizer{query: query}
}

// Scan advances to the next segment, which is then available through Text.
// It returns false once every segment has been produced.
func (t *Tokenizer) Scan() bool {
	if t.done {
		t.text = ""
		return false
	}

	// A segment always starts outside a literal: markers are only
	// boundaries there.
	inLiteral := false
	for i := t.pos; i < len(t.query); i++ {
		switch t.query[i] {
		case '\'':
			inLiteral = !inLiteral
		case Marker:
			if inLiteral {
				continue
			}
			t.text = t.query[t.pos:i]
			t.pos = i + 1
			return true
		}
	}

	t.text = t.query[t.pos:]
	t.pos = len(t.query)
	t.done = true
	return true
}

// Text returns the segment produced by the last call to Scan.
func (t *Tokenizer) Text() string {
	return t.text
}

// Segments returns every segment of query.
func Segments(query string) []string {
	var segments []string
	tk := NewTokenizer(query)
	for tk.Scan() {
		segments = append(segments, tk.Text())
	}
	return segments
}

// JoinSegments joins segments, inserting placeholder(n) between segment n-1
// and segment n. Placeholders are numbered from 1.
func JoinSegments(segments []string, placeholder func(n int) string) string {
	var sb strings.Builder
	for i, seg := range segments {
		if i > 0 {
			sb.WriteString(placeholder(i))
		}
		sb.WriteString(seg)
	}
	return sb.String()
}

// CountPlaceholders returns the number of markers outside literals.
func CountPlaceholders(query string) int {
	n := -1
	tk := NewTokenizer(query)
	for tk.Scan() {
		n++
	}
	return n
}
