// Package condblock splits an SQL body into literal and conditional blocks.
//
// A conditional block is delimited by marker lines:
//
//	SELECT * FROM t
//	WHERE 1=1
//	--~{ active_only
//	AND active = true
//	--~}
//
// The text after the opening marker, up to the end of its line, is the
// condition identifier. Markers are only recognized at the start of the
// input or immediately after a newline.
//
// Parse is total. Malformed syntax (an opener without a matching closer, or
// an opener with no line break after its identifier) is kept as literal text.
//
// Positions are computed over runes so multi-byte characters are never split.
package condblock

import (
	"strings"
	"unicode"
)

const (
	openMarker  = "--~{"
	closeMarker = "--~}"
)

var (
	openRunes  = []rune(openMarker)
	closeRunes = []rune(closeMarker)
)

// BlockKind discriminates Block values.
type BlockKind int

const (
	// BlockLiteral is always included.
	BlockLiteral BlockKind = iota
	// BlockConditional is included when its condition is selected.
	BlockConditional
)

// String returns "literal" or "conditional".
func (k BlockKind) String() string {
	switch k {
	case BlockLiteral:
		return "literal"
	case BlockConditional:
		return "conditional"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k BlockKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Block is one trimmed fragment of an SQL body.
// Condition is empty for literal blocks.
type Block struct {
	Kind      BlockKind `json:"kind"`
	Condition string    `json:"condition,omitempty"`
	Text      string    `json:"text"`
}

// Literal returns a literal block.
func Literal(text string) Block {
	return Block{Kind: BlockLiteral, Text: text}
}

// Conditional returns a conditional block for the given condition identifier.
func Conditional(condition, text string) Block {
	return Block{Kind: BlockConditional, Condition: condition, Text: text}
}

// Parse splits text into blocks in source order.
//
// Text without markers yields a single literal block holding the trimmed
// input. Whitespace-only literal spans are dropped. An empty input yields
// no blocks.
func Parse(text string) []Block {
	input := []rune(text)
	result := make([]Block, 0, 3)

	i := 0
	literalStart := 0
	for i < len(input) {
		if atLineStart(input, i) && hasPrefixAt(input, i, openRunes) {
			// The pending literal is only flushed once the block is known to
			// be terminated; otherwise the opener stays inside it.
			if cond, body, end, ok := parseConditional(input, i); ok {
				if lit := trimRunes(input[literalStart:i]); len(lit) > 0 {
					result = append(result, Literal(string(lit)))
				}
				result = append(result, Conditional(cond, body))
				i = end
				literalStart = i
				continue
			}
		}
		i++
	}

	if literalStart < len(input) {
		if lit := trimRunes(input[literalStart:]); len(lit) > 0 {
			result = append(result, Literal(string(lit)))
		}
	}

	return result
}

// parseConditional reads one block starting at the opener at pos.
// It returns the identifier, the body, and the position just past the
// closing marker's line. ok is false when the opener is not terminated.
func parseConditional(input []rune, pos int) (cond, body string, end int, ok bool) {
	i := pos + len(openRunes)

	idStart := i
	for i < len(input) && input[i] != '\n' {
		i++
	}
	if i >= len(input) {
		return "", "", 0, false
	}

	cond = string(trimRunes(input[idStart:i]))
	bodyStart := i

	for i < len(input) {
		if atLineStart(input, i) && hasPrefixAt(input, i, closeRunes) {
			body = string(trimRunes(input[bodyStart:i]))

			i += len(closeRunes)
			for i < len(input) && input[i] != '\n' {
				i++
			}
			if i < len(input) {
				i++ // trailing newline
			}
			return cond, body, i, true
		}
		i++
	}

	return "", "", 0, false
}

func atLineStart(input []rune, pos int) bool {
	return pos == 0 || input[pos-1] == '\n'
}

func hasPrefixAt(input []rune, pos int, pattern []rune) bool {
	if pos+len(pattern) > len(input) {
		return false
	}
	for j, r := range pattern {
		if input[pos+j] != r {
			return false
		}
	}
	return true
}

func trimRunes(rs []rune) []rune {
	start := 0
	for start < len(rs) && unicode.IsSpace(rs[start]) {
		start++
	}
	end := len(rs)
	for end > start && unicode.IsSpace(rs[end-1]) {
		end--
	}
	return rs[start:end]
}

// Conditions returns the distinct condition identifiers of blocks in the
// order they first appear. Repeated identifiers share one entry.
func Conditions(blocks []Block) []string {
	var out []string
	seen := make(map[string]bool)
	for _, b := range blocks {
		if b.Kind != BlockConditional || seen[b.Condition] {
			continue
		}
		seen[b.Condition] = true
		out = append(out, b.Condition)
	}
	return out
}

// Assemble rebuilds SQL from blocks. Literal text is always written;
// a conditional body is written only when include returns true for its
// condition. Included fragments are separated by a newline.
//
// A nil include excludes every conditional block.
func Assemble(blocks []Block, include func(condition string) bool) string {
	var sb strings.Builder
	for _, b := range blocks {
		switch b.Kind {
		case BlockLiteral:
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(b.Text)
		case BlockConditional:
			if include == nil || !include(b.Condition) {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// Render writes blocks back into marker syntax. Parsing the result yields
// the same blocks.
func Render(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		switch b.Kind {
		case BlockLiteral:
			sb.WriteString(b.Text)
		case BlockConditional:
			sb.WriteString(openMarker)
			if b.Condition != "" {
				sb.WriteByte(' ')
				sb.WriteString(b.Condition)
			}
			sb.WriteByte('\n')
			if b.Text != "" {
				sb.WriteString(b.Text)
				sb.WriteByte('\n')
			}
			sb.WriteString(closeMarker)
		}
	}
	return sb.String()
}
