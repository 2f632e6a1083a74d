// Package lexing answers one question about a byte offset in TS/JS-family
// source text: is it executable code, or is it inside a comment or a string
// literal. Rule patterns cannot tell those apart on their own; this package
// supplies the missing context without a full tokenizer.
package lexing

import "strings"

// State is the lexical state of an offset.
type State int

const (
	StateCode State = iota
	StateLineComment
	StateBlockComment
	StateString
	StateTemplate
)

func (s State) String() string {
	switch s {
	case StateCode:
		return "code"
	case StateLineComment:
		return "line-comment"
	case StateBlockComment:
		return "block-comment"
	case StateString:
		return "string"
	case StateTemplate:
		return "template"
	}
	return "unknown"
}

// Comment reports whether the state is one of the two comment kinds.
func (s State) Comment() bool {
	return s == StateLineComment || s == StateBlockComment
}

// Classifier scans content in a single forward pass. Queries at
// non-decreasing offsets resume the previous scan; a lower offset restarts
// from the beginning, so batch callers should ask in ascending order.
//
// The machine has four active states over the code baseline: // line
// comments (closed by newline), /* block comments (closed by the first */,
// nesting unsupported), single- or double-quoted strings (backslash escapes
// respected, left open through end of file when unterminated), and backtick
// template literals. Anything after an unterminated quote is therefore
// treated as non-code.
type Classifier struct {
	content string
	pos     int
	state   State
	quote   byte
}

func NewClassifier(content string) *Classifier {
	return &Classifier{content: content}
}

// StateAt returns the lexical state at offset. Offsets at or beyond the end
// of content report the state left by the full scan.
func (c *Classifier) StateAt(offset int) State {
	if offset < 0 {
		offset = 0
	}
	if offset > len(c.content) {
		offset = len(c.content)
	}
	if offset < c.pos {
		c.pos = 0
		c.state = StateCode
		c.quote = 0
	}
	c.advanceTo(offset)
	return c.state
}

// IsCode reports whether offset sits in executable code.
func (c *Classifier) IsCode(offset int) bool {
	return c.StateAt(offset) == StateCode
}

// IsCode is the one-shot form for single queries.
func IsCode(content string, offset int) bool {
	return NewClassifier(content).IsCode(offset)
}

func (c *Classifier) advanceTo(offset int) {
	for c.pos < offset {
		switch c.state {
		case StateCode:
			ch := c.content[c.pos]
			if ch == '/' && c.pos+1 < len(c.content) {
				switch c.content[c.pos+1] {
				case '/':
					c.state = StateLineComment
					c.pos += 2
					continue
				case '*':
					c.state = StateBlockComment
					c.pos += 2
					continue
				}
			}
			switch ch {
			case '\'', '"':
				c.state = StateString
				c.quote = ch
			case '`':
				c.state = StateTemplate
			}
			c.pos++
		case StateLineComment:
			if c.content[c.pos] == '\n' {
				c.state = StateCode
			}
			c.pos++
		case StateBlockComment:
			if c.content[c.pos] == '*' && c.pos+1 < len(c.content) && c.content[c.pos+1] == '/' {
				c.state = StateCode
				c.pos += 2
				continue
			}
			c.pos++
		case StateString, StateTemplate:
			ch := c.content[c.pos]
			if ch == '\\' {
				c.pos += 2
				continue
			}
			if (c.state == StateString && ch == c.quote) || (c.state == StateTemplate && ch == '`') {
				c.state = StateCode
			}
			c.pos++
		}
	}
}

// Position converts a byte offset into a 1-based line and column.
func Position(content string, offset int) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(content) {
		offset = len(content)
	}
	prefix := content[:offset]
	line = strings.Count(prefix, "\n") + 1
	if last := strings.LastIndexByte(prefix, '\n'); last >= 0 {
		col = offset - last
	} else {
		col = offset + 1
	}
	return line, col
}
