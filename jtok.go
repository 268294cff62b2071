// Package jtok implements a streaming, push-based JSON tokenizer. It
// walks an input buffer exactly once and reports each syntactic
// element it finds — scalars, strings, and array/object delimiters —
// to an observer callback as (start, end, info) byte-offset triples
// into the caller's own buffer. The tokenizer never copies payload
// bytes, never allocates on its walk, and never builds a tree;
// turning ranges into native values is the observer's job (see the
// value subpackage for a reference one built the same way).
package jtok

import "github.com/xenking/jtok/internal/scanner"

// Info classifies an emitted event. Exactly one kind bit (String,
// Number, True, False, Null, Array, Object) is always set, together
// with a role bit: Open/Close for composites, Value/Key for scalars
// and strings. Bit positions are not part of the contract — use the
// named constants and the Kind/Is helpers, never raw comparisons.
type Info uint16

const (
	String Info = 1 << iota
	Number
	True
	False
	Null
	Array
	Object

	Open
	Close
	Value
	Key
)

const kindMask = String | Number | True | False | Null | Array | Object

// Kind returns i with the role bits masked off.
func (i Info) Kind() Info { return i & kindMask }

// Is reports whether every bit set in mask is also set in i.
func (i Info) Is(mask Info) bool { return i&mask == mask }

// String renders a human-readable label, e.g. "string+key". Useful
// in test failure messages; not a stable serialization format.
func (i Info) String() string {
	var kind string
	switch i.Kind() {
	case String:
		kind = "string"
	case Number:
		kind = "number"
	case True:
		kind = "true"
	case False:
		kind = "false"
	case Null:
		kind = "null"
	case Array:
		kind = "array"
	case Object:
		kind = "object"
	default:
		kind = "unknown"
	}
	switch {
	case i.Is(Open):
		return kind + "+open"
	case i.Is(Close):
		return kind + "+close"
	case i.Is(Key):
		return kind + "+key"
	case i.Is(Value):
		return kind + "+value"
	default:
		return kind
	}
}

// DefaultMaxDepth bounds array/object nesting for Parse; use
// ParseDepth to override it.
const DefaultMaxDepth = 1024

// Observer receives one event per call and reports how the walk
// should continue:
//
//	>0 : continue
//	 0 : stop successfully; Parse returns the cursor at this event
//	<0 : stop with an error; Parse returns this value unchanged
type Observer func(start, end int, info Info) int

// Parse walks exactly one top-level JSON value in input, starting at
// start, reporting each event to observe. It returns the offset one
// past the last byte consumed, or a negative value. A negative,
// observer-unrelated return decodes via OffsetOf to the offending
// byte position; an observer-requested stop/error return is whatever
// the observer itself returned.
func Parse(input []byte, start int, observe Observer) int {
	return ParseDepth(input, start, observe, DefaultMaxDepth)
}

// ParseDepth is Parse with an explicit nesting cap.
func ParseDepth(input []byte, start int, observe Observer, maxDepth int) int {
	if start < 0 {
		return -1
	}
	if start > len(input) {
		return -(start + 1)
	}
	p := &parser{
		Cursor:   scanner.New(input, start),
		observe:  observe,
		maxDepth: maxDepth,
	}
	return p.run()
}

// OffsetOf decodes a parser-detected error code (the -(offset+1)
// convention from §6.3) back into the offending byte offset. It does
// not and cannot distinguish a parser-detected code from a negative
// code an observer chose to mean something else; callers that mix
// the two must track that themselves.
func OffsetOf(code int) (offset int, ok bool) {
	if code >= 0 {
		return 0, false
	}
	return -code - 1, true
}

// parser holds the transient state of one Parse/ParseDepth walk. It
// is never reused across calls and carries no state beyond one walk.
type parser struct {
	*scanner.Cursor
	observe  Observer
	maxDepth int
	depth    int
	stopped  bool
	result   int
}

func (p *parser) run() int {
	p.skipSpaces()
	if !p.dispatchValue() {
		return p.result
	}
	for {
		c := p.Peek()
		if c == 0 {
			return p.Pos
		}
		if !isSpace(c) {
			p.fail(p.Pos)
			return p.result
		}
		p.Next()
	}
}

// fire delivers one event to the observer and applies its control
// code. It returns false once the walk must stop (success or error),
// true to keep going.
func (p *parser) fire(start, end int, info Info) bool {
	code := p.observe(start, end, info)
	if code > 0 {
		return true
	}
	p.stopped = true
	if code == 0 {
		p.result = end
	} else {
		p.result = code
	}
	return false
}

// fail records a parser-detected error at offset and stops the walk.
// Always returns false so callers can `return p.fail(...)`.
func (p *parser) fail(offset int) bool {
	p.stopped = true
	p.result = -(offset + 1)
	return false
}

// skipSpaces advances past JSON whitespace and returns the next
// non-whitespace byte (0 at end of input), leaving Cur() equal to
// that byte. At end of input nothing more is consumed, so Cur()
// still reports the last byte read rather than 0.
func (p *parser) skipSpaces() byte {
	for isSpace(p.Peek()) {
		p.Next()
	}
	return p.Next()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
