// Package errors holds the error type value.Decoder uses for
// assembly-time failures (as opposed to jtok.SyntaxError, which
// reports tokenizer-detected syntax failures). Adapted from the
// teacher decoder's internal.SyntaxError: same msg/Context/quoteChar
// shape, repurposed for errors that can only occur while turning an
// already-validated token stream into Go values.
package errors

import (
	"fmt"
	"strconv"
)

// AssemblyError reports a failure reconstructing a value from an
// otherwise well-formed token stream, e.g. a numeric literal whose
// magnitude overflows both int64 and float64 parsing.
type AssemblyError struct {
	Msg     string
	Context string
	Offset  int
	AtChar  byte
}

func (e *AssemblyError) Error() string {
	loc := fmt.Sprintf("%s @%d", quoteChar(e.AtChar), e.Offset)
	if e.Context != "" {
		return fmt.Sprintf("%s %s: %s", e.Msg, e.Context, loc)
	}
	return fmt.Sprintf("%s: %s", e.Msg, loc)
}

// New builds an AssemblyError, applying an optional context string.
func New(msg string, offset int, atChar byte, context ...string) error {
	e := &AssemblyError{Msg: msg, Offset: offset, AtChar: atChar}
	if len(context) > 0 {
		e.Context = context[0]
	}
	return e
}

// quoteChar formats c as a quoted character literal.
func quoteChar(c byte) string {
	if c == '\'' {
		return `'\''`
	}
	if c == '"' {
		return `'"'`
	}
	s := strconv.Quote(string(c))
	return "'" + s[1:len(s)-1] + "'"
}
