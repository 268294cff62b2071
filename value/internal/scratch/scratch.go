// Package scratch provides a growable byte buffer used to unescape
// string spans the core tokenizer located but deliberately left
// encoded. Adapted from the teacher decoder's own scratch buffer; the
// growth policy and the rune-append helper are unchanged, just
// relocated so the core tokenizer package stays free of any
// decode-time allocation helpers.
package scratch

import "unicode/utf8"

type Scratch struct {
	Data []byte
	fill int
}

// Reset empties the buffer for reuse without releasing its capacity.
func (s *Scratch) Reset() { s.fill = 0 }

// Bytes returns the written contents of the buffer.
func (s *Scratch) Bytes() []byte { return s.Data[0:s.fill] }

func (s *Scratch) grow() {
	n := cap(s.Data) * 2
	if n == 0 {
		n = 64
	}
	ndata := make([]byte, n)
	copy(ndata, s.Data[:])
	s.Data = ndata
}

// Add appends a single raw byte.
func (s *Scratch) Add(c byte) {
	if s.fill+1 >= cap(s.Data) {
		s.grow()
	}
	s.Data[s.fill] = c
	s.fill++
}

// AddRune UTF-8 encodes r and appends it, returning the number of
// bytes written.
func (s *Scratch) AddRune(r rune) int {
	if s.fill+utf8.UTFMax >= cap(s.Data) {
		s.grow()
	}
	n := utf8.EncodeRune(s.Data[s.fill:], r)
	s.fill += n
	return n
}
