// Package position defines the resume marker for a stream: how far
// consumption has durably progressed.
package position

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned when a stored position string cannot be parsed.
var ErrMalformed = errors.New("position: malformed encoding")

// Position marks a point in an ordered stream. Two encodings exist:
// an opaque Token handed out by the transport and echoed back verbatim,
// and a numeric Sequence ordered by (height, ordinal).
//
// A persisted Position always sits at or before the last payload durably
// applied to the sink, never ahead of it.
type Position interface {
	// Encode returns a string that round-trips exactly through Parse.
	Encode() string

	// Compare orders this position against another of the same encoding.
	// It returns -1, 0 or +1. Tokens are opaque: comparing two distinct
	// tokens (or mixed encodings) returns 0, meaning "unknown".
	Compare(other Position) int
}

// Token is an opaque resumption token supplied by the transport.
// It carries no client-side ordering; treat it as a black box.
type Token string

// Encode returns the token with its encoding prefix.
func (t Token) Encode() string { return "tok:" + string(t) }

// Compare always reports 0: tokens are opaque and carry no client-side
// ordering, so any pair is "unknown".
func (t Token) Compare(Position) int { return 0 }

// Sequence is a numeric position ordered lexicographically by
// (Height, Ordinal). Height is typically a block number and Ordinal
// the transaction's index within it.
type Sequence struct {
	Height  uint64
	Ordinal uint32
}

// Encode returns the sequence with its encoding prefix.
func (s Sequence) Encode() string {
	return fmt.Sprintf("seq:%d/%d", s.Height, s.Ordinal)
}

// Compare orders two sequences. A Sequence compared against a Token
// or nil returns 0 ("unknown").
func (s Sequence) Compare(other Position) int {
	o, ok := other.(Sequence)
	if !ok {
		return 0
	}
	switch {
	case s.Height < o.Height:
		return -1
	case s.Height > o.Height:
		return 1
	case s.Ordinal < o.Ordinal:
		return -1
	case s.Ordinal > o.Ordinal:
		return 1
	default:
		return 0
	}
}

// Parse decodes a string produced by Encode.
func Parse(s string) (Position, error) {
	switch {
	case strings.HasPrefix(s, "tok:"):
		return Token(strings.TrimPrefix(s, "tok:")), nil
	case strings.HasPrefix(s, "seq:"):
		rest := strings.TrimPrefix(s, "seq:")
		height, ordinal, ok := strings.Cut(rest, "/")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, s)
		}
		h, err := strconv.ParseUint(height, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, s)
		}
		o, err := strconv.ParseUint(ordinal, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, s)
		}
		return Sequence{Height: h, Ordinal: uint32(o)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
}

// After reports whether p is strictly ahead of last. A nil last means
// "no progress yet", so any position is ahead of it. Incomparable
// positions (opaque tokens) report true: the transport's delivery order
// is trusted when no client-side ordering exists.
func After(p, last Position) bool {
	if p == nil {
		return false
	}
	if last == nil {
		return true
	}
	if s, ok := p.(Sequence); ok {
		if l, ok := last.(Sequence); ok {
			return s.Compare(l) > 0
		}
	}
	return true
}
