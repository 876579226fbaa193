package bracket

import (
	"fmt"

	"github.com/majiddarvishan/wellformed/internal/errors"
)

var (
	ErrOddLength      = errors.New("odd length")
	ErrUnexpectedChar = errors.New("unexpected character")
	ErrUnclosed       = errors.New("unclosed brackets")
)

// SyntaxError describes why a string is not well-formed.
type SyntaxError struct {
	// Offset is the byte offset of the rejected character, or len(s) when the
	// input ended in a bad state.
	Offset int
	// Char is the rejected character. Zero unless Err is ErrUnexpectedChar.
	Char byte
	// Open holds the frames still open at Offset, innermost last.
	Open []Kind
	Err  error
}

func (e *SyntaxError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnexpectedChar) && len(e.Open) > 0:
		top := e.Open[len(e.Open)-1]
		return fmt.Sprintf("%v %q at offset %d (inside %v, expected %q)", e.Err, e.Char, e.Offset, top, top.Closer())
	case errors.Is(e.Err, ErrUnexpectedChar):
		return fmt.Sprintf("%v %q at offset %d", e.Err, e.Char, e.Offset)
	case errors.Is(e.Err, ErrUnclosed):
		return fmt.Sprintf("%d %v at end of input", len(e.Open), e.Err)
	}
	return e.Err.Error()
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Expected returns the closer that would have been accepted at Offset, if any.
func (e *SyntaxError) Expected() (byte, bool) {
	if len(e.Open) == 0 {
		return 0, false
	}
	return e.Open[len(e.Open)-1].Closer(), true
}
