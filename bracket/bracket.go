// Package bracket checks strings of brackets against a nesting grammar in
// which each bracket kind restricts which kinds may be opened inside it.
//
// At the top level only '(' may open. Inside "(...)" only '{' may open,
// inside "{...}" only '[' may open, and inside "[...]" any of the three may
// open. Every open frame accepts its own closer.
package bracket

import "fmt"

// Kind is one of the three bracket kinds.
type Kind uint8

const (
	Parenthesis Kind = iota
	CurlyBrace
	SquareBracket
)

var kindNames = [...]string{"parenthesis", "curly brace", "square bracket"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Opener returns the opening character for k.
func (k Kind) Opener() byte {
	switch k {
	case Parenthesis:
		return '('
	case CurlyBrace:
		return '{'
	default:
		return '['
	}
}

// Closer returns the closing character for k.
func (k Kind) Closer() byte {
	switch k {
	case Parenthesis:
		return ')'
	case CurlyBrace:
		return '}'
	default:
		return ']'
	}
}

// Op is the outcome of a single transition.
type Op uint8

const (
	Reject Op = iota
	Push
	Pop
)

// Action is the result of feeding one character to a state. Kind is only
// meaningful when Op is Push.
type Action struct {
	Op   Op
	Kind Kind
}

// opens lists, per state, the kind pushed by each opener. Index 0 is the
// initial state, index k+1 is a frame of Kind k.
var opens = [4][3]struct {
	ok   bool
	kind Kind
}{
	{{true, Parenthesis}, {}, {}},
	{{}, {true, CurlyBrace}, {}},
	{{}, {}, {true, SquareBracket}},
	{{true, Parenthesis}, {true, CurlyBrace}, {true, SquareBracket}},
}

func openerIndex(c byte) int {
	switch c {
	case '(':
		return 0
	case '{':
		return 1
	case '[':
		return 2
	}
	return -1
}

// Next is the transition function of the grammar. top is the kind of the
// innermost open frame and is ignored when hasTop is false (the initial
// state).
func Next(top Kind, hasTop bool, c byte) Action {
	state := 0
	if hasTop {
		state = int(top) + 1
	}

	if i := openerIndex(c); i >= 0 {
		if o := opens[state][i]; o.ok {
			return Action{Op: Push, Kind: o.kind}
		}
		return Action{Op: Reject}
	}

	if hasTop && c == top.Closer() {
		return Action{Op: Pop, Kind: top}
	}

	return Action{Op: Reject}
}

// IsWellFormed reports whether s satisfies the nesting grammar with every
// frame closed. The empty string is well-formed.
func IsWellFormed(s string) bool {
	return Validate(s) == nil
}

// Validate is IsWellFormed with a reason. It returns nil for well-formed input
// and a *SyntaxError otherwise.
func Validate(s string) error {
	if len(s) == 0 {
		return nil
	}

	if len(s)%2 != 0 {
		return &SyntaxError{Offset: len(s), Err: ErrOddLength}
	}

	stack := make([]Kind, 0, len(s)/2)
	for i := 0; i < len(s); i++ {
		n := len(stack)

		var top Kind
		if n > 0 {
			top = stack[n-1]
		}

		act := Next(top, n > 0, s[i])
		switch act.Op {
		case Push:
			stack = append(stack, act.Kind)
		case Pop:
			stack = stack[:n-1]
		default:
			return &SyntaxError{Offset: i, Char: s[i], Open: stack, Err: ErrUnexpectedChar}
		}
	}

	if len(stack) > 0 {
		return &SyntaxError{Offset: len(s), Open: stack, Err: ErrUnclosed}
	}

	return nil
}
