// Package batch reads batches of bracket strings, validates every line on a
// worker pool and writes the verdicts back in input order.
//
// Input is line oriented: a batch count, then for each batch a string count
// followed by that many strings.
package batch

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/majiddarvishan/wellformed/internal/errors"
)

// MaxLineLength bounds a single input line.
const MaxLineLength = 64 << 20

var (
	ErrMalformedCount = errors.New("malformed count")
	ErrUnexpectedEOF  = errors.New("unexpected end of input")
)

// CountError reports a batch or string count that could not be read.
type CountError struct {
	Line int
	Text string
	Err  error
}

func (e *CountError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *CountError) Unwrap() error {
	return e.Err
}

// Batch is one group of strings. Number is 1-based.
type Batch struct {
	Number int
	Lines  []string
}

// Reader parses batches from a line-oriented stream.
type Reader struct {
	scanner   *bufio.Scanner
	line      int
	started   bool
	remaining uint64
	number    int
}

func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineLength)

	return &Reader{scanner: scanner}
}

// Next returns the next batch, or io.EOF after the last declared batch.
// Anything after the last batch is not read. Input that ends right where the
// very last string should be reads that string as empty.
func (r *Reader) Next() (Batch, error) {
	if !r.started {
		n, err := r.readCount()
		if err != nil {
			return Batch{}, err
		}
		r.started = true
		r.remaining = n
	}

	if r.remaining == 0 {
		return Batch{}, io.EOF
	}

	n, err := r.readCount()
	if err != nil {
		return Batch{}, err
	}

	r.remaining--
	r.number++

	b := Batch{Number: r.number, Lines: make([]string, 0, min(n, 1024))}
	for i := uint64(0); i < n; i++ {
		text, ok, err := r.readLine()
		if err != nil {
			return Batch{}, err
		}
		if !ok {
			// an empty last string needs no line terminator of its own
			if r.remaining != 0 || i != n-1 {
				return Batch{}, errors.Errorf("batch %d, string %d: %w", b.Number, i+1, ErrUnexpectedEOF)
			}
			text = ""
		}
		b.Lines = append(b.Lines, text)
	}

	return b, nil
}

// ReadAll reads every remaining batch.
func (r *Reader) ReadAll() ([]Batch, error) {
	var batches []Batch

	for {
		b, err := r.Next()
		if errors.Is(err, io.EOF) {
			return batches, nil
		}
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
}

func (r *Reader) readCount() (uint64, error) {
	text, ok, err := r.readLine()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &CountError{Line: r.line + 1, Err: ErrUnexpectedEOF}
	}

	n, err := strconv.ParseUint(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, &CountError{Line: r.line, Text: text, Err: fmt.Errorf("%w: %w", ErrMalformedCount, err)}
	}

	return n, nil
}

func (r *Reader) readLine() (string, bool, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", false, errors.WithStackTrace(err)
		}
		return "", false, nil
	}

	r.line++

	return strings.TrimSuffix(r.scanner.Text(), "\r"), true, nil
}
