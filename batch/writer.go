package batch

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/majiddarvishan/wellformed/internal/errors"
)

// Format selects how a Result is printed.
type Format int

const (
	// FormatPlain prints True or False.
	FormatPlain Format = iota
	// FormatIndexed prints <index>:true or <index>:false.
	FormatIndexed
)

func (f Format) String() string {
	switch f {
	case FormatPlain:
		return "plain"
	case FormatIndexed:
		return "indexed"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat is the inverse of Format.String.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "plain":
		return FormatPlain, nil
	case "indexed":
		return FormatIndexed, nil
	}
	return 0, errors.Errorf("unknown output format %q (want plain or indexed)", s)
}

// Writer prints results one per line. Call Flush when done.
type Writer struct {
	w      *bufio.Writer
	format Format
	buf    []byte
}

func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{w: bufio.NewWriter(w), format: format}
}

func (w *Writer) Write(r Result) error {
	b := w.buf[:0]

	switch w.format {
	case FormatIndexed:
		b = strconv.AppendInt(b, int64(r.Index), 10)
		b = append(b, ':')
		b = strconv.AppendBool(b, r.WellFormed)
	default:
		if r.WellFormed {
			b = append(b, "True"...)
		} else {
			b = append(b, "False"...)
		}
	}

	b = append(b, '\n')
	w.buf = b

	_, err := w.w.Write(b)

	return errors.WithStackTrace(err)
}

func (w *Writer) Flush() error {
	return errors.WithStackTrace(w.w.Flush())
}
