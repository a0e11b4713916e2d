// Package csvcodec encodes record fields into comma separated lines and back.
//
// A field is quoted only when it has to be: when it contains a comma, a
// double quote or a line break. Quotes inside a quoted field are doubled.
// Decode(Encode(s)) == s holds for every string s.
//
// Reader folds a "\r\n" inside a quoted field into "\n", so Writer writes
// such line breaks as "\n" and a record read back equals the one written.
package csvcodec

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformed is returned by Reader.Read for a record that cannot be parsed.
var ErrMalformed = errors.New("malformed record")

const (
	quote     = '"'
	separator = ','
)

// Encode returns field as a token safe to place between separators.
func Encode(field string) string {
	if !strings.ContainsAny(field, ",\"\n\r") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// Decode reverses Encode. Tokens without a matching pair of outer quotes are
// returned unchanged.
func Decode(token string) string {
	if len(token) < 2 || token[0] != quote || token[len(token)-1] != quote {
		return token
	}
	return strings.ReplaceAll(token[1:len(token)-1], `""`, `"`)
}

// Join encodes every field and joins them with a single comma.
func Join(fields ...string) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(separator)
		}
		b.WriteString(Encode(f))
	}
	return b.String()
}

// Split cuts line on the commas that are not enclosed in quotes and decodes
// each token.
func Split(line string) []string {
	var (
		fields   []string
		inQuotes bool
		start    int
	)
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case quote:
			inQuotes = !inQuotes
		case separator:
			if !inQuotes {
				fields = append(fields, Decode(line[start:i]))
				start = i + 1
			}
		}
	}
	return append(fields, Decode(line[start:]))
}

// Reader reads records written by Writer. Quoted fields may span several
// physical lines.
type Reader struct {
	r *csv.Reader
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return &Reader{r: cr}
}

// Read returns the next record. It returns io.EOF when the input is
// exhausted and an error wrapping ErrMalformed for an unparsable record, in
// which case reading may continue with the next record.
func (r *Reader) Read() ([]string, error) {
	fields, err := r.r.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, pe.StartLine, pe.Err)
		}
		return nil, err
	}
	return fields, nil
}

// Line reports the line on which the most recently read record started.
func (r *Reader) Line() int {
	line, _ := r.r.FieldPos(0)
	return line
}

// Writer writes one record per line, terminated by "\n". A "\r\n" inside a
// field is written as "\n".
type Writer struct {
	w *bufio.Writer
}

// NewWriter returns a Writer buffering into w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write encodes and writes a single record.
func (w *Writer) Write(fields []string) error {
	normalized := make([]string, len(fields))
	for i, f := range fields {
		normalized[i] = strings.ReplaceAll(f, "\r\n", "\n")
	}
	if _, err := w.w.WriteString(Join(normalized...)); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
