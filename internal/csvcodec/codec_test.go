package csvcodec

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []string{
		"",
		"a,b",
		`he said "hi"`,
		"line1\nline2",
		"nocommas",
		",",
		`"`,
		`""`,
		",,\"\n",
		"trailing\r",
		"  spaced  ",
	}

	for _, s := range tests {
		if got := Decode(Encode(s)); got != s {
			t.Errorf("Decode(Encode(%q)) = %q", s, got)
		}
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"", ""},
		{"a,b", `"a,b"`},
		{`say "x"`, `"say ""x"""`},
		{"two\nlines", "\"two\nlines\""},
	}

	for _, tt := range tests {
		if got := Encode(tt.in); got != tt.want {
			t.Errorf("Encode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecodeLeavesUnquotedTokens(t *testing.T) {
	for _, s := range []string{`"`, `"open`, `close"`, "x"} {
		if got := Decode(s); got != s {
			t.Errorf("Decode(%q) = %q, want unchanged", s, got)
		}
	}
}

func TestJoinSplit(t *testing.T) {
	fields := []string{"Jane Doe", "12, Main St", `the "best"`, "", "Yes"}
	line := Join(fields...)

	if want := `Jane Doe,"12, Main St","the ""best""",,Yes`; line != want {
		t.Fatalf("Join() = %q, want %q", line, want)
	}
	if got := Split(line); !reflect.DeepEqual(got, fields) {
		t.Errorf("Split() = %q, want %q", got, fields)
	}
}

func TestWriterReaderMultilineField(t *testing.T) {
	records := [][]string{
		{"Rex", "Beagle", "3", "[2024-01-02] checkup\n\n[2024-03-04] \"booster\", ok", "Yes"},
		{"Tom", "", "1", "", "No"},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	r := NewReader(&buf)
	var got [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		got = append(got, rec)
	}

	if !reflect.DeepEqual(got, records) {
		t.Errorf("read back %q, want %q", got, records)
	}
}

func TestWriterReaderCarriageReturns(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a\r\nb", "a\nb"},
		{"c\rd", "c\rd"},
		{"a\r\nb|c\rd", "a\nb|c\rd"},
		{"trailing\r", "trailing\r"},
		{"\r\n\r\n", "\n\n"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		w := NewWriter(&buf)
		if err := w.Write([]string{"Rex", tt.in, "Yes"}); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("Flush() error = %v", err)
		}

		rec, err := NewReader(&buf).Read()
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if want := []string{"Rex", tt.want, "Yes"}; !reflect.DeepEqual(rec, want) {
			t.Errorf("read back %q, want %q", rec, want)
		}
	}
}

func TestReaderMalformedRecordContinues(t *testing.T) {
	r := NewReader(strings.NewReader("a,b\"c,d\ne,f\n"))

	if _, err := r.Read(); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Read() error = %v, want ErrMalformed", err)
	}

	rec, err := r.Read()
	if err != nil {
		t.Fatalf("Read() after malformed record error = %v", err)
	}
	if want := []string{"e", "f"}; !reflect.DeepEqual(rec, want) {
		t.Errorf("Read() = %q, want %q", rec, want)
	}
	if r.Line() != 2 {
		t.Errorf("Line() = %d, want 2", r.Line())
	}
}
