package recordio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/davidvella/xsort/record"
)

const (
	// DefaultBufferSize is the maximum line length accepted by a Reader and
	// the buffer size of a Writer.
	DefaultBufferSize = 64 * 1024
	initialScanBuffer = 4 * 1024
)

// ErrMalformed is returned by strict readers when a line is not a record.
var ErrMalformed = errors.New("recordio: malformed record")

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithBufferSize sets the longest line a Reader accepts.
func WithBufferSize(size int) ReaderOption {
	return func(r *Reader) {
		r.bufSize = size
	}
}

// Strict makes a Reader fail with ErrMalformed instead of skipping lines that
// do not parse. Runs are read strictly since they were written by us.
func Strict() ReaderOption {
	return func(r *Reader) {
		r.strict = true
	}
}

// Reader is a forward-only reader over newline delimited records. Lines that
// are empty or not integers are skipped and counted, including lines longer
// than the buffer size. A strict Reader fails on those with bufio.ErrTooLong.
type Reader struct {
	sc        *bufio.Scanner
	bufSize   int
	strict    bool
	skipping  bool
	err       error
	lines     int64
	discarded int64
	done      bool
}

func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	rd := &Reader{bufSize: DefaultBufferSize}
	for _, opt := range opts {
		opt(rd)
	}
	rd.sc = bufio.NewScanner(r)
	rd.sc.Buffer(make([]byte, 0, min(initialScanBuffer, rd.bufSize)), rd.bufSize)
	rd.sc.Split(rd.split)
	return rd
}

// overlong stands in for a dropped line. It never parses, so the line is
// counted as discarded.
var overlong = []byte{}

// split is bufio.ScanLines, except that a line filling the whole buffer is
// dropped up to its newline instead of failing the scan.
func (r *Reader) split(data []byte, atEOF bool) (int, []byte, error) {
	if r.skipping {
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			r.skipping = false
			return i + 1, overlong, nil
		}
		if atEOF {
			r.skipping = false
			return len(data), overlong, nil
		}
		return len(data), nil, nil
	}

	advance, token, err := bufio.ScanLines(data, atEOF)
	if token == nil && err == nil && !atEOF && !r.strict && len(data) >= r.bufSize {
		r.skipping = true
		return len(data), nil, nil
	}
	return advance, token, err
}

// Next returns the next record. It reports false once the source is
// exhausted or failed; Err distinguishes the two.
func (r *Reader) Next() (record.Record, bool) {
	for !r.done {
		if !r.sc.Scan() {
			r.done = true
			if err := r.sc.Err(); err != nil {
				r.err = fmt.Errorf("recordio: failed to read line %d: %w", r.lines+1, err)
			}
			break
		}
		r.lines++
		v, ok := record.Parse(r.sc.Bytes())
		if ok {
			return v, true
		}
		if r.strict {
			r.done = true
			r.err = fmt.Errorf("%w: line %d: %q", ErrMalformed, r.lines, r.sc.Text())
			break
		}
		r.discarded++
	}
	return 0, false
}

// All returns an iterator over the remaining records.
func (r *Reader) All() iter.Seq[record.Record] {
	return func(yield func(record.Record) bool) {
		for {
			v, ok := r.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Err returns the first error met while reading. Reaching the end of the
// source is not an error.
func (r *Reader) Err() error {
	return r.err
}

// Lines returns the number of raw lines consumed.
func (r *Reader) Lines() int64 {
	return r.lines
}

// Discarded returns the number of lines skipped because they did not parse.
func (r *Reader) Discarded() int64 {
	return r.discarded
}

// Writer writes one record per line through a buffer.
type Writer struct {
	w     *bufio.Writer
	buf   []byte
	count int64
}

func NewWriter(w io.Writer) *Writer {
	return NewWriterSize(w, DefaultBufferSize)
}

func NewWriterSize(w io.Writer, size int) *Writer {
	return &Writer{
		w:   bufio.NewWriterSize(w, size),
		buf: make([]byte, 0, 24),
	}
}

// Write buffers a single record.
func (w *Writer) Write(r record.Record) error {
	w.buf = record.Append(w.buf[:0], r)
	w.buf = append(w.buf, '\n')
	if _, err := w.w.Write(w.buf); err != nil {
		return fmt.Errorf("recordio: failed to write record: %w", err)
	}
	w.count++
	return nil
}

// WriteAll buffers every record of seq.
func (w *Writer) WriteAll(seq iter.Seq[record.Record]) error {
	for r := range seq {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("recordio: failed to flush: %w", err)
	}
	return nil
}

// Count returns the number of records written so far.
func (w *Writer) Count() int64 {
	return w.count
}

// ReadAll reads every parseable record of r into a slice.
func ReadAll(r io.Reader) ([]record.Record, error) {
	rd := NewReader(r)
	records := make([]record.Record, 0, 1)
	for v := range rd.All() {
		records = append(records, v)
	}
	return records, rd.Err()
}

// WriteRecords writes records to w, one per line.
func WriteRecords(w io.Writer, records ...record.Record) error {
	rw := NewWriter(w)
	for _, r := range records {
		if err := rw.Write(r); err != nil {
			return err
		}
	}
	return rw.Flush()
}

// Head returns up to n raw lines from the start of r, unparsed.
func Head(r io.Reader, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, initialScanBuffer), DefaultBufferSize)
	lines := make([]string, 0, n)
	for len(lines) < n && sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return lines, fmt.Errorf("recordio: failed to read head: %w", err)
	}
	return lines, nil
}
