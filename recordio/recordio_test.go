package recordio_test

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/davidvella/xsort/record"
	"github.com/davidvella/xsort/recordio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errWrite = errors.New("its a me errorio")
	errRead  = errors.New("i failed to read")
)

type mockWriter struct {
	errorCounter int
	counter      int
}

func (w *mockWriter) Write(p []byte) (n int, err error) {
	w.counter++
	if w.counter == w.errorCounter {
		return 0, errWrite
	}
	return len(p), nil
}

type mockReader struct {
	io.Reader
	errorCounter int
	counter      int
}

func newMockReader(data string, errorCounter int) *mockReader {
	return &mockReader{Reader: strings.NewReader(data), errorCounter: errorCounter}
}

func (r *mockReader) Read(p []byte) (n int, err error) {
	r.counter++
	if r.counter == r.errorCounter {
		return 0, errRead
	}
	// One byte at a time so the error lands mid stream.
	if len(p) > 1 {
		p = p[:1]
	}
	return r.Reader.Read(p)
}

func TestReader(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		want          []record.Record
		wantLines     int64
		wantDiscarded int64
	}{
		{
			name:      "plain lines",
			input:     "5\n3\n9\n1\n",
			want:      []record.Record{5, 3, 9, 1},
			wantLines: 4,
		},
		{
			name:          "blank and non numeric lines",
			input:         "4\n\nabc\n2\n",
			want:          []record.Record{4, 2},
			wantLines:     4,
			wantDiscarded: 2,
		},
		{
			name:      "no trailing newline",
			input:     "7\n8",
			want:      []record.Record{7, 8},
			wantLines: 2,
		},
		{
			name:      "windows line endings",
			input:     "7\r\n8\r\n",
			want:      []record.Record{7, 8},
			wantLines: 2,
		},
		{
			name:  "empty input",
			input: "",
			want:  []record.Record{},
		},
		{
			name:          "only garbage",
			input:         "x\ny\n\n",
			want:          []record.Record{},
			wantLines:     3,
			wantDiscarded: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rd := recordio.NewReader(strings.NewReader(tt.input))
			got := []record.Record{}
			for v := range rd.All() {
				got = append(got, v)
			}

			assert.NoError(t, rd.Err())
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantLines, rd.Lines())
			assert.Equal(t, tt.wantDiscarded, rd.Discarded())
		})
	}
}

func TestReaderNext(t *testing.T) {
	rd := recordio.NewReader(strings.NewReader("1\n2\n"))

	v, ok := rd.Next()
	assert.True(t, ok)
	assert.Equal(t, record.Record(1), v)

	v, ok = rd.Next()
	assert.True(t, ok)
	assert.Equal(t, record.Record(2), v)

	_, ok = rd.Next()
	assert.False(t, ok)
	_, ok = rd.Next()
	assert.False(t, ok)
	assert.NoError(t, rd.Err())
}

func TestReaderStopEarly(t *testing.T) {
	rd := recordio.NewReader(strings.NewReader("1\n2\n3\n"))
	for v := range rd.All() {
		if v == 2 {
			break
		}
	}

	rest := []record.Record{}
	for v := range rd.All() {
		rest = append(rest, v)
	}
	assert.Equal(t, []record.Record{3}, rest)
}

func TestReaderHandleError(t *testing.T) {
	rd := recordio.NewReader(newMockReader("10\n20\n30\n", 4))

	got := []record.Record{}
	for v := range rd.All() {
		got = append(got, v)
	}

	assert.Equal(t, []record.Record{10}, got)
	assert.ErrorIs(t, rd.Err(), errRead)
}

func TestReaderLineTooLong(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		want          []record.Record
		wantDiscarded int64
		wantLines     int64
	}{
		{
			name:          "between records",
			input:         "1\n123456789012345\n2\n",
			want:          []record.Record{1, 2},
			wantDiscarded: 1,
			wantLines:     3,
		},
		{
			name:          "several buffers long",
			input:         "1\n" + strings.Repeat("x", 100) + "\n\n3\n",
			want:          []record.Record{1, 3},
			wantDiscarded: 2,
			wantLines:     4,
		},
		{
			name:          "last line without newline",
			input:         "1\n" + strings.Repeat("9", 20),
			want:          []record.Record{1},
			wantDiscarded: 1,
			wantLines:     2,
		},
		{
			name:          "first line",
			input:         strings.Repeat("7", 8) + "\n4\n",
			want:          []record.Record{4},
			wantDiscarded: 1,
			wantLines:     2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rd := recordio.NewReader(strings.NewReader(tt.input), recordio.WithBufferSize(8))

			got := []record.Record{}
			for v := range rd.All() {
				got = append(got, v)
			}

			require.NoError(t, rd.Err())
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantDiscarded, rd.Discarded())
			assert.Equal(t, tt.wantLines, rd.Lines())
		})
	}
}

func TestReaderLineTooLongStrict(t *testing.T) {
	rd := recordio.NewReader(strings.NewReader("1\n123456789012345\n2\n"), recordio.WithBufferSize(8), recordio.Strict())

	got := []record.Record{}
	for v := range rd.All() {
		got = append(got, v)
	}

	assert.Equal(t, []record.Record{1}, got)
	assert.ErrorIs(t, rd.Err(), bufio.ErrTooLong)
}

func TestReaderStrict(t *testing.T) {
	rd := recordio.NewReader(strings.NewReader("1\nnope\n2\n"), recordio.Strict())

	got := []record.Record{}
	for v := range rd.All() {
		got = append(got, v)
	}

	assert.Equal(t, []record.Record{1}, got)
	assert.ErrorIs(t, rd.Err(), recordio.ErrMalformed)
	assert.Contains(t, rd.Err().Error(), "line 2")
}

func TestWriter(t *testing.T) {
	buf := new(bytes.Buffer)
	w := recordio.NewWriter(buf)

	for _, v := range []record.Record{1, -2, 30} {
		require.NoError(t, w.Write(v))
	}
	assert.Equal(t, 0, buf.Len(), "records stay buffered until flush")
	require.NoError(t, w.Flush())

	assert.Equal(t, "1\n-2\n30\n", buf.String())
	assert.Equal(t, int64(3), w.Count())
}

func TestWriterHandleError(t *testing.T) {
	tests := []struct {
		name    string
		records int
		size    int
	}{
		{name: "fails on flush", records: 1, size: 4096},
		{name: "fails on buffer spill", records: 100, size: 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := recordio.NewWriterSize(&mockWriter{errorCounter: 1}, tt.size)

			var err error
			for i := 0; i < tt.records && err == nil; i++ {
				err = w.Write(record.Record(i))
			}
			if err == nil {
				err = w.Flush()
			}

			assert.ErrorIs(t, err, errWrite)
		})
	}
}

func TestWriteAllAndReadAll(t *testing.T) {
	buf := new(bytes.Buffer)
	w := recordio.NewWriter(buf)
	rd := recordio.NewReader(strings.NewReader("3\n\n1\n2\n"))

	require.NoError(t, w.WriteAll(rd.All()))
	require.NoError(t, w.Flush())

	got, err := recordio.ReadAll(buf)
	require.NoError(t, err)
	assert.Equal(t, []record.Record{3, 1, 2}, got)
}

func TestHead(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, recordio.WriteRecords(buf, 1, 2, 3, 4))

	lines, err := recordio.Head(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, lines)

	lines, err = recordio.Head(strings.NewReader("a\n\nb"), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "", "b"}, lines)
}

func BenchmarkReader(b *testing.B) {
	b.ReportAllocs()
	buf := new(bytes.Buffer)
	records := make([]record.Record, 10000)
	for i := range records {
		records[i] = record.Record(i * 7919 % 1000003)
	}
	if err := recordio.WriteRecords(buf, records...); err != nil {
		b.Fatal(err)
	}
	data := buf.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rd := recordio.NewReader(bytes.NewReader(data))
		for range rd.All() {
		}
	}
}
