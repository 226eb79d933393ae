// Package record defines the value being sorted and its line representation.
package record

import (
	"bytes"
	"cmp"
	"math"
	"strconv"
)

// Record is a single orderable value. Runs and the merged output hold one
// Record per line in its decimal form.
type Record = int64

var (
	// Max is greater than or equal to every Record.
	Max Record = math.MaxInt64
	// Min is less than or equal to every Record.
	Min Record = math.MinInt64
)

// Parse converts a raw line into a Record. Surrounding whitespace, including
// a trailing carriage return, is ignored. Empty lines and lines that are not
// base 10 integers report false.
func Parse(line []byte) (Record, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseString is Parse for strings.
func ParseString(line string) (Record, bool) {
	return Parse([]byte(line))
}

// Append appends the decimal form of r to dst.
func Append(dst []byte, r Record) []byte {
	return strconv.AppendInt(dst, r, 10)
}

// Format returns the decimal form of r.
func Format(r Record) string {
	return strconv.FormatInt(r, 10)
}

// Less orders records ascending.
func Less(a, b Record) bool {
	return a < b
}

// Compare is the three-way form of Less.
func Compare(a, b Record) int {
	return cmp.Compare(a, b)
}
