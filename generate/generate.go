// Package generate writes random integer inputs for the sorter.
package generate

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"math/rand/v2"

	"github.com/davidvella/xsort/record"
	"github.com/davidvella/xsort/recordio"
)

// Default range of generated values, [DefaultMin, DefaultMax).
const (
	DefaultMin = 1
	DefaultMax = 1_000_000_000
)

var ErrInvalidRange = errors.New("generate: invalid range")

type options struct {
	seed     uint64
	seeded   bool
	min, max int64
}

// Option configures generation.
type Option func(*options)

// WithSeed makes the output reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithRange draws values from [min, max).
func WithRange(min, max int64) Option {
	return func(o *options) {
		o.min = min
		o.max = max
	}
}

// Values returns n uniformly distributed random records.
func Values(n int64, opts ...Option) (iter.Seq[record.Record], error) {
	o := options{min: DefaultMin, max: DefaultMax}
	for _, opt := range opts {
		opt(&o)
	}

	span := o.max - o.min
	if o.min >= o.max || span <= 0 {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, o.min, o.max)
	}
	if n < 0 {
		return nil, fmt.Errorf("generate: count must not be negative, got %d", n)
	}

	seed1, seed2 := o.seed, o.seed^0x9e3779b97f4a7c15
	if !o.seeded {
		seed1, seed2 = rand.Uint64(), rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed1, seed2))

	return func(yield func(record.Record) bool) {
		for i := int64(0); i < n; i++ {
			if !yield(o.min + rng.Int64N(span)) {
				return
			}
		}
	}, nil
}

// Write writes n random records to w, one per line.
func Write(w io.Writer, n int64, opts ...Option) error {
	values, err := Values(n, opts...)
	if err != nil {
		return err
	}

	rw := recordio.NewWriter(w)
	if err := rw.WriteAll(values); err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if err := rw.Flush(); err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	return nil
}
