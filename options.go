package xsort

import (
	"os"

	"github.com/davidvella/xsort/chunk"
	"github.com/davidvella/xsort/merge"
	"github.com/davidvella/xsort/metrics"
	"github.com/davidvella/xsort/store"
	"github.com/sirupsen/logrus"
)

// options defines all configuration options for the sorter.
type options struct {
	// Phase 1
	capacity  int              // Maximum number of records per run
	newSorter chunk.SorterFunc // How a chunk is sorted in memory

	// Phase 2
	strategy merge.Strategy

	// Runs
	store    store.Store // Where runs live; nil means a directory under tempDir
	tempDir  string
	keepRuns bool

	atomicOutput bool

	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

// Option is a function that configures the sorter options.
type Option func(*options)

// WithChunkCapacity sets the maximum number of records held in memory while
// creating runs.
func WithChunkCapacity(c int) Option {
	return func(o *options) {
		o.capacity = c
	}
}

// WithSorter sets how each chunk is sorted in memory.
func WithSorter(f chunk.SorterFunc) Option {
	return func(o *options) {
		o.newSorter = f
	}
}

// WithStrategy sets the merge strategy.
func WithStrategy(s merge.Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithStore sets where runs are kept. The store is used as is; the sorter
// only deletes the runs it created.
func WithStore(s store.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithTempDir sets the directory under which runs are written when no store
// is given.
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// WithKeepRuns leaves the runs in place after a successful sort.
func WithKeepRuns(keep bool) Option {
	return func(o *options) {
		o.keepRuns = keep
	}
}

// WithAtomicOutput makes SortFile write to a temporary file next to the
// output and rename it into place only once the sort succeeded.
func WithAtomicOutput(atomic bool) Option {
	return func(o *options) {
		o.atomicOutput = atomic
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		capacity:  chunk.DefaultCapacity,
		newSorter: chunk.NewSliceSorter,
		strategy:  merge.Heap,
		tempDir:   os.TempDir(),
	}
}
