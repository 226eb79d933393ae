package xsort

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/davidvella/xsort/chunk"
	"github.com/davidvella/xsort/merge"
	"github.com/davidvella/xsort/monitoring"
	"github.com/davidvella/xsort/recordio"
	"github.com/davidvella/xsort/store"
	"github.com/davidvella/xsort/store/local"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// ErrInvalidOptions is returned by New for a configuration that cannot sort.
var ErrInvalidOptions = errors.New("xsort: invalid options")

// Result describes a finished sort.
type Result struct {
	// Runs is the number of runs created in the first phase.
	Runs int
	// Records is the number of records written to the output.
	Records int64
	// Discarded is the number of input lines skipped because they were not
	// integers.
	Discarded int64
	ChunkTook time.Duration
	MergeTook time.Duration
}

// Sorter sorts streams of integers larger than memory by spilling sorted runs
// to a store and merging them.
type Sorter struct {
	opts options
	log  logrus.FieldLogger
}

// New creates a sorter. It fails with ErrInvalidOptions when the chunk
// capacity is below one, the merge strategy is unknown or there is neither a
// store nor a temporary directory to hold runs.
func New(opts ...Option) (*Sorter, error) {
	// Apply default options
	o := defaultOptions()

	// Apply user options
	for _, opt := range opts {
		opt(&o)
	}

	if o.capacity < 1 {
		return nil, fmt.Errorf("%w: chunk capacity must be greater than 0, got %d", ErrInvalidOptions, o.capacity)
	}
	if o.strategy != merge.Heap && o.strategy != merge.Tournament {
		return nil, fmt.Errorf("%w: unknown merge strategy %s", ErrInvalidOptions, o.strategy)
	}
	if o.store == nil && o.tempDir == "" {
		return nil, fmt.Errorf("%w: a store or a temporary directory is required", ErrInvalidOptions)
	}
	if o.newSorter == nil {
		o.newSorter = chunk.NewSliceSorter
	}

	return &Sorter{
		opts: o,
		log:  monitoring.Component(o.logger, "sorter"),
	}, nil
}

// Sort reads integers from r, one per line, and writes them to w in ascending
// order. Lines that are not integers are skipped.
//
// Runs created along the way are deleted once the sort is over, whether it
// succeeded or not, unless WithKeepRuns was given and the sort succeeded.
func (s *Sorter) Sort(ctx context.Context, r io.Reader, w io.Writer) (res Result, err error) {
	start := time.Now()

	st, release, err := s.runStore()
	if err != nil {
		return res, err
	}

	var runs []store.RunID
	defer func() {
		keep := s.opts.keepRuns && err == nil
		if !keep {
			// Cleanup must run even if ctx was cancelled.
			if derr := store.DeleteAll(context.WithoutCancel(ctx), st, runs...); derr != nil {
				s.log.WithError(derr).Warn("failed to delete runs")
				if err == nil {
					err = derr
				}
			}
		}
		if rerr := release(keep); rerr != nil {
			s.log.WithError(rerr).Warn("failed to remove run directory")
		}
	}()

	s.log.WithFields(logrus.Fields{
		"capacity": s.opts.capacity,
		"strategy": s.opts.strategy,
	}).Debug("started sort")

	producer, err := chunk.New(st,
		chunk.WithCapacity(s.opts.capacity),
		chunk.WithSorter(s.opts.newSorter),
		chunk.WithLogger(s.opts.logger),
		chunk.WithMetrics(s.opts.metrics),
	)
	if err != nil {
		return res, err
	}

	produced, err := producer.Produce(ctx, recordio.NewReader(r))
	runs = produced.IDs()
	res.Runs = len(produced.Runs)
	res.Discarded = produced.Discarded
	res.ChunkTook = time.Since(start)
	if err != nil {
		return res, err
	}

	merger, err := merge.New(st,
		merge.WithStrategy(s.opts.strategy),
		merge.WithLogger(s.opts.logger),
		merge.WithMetrics(s.opts.metrics),
	)
	if err != nil {
		return res, err
	}

	mergeStart := time.Now()
	stats, err := merger.Merge(ctx, runs, w)
	res.Records = stats.Records
	res.MergeTook = time.Since(mergeStart)
	if err != nil {
		return res, err
	}

	log := s.log.WithFields(logrus.Fields{
		"runs":    res.Runs,
		"records": res.Records,
		"took":    time.Since(start),
	})
	if res.Discarded > 0 {
		log.WithField("discarded", res.Discarded).Debug("skipped lines that are not integers")
	}
	log.Info("finished sort")

	return res, nil
}

// SortFile sorts the file in into the file out.
func (s *Sorter) SortFile(ctx context.Context, in, out string) (res Result, err error) {
	src, err := os.Open(in)
	if err != nil {
		return res, fmt.Errorf("xsort: failed to open input: %w", err)
	}
	defer src.Close()

	if !s.opts.atomicOutput {
		dst, err := os.Create(out)
		if err != nil {
			return res, fmt.Errorf("xsort: failed to create output: %w", err)
		}
		res, err = s.Sort(ctx, src, dst)
		if cerr := dst.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("xsort: failed to close output: %w", cerr)
		}
		return res, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(out), filepath.Base(out)+".tmp-*")
	if err != nil {
		return res, fmt.Errorf("xsort: failed to create output: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	res, err = s.Sort(ctx, src, tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("xsort: failed to close output: %w", cerr)
	}
	if err != nil {
		return res, err
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		return res, fmt.Errorf("xsort: failed to publish output: %w", err)
	}
	return res, nil
}

// runStore returns the store runs are written to. release is called once the
// sort is over; keep tells whether runs must survive it.
func (s *Sorter) runStore() (store.Store, func(keep bool) error, error) {
	if s.opts.store != nil {
		return s.opts.store, func(bool) error { return nil }, nil
	}

	dir, err := os.MkdirTemp(s.opts.tempDir, "xsort-")
	if err != nil {
		return nil, nil, fmt.Errorf("xsort: failed to create run directory: %w", err)
	}
	st, err := local.NewLocalStorage(dir)
	if err != nil {
		return nil, nil, multierror.Append(err, os.RemoveAll(dir)).ErrorOrNil()
	}

	release := func(keep bool) error {
		if keep {
			s.log.WithField("dir", dir).Info("kept runs")
			return nil
		}
		return os.RemoveAll(dir)
	}
	return st, release, nil
}
