// Package chunk implements the first phase of an external sort: the input is
// cut into chunks of at most a fixed number of records, each chunk is sorted
// in memory and persisted as a run.
package chunk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davidvella/xsort/metrics"
	"github.com/davidvella/xsort/monitoring"
	"github.com/davidvella/xsort/record"
	"github.com/davidvella/xsort/recordio"
	"github.com/davidvella/xsort/store"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCapacity = errors.New("chunk: capacity must be greater than 0")
	// ErrSourceRead marks a failure reading the input.
	ErrSourceRead = errors.New("chunk: source read failed")
	// ErrRunWrite marks a failure creating, writing or closing a run.
	ErrRunWrite = errors.New("chunk: run write failed")
)

// Run describes a persisted, sorted run.
type Run struct {
	ID    store.RunID
	Count int
}

// Result is the outcome of Produce.
type Result struct {
	// Runs in creation order. Only complete runs are listed.
	Runs []Run
	// Records is the number of records persisted across all runs.
	Records int64
	// Discarded is the number of input lines skipped.
	Discarded int64
	// PeakResident is the largest number of records held in memory at once.
	PeakResident int
}

// IDs returns the ids of all runs.
func (r Result) IDs() []store.RunID {
	ids := make([]store.RunID, len(r.Runs))
	for i, run := range r.Runs {
		ids[i] = run.ID
	}
	return ids
}

// Producer turns a record stream into sorted runs.
type Producer struct {
	store store.Store
	opts  options
	log   logrus.FieldLogger
}

func New(s store.Store, opts ...Option) (*Producer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if s == nil {
		return nil, errors.New("chunk: store is required")
	}
	if o.capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, o.capacity)
	}
	if o.newSorter == nil {
		o.newSorter = NewSliceSorter
	}
	if o.names == nil {
		o.names = store.Sequential("")
	}

	return &Producer{
		store: s,
		opts:  o,
		log:   monitoring.Component(o.logger, "chunk"),
	}, nil
}

// Capacity returns the maximum number of records per run.
func (p *Producer) Capacity() int {
	return p.opts.capacity
}

// Produce reads rd to the end, writing one sorted run per chunk. On failure
// the runs completed so far are still returned so the caller can remove them;
// a run whose write failed is deleted and not listed.
func (p *Producer) Produce(ctx context.Context, rd *recordio.Reader) (Result, error) {
	var (
		res      Result
		capacity = p.opts.capacity
		buf      = p.opts.newSorter(capacity)
		start    = time.Now()
	)

	for {
		if err := ctx.Err(); err != nil {
			return p.fail(res, rd, err)
		}

		buf.Reset()
		for buf.Len() < capacity {
			v, ok := rd.Next()
			if !ok {
				break
			}
			buf.Add(v)
		}
		if err := rd.Err(); err != nil {
			return p.fail(res, rd, fmt.Errorf("%w: %w", ErrSourceRead, err))
		}

		n := buf.Len()
		if n == 0 {
			break
		}
		res.PeakResident = max(res.PeakResident, n)

		id := p.opts.names(len(res.Runs))
		if err := p.writeRun(ctx, id, buf); err != nil {
			return p.fail(res, rd, err)
		}
		res.Runs = append(res.Runs, Run{ID: id, Count: n})
		res.Records += int64(n)
		p.opts.metrics.RecordRead(int64(n))
		p.opts.metrics.RunWritten()

		if n < capacity {
			break
		}
	}

	res.Discarded = rd.Discarded()
	p.opts.metrics.RecordDiscarded(res.Discarded)

	took := time.Since(start)
	p.opts.metrics.ObservePhase(metrics.PhaseChunk, took)
	p.log.WithFields(logrus.Fields{
		"runs":      len(res.Runs),
		"records":   res.Records,
		"discarded": res.Discarded,
		"took":      took,
	}).Info("finished creating runs")

	return res, nil
}

func (p *Producer) writeRun(ctx context.Context, id store.RunID, buf Sorter) error {
	start := time.Now()
	log := p.log.WithField("run", id)
	log.Debug("started creating run")

	w, err := p.store.Create(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: run %s: %w", ErrRunWrite, id, err)
	}

	rw := recordio.NewWriter(w)
	err = rw.WriteAll(buf.All())
	if err == nil {
		err = rw.Flush()
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if derr := p.store.Delete(ctx, id); derr != nil {
			log.WithError(derr).Warn("failed to delete incomplete run")
		}
		return fmt.Errorf("%w: run %s: %w", ErrRunWrite, id, err)
	}

	log.WithFields(logrus.Fields{
		"records": buf.Len(),
		"took":    time.Since(start),
	}).Debug("finished creating run")
	return nil
}

func (p *Producer) fail(res Result, rd *recordio.Reader, err error) (Result, error) {
	res.Discarded = rd.Discarded()
	p.opts.metrics.RecordDiscarded(res.Discarded)
	p.opts.metrics.PhaseFailed(metrics.PhaseChunk)
	p.log.WithError(err).WithField("runs", len(res.Runs)).Error("creating runs failed")
	return res, err
}

// Records reads back a run. It is meant for inspection and tests; the merge
// never loads a run into memory.
func Records(ctx context.Context, s store.Store, id store.RunID) ([]record.Record, error) {
	r, err := s.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rd := recordio.NewReader(r, recordio.Strict())
	records := make([]record.Record, 0, 1)
	for v := range rd.All() {
		records = append(records, v)
	}
	return records, rd.Err()
}
