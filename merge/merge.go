package merge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/davidvella/xsort/loser"
	"github.com/davidvella/xsort/metrics"
	"github.com/davidvella/xsort/monitoring"
	"github.com/davidvella/xsort/priority"
	"github.com/davidvella/xsort/record"
	"github.com/davidvella/xsort/recordio"
	"github.com/davidvella/xsort/store"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

var (
	// ErrRunOpen marks a run that could not be opened.
	ErrRunOpen = errors.New("merge: run open failed")
	// ErrRunRead marks a run that could not be read to the end, including a
	// run holding a line that is not a record.
	ErrRunRead = errors.New("merge: run read failed")
	// ErrOutputWrite marks a failure writing the merged output.
	ErrOutputWrite     = errors.New("merge: output write failed")
	ErrUnknownStrategy = errors.New("merge: unknown strategy")
)

// Stats describes a finished merge.
type Stats struct {
	// Runs is the number of runs given to Merge.
	Runs int
	// Records is the number of records written to the output.
	Records int64
	// PeakOpen is the largest number of runs open at once.
	PeakOpen int
}

// Merger merges runs held in a store.
type Merger struct {
	store store.Store
	opts  options
	log   logrus.FieldLogger
}

func New(s store.Store, opts ...Option) (*Merger, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if s == nil {
		return nil, errors.New("merge: store is required")
	}
	if o.strategy != Heap && o.strategy != Tournament {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, o.strategy)
	}

	return &Merger{
		store: s,
		opts:  o,
		log:   monitoring.Component(o.logger, "merge"),
	}, nil
}

// Merge writes the records of every run to w in ascending order. Runs are
// read through the store and never modified; deleting them is up to the
// caller. On failure whatever was written to w is left in place.
func (m *Merger) Merge(ctx context.Context, runs []store.RunID, w io.Writer) (stats Stats, err error) {
	var (
		start = time.Now()
		set   = &cursorSet{store: m.store}
		out   = recordio.NewWriter(w)
	)
	stats.Runs = len(runs)

	defer func() {
		if cerr := set.closeAll(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
		stats.PeakOpen = set.peak
		m.opts.metrics.RecordMerged(stats.Records)
		if err != nil {
			m.opts.metrics.PhaseFailed(metrics.PhaseMerge)
			m.log.WithError(err).WithField("records", stats.Records).Error("merging runs failed")
			return
		}
		took := time.Since(start)
		m.opts.metrics.ObservePhase(metrics.PhaseMerge, took)
		m.log.WithFields(logrus.Fields{
			"runs":     stats.Runs,
			"records":  stats.Records,
			"strategy": m.opts.strategy,
			"took":     took,
		}).Info("finished merging runs")
	}()

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	live, err := set.openAll(ctx, runs)
	if err != nil {
		return stats, err
	}

	switch m.opts.strategy {
	case Tournament:
		err = m.mergeTournament(ctx, set, live, out, &stats)
	default:
		err = m.mergeHeap(ctx, set, live, out, &stats)
	}
	if err != nil {
		return stats, err
	}

	if err := out.Flush(); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	return stats, nil
}

func (m *Merger) mergeHeap(ctx context.Context, set *cursorSet, live []*cursor, out *recordio.Writer, stats *Stats) error {
	q := priority.NewQueueSize[int, record.Record](len(live), record.Less)
	for i, c := range live {
		q.Set(i, c.head)
	}

	for {
		i, v, ok := q.Peek()
		if !ok {
			return nil
		}
		if err := emit(ctx, out, v, stats); err != nil {
			return err
		}

		c := live[i]
		more, err := c.advance()
		if err != nil {
			return err
		}
		if more {
			q.Set(i, c.head)
			continue
		}
		q.Remove(i)
		if err := set.close(c); err != nil {
			return err
		}
	}
}

func (m *Merger) mergeTournament(ctx context.Context, set *cursorSet, live []*cursor, out *recordio.Writer, stats *Stats) error {
	var failed error

	sequences := make([]loser.Sequence[record.Record], len(live))
	for i, c := range live {
		sequences[i] = loser.SeqFunc[record.Record](func(yield func(record.Record) bool) {
			for {
				if !yield(c.head) {
					return
				}
				more, err := c.advance()
				if err == nil && !more {
					err = set.close(c)
				}
				if err != nil {
					failed = err
					return
				}
				if !more {
					return
				}
			}
		})
	}

	// A failed run drops out of the tree before the next winner is yielded,
	// so failed is checked before every write.
	for v := range loser.New(sequences, record.Less).All() {
		if failed != nil {
			break
		}
		if err := emit(ctx, out, v, stats); err != nil {
			return err
		}
	}
	return failed
}

func emit(ctx context.Context, out *recordio.Writer, v record.Record, stats *Stats) error {
	if err := out.Write(v); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	stats.Records++
	if stats.Records%checkInterval == 0 {
		return ctx.Err()
	}
	return nil
}

// cursor is the read position within one open run.
type cursor struct {
	id     store.RunID
	rc     io.ReadCloser
	rd     *recordio.Reader
	head   record.Record
	closed bool
}

// advance moves to the next record of the run. It reports false once the run
// is exhausted.
func (c *cursor) advance() (bool, error) {
	v, ok := c.rd.Next()
	if ok {
		c.head = v
		return true, nil
	}
	if err := c.rd.Err(); err != nil {
		return false, fmt.Errorf("%w: run %s: %w", ErrRunRead, c.id, err)
	}
	return false, nil
}

// cursorSet owns every reader opened by a merge.
type cursorSet struct {
	store   store.Store
	cursors []*cursor
	open    int
	peak    int
}

// openAll opens every run and positions it on its first record. Runs that are
// empty are closed straight away and left out of the result.
func (s *cursorSet) openAll(ctx context.Context, runs []store.RunID) ([]*cursor, error) {
	live := make([]*cursor, 0, len(runs))
	for _, id := range runs {
		rc, err := s.store.Open(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: run %s: %w", ErrRunOpen, id, err)
		}
		c := &cursor{
			id: id,
			rc: rc,
			rd: recordio.NewReader(rc, recordio.Strict()),
		}
		s.cursors = append(s.cursors, c)
		s.open++
		s.peak = max(s.peak, s.open)

		more, err := c.advance()
		if err != nil {
			return nil, err
		}
		if !more {
			if err := s.close(c); err != nil {
				return nil, err
			}
			continue
		}
		live = append(live, c)
	}
	return live, nil
}

func (s *cursorSet) close(c *cursor) error {
	if c.closed {
		return nil
	}
	c.closed = true
	s.open--
	if err := c.rc.Close(); err != nil {
		return fmt.Errorf("%w: failed to close run %s: %w", ErrRunRead, c.id, err)
	}
	return nil
}

// closeAll closes every reader still open.
func (s *cursorSet) closeAll() error {
	var result *multierror.Error
	for _, c := range s.cursors {
		if err := s.close(c); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
