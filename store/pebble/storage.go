// Package pebble stores runs in a Pebble database. A run is kept as a
// sequence of blocks under a per-run key prefix; concatenated in key order the
// blocks are exactly the line format a file based store would hold.
package pebble

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/davidvella/xsort/store"
)

const (
	dataNamespace     = "run/"
	metadataNamespace = "meta/"
	defaultBlockSize  = 64 * 1024
	// Blocks are committed in batches of roughly this many bytes so a
	// writer never holds a whole run in memory.
	batchCommitBytes = 4 << 20
)

var errClosed = errors.New("pebble: already closed")

// StorageOptions configures the database backing a Storage.
type StorageOptions struct {
	Path         string
	BlockSize    int
	CacheSize    int64
	MaxOpenFiles int
}

// Storage implements store.Store on top of Pebble.
type Storage struct {
	db        *pebble.DB
	blockSize int

	mu      sync.Mutex
	pending map[store.RunID]bool
}

func NewStorage(opts StorageOptions) (*Storage, error) {
	if opts.BlockSize <= 0 {
		opts.BlockSize = defaultBlockSize
	}

	pebbleOpts := &pebble.Options{
		MaxOpenFiles: opts.MaxOpenFiles,
	}
	if opts.CacheSize > 0 {
		cache := pebble.NewCache(opts.CacheSize)
		defer cache.Unref()
		pebbleOpts.Cache = cache
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := pebble.Open(opts.Path, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("pebble: failed to open %s: %w", opts.Path, err)
	}

	return &Storage{
		db:        db,
		blockSize: opts.BlockSize,
		pending:   make(map[store.RunID]bool),
	}, nil
}

func (p *Storage) Close() error {
	return p.db.Close()
}

func (p *Storage) Create(_ context.Context, id store.RunID) (io.WriteCloser, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	exists, err := p.exists(id)
	if err != nil {
		return nil, err
	}
	if exists || p.pending[id] {
		return nil, fmt.Errorf("%w: %s", store.ErrRunExists, id)
	}
	p.pending[id] = true

	return &writer{
		storage: p,
		id:      id,
		batch:   p.db.NewBatch(),
		buf:     make([]byte, 0, p.blockSize),
	}, nil
}

func (p *Storage) Open(_ context.Context, id store.RunID) (io.ReadCloser, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	exists, err := p.exists(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, id)
	}

	prefix := dataPrefix(id)
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("pebble: failed to iterate run %s: %w", id, err)
	}
	iter.First()

	return &reader{iter: iter}, nil
}

func (p *Storage) Delete(_ context.Context, id store.RunID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	prefix := dataPrefix(id)
	if err := batch.DeleteRange(prefix, upperBound(prefix), nil); err != nil {
		return err
	}
	if err := batch.Delete(metadataKey(id), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

// List returns the ids of every complete run.
func (p *Storage) List(_ context.Context) ([]store.RunID, error) {
	prefix := []byte(metadataNamespace)
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var ids []store.RunID
	for iter.First(); iter.Valid(); iter.Next() {
		ids = append(ids, store.RunID(bytes.TrimPrefix(iter.Key(), prefix)))
	}
	return ids, iter.Error()
}

func (p *Storage) exists(id store.RunID) (bool, error) {
	_, closer, err := p.db.Get(metadataKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pebble: failed to load run %s: %w", id, err)
	}
	closer.Close()
	return true, nil
}

func (p *Storage) release(id store.RunID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, id)
}

func dataPrefix(id store.RunID) []byte {
	return []byte(dataNamespace + string(id) + "/")
}

func metadataKey(id store.RunID) []byte {
	return []byte(metadataNamespace + string(id))
}

func blockKey(prefix []byte, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(bytes.Clone(prefix), seq)
}

// upperBound returns the smallest key greater than every key with prefix.
func upperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

type writer struct {
	storage *Storage
	id      store.RunID
	batch   *pebble.Batch
	buf     []byte
	seq     uint64
	closed  bool
}

func (w *writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errClosed
	}

	n := len(p)
	for len(p) > 0 {
		space := cap(w.buf) - len(w.buf)
		if space > len(p) {
			space = len(p)
		}
		w.buf = append(w.buf, p[:space]...)
		p = p[space:]
		if len(w.buf) == cap(w.buf) {
			if err := w.flushBlock(); err != nil {
				return n - len(p), err
			}
		}
	}
	return n, nil
}

func (w *writer) flushBlock() error {
	if len(w.buf) == 0 {
		return nil
	}
	if err := w.batch.Set(blockKey(dataPrefix(w.id), w.seq), w.buf, nil); err != nil {
		return err
	}
	w.seq++
	w.buf = w.buf[:0]

	// Commit batch if it gets too large
	if w.batch.Len() > batchCommitBytes {
		if err := w.batch.Commit(pebble.NoSync); err != nil {
			return err
		}
		w.batch.Close()
		w.batch = w.storage.db.NewBatch()
	}
	return nil
}

// Close commits the last block and marks the run complete.
func (w *writer) Close() error {
	if w.closed {
		return errClosed
	}
	w.closed = true
	defer w.storage.release(w.id)
	defer w.batch.Close()

	if err := w.flushBlock(); err != nil {
		return err
	}
	if err := w.batch.Set(metadataKey(w.id), binary.BigEndian.AppendUint64(nil, w.seq), nil); err != nil {
		return err
	}
	return w.batch.Commit(pebble.Sync)
}

type reader struct {
	iter   *pebble.Iterator
	block  []byte
	closed bool
}

func (r *reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, errClosed
	}
	for len(r.block) == 0 {
		if !r.iter.Valid() {
			if err := r.iter.Error(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		// The value is only valid until the iterator moves.
		r.block = append(r.block[:0], r.iter.Value()...)
		r.iter.Next()
	}
	n := copy(p, r.block)
	r.block = r.block[n:]
	return n, nil
}

func (r *reader) Close() error {
	if r.closed {
		return errClosed
	}
	r.closed = true
	return r.iter.Close()
}
