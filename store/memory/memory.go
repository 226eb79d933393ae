// Package memory provides an in-memory store.Store. It is meant for tests and
// for inputs small enough that spilling to disk is pointless.
package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/davidvella/xsort/store"
)

var errClosed = errors.New("memory: already closed")

// Storage holds runs in memory and keeps track of open readers.
type Storage struct {
	mu          sync.Mutex
	runs        map[store.RunID][]byte
	pending     map[store.RunID]bool
	open        int
	peakOpen    int
	opened      int
	doubleClose int
}

func NewMemoryStorage() *Storage {
	return &Storage{
		runs:    make(map[store.RunID][]byte),
		pending: make(map[store.RunID]bool),
	}
}

func (m *Storage) Create(_ context.Context, id store.RunID) (io.WriteCloser, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[id]; ok || m.pending[id] {
		return nil, fmt.Errorf("%w: %s", store.ErrRunExists, id)
	}
	m.pending[id] = true
	return &writer{storage: m, id: id}, nil
}

func (m *Storage) Open(_ context.Context, id store.RunID) (io.ReadCloser, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, id)
	}
	m.open++
	m.opened++
	m.peakOpen = max(m.peakOpen, m.open)
	return &reader{storage: m, Reader: bytes.NewReader(data)}, nil
}

func (m *Storage) Delete(_ context.Context, id store.RunID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.runs, id)
	return nil
}

// List returns the ids of every complete run.
func (m *Storage) List(_ context.Context) ([]store.RunID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]store.RunID, 0, len(m.runs))
	for id := range m.runs {
		ids = append(ids, id)
	}
	return ids, nil
}

// Put stores a complete run directly.
func (m *Storage) Put(id store.RunID, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs[id] = bytes.Clone(data)
}

// Bytes returns the content of a complete run.
func (m *Storage) Bytes(id store.RunID) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.runs[id]
	return data, ok
}

// OpenReaders returns the number of readers not yet closed.
func (m *Storage) OpenReaders() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// PeakOpenReaders returns the largest number of readers open at once.
func (m *Storage) PeakOpenReaders() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peakOpen
}

// OpenedReaders returns the number of readers ever opened.
func (m *Storage) OpenedReaders() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// DoubleCloses returns the number of times a reader was closed again.
func (m *Storage) DoubleCloses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doubleClose
}

type writer struct {
	storage *Storage
	id      store.RunID
	buf     bytes.Buffer
	closed  bool
}

func (w *writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errClosed
	}
	return w.buf.Write(p)
}

// Close publishes the run.
func (w *writer) Close() error {
	if w.closed {
		return errClosed
	}
	w.closed = true

	w.storage.mu.Lock()
	defer w.storage.mu.Unlock()

	delete(w.storage.pending, w.id)
	w.storage.runs[w.id] = w.buf.Bytes()
	return nil
}

type reader struct {
	*bytes.Reader
	storage *Storage
	closed  bool
}

func (r *reader) Close() error {
	r.storage.mu.Lock()
	defer r.storage.mu.Unlock()

	if r.closed {
		r.storage.doubleClose++
		return errClosed
	}
	r.closed = true
	r.storage.open--
	return nil
}
