// Package store defines where sorted runs live between the two phases of an
// external sort. A run is written exactly once, read back sequentially once
// and then deleted.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

var (
	// ErrRunExists is returned by Create when the id was already written.
	ErrRunExists = errors.New("store: run already exists")
	// ErrRunNotFound is returned by Open for an unknown id.
	ErrRunNotFound = errors.New("store: run not found")
	// ErrInvalidRunID is returned for ids that cannot name a run.
	ErrInvalidRunID = errors.New("store: invalid run id")
)

// RunID names a single run within a Store.
type RunID string

func (id RunID) String() string {
	return string(id)
}

// Validate reports whether id can be used as a run name by every backend.
func (id RunID) Validate() error {
	if id == "" || strings.ContainsAny(string(id), `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidRunID, string(id))
	}
	return nil
}

// Store holds sorted runs. Writers are assumed to write ascending records;
// the store does not check.
type Store interface {
	// Create a new run for writing. The run is complete once the writer is
	// closed without error.
	Create(ctx context.Context, id RunID) (io.WriteCloser, error)
	// Open a complete run for sequential reading.
	Open(ctx context.Context, id RunID) (io.ReadCloser, error)
	// Delete a run. Deleting a missing run is not an error.
	Delete(ctx context.Context, id RunID) error
}

// Lister is implemented by stores that can enumerate their runs.
type Lister interface {
	List(ctx context.Context) ([]RunID, error)
}

// DeleteAll deletes every id, continuing past failures. The returned error
// aggregates every failed delete.
func DeleteAll(ctx context.Context, s Store, ids ...RunID) error {
	var result *multierror.Error
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			result = multierror.Append(result, fmt.Errorf("store: failed to delete run %s: %w", id, err))
		}
	}
	return result.ErrorOrNil()
}

// NameFunc returns the id of the n-th run of a sort, counting from zero.
type NameFunc func(n int) RunID

// Sequential names runs "<prefix>_<n>". An empty prefix is replaced with a
// short random one so that sorts sharing a directory do not clash.
func Sequential(prefix string) NameFunc {
	if prefix == "" {
		prefix = "part-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	return func(n int) RunID {
		return RunID(fmt.Sprintf("%s_%d", prefix, n))
	}
}
