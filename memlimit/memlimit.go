// Package memlimit caps the memory of the process and derives a chunk
// capacity from that cap.
package memlimit

import (
	"errors"
	"fmt"
	"runtime/debug"

	automemlimit "github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/pbnjay/memory"
)

// DefaultLimit is the memory limit used when none is configured.
const DefaultLimit = 512 << 20

const (
	recordSize = 8
	// Records are budgeted twice their size to leave room for the sort and
	// the line buffers.
	recordOverhead = 2
)

var (
	ErrInvalidLimit = errors.New("memlimit: limit must be greater than 0")
	errUnknownTotal = errors.New("memlimit: total memory unknown")
)

// detect reports the memory available to the process.
var detect = automemlimit.ApplyFallback(automemlimit.FromCgroup, fromHost)

func fromHost() (uint64, error) {
	total := memory.TotalMemory()
	if total == 0 {
		return 0, errUnknownTotal
	}
	return total, nil
}

// Available returns the memory available to the process: the cgroup limit
// when running in a container, total host memory otherwise.
func Available() (uint64, error) {
	avail, err := detect()
	if err != nil {
		return 0, fmt.Errorf("memlimit: failed to detect available memory: %w", err)
	}
	return avail, nil
}

// Apply sets the soft memory limit of the Go runtime to limit bytes, lowered
// to the available memory when that is smaller. It returns the limit in
// effect.
func Apply(limit int64) (int64, error) {
	if limit <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	if avail, err := detect(); err == nil && avail > 0 && avail < uint64(limit) {
		limit = int64(avail)
	}
	debug.SetMemoryLimit(limit)
	return limit, nil
}

// Capacity returns the number of records per chunk that keeps the first
// phase of a sort within half of limit bytes. It is never below one.
func Capacity(limit int64) int {
	c := limit / 2 / (recordSize * recordOverhead)
	if c < 1 {
		return 1
	}
	return int(min(c, int64(maxInt)))
}

const maxInt = int(^uint(0) >> 1)
