package memlimit

import (
	"errors"
	"math"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubDetect(t *testing.T, avail uint64, err error) {
	t.Helper()
	prev := detect
	detect = func() (uint64, error) { return avail, err }
	t.Cleanup(func() { detect = prev })
}

func restoreLimit(t *testing.T) {
	t.Helper()
	prev := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })
}

func TestApply(t *testing.T) {
	tests := []struct {
		name      string
		limit     int64
		avail     uint64
		detectErr error
		want      int64
		wantErr   error
	}{
		{
			name:  "limit below available",
			limit: DefaultLimit,
			avail: 8 << 30,
			want:  DefaultLimit,
		},
		{
			name:  "limit above available",
			limit: 8 << 30,
			avail: 1 << 30,
			want:  1 << 30,
		},
		{
			name:      "detection fails",
			limit:     DefaultLimit,
			detectErr: errors.New("no cgroup"),
			want:      DefaultLimit,
		},
		{
			name:    "zero limit",
			limit:   0,
			wantErr: ErrInvalidLimit,
		},
		{
			name:    "negative limit",
			limit:   -1,
			wantErr: ErrInvalidLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreLimit(t)
			stubDetect(t, tt.avail, tt.detectErr)

			got, err := Apply(tt.limit)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, debug.SetMemoryLimit(-1))
		})
	}
}

func TestAvailable(t *testing.T) {
	stubDetect(t, 0, errUnknownTotal)
	_, err := Available()
	assert.ErrorIs(t, err, errUnknownTotal)

	stubDetect(t, 4<<30, nil)
	avail, err := Available()
	require.NoError(t, err)
	assert.Equal(t, uint64(4<<30), avail)
}

func TestCapacity(t *testing.T) {
	tests := []struct {
		limit int64
		want  int
	}{
		{limit: DefaultLimit, want: 16 << 20},
		{limit: 32, want: 1},
		{limit: 1, want: 1},
		{limit: 0, want: 1},
		{limit: 3200, want: 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Capacity(tt.limit), "limit %d", tt.limit)
	}
	assert.Positive(t, Capacity(math.MaxInt64))
}

func TestFromHost(t *testing.T) {
	total, err := fromHost()
	if err != nil {
		t.Skip("total memory not reported on this platform")
	}
	assert.Positive(t, total)
}
