package memory_test

import (
	"context"
	"io"
	"testing"

	"github.com/davidvella/xsort/store"
	"github.com/davidvella/xsort/store/memory"
	"github.com/davidvella/xsort/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store {
		return memory.NewMemoryStorage()
	})
}

func TestStorage_RunVisibleAfterClose(t *testing.T) {
	ctx := context.Background()
	s := memory.NewMemoryStorage()

	w, err := s.Create(ctx, "part_0")
	require.NoError(t, err)
	_, err = io.WriteString(w, "1\n")
	require.NoError(t, err)

	_, err = s.Open(ctx, "part_0")
	assert.ErrorIs(t, err, store.ErrRunNotFound)
	_, err = s.Create(ctx, "part_0")
	assert.ErrorIs(t, err, store.ErrRunExists)

	require.NoError(t, w.Close())
	assert.Error(t, w.Close())
	_, err = w.Write([]byte("2\n"))
	assert.Error(t, err)

	data, ok := s.Bytes("part_0")
	assert.True(t, ok)
	assert.Equal(t, "1\n", string(data))
}

func TestStorage_TracksReaders(t *testing.T) {
	ctx := context.Background()
	s := memory.NewMemoryStorage()
	s.Put("a", []byte("1\n"))
	s.Put("b", []byte("2\n"))

	ra, err := s.Open(ctx, "a")
	require.NoError(t, err)
	rb, err := s.Open(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, s.OpenReaders())

	require.NoError(t, ra.Close())
	assert.Equal(t, 1, s.OpenReaders())
	assert.Error(t, ra.Close())
	assert.Equal(t, 1, s.DoubleCloses())

	require.NoError(t, rb.Close())
	assert.Equal(t, 0, s.OpenReaders())
	assert.Equal(t, 2, s.PeakOpenReaders())
	assert.Equal(t, 2, s.OpenedReaders())
}
