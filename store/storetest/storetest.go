// Package storetest checks that a store.Store behaves the way the sort
// pipeline relies on.
package storetest

import (
	"context"
	"io"
	"testing"

	"github.com/davidvella/xsort/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises the store returned by newStore. Each subtest gets a fresh
// store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("create then open", func(t *testing.T) {
		s := newStore(t)
		writeRun(t, s, "run_0", "1\n2\n3\n")

		assert.Equal(t, "1\n2\n3\n", readRun(t, s, "run_0"))
	})

	t.Run("empty run", func(t *testing.T) {
		s := newStore(t)
		writeRun(t, s, "run_0", "")

		assert.Equal(t, "", readRun(t, s, "run_0"))
	})

	t.Run("large run", func(t *testing.T) {
		s := newStore(t)
		data := make([]byte, 0, 300*1024)
		for len(data) < 300*1024 {
			data = append(data, "123456789\n"...)
		}
		writeRun(t, s, "run_0", string(data))

		assert.Equal(t, string(data), readRun(t, s, "run_0"))
	})

	t.Run("runs are independent", func(t *testing.T) {
		s := newStore(t)
		writeRun(t, s, "run_0", "1\n")
		writeRun(t, s, "run_1", "2\n")
		writeRun(t, s, "run_10", "3\n")

		assert.Equal(t, "1\n", readRun(t, s, "run_0"))
		assert.Equal(t, "2\n", readRun(t, s, "run_1"))
		assert.Equal(t, "3\n", readRun(t, s, "run_10"))
	})

	t.Run("create twice", func(t *testing.T) {
		s := newStore(t)
		writeRun(t, s, "run_0", "1\n")

		_, err := s.Create(ctx, "run_0")
		assert.ErrorIs(t, err, store.ErrRunExists)
	})

	t.Run("open missing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Open(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrRunNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Create(ctx, "a/b")
		assert.ErrorIs(t, err, store.ErrInvalidRunID)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		writeRun(t, s, "run_0", "1\n")
		writeRun(t, s, "run_1", "2\n")

		require.NoError(t, s.Delete(ctx, "run_0"))

		_, err := s.Open(ctx, "run_0")
		assert.ErrorIs(t, err, store.ErrRunNotFound)
		assert.Equal(t, "2\n", readRun(t, s, "run_1"))
	})

	t.Run("delete missing", func(t *testing.T) {
		s := newStore(t)

		assert.NoError(t, s.Delete(ctx, "missing"))
	})

	t.Run("list", func(t *testing.T) {
		s := newStore(t)
		l, ok := s.(store.Lister)
		if !ok {
			t.Skip("store does not list runs")
		}
		writeRun(t, s, "run_0", "1\n")
		writeRun(t, s, "run_1", "2\n")
		require.NoError(t, s.Delete(ctx, "run_0"))

		ids, err := l.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []store.RunID{"run_1"}, ids)
	})
}

func writeRun(t *testing.T, s store.Store, id store.RunID, content string) {
	t.Helper()
	w, err := s.Create(context.Background(), id)
	require.NoError(t, err)
	_, err = io.WriteString(w, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func readRun(t *testing.T, s store.Store, id store.RunID) string {
	t.Helper()
	r, err := s.Open(context.Background(), id)
	require.NoError(t, err)
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}
