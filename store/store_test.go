package store_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/davidvella/xsort/store"
	"github.com/stretchr/testify/assert"
)

func TestRunID_Validate(t *testing.T) {
	tests := []struct {
		id      store.RunID
		wantErr bool
	}{
		{id: "part_0"},
		{id: "abc-123_9"},
		{id: "", wantErr: true},
		{id: ".", wantErr: true},
		{id: "..", wantErr: true},
		{id: "a/b", wantErr: true},
		{id: `a\b`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			err := tt.id.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, store.ErrInvalidRunID)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSequential(t *testing.T) {
	name := store.Sequential("part")
	assert.Equal(t, store.RunID("part_0"), name(0))
	assert.Equal(t, store.RunID("part_12"), name(12))

	a, b := store.Sequential(""), store.Sequential("")
	assert.NotEqual(t, a(0), b(0))
	assert.True(t, strings.HasPrefix(a(3).String(), "part-"))
	assert.True(t, strings.HasSuffix(a(3).String(), "_3"))
	assert.NoError(t, a(3).Validate())
}

var errDelete = errors.New("cannot delete")

type deleteStore struct {
	fail    map[store.RunID]bool
	deleted []store.RunID
}

func (s *deleteStore) Create(context.Context, store.RunID) (io.WriteCloser, error) {
	return nil, errors.New("not implemented")
}

func (s *deleteStore) Open(context.Context, store.RunID) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (s *deleteStore) Delete(_ context.Context, id store.RunID) error {
	if s.fail[id] {
		return errDelete
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func TestDeleteAll(t *testing.T) {
	s := &deleteStore{fail: map[store.RunID]bool{"b": true, "d": true}}

	err := store.DeleteAll(context.Background(), s, "a", "b", "c", "d")

	assert.ErrorIs(t, err, errDelete)
	assert.Contains(t, err.Error(), "run b")
	assert.Contains(t, err.Error(), "run d")
	assert.Equal(t, []store.RunID{"a", "c"}, s.deleted)

	assert.NoError(t, store.DeleteAll(context.Background(), s))
	assert.NoError(t, store.DeleteAll(context.Background(), s, "e"))
}
