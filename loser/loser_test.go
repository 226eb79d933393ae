package loser_test

import (
	"iter"
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/davidvella/xsort/loser"
	"github.com/stretchr/testify/assert"
)

type List[E any] struct {
	list []E
}

func NewList[E any](list ...E) *List[E] {
	return &List[E]{list: list}
}

func (it *List[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for _, i := range it.list {
			if !yield(i) {
				return
			}
		}
	}
}

func collect[E any](seq iter.Seq[E]) []E {
	out := []E{}
	for v := range seq {
		out = append(out, v)
	}
	return out
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		args []loser.Sequence[uint64]
		want []uint64
	}{
		{
			name: "empty input",
			want: []uint64{},
		},
		{
			name: "one list",
			args: []loser.Sequence[uint64]{NewList[uint64](1, 2, 3, 4)},
			want: []uint64{1, 2, 3, 4},
		},
		{
			name: "two lists",
			args: []loser.Sequence[uint64]{NewList[uint64](3, 4, 5), NewList[uint64](1, 2)},
			want: []uint64{1, 2, 3, 4, 5},
		},
		{
			name: "two lists, first empty",
			args: []loser.Sequence[uint64]{NewList[uint64](), NewList[uint64](1, 2)},
			want: []uint64{1, 2},
		},
		{
			name: "two lists, second empty",
			args: []loser.Sequence[uint64]{NewList[uint64](1, 2), NewList[uint64]()},
			want: []uint64{1, 2},
		},
		{
			name: "two lists c",
			args: []loser.Sequence[uint64]{NewList[uint64](1, 3), NewList[uint64](2, 4, 5)},
			want: []uint64{1, 2, 3, 4, 5},
		},
		{
			name: "three lists",
			args: []loser.Sequence[uint64]{NewList[uint64](1, 4, 7), NewList[uint64](2, 5), NewList[uint64](3, 6, 8, 9)},
			want: []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9},
		},
		{
			name: "all empty",
			args: []loser.Sequence[uint64]{NewList[uint64](), NewList[uint64](), NewList[uint64]()},
			want: []uint64{},
		},
		{
			name: "maximum values survive",
			args: []loser.Sequence[uint64]{NewList[uint64](math.MaxUint64), NewList[uint64](1, math.MaxUint64), NewList[uint64]()},
			want: []uint64{1, math.MaxUint64, math.MaxUint64},
		},
		{
			name: "duplicates",
			args: []loser.Sequence[uint64]{NewList[uint64](2, 2), NewList[uint64](2), NewList[uint64](1, 2)},
			want: []uint64{1, 2, 2, 2, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lt := loser.NewOrdered(tt.args...)
			assert.Equal(t, tt.want, collect(lt.All()))
		})
	}
}

func TestMergeRandom(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		k := rnd.Intn(17)
		var (
			seqs []loser.Sequence[int]
			want = []int{}
		)
		for i := 0; i < k; i++ {
			list := make([]int, rnd.Intn(20))
			for j := range list {
				list[j] = rnd.Intn(50)
			}
			slices.Sort(list)
			want = append(want, list...)
			seqs = append(seqs, NewList(list...))
		}
		slices.Sort(want)

		got := collect(loser.New(seqs, func(a, b int) bool { return a < b }).All())
		assert.Equal(t, want, got, "round %d", round)
	}
}

type stopCounter struct {
	list    []int
	stopped *int
}

func (s stopCounter) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		defer func() { *s.stopped++ }()
		for _, v := range s.list {
			if !yield(v) {
				return
			}
		}
	}
}

func TestMergeStopsSequencesOnBreak(t *testing.T) {
	stopped := 0
	lt := loser.NewOrdered[int](
		stopCounter{list: []int{1, 3, 5}, stopped: &stopped},
		stopCounter{list: []int{2, 4, 6}, stopped: &stopped},
	)

	for v := range lt.All() {
		if v == 3 {
			break
		}
	}

	assert.Equal(t, 2, stopped)
}

func TestSeqFunc(t *testing.T) {
	a := loser.SeqFunc[int](slices.Values([]int{1, 3}))
	b := loser.SeqFunc[int](slices.Values([]int{2}))

	assert.Equal(t, []int{1, 2, 3}, collect(loser.NewOrdered[int](a, b).All()))
}
