package loser

import (
	"cmp"
	"iter"
)

type Sequence[E any] interface {
	All() iter.Seq[E]
}

// SeqFunc adapts a plain iterator to a Sequence.
type SeqFunc[E any] iter.Seq[E]

func (f SeqFunc[E]) All() iter.Seq[E] {
	return iter.Seq[E](f)
}

func New[E any](sequences []Sequence[E], less func(E, E) bool) *Tree[E] {
	return &Tree[E]{
		nodes:     make([]node[E], len(sequences)*2),
		sequences: sequences,
		less:      less,
	}
}

// NewOrdered is New using the natural order of E.
func NewOrdered[E cmp.Ordered](sequences ...Sequence[E]) *Tree[E] {
	return New(sequences, cmp.Less[E])
}

// A loser tree is a binary tree laid out such that nodes N and N+1 have parent N/2.
// We store M leaf nodes in positions M...2M-1, and M-1 internal nodes in positions 1..M-1.
// Node 0 is a special node, containing the winner of the contest.
type Tree[E any] struct {
	nodes     []node[E]
	sequences []Sequence[E]
	less      func(E, E) bool
}

type node[E any] struct {
	index int              // Leaf position of the loser, or of the winner for node 0.
	value E                // Current head; leaf nodes only.
	done  bool             // Sequence exhausted; leaf nodes only.
	next  func() (E, bool) // Leaf nodes only.
}

func (t *Tree[E]) moveNext(pos int) {
	n := &t.nodes[pos]
	if v, ok := n.next(); ok {
		n.value = v
		return
	}
	var zero E
	n.value = zero
	n.done = true
}

// All merges the sequences. Each sequence is started when iteration starts
// and stopped when it ends, however it ends.
func (t *Tree[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		if len(t.sequences) == 0 {
			return
		}
		m := len(t.sequences)
		for i, s := range t.sequences {
			next, stop := iter.Pull(s.All())
			t.nodes[m+i] = node[E]{next: next}
			//nolint:gocritic // is not a leak.
			defer stop()
			t.moveNext(m + i) // Call next() on each item to get the first value.
		}
		t.nodes[0].index = t.playGame(1)
		for {
			w := t.nodes[0].index
			if t.nodes[w].done || !yield(t.nodes[w].value) {
				return
			}
			t.moveNext(w)
			t.replayGames(w)
		}
	}
}

// beats reports whether the leaf at a ranks before the leaf at b. An
// exhausted leaf loses to everything.
func (t *Tree[E]) beats(a, b int) bool {
	na, nb := &t.nodes[a], &t.nodes[b]
	if na.done {
		return false
	}
	if nb.done {
		return true
	}
	return t.less(na.value, nb.value)
}

// Find the winner at position pos; if it is a non-leaf node, store the loser.
// pos must be >= 1 and < len(t.nodes).
func (t *Tree[E]) playGame(pos int) int {
	if pos >= len(t.nodes)/2 {
		return pos
	}
	left := t.playGame(pos * 2)
	right := t.playGame(pos*2 + 1)
	loser, winner := left, right
	if t.beats(left, right) {
		loser, winner = right, left
	}
	t.nodes[pos].index = loser
	return winner
}

// Starting at pos, which is a winner, re-consider all values up to the root.
func (t *Tree[E]) replayGames(pos int) {
	for n := parent(pos); n != 0; n = parent(n) {
		node := &t.nodes[n]
		if t.beats(node.index, pos) {
			// Record pos as the loser here, and the old loser is the new winner.
			node.index, pos = pos, node.index
		}
	}
	// pos is now the winner; store it in node 0.
	t.nodes[0].index = pos
}

func parent(i int) int { return i >> 1 }
