package chunk

import (
	"iter"
	"slices"

	"github.com/davidvella/xsort/record"
	"github.com/google/btree"
)

// Sorter buffers one chunk of records and hands them back in ascending order.
type Sorter interface {
	// Add buffers a record.
	Add(r record.Record)
	// Len returns the number of buffered records, duplicates included.
	Len() int
	// All yields the buffered records in ascending order.
	All() iter.Seq[record.Record]
	// Reset empties the buffer, keeping its memory for the next chunk.
	Reset()
}

// SorterFunc builds a Sorter able to hold capacity records.
type SorterFunc func(capacity int) Sorter

// NewSliceSorter collects records into a slice and sorts it on demand. The
// slice grows up to capacity and is reused across chunks.
func NewSliceSorter(capacity int) Sorter {
	return &sliceSorter{records: make([]record.Record, 0, min(capacity, maxInitialRecords))}
}

// maxInitialRecords bounds the up front allocation so a large capacity costs
// nothing for small inputs.
const maxInitialRecords = 64 << 10

type sliceSorter struct {
	records []record.Record
	sorted  bool
}

func (s *sliceSorter) Add(r record.Record) {
	s.records = append(s.records, r)
	s.sorted = false
}

func (s *sliceSorter) Len() int {
	return len(s.records)
}

func (s *sliceSorter) All() iter.Seq[record.Record] {
	if !s.sorted {
		slices.Sort(s.records)
		s.sorted = true
	}
	return slices.Values(s.records)
}

func (s *sliceSorter) Reset() {
	s.records = s.records[:0]
	s.sorted = true
}

// NewBTreeSorter keeps records ordered as they arrive in a B-tree of
// distinct values with their multiplicity. Inputs with many repeated values
// then take less memory than the chunk size suggests.
func NewBTreeSorter(int) Sorter {
	return &btreeSorter{
		tree: btree.NewG[bucket](32, func(a, b bucket) bool {
			return a.value < b.value
		}),
	}
}

type bucket struct {
	value record.Record
	count int
}

type btreeSorter struct {
	tree *btree.BTreeG[bucket]
	n    int
}

func (s *btreeSorter) Add(r record.Record) {
	b, ok := s.tree.Get(bucket{value: r})
	if !ok {
		b = bucket{value: r}
	}
	b.count++
	s.tree.ReplaceOrInsert(b)
	s.n++
}

func (s *btreeSorter) Len() int {
	return s.n
}

func (s *btreeSorter) All() iter.Seq[record.Record] {
	return func(yield func(record.Record) bool) {
		s.tree.Ascend(func(b bucket) bool {
			for i := 0; i < b.count; i++ {
				if !yield(b.value) {
					return false
				}
			}
			return true
		})
	}
}

func (s *btreeSorter) Reset() {
	s.tree.Clear(true)
	s.n = 0
}
