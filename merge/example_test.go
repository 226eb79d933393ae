package merge_test

import (
	"context"
	"os"

	"github.com/davidvella/xsort/merge"
	"github.com/davidvella/xsort/store"
	"github.com/davidvella/xsort/store/memory"
)

func ExampleMerger_Merge() {
	s := memory.NewMemoryStorage()
	s.Put("a", []byte("1\n4\n7\n"))
	s.Put("b", []byte("2\n5\n"))
	s.Put("c", []byte("3\n6\n8\n9\n"))

	m, err := merge.New(s, merge.WithStrategy(merge.Tournament))
	if err != nil {
		panic(err)
	}
	if _, err := m.Merge(context.Background(), []store.RunID{"a", "b", "c"}, os.Stdout); err != nil {
		panic(err)
	}
	// Output:
	// 1
	// 2
	// 3
	// 4
	// 5
	// 6
	// 7
	// 8
	// 9
}
