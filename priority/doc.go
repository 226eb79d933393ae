// Package priority implements a generic priority queue of key-value pairs,
// ordered by value. The queue is a binary heap plus a map from key to heap
// position, so besides the usual push and pop a key's value can be replaced
// or removed in O(log n).
//
// The ordering is given by a less function that returns true if a has higher
// priority than b:
//
//	pq := priority.NewQueue[int, int64](func(a, b int64) bool {
//	    return a < b
//	})
//
//	pq.Set(0, 5)      // add
//	pq.Set(1, 3)
//	pq.Set(0, 1)      // replace, the entry moves to the front
//	k, v, ok := pq.Peek()
//	pq.Remove(1)
//
// Replacing the head in place costs a single sift down, where pop followed by
// push costs two. The k-way merge relies on this: every emitted record is
// followed by replacing its source's head.
//
// Entries with equal values come out in no particular order.
package priority
