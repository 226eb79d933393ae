package priority

type entry[K comparable, V any] struct {
	key   K
	value V
}

// Queue is a binary heap of keyed values. Every key appears at most once, so
// a value can be replaced in place as well as pushed and popped.
type Queue[K comparable, V any] struct {
	entries []entry[K, V]
	index   map[K]int
	lessF   func(a, b V) bool // true if a has higher priority than b
}

// NewQueue creates a new priority queue with the given comparator.
func NewQueue[K comparable, V any](less func(a, b V) bool) *Queue[K, V] {
	return NewQueueSize[K, V](0, less)
}

// NewQueueSize is NewQueue with room for size keys.
func NewQueueSize[K comparable, V any](size int, less func(a, b V) bool) *Queue[K, V] {
	return &Queue[K, V]{
		entries: make([]entry[K, V], 0, size),
		index:   make(map[K]int, size),
		lessF:   less,
	}
}

// Len returns the number of keys in the queue.
func (pq *Queue[K, V]) Len() int {
	return len(pq.entries)
}

// Get returns the value of key.
func (pq *Queue[K, V]) Get(key K) (V, bool) {
	i, ok := pq.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return pq.entries[i].value, true
}

// Set adds a new key or replaces the value of an existing one.
func (pq *Queue[K, V]) Set(key K, value V) {
	if i, ok := pq.index[key]; ok {
		old := pq.entries[i].value
		pq.entries[i].value = value
		if pq.lessF(value, old) {
			pq.up(i)
		} else {
			pq.down(i)
		}
		return
	}

	pq.entries = append(pq.entries, entry[K, V]{key: key, value: value})
	i := len(pq.entries) - 1
	pq.index[key] = i
	pq.up(i)
}

// Remove removes key from the queue. It reports whether the key was present.
func (pq *Queue[K, V]) Remove(key K) bool {
	i, ok := pq.index[key]
	if !ok {
		return false
	}
	pq.removeAt(i)
	return true
}

// Pop removes and returns the highest priority entry.
func (pq *Queue[K, V]) Pop() (key K, value V, ok bool) {
	key, value, ok = pq.Peek()
	if ok {
		pq.removeAt(0)
	}
	return key, value, ok
}

// Peek returns the highest priority entry without removing it.
func (pq *Queue[K, V]) Peek() (key K, value V, ok bool) {
	if len(pq.entries) == 0 {
		return key, value, false
	}
	e := pq.entries[0]
	return e.key, e.value, true
}

func (pq *Queue[K, V]) removeAt(i int) {
	last := len(pq.entries) - 1
	delete(pq.index, pq.entries[i].key)
	if i != last {
		pq.entries[i] = pq.entries[last]
		pq.index[pq.entries[i].key] = i
	}
	pq.entries[last] = entry[K, V]{}
	pq.entries = pq.entries[:last]
	if i < last {
		pq.down(i)
		pq.up(i)
	}
}

func (pq *Queue[K, V]) swap(i, j int) {
	pq.entries[i], pq.entries[j] = pq.entries[j], pq.entries[i]
	pq.index[pq.entries[i].key] = i
	pq.index[pq.entries[j].key] = j
}

func (pq *Queue[K, V]) less(i, j int) bool {
	return pq.lessF(pq.entries[i].value, pq.entries[j].value)
}

func (pq *Queue[K, V]) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !pq.less(i, parent) {
			break
		}
		pq.swap(i, parent)
		i = parent
	}
}

func (pq *Queue[K, V]) down(i int) {
	n := len(pq.entries)
	for {
		smallest := i
		if left := 2*i + 1; left < n && pq.less(left, smallest) {
			smallest = left
		}
		if right := 2*i + 2; right < n && pq.less(right, smallest) {
			smallest = right
		}
		if smallest == i {
			return
		}
		pq.swap(i, smallest)
		i = smallest
	}
}
