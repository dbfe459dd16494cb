package metrics

// ring is a fixed-capacity FIFO buffer; the oldest item is overwritten when full.
// It is not safe for concurrent use.
type ring[T any] struct {
	items []T
	head  int // index of the oldest item
	size  int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{items: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	capacity := len(r.items)
	if r.size < capacity {
		r.items[(r.head+r.size)%capacity] = v
		r.size++
		return
	}
	r.items[r.head] = v
	r.head = (r.head + 1) % capacity
}

// snapshot copies the items out, oldest first.
func (r *ring[T]) snapshot() []T {
	out := make([]T, r.size)
	for i := range out {
		out[i] = r.items[(r.head+i)%len(r.items)]
	}
	return out
}

func (r *ring[T]) len() int { return r.size }
