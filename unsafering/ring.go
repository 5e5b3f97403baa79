// unsafering implements a fixed size ring buffer that has no concurrency
// support. It backs the next-piece queue, which is only ever touched while the
// owning game session's lock is held.
package unsafering

type Buffer[T any] struct {
	data  []T
	size  int
	count int
	write int
}

func New[T any](size int) *Buffer[T] {
	return &Buffer[T]{data: make([]T, size), size: size}
}

// Push appends v, dropping the oldest element once the buffer is full.
func (r *Buffer[T]) Push(v T) {
	r.data[r.write] = v
	r.write = (r.write + 1) % r.size
	r.count = min(r.count+1, r.size)
}

func (r *Buffer[T]) Len() int {
	return r.count
}

func (r *Buffer[T]) Cap() int {
	return r.size
}

// At returns the i-th element counting from the oldest.
func (r *Buffer[T]) At(i int) (val T, ok bool) {
	if i < 0 || i >= r.count {
		var zero T
		return zero, false
	}
	start := (r.write - r.count + r.size) % r.size
	return r.data[(start+i)%r.size], true
}

// Shift removes and returns the oldest element and pushes v in its place. On
// an empty buffer ok is false and v is still pushed.
func (r *Buffer[T]) Shift(v T) (head T, ok bool) {
	head, ok = r.At(0)
	if ok && r.count < r.size {
		// make room so the push below does not grow the window
		r.count--
	}
	r.Push(v)
	return head, ok
}

// Clone returns an independent copy.
func (r *Buffer[T]) Clone() *Buffer[T] {
	c := *r
	c.data = make([]T, r.size)
	copy(c.data, r.data)
	return &c
}

// Iter returns an iterator over the buffer contents, oldest to newest.
//
// Example usage:
//
//	for v := range buf.Iter() {
//	    fmt.Println(v)
//	}
func (r *Buffer[T]) Iter() func(yield func(T) bool) {
	return func(yield func(T) bool) {
		for i := range r.count {
			v, _ := r.At(i)
			if !yield(v) {
				return
			}
		}
	}
}
