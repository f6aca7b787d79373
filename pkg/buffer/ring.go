// Package buffer provides a fixed-capacity ring buffer that overwrites
// the oldest data when full. It keeps a sliding window of the most
// recent samples without allocating per push.
//
// Unlike a channel-backed queue, a Ring has a single owner: the engine
// tick loop both writes and reads it, so there is no locking.
package buffer

// Ring is a fixed-capacity overwrite-oldest buffer.
type Ring[T any] struct {
	buf    []T
	pos    int // next write position
	filled int // number of slots filled, up to len(buf)
}

// NewRing creates a Ring with the given capacity. Capacity must be
// positive; NewRing panics otherwise since the size is always a
// construction-time constant.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("buffer: ring capacity must be positive")
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends one value, evicting the oldest if the ring is full.
func (r *Ring[T]) Push(v T) {
	r.buf[r.pos] = v
	r.pos = (r.pos + 1) % len(r.buf)
	if r.filled < len(r.buf) {
		r.filled++
	}
}

// Append pushes each value in order.
func (r *Ring[T]) Append(vs ...T) {
	for _, v := range vs {
		r.Push(v)
	}
}

// Len returns the number of values currently held.
func (r *Ring[T]) Len() int { return r.filled }

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Full reports whether the ring holds Cap() values.
func (r *Ring[T]) Full() bool { return r.filled == len(r.buf) }

// At returns the i-th value, oldest first. i must be in [0, Len()).
func (r *Ring[T]) At(i int) T {
	start := (r.pos - r.filled + len(r.buf)*2) % len(r.buf)
	return r.buf[(start+i)%len(r.buf)]
}

// CopyTo copies values oldest-first into dst and returns the number
// copied. It never allocates.
func (r *Ring[T]) CopyTo(dst []T) int {
	n := min(len(dst), r.filled)
	start := (r.pos - r.filled + len(r.buf)*2) % len(r.buf)
	for i := 0; i < n; i++ {
		dst[i] = r.buf[(start+i)%len(r.buf)]
	}
	return n
}

// Values returns a copy of the buffered values, oldest first.
func (r *Ring[T]) Values() []T {
	out := make([]T, r.filled)
	r.CopyTo(out)
	return out
}

// Reset discards all buffered values.
func (r *Ring[T]) Reset() {
	r.pos = 0
	r.filled = 0
}
