package renderer

// defaultUniformRingSize is the initial byte capacity of the per-frame line uniform ring.
const defaultUniformRingSize = 64 * 1024

// uniformRing hands out dynamic-offset slots of one uniform buffer for the draws of a frame.
// It only does the offset arithmetic; the backend owns the buffer and reallocates it when
// reserve reports that the ring is full.
type uniformRing struct {
	alignment uint64
	capacity  uint64
	head      uint64
}

func newUniformRing(capacity, alignment uint64) uniformRing {
	if alignment == 0 {
		alignment = 256
	}
	return uniformRing{alignment: alignment, capacity: roundUp(capacity, alignment)}
}

// reserve returns the aligned offset of a slot of the given size. ok is false when the slot does
// not fit in the remaining capacity.
func (r *uniformRing) reserve(size uint64) (offset uint64, ok bool) {
	offset = roundUp(r.head, r.alignment)
	if offset+size > r.capacity {
		return 0, false
	}
	r.head = offset + size
	return offset, true
}

// grow doubles the capacity until a slot of the given size fits in an empty ring, then empties it.
// It returns the new capacity.
func (r *uniformRing) grow(size uint64) uint64 {
	next := max(r.capacity, r.alignment)
	for next < r.capacity*2 || next < size {
		next *= 2
	}
	r.capacity = roundUp(next, r.alignment)
	r.head = 0
	return r.capacity
}

// reset empties the ring at the start of a frame.
func (r *uniformRing) reset() {
	r.head = 0
}

func roundUp(value, alignment uint64) uint64 {
	return (value + alignment - 1) / alignment * alignment
}
