package entity

const blockSize = 64

// iBehaviorStore is the type-erased interface over per-behavior block storage.
type iBehaviorStore interface {
	removeRaw(e Index)
	has(e Index) bool
	clearRange(lo, hi Index)
}

// behaviorStore keeps one behavior type in fixed blocks indexed directly by
// entity index. All blocks are allocated up front when the behavior is
// registered, so steady-state writes never touch the heap.
type behaviorStore[T any] struct {
	blocks [][blockSize]T
	filled [][blockSize]bool

	added    []func(Index, *T)
	updating []func(Index, *T)
	updated  []func(Index, *T)
	removing []func(Index, *T)
}

func newBehaviorStore[T any](capacity int) *behaviorStore[T] {
	blocks := (capacity + blockSize - 1) / blockSize
	return &behaviorStore[T]{
		blocks: make([][blockSize]T, blocks),
		filled: make([][blockSize]bool, blocks),
	}
}

func (bs *behaviorStore[T]) slot(e Index) (int, int) {
	return int(e) / blockSize, int(e) % blockSize
}

func (bs *behaviorStore[T]) get(e Index) *T {
	block, idx := bs.slot(e)
	if block >= len(bs.blocks) || !bs.filled[block][idx] {
		return nil
	}
	return &bs.blocks[block][idx]
}

func (bs *behaviorStore[T]) has(e Index) bool {
	block, idx := bs.slot(e)
	return block < len(bs.blocks) && bs.filled[block][idx]
}

// add places a behavior value and fires the added observers.
func (bs *behaviorStore[T]) add(e Index, value T) {
	block, idx := bs.slot(e)
	bs.blocks[block][idx] = value
	bs.filled[block][idx] = true
	for _, fn := range bs.added {
		fn(e, &bs.blocks[block][idx])
	}
}

// update mutates an existing slot in place, firing updating before and
// updated after the mutation.
func (bs *behaviorStore[T]) update(e Index, fn func(*T)) {
	block, idx := bs.slot(e)
	ptr := &bs.blocks[block][idx]
	for _, ob := range bs.updating {
		ob(e, ptr)
	}
	fn(ptr)
	for _, ob := range bs.updated {
		ob(e, ptr)
	}
}

// remove clears a slot, firing removing observers while the value is still
// readable.
func (bs *behaviorStore[T]) remove(e Index) {
	block, idx := bs.slot(e)
	if !bs.filled[block][idx] {
		return
	}
	ptr := &bs.blocks[block][idx]
	for _, ob := range bs.removing {
		ob(e, ptr)
	}
	var zero T
	bs.blocks[block][idx] = zero
	bs.filled[block][idx] = false
}

// removeRaw clears a slot without observer fan-out. Used on despawn, after
// the deactivation event has already run.
func (bs *behaviorStore[T]) removeRaw(e Index) {
	block, idx := bs.slot(e)
	if !bs.filled[block][idx] {
		return
	}
	var zero T
	bs.blocks[block][idx] = zero
	bs.filled[block][idx] = false
}

// clearRange wipes [lo, hi) as a bulk partition reset. No observers fire;
// partition-wide listeners react to the scene-reset event instead.
func (bs *behaviorStore[T]) clearRange(lo, hi Index) {
	var zero T
	for e := lo; e < hi; e++ {
		block, idx := bs.slot(e)
		if bs.filled[block][idx] {
			bs.blocks[block][idx] = zero
			bs.filled[block][idx] = false
		}
	}
}
