package selector

import (
	"iter"
	"math/bits"

	"github.com/plus3/sigil/entity"
)

// Bitset is a dense per-entity bit array sized to the store's capacity.
// All combining operations assume both operands were sized from the same
// capacity.
type Bitset struct {
	words []uint64
}

// NewBitset allocates a bitset covering capacity entity slots.
func NewBitset(capacity int) Bitset {
	return Bitset{words: make([]uint64, (capacity+63)/64)}
}

// Set marks an entity index.
func (b Bitset) Set(e entity.Index) {
	b.words[e>>6] |= 1 << (uint(e) & 63)
}

// Clear unmarks an entity index.
func (b Bitset) Clear(e entity.Index) {
	b.words[e>>6] &^= 1 << (uint(e) & 63)
}

// Has reports whether an entity index is marked.
func (b Bitset) Has(e entity.Index) bool {
	w := int(e >> 6)
	return w < len(b.words) && b.words[w]&(1<<(uint(e)&63)) != 0
}

// ClearAll zeroes the set in place.
func (b Bitset) ClearAll() {
	for i := range b.words {
		b.words[i] = 0
	}
}

// ClearRange zeroes indices in [lo, hi). Used for bulk partition clears.
func (b Bitset) ClearRange(lo, hi entity.Index) {
	for e := lo; e < hi; {
		w := int(e >> 6)
		if uint(e)&63 == 0 && e+64 <= hi {
			b.words[w] = 0
			e += 64
			continue
		}
		b.words[w] &^= 1 << (uint(e) & 63)
		e++
	}
}

// CopyFrom overwrites this set with another of the same capacity.
func (b Bitset) CopyFrom(o Bitset) {
	copy(b.words, o.words)
}

// Or unions another set into this one.
func (b Bitset) Or(o Bitset) {
	for i := range b.words {
		b.words[i] |= o.words[i]
	}
}

// And intersects this set with another.
func (b Bitset) And(o Bitset) {
	for i := range b.words {
		b.words[i] &= o.words[i]
	}
}

// Count returns the number of marked indices.
func (b Bitset) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Equal reports whether two sets mark exactly the same indices.
func (b Bitset) Equal(o Bitset) bool {
	if len(b.words) != len(o.words) {
		return false
	}
	for i := range b.words {
		if b.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// AppendTo appends the marked indices to dst in ascending order and returns
// the extended slice. Appending into a reused scratch slice keeps the hot
// path free of the closure an iterator would allocate.
func (b Bitset) AppendTo(dst []entity.Index) []entity.Index {
	for i, w := range b.words {
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			dst = append(dst, entity.Index(i<<6+bit))
			w &= w - 1
		}
	}
	return dst
}

// Iter yields marked entity indices in ascending order.
func (b Bitset) Iter() iter.Seq[entity.Index] {
	return func(yield func(entity.Index) bool) {
		for i, w := range b.words {
			for w != 0 {
				bit := bits.TrailingZeros64(w)
				if !yield(entity.Index(i<<6 + bit)) {
					return
				}
				w &= w - 1
			}
		}
	}
}
