package game

import (
	"math/rand"

	"github.com/ghthor/webblok/block"
)

// Bag deals the seven kinds once each, in random order, before reshuffling.
type Bag struct {
	rng *rand.Rand
	buf []block.Cell
}

func NewBag(rng *rand.Rand) *Bag {
	return &Bag{rng: rng, buf: make([]block.Cell, 0, len(block.Kinds))}
}

// Refill replaces the buffer with a fresh permutation of every kind.
func (b *Bag) Refill() {
	b.buf = b.buf[:0]
	for _, i := range b.rng.Perm(len(block.Kinds)) {
		b.buf = append(b.buf, block.Kinds[i])
	}
}

// Draw pops the next kind, refilling first when the bag is empty.
func (b *Bag) Draw() block.Cell {
	if len(b.buf) == 0 {
		b.Refill()
	}
	k := b.buf[0]
	b.buf = b.buf[1:]
	return k
}

// Len is the number of kinds left before the next refill.
func (b *Bag) Len() int {
	return len(b.buf)
}

// Clone copies the undealt kinds and seeds the copy from b's source, so the
// two bags draw independently afterwards.
func (b *Bag) Clone() *Bag {
	buf := make([]block.Cell, len(b.buf), len(block.Kinds))
	copy(buf, b.buf)
	return &Bag{
		rng: rand.New(rand.NewSource(b.rng.Int63())),
		buf: buf,
	}
}
