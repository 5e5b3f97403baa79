package game

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/ghthor/webblok/block"
	"github.com/stretchr/testify/require"
)

func TestBagPermutation(t *testing.T) {
	b := NewBag(rand.New(rand.NewSource(1)))

	for range 50 {
		require.Zero(t, b.Len())

		drawn := make([]block.Cell, 0, 7)
		for range 7 {
			drawn = append(drawn, b.Draw())
		}
		slices.Sort(drawn)
		require.Equal(t, block.Kinds[:], drawn)
	}
}

func TestBagGap(t *testing.T) {
	b := NewBag(rand.New(rand.NewSource(2)))
	last := map[block.Cell]int{}
	for i := range 7 * 200 {
		k := b.Draw()
		if prev, ok := last[k]; ok {
			require.LessOrEqual(t, i-prev-1, 12, "kind %s absent too long", k)
		}
		last[k] = i
	}
}

func TestBagClone(t *testing.T) {
	b := NewBag(rand.New(rand.NewSource(9)))
	b.Draw()
	b.Draw()

	c := b.Clone()
	require.Equal(t, b.Len(), c.Len())

	for range 5 {
		require.Equal(t, b.Draw(), c.Draw())
	}
	// both exhausted, the refill comes from separate sources
	require.Zero(t, b.Len())
	require.Zero(t, c.Len())
	c.Draw()
	require.Zero(t, b.Len())
}
