package unsafering

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {
	r := New[int](5)

	for i := range 7 {
		r.Push(i)
	}

	require.Equal(t, []int{2, 3, 4, 5, 6}, slices.Collect(r.Iter()))
	require.Equal(t, 5, r.Len())

	v, ok := r.At(0)
	require.True(t, ok)
	require.Equal(t, 2, v)

	v, _ = r.At(4)
	require.Equal(t, 6, v)

	v, ok = r.At(5)
	assert.False(t, ok)
	require.Equal(t, 0, v)
}

func TestShift(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		r := New[int](3)
		r.Push(1)
		r.Push(2)
		r.Push(3)

		head, ok := r.Shift(4)
		require.True(t, ok)
		require.Equal(t, 1, head)
		require.Equal(t, []int{2, 3, 4}, slices.Collect(r.Iter()))
	})

	t.Run("partial", func(t *testing.T) {
		r := New[int](3)
		r.Push(1)
		r.Push(2)

		head, ok := r.Shift(3)
		require.True(t, ok)
		require.Equal(t, 1, head)
		require.Equal(t, []int{2, 3}, slices.Collect(r.Iter()))
	})

	t.Run("empty", func(t *testing.T) {
		r := New[int](3)

		_, ok := r.Shift(9)
		assert.False(t, ok)
		require.Equal(t, []int{9}, slices.Collect(r.Iter()))
	})
}

func TestClone(t *testing.T) {
	r := New[int](3)
	r.Push(1)
	r.Push(2)
	r.Push(3)

	c := r.Clone()
	c.Shift(4)

	require.Equal(t, []int{1, 2, 3}, slices.Collect(r.Iter()))
	require.Equal(t, []int{2, 3, 4}, slices.Collect(c.Iter()))
}
