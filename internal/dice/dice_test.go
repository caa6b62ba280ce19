package dice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeded_Deterministic(t *testing.T) {
	a := NewSeeded(42)
	b := NewSeeded(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Roll(2), b.Roll(2))
	}
}

func TestSeeded_Range(t *testing.T) {
	r := NewSeeded(7)
	for i := 0; i < 500; i++ {
		for _, d := range r.Roll(3) {
			require.GreaterOrEqual(t, d, 1)
			require.LessOrEqual(t, d, 6)
		}
	}
}

func TestNew_ZeroSeedUsesCrypto(t *testing.T) {
	r, err := New(0)
	require.NoError(t, err)
	assert.Len(t, r.Roll(2), 2)
}

func TestFixed_Cycles(t *testing.T) {
	f := NewFixed(1, 2, 3)
	assert.Equal(t, []int{1, 2}, f.Roll(2))
	assert.Equal(t, []int{3, 1}, f.Roll(2))
}

func TestShuffle(t *testing.T) {
	a, b := []int{1, 2, 3, 4, 5, 6, 7, 8}, []int{1, 2, 3, 4, 5, 6, 7, 8}
	NewSeeded(3).Shuffle(len(a), func(i, j int) { a[i], a[j] = a[j], a[i] })
	NewSeeded(3).Shuffle(len(b), func(i, j int) { b[i], b[j] = b[j], b[i] })
	assert.Equal(t, a, b)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, a)

	c := []int{1, 2, 3}
	NewFixed(6).Shuffle(len(c), func(i, j int) { c[i], c[j] = c[j], c[i] })
	assert.Equal(t, []int{1, 2, 3}, c)
}

func TestSum(t *testing.T) {
	assert.Equal(t, 0, Sum(nil))
	assert.Equal(t, 11, Sum([]int{5, 6}))
}
