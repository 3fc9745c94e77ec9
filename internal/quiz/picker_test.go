package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolUsesEnabledSetsOnly(t *testing.T) {
	sets := []GraphSet{
		{ID: "minuscules", Enabled: true, Graphs: []Graph{{Char: "a", Image: "a.png"}, {Char: "b", Image: "b.png"}}},
		{ID: "majuscules", Enabled: false, Graphs: []Graph{{Char: "A", Image: "A.png"}}},
	}
	pool := Pool(sets)
	require.Len(t, pool, 2)
	assert.Equal(t, "a", pool[0].Char)
	assert.Equal(t, "b", pool[1].Char)
}

func TestPickerEmptyPool(t *testing.T) {
	p := NewPickerWithSeed(1)
	_, err := p.Next(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyPool)
	_, err = p.NextWeighted(nil, nil, map[string]struct{}{"a": {}}, 2)
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestPickerAvoidsImmediateRepeat(t *testing.T) {
	pool := []Graph{{Char: "a", Image: "a.png"}, {Char: "b", Image: "b.png"}}
	p := NewPickerWithSeed(42)
	prev, err := p.Next(pool, nil)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		next, err := p.Next(pool, &prev)
		require.NoError(t, err)
		assert.NotEqual(t, prev.Key(), next.Key())
		prev = next
	}
}

func TestPickerSingleGraphRepeats(t *testing.T) {
	pool := []Graph{{Char: "a", Image: "a.png"}}
	p := NewPickerWithSeed(7)
	g, err := p.Next(pool, &pool[0])
	require.NoError(t, err)
	assert.Equal(t, pool[0], g)
}

func TestPickerWeightedFavoursWeakLetters(t *testing.T) {
	pool := []Graph{
		{Char: "a", Image: "a.png"},
		{Char: "b", Image: "b.png"},
		{Char: "c", Image: "c.png"},
		{Char: "d", Image: "d.png"},
	}
	weak := map[string]struct{}{"d": {}}
	p := NewPickerWithSeed(3)
	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		g, err := p.NextWeighted(pool, nil, weak, 9)
		require.NoError(t, err)
		counts[g.Char]++
	}
	assert.Greater(t, counts["d"], counts["a"]*3)
	assert.Greater(t, counts["a"], 0)
}

func TestLessChar(t *testing.T) {
	assert.True(t, LessChar("a", "B"))
	assert.True(t, LessChar("a", "A"))
	assert.False(t, LessChar("A", "a"))
	assert.False(t, LessChar("a", "a"))
	assert.True(t, LessChar("Y", "z"))
}
