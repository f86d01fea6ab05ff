package task

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStyle(t *testing.T) {
	for _, s := range []string{"random", "rear", "front", " Front "} {
		_, err := ParseStyle(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseStyle("middle")
	assert.ErrorIs(t, err, ErrUnknownStyle)
	assert.False(t, Style("middle").Valid())
	assert.True(t, StyleRear.Valid())
}

func TestArrangeFrontRear(t *testing.T) {
	private := Range{0, 3}
	shared := Range{8, 10}

	front, err := Arrange(private, shared, StyleFront, nil)
	require.NoError(t, err)
	if diff := cmp.Diff([]int{8, 9, 0, 1, 2}, front); diff != "" {
		t.Errorf("front mismatch (-want +got):\n%s", diff)
	}

	rear, err := Arrange(private, shared, StyleRear, nil)
	require.NoError(t, err)
	if diff := cmp.Diff([]int{0, 1, 2, 8, 9}, rear); diff != "" {
		t.Errorf("rear mismatch (-want +got):\n%s", diff)
	}
}

func TestArrangeDeterministic(t *testing.T) {
	for _, style := range []Style{StyleFront, StyleRear} {
		a, err := Arrange(Range{10, 60}, Range{90, 100}, style, nil)
		require.NoError(t, err)
		b, err := Arrange(Range{10, 60}, Range{90, 100}, style, nil)
		require.NoError(t, err)
		assert.Equal(t, a, b, string(style))
	}
}

func TestArrangeLengthAndMembership(t *testing.T) {
	cases := []struct {
		private, shared Range
	}{
		{Range{0, 250}, Range{1000, 1000}},
		{Range{0, 0}, Range{750, 1000}},
		{Range{0, 0}, Range{5, 5}},
		{Range{0, 125}, Range{875, 1000}},
		{Range{9, 12}, Range{10, 12}}, // 数値的に重なる範囲
	}
	rng := rand.New(rand.NewPCG(1, 2))

	for _, c := range cases {
		for _, style := range Styles {
			tasks, err := Arrange(c.private, c.shared, style, rng)
			require.NoError(t, err)
			require.Len(t, tasks, c.private.Len()+c.shared.Len(), "%s %s %s", style, c.private, c.shared)

			// 各範囲の消費回数が範囲長と一致すること
			remaining := map[int]int{}
			for id := c.private.Start; id < c.private.End; id++ {
				remaining[id]++
			}
			for id := c.shared.Start; id < c.shared.End; id++ {
				remaining[id]++
			}
			for _, id := range tasks {
				require.True(t, c.private.Contains(id) || c.shared.Contains(id), "id %d outside inputs", id)
				remaining[id]--
			}
			for id, n := range remaining {
				assert.Zero(t, n, "id %d count mismatch for %s", id, style)
			}
		}
	}
}

func TestArrangeRandomPreservesRangeOrder(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	private := Range{0, 70}
	shared := Range{100, 130}

	tasks, err := Arrange(private, shared, StyleRandom, rng)
	require.NoError(t, err)

	lastPrivate, lastShared := -1, -1
	for _, id := range tasks {
		if private.Contains(id) {
			assert.Greater(t, id, lastPrivate)
			lastPrivate = id
		} else {
			assert.Greater(t, id, lastShared)
			lastShared = id
		}
	}
}

func TestArrangeRandomSeeded(t *testing.T) {
	a, err := Arrange(Range{0, 50}, Range{50, 100}, StyleRandom, rand.New(rand.NewPCG(42, 0)))
	require.NoError(t, err)
	b, err := Arrange(Range{0, 50}, Range{50, 100}, StyleRandom, rand.New(rand.NewPCG(42, 0)))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestArrangeRandomRatio(t *testing.T) {
	const trials = 10000
	private := Range{0, 700}
	shared := Range{700, 1000}
	half := (private.Len() + shared.Len()) / 2
	rng := rand.New(rand.NewPCG(2024, 10))

	sharedFirstHalf := 0
	for range trials {
		tasks, err := Arrange(private, shared, StyleRandom, rng)
		require.NoError(t, err)
		for _, id := range tasks[:half] {
			if shared.Contains(id) {
				sharedFirstHalf++
			}
		}
	}

	frac := float64(sharedFirstHalf) / float64(trials*half)
	assert.InDelta(t, 0.30, frac, 0.02)
}

func TestArrangeErrors(t *testing.T) {
	_, err := Arrange(Range{0, 1}, Range{1, 2}, Style("middle"), nil)
	assert.ErrorIs(t, err, ErrUnknownStyle)

	_, err = Arrange(Range{5, 1}, Range{1, 2}, StyleRear, nil)
	assert.ErrorIs(t, err, ErrPartition)
}
