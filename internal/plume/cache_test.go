package plume_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumewatch/plumewatch/internal/plume"
)

func newCached(t *testing.T, size int) *plume.CachedGenerator {
	t.Helper()
	c, err := plume.NewCachedGenerator(newGenerator(t, plume.DefaultParams()), size)
	require.NoError(t, err)
	return c
}

func TestCachedGenerator_ComputesOncePerKey(t *testing.T) {
	c := newCached(t, 16)
	wind := plume.WindState{Speed: 10, Direction: 170}

	var wg sync.WaitGroup
	results := make([]*plume.Result, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.Generate(zaporizhzhia, wind, plume.StabilityD, 150, 10)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), c.Computations())
	for _, res := range results {
		assert.Same(t, results[0], res)
	}
}

func TestCachedGenerator_MatchesGenerator(t *testing.T) {
	g := newGenerator(t, plume.DefaultParams())
	c := newCached(t, 16)
	wind := plume.WindState{Speed: 4, Direction: 33}

	want, err := g.Generate(zaporizhzhia, wind, plume.StabilityE, 70, 6)
	require.NoError(t, err)
	got, err := c.Generate(zaporizhzhia, wind, plume.StabilityE, 70, 6)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCachedGenerator_UnknownClassSharesDefaultEntry(t *testing.T) {
	c := newCached(t, 16)
	wind := plume.WindState{Speed: 4, Direction: 33}

	_, err := c.Generate(zaporizhzhia, wind, plume.StabilityD, 70, 6)
	require.NoError(t, err)
	_, err = c.Generate(zaporizhzhia, wind, plume.StabilityClass("?"), 70, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Computations())
}

func TestCachedGenerator_EvictsAndSkipsErrors(t *testing.T) {
	c := newCached(t, 2)

	for dir := 10.0; dir <= 30; dir += 10 {
		_, err := c.Generate(zaporizhzhia, plume.WindState{Speed: 5, Direction: dir}, plume.StabilityD, 50, 3)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(3), c.Computations())

	_, err := c.Generate(zaporizhzhia, plume.WindState{Speed: -5, Direction: 10}, plume.StabilityD, 50, 3)
	assert.ErrorIs(t, err, plume.ErrInvalidInput)
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}
