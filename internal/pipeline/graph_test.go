package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func noop(ctx context.Context) error { return nil }

func TestGraphOrderRespectsDependencies(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add(Stage{Name: "c", Inputs: []string{"a", "b"}, Run: noop}))
	require.NoError(t, g.Add(Stage{Name: "a", Run: noop}))
	require.NoError(t, g.Add(Stage{Name: "b", Inputs: []string{"a"}, Run: noop}))

	order, err := g.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestGraphOrderIsStable(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add(Stage{Name: "x", Run: noop}))
	require.NoError(t, g.Add(Stage{Name: "y", Run: noop}))
	require.NoError(t, g.Add(Stage{Name: "z", Run: noop}))

	first, err := g.Order()
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := g.Order()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []string{"x", "y", "z"}, first, "ties break on registration order")
}

func TestGraphRejectsUnknownInput(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add(Stage{Name: "a", Inputs: []string{"ghost"}, Run: noop}))

	_, err := g.Order()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}

func TestGraphRejectsCycle(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add(Stage{Name: "a", Inputs: []string{"b"}, Run: noop}))
	require.NoError(t, g.Add(Stage{Name: "b", Inputs: []string{"a"}, Run: noop}))

	_, err := g.Order()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestGraphRejectsDuplicateStage(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add(Stage{Name: "a", Run: noop}))
	assert.Error(t, g.Add(Stage{Name: "a", Run: noop}))
}

func TestGraphRunExecutesInOrderAndStopsOnFailure(t *testing.T) {
	var ran []string
	record := func(name string, err error) StageFunc {
		return func(ctx context.Context) error {
			ran = append(ran, name)
			return err
		}
	}

	boom := errors.New("boom")
	g := NewGraph()
	require.NoError(t, g.Add(Stage{Name: "a", Run: record("a", nil)}))
	require.NoError(t, g.Add(Stage{Name: "b", Inputs: []string{"a"}, Run: record("b", boom)}))
	require.NoError(t, g.Add(Stage{Name: "c", Inputs: []string{"b"}, Run: record("c", nil)}))

	err := g.Run(context.Background(), zap.NewNop())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, ran, "downstream stages never run after a failure")
}
