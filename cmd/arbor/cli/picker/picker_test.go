package picker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticFiltersToKnownValues(t *testing.T) {
	items := []Item{
		{Display: "alpha", Value: "a"},
		{Display: "beta", Value: "b"},
	}

	p := &Static{Selections: []string{"b", "zzz"}}
	got, err := p.Pick(items, Options{Title: "pick"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got)
}

func TestStaticEmptySelectionMeansCancel(t *testing.T) {
	p := &Static{}
	got, err := p.Pick([]Item{{Display: "alpha", Value: "a"}}, Options{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTerminalEmptyItems(t *testing.T) {
	p := NewTerminal()
	got, err := p.Pick(nil, Options{Title: "pick"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
