package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stepwire/internal/ir"
)

// TestSpecBuilder tests that From applies to the latest dependency only.
func TestSpecBuilder(t *testing.T) {
	spec := Spec("Eval").
		Needs("model", ir.TypeModelArtifacts).From("Train").
		Wants("extra", ir.TypeCustomProperty).
		Build()

	require.Len(t, spec.Dependencies, 2)
	assert.True(t, spec.Dependencies[0].Required)
	assert.Equal(t, []string{"Train"}, spec.Dependencies[0].CompatibleSources)
	assert.False(t, spec.Dependencies[1].Required)
	assert.Empty(t, spec.Dependencies[1].CompatibleSources)
}

// TestFixtureCatalogues tests that both fixture catalogues register cleanly.
func TestFixtureCatalogues(t *testing.T) {
	chain := Registry(t, ChainSpecs()...)
	assert.True(t, chain.Frozen())
	assert.Equal(t, []string{"Alpha", "Beta", "Delta", "Gamma"}, chain.AllRegisteredTypes())

	pipeline := Registry(t, PipelineSpecs()...)
	assert.Equal(t, 6, pipeline.Len())
}
