package feedsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/marketstream/pkg/schema"
)

func TestGenerator_AllTypesDecode(t *testing.T) {
	gen := NewGenerator(42, "neon-vortex-1")

	// Optional fields are randomized, so run each type a few times.
	for i := 0; i < 10; i++ {
		for _, eventType := range schema.EventTypes {
			raw, err := gen.Event(eventType, "neon-vortex-1")
			require.NoError(t, err)

			event, err := schema.DecodeEvent(raw)
			require.NoError(t, err, "%s: %s", eventType, raw)
			assert.Equal(t, eventType, event.Type())
			assert.Equal(t, "neon-vortex-1", event.CollectionSlug())
		}
	}
}

func TestGenerator_Random(t *testing.T) {
	gen := NewGenerator(7)
	slugs := gen.Slugs()
	require.Len(t, slugs, 5)

	for i := 0; i < 50; i++ {
		eventType, slug, raw, err := gen.Random()
		require.NoError(t, err)
		assert.Contains(t, slugs, slug)

		event, err := schema.DecodeEvent(raw)
		require.NoError(t, err)
		assert.Equal(t, eventType, event.Type())
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(99, "x")
	b := NewGenerator(99, "x")
	assert.Equal(t, a.Slugs(), b.Slugs())

	typeA, _, _, err := a.Random()
	require.NoError(t, err)
	typeB, _, _, err := b.Random()
	require.NoError(t, err)
	assert.Equal(t, typeA, typeB)
}

func TestGenerator_UnknownType(t *testing.T) {
	_, err := NewGenerator(1).Event("item_burned", "x")
	assert.ErrorIs(t, err, schema.ErrUnrecognizedEventType)
}
