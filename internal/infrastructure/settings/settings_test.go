package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `{
	"apps": {
		"opensrf.math": {"stateless": true},
		"opensrf.dispatch": {"stateless": false},
		"opensrf.noop": {}
	}
}`

func TestTreeStateless(t *testing.T) {
	tree, err := Load([]byte(sampleConfig))
	require.NoError(t, err)

	t.Run("true for a stateless service", func(t *testing.T) {
		assert.True(t, tree.Stateless("opensrf.math"))
	})

	t.Run("false for an explicitly stateful service", func(t *testing.T) {
		assert.False(t, tree.Stateless("opensrf.dispatch"))
	})

	t.Run("false when the key is absent", func(t *testing.T) {
		assert.False(t, tree.Stateless("opensrf.noop"))
	})

	t.Run("false for an unknown service", func(t *testing.T) {
		assert.False(t, tree.Stateless("opensrf.nonexistent"))
	})
}

func TestLoadInvalidJSON(t *testing.T) {
	_, err := Load([]byte("not json"))
	assert.Error(t, err)
}
