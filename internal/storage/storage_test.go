package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closedloop-vr/ballrig/internal/config"
)

func TestNewBackend_Memory(t *testing.T) {
	cfg := config.StorageConfig{
		Type:   "memory",
		Memory: config.MemoryConfig{OutputDir: t.TempDir()},
	}

	b, err := NewBackend(cfg, Deps{})
	require.NoError(t, err)
	require.NotNil(t, b)

	// Memory backend produces a session export file.
	_, ok := b.(Exportable)
	assert.True(t, ok)
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := NewBackend(config.StorageConfig{Type: "tape"}, Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}
