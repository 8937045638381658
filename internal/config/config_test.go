package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSource map[string]any

func (m mapSource) Load() (map[string]any, error) { return m, nil }

func TestDefaults(t *testing.T) {
	cfg, err := LoadFrom()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "localhost", cfg.Remote.Node)
	assert.Equal(t, 20000, cfg.Remote.Port)
	assert.Equal(t, "gbk", cfg.Remote.Charset)
	assert.Equal(t, []string{".cmm", ".lua"}, cfg.Watch.Extensions)
}

func TestLayering(t *testing.T) {
	file := mapSource{
		"remote":   map[string]any{"node": "board-a", "port": int64(20002)},
		"transfer": map[string]any{"chunk_size": int64(4096)},
	}
	env := mapSource{
		"remote": map[string]any{"port": int64(20004), "strict_status": true},
	}

	cfg, err := LoadFrom(file, env)
	require.NoError(t, err)

	assert.Equal(t, "board-a", cfg.Remote.Node)
	assert.Equal(t, 20004, cfg.Remote.Port)
	assert.True(t, cfg.Remote.StrictStatus)
	assert.Equal(t, 4096, cfg.Transfer.ChunkSize)
	// Untouched defaults survive.
	assert.Equal(t, "icd", cfg.Remote.Device)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestValidate(t *testing.T) {
	_, err := LoadFrom(mapSource{"remote": map[string]any{"port": int64(70000)}})
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = LoadFrom(mapSource{"remote": map[string]any{"packlen": int64(2048)}})
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = LoadFrom(mapSource{"lock": map[string]any{"wait_ms": int64(-1)}})
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("T32REM_REMOTE_NODE", "from-env")

	cfg, err := Load("/nonexistent/t32rem.toml")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Remote.Node)
}
