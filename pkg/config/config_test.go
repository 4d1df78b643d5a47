package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config, err := Process(nil)
	require.NoError(t, err)

	assert.Equal(t, 384, config.Surface.Width)
	assert.Equal(t, 160, config.Surface.Height)
	assert.Equal(t, 50*time.Millisecond, config.Game.Tick.Unwrap())
	assert.Equal(t, 20*time.Minute, config.Game.PeriodLength.Unwrap())
	assert.Equal(t, ":9001", config.Ingress.Listen)
	assert.False(t, config.Panel.Enabled)
	assert.True(t, config.Preview.Enabled)
}

func TestOverlayWinsFieldByField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
game:
  tick: 25ms
panel:
  enabled: true
  address: "10.0.0.5:5568"
`), 0644)
	require.NoError(t, err)

	config, err := Process([]string{path})
	require.NoError(t, err)

	assert.Equal(t, 25*time.Millisecond, config.Game.Tick.Unwrap())
	assert.True(t, config.Panel.Enabled)
	assert.Equal(t, "10.0.0.5:5568", config.Panel.Address)

	// Untouched fields keep their defaults.
	assert.Equal(t, 384, config.Surface.Width)
	assert.Equal(t, ":9001", config.Ingress.Listen)
}

func TestRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte("game:\n  tick: fast\n"), 0644)
	require.NoError(t, err)

	_, err = Process([]string{path})
	assert.Error(t, err)
}
