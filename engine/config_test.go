package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orbit.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	assert.Error(t, d.UnmarshalText([]byte("soon")))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "orbit", cfg.Window.Title)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, 60.0, cfg.TickRate)
	assert.True(t, cfg.VSync)
	assert.Equal(t, time.Minute, cfg.PipelineCache.CleanupInterval.Duration)
	assert.Equal(t, 5*time.Minute, cfg.PipelineCache.RetainPeriod.Duration)
	assert.Equal(t, 30*time.Second, cfg.MaterialCache.CleanupInterval.Duration)
	assert.Equal(t, 2*time.Minute, cfg.MaterialCache.RetainPeriod.Duration)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
tick_rate = 30.0
vsync = false
shader_library_root = "assets/shaders"

[window]
title = "demo"
width = 800

[material_cache]
cleanup_interval = "10s"
retain_period = "45s"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, 30.0, cfg.TickRate)
	assert.False(t, cfg.VSync)
	assert.Equal(t, "assets/shaders", cfg.ShaderLibraryRoot)
	assert.Equal(t, 10*time.Second, cfg.MaterialCache.CleanupInterval.Duration)
	assert.Equal(t, 45*time.Second, cfg.MaterialCache.RetainPeriod.Duration)
	assert.Equal(t, time.Minute, cfg.PipelineCache.CleanupInterval.Duration)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := writeConfig(t, `
[pipeline_cache]
cleanup_interval = "whenever"
`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestWithConfigFileSurfacesLoadError(t *testing.T) {
	e := &engine{cfg: DefaultConfig()}
	WithConfigFile(filepath.Join(t.TempDir(), "absent.toml"))(e)
	assert.Error(t, e.initErr)
}

func TestWithOptionsAdjustConfig(t *testing.T) {
	e := &engine{cfg: DefaultConfig()}
	WithTickRate(144)(e)
	WithVSync(false)(e)
	WithProfiling(true)(e)
	WithShaderLibraryRoot("shaders")(e)

	assert.Equal(t, 144.0, e.cfg.TickRate)
	assert.False(t, e.cfg.VSync)
	assert.True(t, e.cfg.Profiling)
	assert.Equal(t, "shaders", e.cfg.ShaderLibraryRoot)
}
