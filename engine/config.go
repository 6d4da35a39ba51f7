package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration wraps time.Duration so config files can spell values like "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
//
// Parameters:
//   - text: the duration string, e.g. "90s" or "2m"
//
// Returns:
//   - error: an error if the string is not a valid duration
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// WindowConfig holds the initial window parameters.
type WindowConfig struct {
	// Title is the window title bar text.
	Title string `toml:"title"`

	// Width, Height are the initial dimensions in pixels.
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// CacheCleanupConfig drives one cache eviction timer.
type CacheCleanupConfig struct {
	// CleanupInterval is how often the cache is swept.
	CleanupInterval Duration `toml:"cleanup_interval"`

	// RetainPeriod is the idle period below which entries survive a sweep.
	RetainPeriod Duration `toml:"retain_period"`
}

// Config is the engine configuration. Zero fields take the defaults from
// DefaultConfig; builder options override file values.
type Config struct {
	// Window holds the initial window parameters.
	Window WindowConfig `toml:"window"`

	// TickRate is the element update rate in ticks per second. The frame
	// loop never updates more often than this; rendering follows the
	// present mode.
	TickRate float64 `toml:"tick_rate"`

	// VSync selects FIFO presentation when true, immediate when false.
	VSync bool `toml:"vsync"`

	// Profiling enables the per-second frame statistics log line.
	Profiling bool `toml:"profiling"`

	// ShaderLibraryRoot is the directory file-based shaders resolve
	// against.
	ShaderLibraryRoot string `toml:"shader_library_root"`

	// IBLCacheDir overrides where precomputed environment lighting is
	// cached. Empty selects the platform user-cache directory.
	IBLCacheDir string `toml:"ibl_cache_dir"`

	// PipelineCache times eviction of idle pipelines and shader modules.
	PipelineCache CacheCleanupConfig `toml:"pipeline_cache"`

	// MaterialCache times eviction of idle materials, textures and meshes.
	MaterialCache CacheCleanupConfig `toml:"material_cache"`
}

// DefaultConfig returns the configuration used when no file or option says
// otherwise: 1280x720 vsynced window, 60 Hz updates, pipelines swept every
// minute with a five-minute retain, materials every thirty seconds with a
// two-minute retain.
//
// Returns:
//   - Config: the default configuration
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Title:  "orbit",
			Width:  1280,
			Height: 720,
		},
		TickRate: 60,
		VSync:    true,
		PipelineCache: CacheCleanupConfig{
			CleanupInterval: Duration{time.Minute},
			RetainPeriod:    Duration{5 * time.Minute},
		},
		MaterialCache: CacheCleanupConfig{
			CleanupInterval: Duration{30 * time.Second},
			RetainPeriod:    Duration{2 * time.Minute},
		},
	}
}

// LoadConfig reads a TOML configuration file over the defaults.
//
// Parameters:
//   - path: the config file path
//
// Returns:
//   - Config: the parsed configuration
//   - error: an error if the file cannot be read or parsed
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: failed to parse %q: %w", path, err)
	}
	return cfg, nil
}
