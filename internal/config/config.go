package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	envconfig "github.com/JeremyLoy/config"
	"github.com/bridger-herman/scriptable-game/internal/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Config holds the runtime settings. Values come from the defaults, then
// the JSON file, then SCRIPTABLE_* environment variables.
type Config struct {
	TickRate   float64 `json:"tick_rate" config:"SCRIPTABLE_TICK_RATE"` // ticks per second
	MaxTicks   int     `json:"max_ticks" config:"SCRIPTABLE_MAX_TICKS"` // 0 runs until interrupted
	FixedEvery int     `json:"fixed_every" config:"SCRIPTABLE_FIXED_EVERY"`
	ScenePath  string  `json:"scene_path" config:"SCRIPTABLE_SCENE"`
	ScriptRoot string  `json:"script_root" config:"SCRIPTABLE_SCRIPT_ROOT"`
	LogLevel   string  `json:"log_level" config:"SCRIPTABLE_LOG_LEVEL"`
	HotReload  bool    `json:"hot_reload" config:"SCRIPTABLE_HOT_RELOAD"`

	MetricsIntervalSeconds int `json:"metrics_interval_seconds" config:"SCRIPTABLE_METRICS_INTERVAL"`
}

func Default() Config {
	return Config{
		TickRate:               60,
		MaxTicks:               0,
		FixedEvery:             2,
		ScenePath:              "scene.json",
		ScriptRoot:             "scripts",
		LogLevel:               "info",
		HotReload:              false,
		MetricsIntervalSeconds: 10,
	}
}

// Load reads path (a missing file keeps the defaults) and applies
// environment overrides. A relative scene path read from the file is
// taken relative to the file's directory.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			logger.Log.Info("No config file found, using defaults", zap.String("path", path))
		case err != nil:
			return cfg, errors.Wrap(err, "read config")
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return cfg, errors.Wrapf(err, "parse config %s", path)
			}
			if cfg.ScenePath != "" && !filepath.IsAbs(cfg.ScenePath) {
				cfg.ScenePath = filepath.Join(filepath.Dir(path), cfg.ScenePath)
			}
		}
	}

	if err := envconfig.FromEnv().To(&cfg); err != nil {
		return cfg, errors.Wrap(err, "read environment")
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return errors.Errorf("tick_rate must be positive, got %v", c.TickRate)
	}
	if c.MaxTicks < 0 {
		return errors.Errorf("max_ticks must not be negative, got %d", c.MaxTicks)
	}
	if c.FixedEvery < 0 {
		return errors.Errorf("fixed_every must not be negative, got %d", c.FixedEvery)
	}
	if c.MetricsIntervalSeconds <= 0 {
		return errors.Errorf("metrics_interval_seconds must be positive, got %d", c.MetricsIntervalSeconds)
	}
	return nil
}

// TickInterval is the wall-clock time between ticks.
func (c Config) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.TickRate)
}

func (c Config) MetricsInterval() time.Duration {
	return time.Duration(c.MetricsIntervalSeconds) * time.Second
}

// Save writes the config as indented JSON.
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write config")
}
