package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DEFAULT []byte

// Duration parses "50ms", "20m" etc. from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)
	return nil
}

func (d Duration) Unwrap() time.Duration {
	return time.Duration(d)
}

type SurfaceSettings struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type GameSettings struct {
	Tick         Duration `yaml:"tick"`
	PeriodLength Duration `yaml:"period_length"`
	Celebration  Duration `yaml:"celebration"`
}

type IngressSettings struct {
	Listen string `yaml:"listen"`
}

type DataSettings struct {
	Dir      string `yaml:"dir"`
	FontsDir string `yaml:"fonts_dir"`
}

type PanelSettings struct {
	Enabled  bool     `yaml:"enabled"`
	Address  string   `yaml:"address"`
	Interval Duration `yaml:"interval"`
}

type PreviewSettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type Config struct {
	Surface SurfaceSettings `yaml:"surface"`
	Game    GameSettings    `yaml:"game"`
	Ingress IngressSettings `yaml:"ingress"`
	Data    DataSettings    `yaml:"data"`
	Panel   PanelSettings   `yaml:"panel"`
	Preview PreviewSettings `yaml:"preview"`
}

// Process loads the embedded default configuration and overlays the provided
// files in order. Later files win field by field.
func Process(configPaths []string) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(DEFAULT, &config); err != nil {
		return nil, fmt.Errorf("invalid default configuration: %w", err)
	}

	for _, path := range configPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if config.Surface.Width <= 0 || config.Surface.Height <= 0 {
		return nil, fmt.Errorf(
			"invalid surface size %dx%d",
			config.Surface.Width,
			config.Surface.Height,
		)
	}

	return &config, nil
}
