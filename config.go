package bmp388

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML config can use Go duration strings
// ("30s", "2ms").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config carries the deployment-specific parameters of an acquisition
// session. All fields have working defaults for a BMP388 on Linux bus 1.
type Config struct {
	Bus         string   `yaml:"bus"`
	Address     byte     `yaml:"address"`
	Samples     int      `yaml:"samples"`
	PollTimeout Duration `yaml:"poll_timeout"`
}

func DefaultConfig() Config {
	return Config{
		Bus:         "/dev/i2c-1",
		Address:     DefaultAddress,
		Samples:     100,
		PollTimeout: Duration(30 * time.Second),
	}
}

// LoadConfig overlays the YAML file at path over the defaults. A missing path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return config, fmt.Errorf("could not parse config file: %w", err)
	}
	return config, nil
}
