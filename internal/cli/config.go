package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the merged configuration of one invocation. Values come from
// the defaults, then the configuration file, then flags.
type Config struct {
	Database  string         `yaml:"database"`
	Format    string         `yaml:"format"`
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format"`
	Reasoner  map[string]any `yaml:"reasoner"`
	Export    map[string]any `yaml:"export"`
}

// DefaultConfig returns the configuration used without a file or flags.
func DefaultConfig() Config {
	return Config{
		Database:  "lpgrdf.db",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadConfigFile overlays the YAML file at path on cfg.
func LoadConfigFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return &ExitError{Code: 2, Message: "invalid log-level: " + err.Error()}
	}
	if c.Database == "" {
		return &ExitError{Code: 2, Message: "no database configured"}
	}
	return nil
}

// newLogger builds the logger for the invocation. validate has already
// checked level and format.
func newLogger(c Config, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	level, _ := logrus.ParseLevel(c.LogLevel)
	log.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return log
}
