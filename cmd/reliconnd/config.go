package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// defaultConfigPath is where reliconnd looks for process-wide defaults when
// -config is not given. It is a relative path, so it is resolved against the
// process's current working directory, not the directory of the binary.
const defaultConfigPath = "reliconnd.yml"

// fileConfig is the YAML-shaped process-wide defaults. Every field is a
// pointer so LoadConfig can tell "absent from the file" apart from "set to
// the zero value", mirroring SiteConfig.AutoUpdateEnabled's *bool trick.
type fileConfig struct {
	Window      *int    `yaml:"window"`
	TimeoutMS   *int    `yaml:"timeout_ms"`
	MetricsAddr *string `yaml:"metrics_addr"`
	LogLevel    *string `yaml:"log_level"`
}

// Config is the resolved, fully-defaulted configuration reliconnd runs
// with.
type Config struct {
	Window      int
	Timeout     time.Duration
	MetricsAddr string
	LogLevel    logrus.Level
}

func defaultConfig() Config {
	return Config{
		Window:      32,
		Timeout:     300 * time.Millisecond,
		MetricsAddr: "",
		LogLevel:    logrus.InfoLevel,
	}
}

// LoadConfig reads path (defaultConfigPath if empty) and overlays whatever
// fields it sets on top of defaultConfig. A missing file is not an error:
// it just means every default applies, the same fallback LoadSiteConfig
// uses for a missing site-config.yml.
func LoadConfig(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = defaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.WithError(err).WithField("path", path).Warn("failed to read config, using defaults")
		}
		return cfg
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("failed to parse config, using defaults")
		return cfg
	}

	if fc.Window != nil {
		cfg.Window = *fc.Window
	}
	if fc.TimeoutMS != nil {
		cfg.Timeout = time.Duration(*fc.TimeoutMS) * time.Millisecond
	}
	if fc.MetricsAddr != nil {
		cfg.MetricsAddr = *fc.MetricsAddr
	}
	if fc.LogLevel != nil {
		if lvl, err := logrus.ParseLevel(*fc.LogLevel); err == nil {
			cfg.LogLevel = lvl
		} else {
			logrus.WithField("log_level", *fc.LogLevel).Warn("unrecognized log level, keeping default")
		}
	}

	logrus.WithField("path", path).Info("loaded config")
	return cfg
}
