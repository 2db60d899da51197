package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

//go:embed default.yml
var defaultConfigData []byte

const (
	// EnvConfig overrides the config file location.
	EnvConfig = "JOBSH_CONFIG"

	ConfigurationName = ".jobsh.yml"
	HistoryName       = ".jobsh_history"
)

type Config struct {
	fs afero.Fs

	Prompt      string `yaml:"prompt"`
	PromptColor string `yaml:"prompt_color" validate:"omitempty,oneof=black red green yellow blue magenta cyan white"`
	LineEditing bool   `yaml:"line_editing"`
	HistoryFile string `yaml:"history_file"`
	HomeDir     string `yaml:"home_dir"`
	LogFile     string `yaml:"log_file"`
}

// Path returns the config file location: $JOBSH_CONFIG, else ~/.jobsh.yml.
func Path() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ConfigurationName
	}
	return filepath.Join(home, ConfigurationName)
}

// Default returns the built-in configuration with paths filled in.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(defaultConfigData, cfg); err != nil {
		return nil, fmt.Errorf("default config: %w", err)
	}
	cfg.fs = afero.NewOsFs()
	if err := cfg.fillPaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads file from fsys over the defaults. A missing file is not an
// error.
func Load(fsys afero.Fs, file string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(defaultConfigData, cfg); err != nil {
		return nil, fmt.Errorf("default config: %w", err)
	}
	cfg.fs = fsys

	data, err := afero.ReadFile(fsys, file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}

	if err := cfg.fillPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return cfg, nil
}

func (c *Config) fillPaths() error {
	var err error
	if c.HomeDir == "" {
		c.HomeDir, err = os.UserHomeDir()
		if err != nil {
			return err
		}
	}

	if c.HistoryFile == "" {
		c.HistoryFile = filepath.Join(c.HomeDir, HistoryName)
	}
	return nil
}

// Validate the configuration for basic semantic errors.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	})

	return validate.Struct(c)
}

// OpenLog opens the diagnostic log in an append only state. It returns nil
// when logging is disabled.
func (c *Config) OpenLog() (afero.File, error) {
	if c.LogFile == "" {
		return nil, nil
	}
	return c.fs.OpenFile(c.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}
