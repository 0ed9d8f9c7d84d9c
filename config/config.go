package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"AutoBuild/lib/constant"
	"AutoBuild/lib/types"
	"AutoBuild/watcher"
)

var (
	ErrNoListenPath = errors.New("at least one listen path is required")
	ErrNoCommand    = errors.New("command is empty")
)

type Config struct {
	Listen        []string       `yaml:"listen"`
	Exclude       []string       `yaml:"exclude"`
	Workdir       string         `yaml:"workdir"`
	Notify        bool           `yaml:"notify"`
	Command       []string       `yaml:"command"`
	Backend       string         `yaml:"backend"`
	BlockDuration types.Duration `yaml:"block_duration"`
	RunFirst      bool           `yaml:"run_first"`
	Log           Log            `yaml:"log"`
}

type Log struct {
	Debug bool   `yaml:"debug"`
	File  string `yaml:"file"`
}

// Parse decodes a YAML config. Unknown keys are rejected. An empty document
// yields a zero Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config fail: %w", err)
	}
	return &cfg, nil
}

func ParseFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file fail: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	// Relative paths in a file are relative to the file, not to the caller.
	base := filepath.Dir(filename)
	for i, p := range cfg.Listen {
		cfg.Listen[i] = relativeTo(base, p)
	}
	if cfg.Workdir != "" {
		cfg.Workdir = relativeTo(base, cfg.Workdir)
	}
	if cfg.Log.File != "" {
		cfg.Log.File = relativeTo(base, cfg.Log.File)
	}
	return cfg, nil
}

func relativeTo(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Validate fills defaults and checks that the config can be run.
func (c *Config) Validate() error {
	if len(c.Listen) == 0 {
		return ErrNoListenPath
	}
	for _, p := range c.Listen {
		if p == "" {
			return fmt.Errorf("listen path is empty")
		}
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("open path fail: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("path `%s` must be a directory", p)
		}
	}
	if len(c.Command) == 0 || c.Command[0] == "" {
		return ErrNoCommand
	}
	if c.Workdir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory fail: %w", err)
		}
		c.Workdir = wd
	} else {
		info, err := os.Stat(c.Workdir)
		if err != nil {
			return fmt.Errorf("open workdir fail: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("workdir `%s` must be a directory", c.Workdir)
		}
	}
	if c.Backend == "" {
		c.Backend = watcher.BackendAuto
	}
	if !watcher.ValidBackend(c.Backend) {
		return fmt.Errorf("invalid backend: %s", c.Backend)
	}
	if c.BlockDuration <= 0 {
		c.BlockDuration = types.Duration(constant.DefaultBlockDuration)
	}
	if time.Duration(c.BlockDuration) < constant.MinBlockDuration {
		return fmt.Errorf("block duration %s is below %s", c.BlockDuration, constant.MinBlockDuration)
	}
	return nil
}
