package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/flyweight/endian"
	"github.com/arloliu/flyweight/format"
	"github.com/arloliu/flyweight/frame"
)

// Config holds the defaults of the encode command. Flags override it.
type Config struct {
	Compression   string `yaml:"compression"`
	ByteOrder     string `yaml:"byte_order"`
	LogLevel      string `yaml:"log_level"`
	MaxRecordSize int    `yaml:"max_record_size"`
}

func defaultConfig() Config {
	return Config{
		Compression: "none",
		ByteOrder:   "little",
		LogLevel:    "info",
	}
}

// loadConfig reads a YAML config over the defaults. An empty path returns
// the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func (c Config) validate() error {
	if _, ok := format.ParseCompression(c.Compression); !ok {
		return fmt.Errorf("unknown compression %q", c.Compression)
	}
	if _, err := endian.ByName(c.ByteOrder); err != nil {
		return err
	}
	if c.MaxRecordSize < 0 {
		return fmt.Errorf("negative max_record_size %d", c.MaxRecordSize)
	}

	return nil
}

// writerOptions converts the config into frame writer options.
func (c Config) writerOptions() ([]frame.WriterOption, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	compression, _ := format.ParseCompression(c.Compression)
	engine, _ := endian.ByName(c.ByteOrder)

	opts := []frame.WriterOption{
		frame.WithCompression(compression),
		frame.WithLittleEndian(),
		frame.WithMaxRecordSize(c.MaxRecordSize),
	}
	if endian.IsBigEndian(engine) {
		opts = append(opts, frame.WithBigEndian())
	}

	return opts, nil
}
