package main

import (
	"go.uber.org/zap"
)

// newLogger builds a console logger for debug and a JSON logger otherwise,
// both writing to stderr.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if lvl.Level() == zap.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}

	return cfg.Build()
}
