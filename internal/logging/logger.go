package logging

import (
	"fmt"

	"github.com/localrank/backend/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the application logger. Development keeps zap's human friendly
// console output, every other environment logs JSON.
func New(environment string, cfg config.LogConfig) (*zap.Logger, error) {
	zc, err := buildConfig(environment, cfg)
	if err != nil {
		return nil, err
	}
	return zc.Build()
}

// NewFile is New writing to path instead of the standard streams, for
// callers that own the terminal.
func NewFile(environment string, cfg config.LogConfig, path string) (*zap.Logger, error) {
	zc, err := buildConfig(environment, cfg)
	if err != nil {
		return nil, err
	}
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	return zc.Build()
}

func buildConfig(environment string, cfg config.LogConfig) (zap.Config, error) {
	var zc zap.Config
	if environment == "development" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return zc, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if cfg.Encoding != "" {
		zc.Encoding = cfg.Encoding
	}
	return zc, nil
}
