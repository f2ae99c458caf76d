// Package logging holds the diagnostic logger shared across compas.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// Logger is the shared diagnostic logger. It is a no-op until InitLogger runs.
var Logger = zap.NewNop().Sugar()

// InitLogger configures Logger. Debug switches to the development config;
// otherwise only warnings and above are written. Output always goes to stderr
// so result documents on stdout stay clean.
func InitLogger(debug bool) error {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	Logger = logger.Sugar()
	return nil
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Logger.Sync()
}
