// Package logging builds the file-backed zap logger shared by the
// engine components. The logger is constructed once and passed in
// explicitly; there is no package-level singleton.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a logger that appends human-readable entries to a
// timestamped file under logDir. Nothing is written to stdout or
// stderr: the interactive UI owns the terminal.
func New(logDir string) (*zap.Logger, string, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create log directory: %w", err)
	}

	name := fmt.Sprintf("provisor_%s.log", time.Now().Format("20060102_150405"))
	path := filepath.Join(logDir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(f),
		zapcore.InfoLevel,
	)

	return zap.New(core), path, nil
}
