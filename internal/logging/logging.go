package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	File       string
	Level      string
	FileSizeMB int
	FileCount  int
	KeepDays   int
	Console    bool
}

// New builds a JSON logger writing to stdout and a size-rotated file,
// depending on which sinks the config enables.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	cores := make([]zapcore.Core, 0, 2)
	if cfg.Console {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level))
	}
	if cfg.File != "" {
		sink := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.FileSizeMB,
			MaxBackups: cfg.FileCount,
			MaxAge:     cfg.KeepDays,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(sink), level))
	}
	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
