// Package logger wires zap structured logging with lumberjack-based rotation,
// mirroring the ambient logging contract the rest of this gateway expects
// (logger.Init(cfg, mode) + zap.L() afterward).
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig controls rotation and verbosity. Mirrors the fields referenced by
// pkg/config.Config.Log.
type LogConfig struct {
	Level      string `env:"LOG_LEVEL"`
	Filename   string `env:"LOG_FILENAME"`
	MaxSize    int    `env:"LOG_MAX_SIZE"`
	MaxAge     int    `env:"LOG_MAX_AGE"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS"`
	Daily      bool   `env:"LOG_DAILY"`
}

var base *zap.Logger

// Init builds the global zap logger and installs it via zap.ReplaceGlobals.
// JSON goes to the rotated file when a filename is configured. Mode
// "development" (or an empty mode) additionally logs to stdout with console
// encoding; any other mode logs to the file only, unless no filename is
// configured, in which case it logs to stdout.
func Init(cfg *LogConfig, mode string) error {
	level := zapcore.InfoLevel
	if cfg != nil && cfg.Level != "" {
		_ = level.UnmarshalText([]byte(cfg.Level))
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core

	if cfg != nil && cfg.Filename != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxAge:     cfg.MaxAge,
			MaxBackups: cfg.MaxBackups,
			LocalTime:  true,
			Compress:   true,
		}
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(rotator), level)
		cores = append(cores, fileCore)
	}

	if mode == "" || mode == "development" || cfg == nil || cfg.Filename == "" {
		consoleCfg := encoderCfg
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(os.Stdout), level)
		cores = append(cores, consoleCore)
	}

	base = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	zap.ReplaceGlobals(base)
	return nil
}

// L returns the process-wide logger, falling back to a no-op logger if Init
// was never called (e.g. in unit tests).
func L() *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base
}

// MaskToken keeps the first and last 4 characters of a secret, per §6.3's
// masking rule, collapsing everything between into a fixed run of asterisks.
func MaskToken(token string) string {
	if len(token) <= 8 {
		if token == "" {
			return ""
		}
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
