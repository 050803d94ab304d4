// Package logx builds the service's zap logger.
package logx

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level, encoding and the service name stamped on every entry.
type Config struct {
	Service  string
	Level    string
	Encoding string
	// Env is the deployment environment; "dev" and "test" use the
	// development encoder config.
	Env string

	// Output defaults to stdout.
	Output zapcore.WriteSyncer
}

// New returns a logger that does not replace zap's globals.
func New(cfg Config, opts ...zap.Option) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var encCfg zapcore.EncoderConfig
	switch strings.ToLower(cfg.Env) {
	case "dev", "development", "test":
		encCfg = zap.NewDevelopmentEncoderConfig()
	default:
		encCfg = zap.NewProductionEncoderConfig()
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Encoding) {
	case "console":
		encoder = zapcore.NewConsoleEncoder(encCfg)
	case "", "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("logx: unsupported encoding %q", cfg.Encoding)
	}

	out := cfg.Output
	if out == nil {
		out = zapcore.Lock(os.Stdout)
	}

	service := cfg.Service
	if service == "" {
		service = "unknown"
	}

	allOpts := append(opts,
		zap.AddCaller(),
		zap.Fields(zap.String("service", service)),
	)
	return zap.New(zapcore.NewCore(encoder, out, level), allOpts...), nil
}

func parseLevel(lvl string) (zapcore.Level, error) {
	if lvl == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(strings.ToLower(lvl))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("logx: %w", err)
	}
	return level, nil
}
