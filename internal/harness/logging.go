package harness

import (
	"bytes"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// redactWriter scrubs secret substrings from every log line before it
// reaches the sink. Logs are bundle artifacts and follow the same redaction
// rule as every other file.
type redactWriter struct {
	w       io.Writer
	secrets []string
}

func (r *redactWriter) Write(p []byte) (int, error) {
	scrubbed := p
	for _, s := range r.secrets {
		if s == "" {
			continue
		}
		scrubbed = bytes.ReplaceAll(scrubbed, []byte(s), []byte(redactedPlaceholder))
	}
	if _, err := r.w.Write(scrubbed); err != nil {
		return 0, err
	}
	return len(p), nil
}

// newRunLogger builds the rotated JSON run logger writing into the bundle.
func newRunLogger(path string, cfg LogConfig, secrets []string) *zap.Logger {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zapcore.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}
	sizeMB := cfg.MaxSizeMB
	if sizeMB <= 0 {
		sizeMB = 10
	}
	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    sizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(&redactWriter{w: sink, secrets: secrets}),
		level,
	)
	return zap.New(core)
}
