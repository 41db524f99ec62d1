package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Logger is a key/value structured logger over zap with redaction of
// credentials and hashing of user identifiers.
type Logger struct {
	sugar    *zap.SugaredLogger
	hashSalt string
}

// Options configures a Logger.
type Options struct {
	Mode     string // production or development
	Level    string // debug, info, warn, error
	HashSalt string
}

func New(opts Options) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(opts.Mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	if opts.Level != "" {
		lvl, err := zap.ParseAtomicLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = lvl
	}
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: z.Sugar(), hashSalt: opts.HashSalt}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

func (l *Logger) Debug(msg string, kv ...interface{}) {
	l.sugar.Debugw(msg, l.sanitize(kv)...)
}

func (l *Logger) Info(msg string, kv ...interface{}) {
	l.sugar.Infow(msg, l.sanitize(kv)...)
}

func (l *Logger) Warn(msg string, kv ...interface{}) {
	l.sugar.Warnw(msg, l.sanitize(kv)...)
}

func (l *Logger) Error(msg string, kv ...interface{}) {
	l.sugar.Errorw(msg, l.sanitize(kv)...)
}

func (l *Logger) Fatal(msg string, kv ...interface{}) {
	l.sugar.Fatalw(msg, l.sanitize(kv)...)
}

func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(l.sanitize(kv)...), hashSalt: l.hashSalt}
}

func (l *Logger) sanitize(kv []interface{}) []interface{} {
	if len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := fmt.Sprint(kv[i])
		out = append(out, key, l.sanitizeValue(strings.ToLower(key), kv[i+1]))
	}
	return out
}

func (l *Logger) sanitizeValue(key string, val interface{}) interface{} {
	switch {
	case redactKey(key):
		return "[REDACTED]"
	case key == "user_id" || strings.HasSuffix(key, "_user_id"):
		return l.hash(fmt.Sprint(val))
	}
	return val
}

func redactKey(key string) bool {
	for _, s := range []string{"token", "authorization", "password", "secret", "api_key", "apikey", "email"} {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

func (l *Logger) hash(raw string) string {
	if raw == "" {
		return ""
	}
	h := sha256.New()
	h.Write([]byte(l.hashSalt))
	h.Write([]byte(raw))
	return "hash:" + hex.EncodeToString(h.Sum(nil))[:12]
}
