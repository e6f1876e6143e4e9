// Package logging holds the process-wide slog logger. Everything logs to
// stderr so stdout stays clean for transformed text.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
)

type Options struct {
	Level string
	JSON  bool
	// Output defaults to stderr.
	Output io.Writer
}

var def atomic.Value

func init() {
	def.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
}

func Configure(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	cfg := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(out, cfg)
	} else {
		h = slog.NewTextHandler(out, cfg)
	}
	def.Store(slog.New(h))
}

// ParseLevel maps debug|info|warn|error to a slog level. Anything else is
// info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func L() *slog.Logger {
	l, _ := def.Load().(*slog.Logger)
	return l
}

// InitFromEnv applies WORDSMITH_LOG_LEVEL and WORDSMITH_LOG_JSON when set.
// It reports whether either variable was present.
func InitFromEnv() bool {
	lvl, hasLvl := os.LookupEnv("WORDSMITH_LOG_LEVEL")
	jsonStr, hasJSON := os.LookupEnv("WORDSMITH_LOG_JSON")
	if !hasLvl && !hasJSON {
		return false
	}
	json := false
	if b, err := strconv.ParseBool(strings.TrimSpace(jsonStr)); err == nil {
		json = b
	}
	Configure(Options{Level: lvl, JSON: json})
	return true
}
