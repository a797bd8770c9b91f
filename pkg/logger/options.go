package logger

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Option applies a configuration option to Init.
type Option func(*settings)

type settings struct {
	out  io.Writer
	file *lumberjack.Logger
	json bool
}

// WithWriter replaces stdout as the primary log destination.
func WithWriter(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.out = w
		}
	}
}

// WithFile additionally writes logs to a size-rotated file. An empty path
// disables file output.
func WithFile(path string, maxSizeMB, maxBackups, maxAgeDays int) Option {
	return func(s *settings) {
		if path == "" {
			return
		}
		s.file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			LocalTime:  true,
			Compress:   true,
		}
	}
}

// WithJSON switches the handler from text to JSON lines.
func WithJSON(enabled bool) Option {
	return func(s *settings) {
		s.json = enabled
	}
}
