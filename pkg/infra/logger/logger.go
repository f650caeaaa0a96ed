package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultDir = "logs"

type Options struct {
	// Name is the log file name without extension, e.g. "gateway".
	Name string
	Dir  string
	// Level is a logrus level name; LOG_LEVEL wins when set.
	Level   string
	Console bool
}

// NewLogger returns a JSON logger writing asynchronously to <dir>/<name>.log
// and, when Console is set, echoing every entry to stdout. Close the returned
// writer on shutdown to flush buffered entries.
func NewLogger(opts Options) (*logrus.Logger, *AsyncFileWriter, error) {
	logger := logrus.New()

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})
	logger.SetLevel(parseLevel(opts.Level))

	if opts.Name == "" {
		opts.Name = "gateway"
	}
	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}
	if strings.ContainsAny(opts.Name, `/\`) {
		return nil, nil, fmt.Errorf("invalid log name %q", opts.Name)
	}
	if err := os.MkdirAll(opts.Dir, 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	asyncWriter, err := NewAsyncFileWriter(filepath.Join(opts.Dir, opts.Name+".log"), 32*1024)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize async log writer: %w", err)
	}
	logger.SetOutput(asyncWriter)

	if opts.Console {
		logger.AddHook(NewConsoleHook(os.Stdout))
	}
	return logger, asyncWriter, nil
}

func parseLevel(configured string) logrus.Level {
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		configured = env
	}
	level, err := logrus.ParseLevel(strings.TrimSpace(configured))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
