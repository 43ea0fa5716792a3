// Package logging builds the application logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how much is logged.
type Options struct {
	Level string // debug, info, warn, error
	// File is the log file path. Empty logs to Console.
	File string
	// Console receives logs when File is empty. Nil means stderr.
	Console io.Writer
	// NoColor disables level colors on the console.
	NoColor bool
}

// New returns a configured logger and a closer for its output.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	log.SetLevel(level)

	if opts.File == "" {
		out := opts.Console
		if out == nil {
			out = os.Stderr
		}
		log.SetOutput(out)
		log.SetFormatter(&consoleFormatter{noColor: opts.NoColor})
		return log, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    1, // MB
		MaxBackups: 2,
		MaxAge:     30,
	}
	log.SetOutput(file)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return log, file, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// consoleFormatter prints one short line per entry.
type consoleFormatter struct {
	noColor bool
}

func (f *consoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var c *color.Color
	switch entry.Level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		c = color.New(color.FgRed, color.Bold)
	case logrus.WarnLevel:
		c = color.New(color.FgYellow, color.Bold)
	case logrus.InfoLevel:
		c = color.New(color.FgCyan)
	default:
		c = color.New(color.FgWhite, color.Faint)
	}
	if f.noColor {
		c.DisableColor()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s",
		entry.Time.Format("15:04:05.000"),
		c.Sprint(strings.ToUpper(entry.Level.String())),
		entry.Message,
	)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
		}
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}
