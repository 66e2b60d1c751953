// Package logging provides the engine's goroutine-safe logger.
//
// The public surface (LogSettings, New, Debug/Info/Warn/Error/Success/Count/
// Fatal and their ...f variants) matches a conventional maintenance-tool
// logger: callers never see logrus directly. Underneath, each routing
// destination (main log / count log / error log) is backed by its own
// logrus.Logger so formatting, level filtering and output plumbing reuse a
// battle-tested library instead of hand-rolled file writers.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogSettings controls where logs go.
//
// NoLogs=true  => console-only (stdout), no log files created.
// NoLogs=false => write logs to files under LogDir.
type LogSettings struct {
	NoLogs bool
	LogDir string
}

// stampFormatter reproduces the teacher's exact line shape:
//
//	[MM/DD/YY HH:MM:SS] [LEVEL] -> message
//
// as a logrus.Formatter, so the logrus backend is indistinguishable on disk
// from a hand-rolled writer.
type stampFormatter struct{}

func (stampFormatter) Format(e *logrus.Entry) ([]byte, error) {
	level := strings.ToUpper(e.Data["engineLevel"].(string))
	ts := e.Time.Format("01/02/06 15:04:05")
	line := fmt.Sprintf("[%s] [%s] -> %s\n", ts, level, e.Message)
	return []byte(line), nil
}

// Logger is a lightweight wrapper around per-destination logrus.Logger
// instances, safe for concurrent use by walker and worker goroutines alike.
type Logger struct {
	ConfigDir string

	settings LogSettings
	levels   map[string]bool

	mu      sync.Mutex
	main    *logrus.Logger
	count   *logrus.Logger
	errlog  *logrus.Logger
	openDay string // date suffix the three loggers above are currently rotated to
}

// New initializes a Logger, loading configDir/logging.json for enabled
// levels (falling back to safe defaults) and, unless NoLogs is set,
// ensuring settings.LogDir exists so misconfiguration fails fast at startup.
func New(configDir string, settings LogSettings) (*Logger, error) {
	levels, err := loadLevels(configDir)
	if err != nil {
		return nil, err
	}

	if !settings.NoLogs {
		if settings.LogDir == "" {
			return nil, fmt.Errorf("log dir is empty (settings.LogDir)")
		}
		if err := os.MkdirAll(settings.LogDir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	return &Logger{
		ConfigDir: configDir,
		settings:  settings,
		levels:    levels,
	}, nil
}

// loadLevels loads per-level enable/disable flags from logging.json,
// defaulting DEBUG to disabled (to keep batch runs quiet) and everything
// else enabled, fail-open for any level this build doesn't yet know about.
func loadLevels(configDir string) (map[string]bool, error) {
	path := filepath.Join(configDir, "logging.json")

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{
				"DEBUG":   false,
				"COUNT":   true,
				"INFO":    true,
				"WARN":    true,
				"ERROR":   true,
				"SUCCESS": true,
				"FATAL":   true,
			}, nil
		}
		return nil, fmt.Errorf("stat logging config: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read logging config: %w", err)
	}

	var levels map[string]bool
	if err := json.Unmarshal(b, &levels); err != nil {
		return nil, fmt.Errorf("parse logging config: %w", err)
	}
	return levels, nil
}

// Enabled reports whether a log level is active: disabled only if present
// and explicitly false, enabled otherwise (including unknown levels).
func (l *Logger) Enabled(level string) bool {
	level = strings.ToUpper(strings.TrimSpace(level))
	enabled, ok := l.levels[level]
	if ok && !enabled {
		return false
	}
	return true
}

// rotate (re)builds the per-destination loggers for the given day, lazily,
// so a long-running process still rolls to new daily files at midnight.
func (l *Logger) rotate(date string) {
	if l.openDay == date && l.main != nil {
		return
	}
	l.openDay = date

	newDest := func(filename string) *logrus.Logger {
		lg := logrus.New()
		lg.SetFormatter(stampFormatter{})
		lg.SetLevel(logrus.TraceLevel)
		f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			lg.SetOutput(os.Stdout)
			return lg
		}
		lg.SetOutput(f)
		return lg
	}

	l.main = newDest(filepath.Join(l.settings.LogDir, fmt.Sprintf("maintenance_%s.log", date)))
	l.count = newDest(filepath.Join(l.settings.LogDir, fmt.Sprintf("count_%s.log", date)))
	l.errlog = newDest(filepath.Join(l.settings.LogDir, fmt.Sprintf("errors_%s.log", date)))
}

// Log writes a single log line, routed to the main log and, for COUNT and
// ERROR levels, duplicated into their dedicated daily files.
func (l *Logger) Log(level, msg string) {
	level = strings.ToUpper(strings.TrimSpace(level))
	if !l.Enabled(level) {
		return
	}

	if l.settings.NoLogs {
		ts := time.Now().Format("01/02/06 15:04:05")
		fmt.Printf("[%s] [%s] -> %s\n", ts, level, msg)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.rotate(time.Now().Format("2006-01-02"))

	entry := l.main.WithField("engineLevel", level)
	entry.Log(logrus.InfoLevel, msg)

	if level == "COUNT" {
		l.count.WithField("engineLevel", level).Log(logrus.InfoLevel, msg)
	}
	if level == "ERROR" {
		l.errlog.WithField("engineLevel", level).Log(logrus.InfoLevel, msg)
	}
}

func (l *Logger) Debug(msg string)   { l.Log("DEBUG", msg) }
func (l *Logger) Info(msg string)    { l.Log("INFO", msg) }
func (l *Logger) Warn(msg string)    { l.Log("WARN", msg) }
func (l *Logger) Error(msg string)   { l.Log("ERROR", msg) }
func (l *Logger) Success(msg string) { l.Log("SUCCESS", msg) }
func (l *Logger) Count(msg string)   { l.Log("COUNT", msg) }

// Fatal logs then terminates the process. Defers do not run after os.Exit;
// reserve this for states where continuing risks data loss.
func (l *Logger) Fatal(msg string) { l.Log("FATAL", msg); os.Exit(1) }

func (l *Logger) Debugf(format string, args ...any)   { l.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)    { l.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)    { l.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any)   { l.Error(fmt.Sprintf(format, args...)) }
func (l *Logger) Successf(format string, args ...any) { l.Success(fmt.Sprintf(format, args...)) }
func (l *Logger) Countf(format string, args ...any)   { l.Count(fmt.Sprintf(format, args...)) }
func (l *Logger) Fatalf(format string, args ...any)   { l.Fatal(fmt.Sprintf(format, args...)) }
