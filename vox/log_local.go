package vox

import (
	"fmt"
	"log"
	"sync"

	"github.com/natefinch/lumberjack"
)

type stdLogger struct {
	mu sync.Mutex
	lj *lumberjack.Logger
}

var logger = &stdLogger{}

// LogConfig describes an optional rotating log file.  With no Logfile, messages go to
// the standard logger.
type LogConfig struct {
	Logfile string
	MaxSize int    `toml:"max_log_size"`
	MaxAge  int    `toml:"max_log_age"`
	Mode    string `toml:"mode"`
}

// SetLogger creates a logger that saves to a rotating log file and applies any mode.
func (c *LogConfig) SetLogger() error {
	if c == nil {
		return nil
	}
	if c.Mode != "" {
		m, err := ParseLogMode(c.Mode)
		if err != nil {
			return err
		}
		SetLogMode(m)
	}
	if c.Logfile == "" {
		Infof("Sending log messages to stdout since no log file specified.\n")
		return nil
	}
	fmt.Printf("Sending log messages to: %s\n", c.Logfile)
	l := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize, // megabytes
		MaxAge:   c.MaxAge,  // days
	}
	logger.mu.Lock()
	old := logger.lj
	logger.lj = l
	log.SetOutput(l)
	logger.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// --- Logger implementation ----

func (slog *stdLogger) Debugf(format string, args ...interface{}) {
	log.Printf(" DEBUG "+format, args...)
}

func (slog *stdLogger) Infof(format string, args ...interface{}) {
	log.Printf(" INFO "+format, args...)
}

func (slog *stdLogger) Warningf(format string, args ...interface{}) {
	log.Printf(" WARNING "+format, args...)
}

func (slog *stdLogger) Errorf(format string, args ...interface{}) {
	log.Printf(" ERROR "+format, args...)
}

func (slog *stdLogger) Criticalf(format string, args ...interface{}) {
	log.Printf(" CRITICAL "+format, args...)
}

func (slog *stdLogger) Shutdown() {
	slog.mu.Lock()
	defer slog.mu.Unlock()
	if slog.lj != nil {
		log.Printf("Closing log file...\n")
		slog.lj.Close()
		slog.lj = nil
	}
}
