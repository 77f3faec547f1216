// File: internal/logger/logger.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package logger hands out named zap loggers per subsystem.
//
// Levels and format come from the environment:
//   - HIOLOAD_LOG_LEVEL: "subsystem=level,subsystem=level,default"
//     e.g. "acceptor=debug,connector=warn,info"
//   - HIOLOAD_LOG_FORMAT: "console" (default) or "json"
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config describes how subsystem loggers are built.
type Config struct {
	DefaultLevel    zapcore.Level
	SubsystemLevels map[string]zapcore.Level
	JSON            bool
}

// LevelFor returns the level configured for subsystem.
func (c *Config) LevelFor(subsystem string) zapcore.Level {
	if lvl, ok := c.SubsystemLevels[subsystem]; ok {
		return lvl
	}
	return c.DefaultLevel
}

var (
	mu      sync.Mutex
	root    *zap.Logger
	cfg     *Config
	loggers = map[string]*zap.Logger{}
)

// ParseConfig builds a Config from the level and format strings.
func ParseConfig(levelSpec, format string) *Config {
	c := &Config{
		DefaultLevel:    zapcore.InfoLevel,
		SubsystemLevels: make(map[string]zapcore.Level),
		JSON:            strings.EqualFold(strings.TrimSpace(format), "json"),
	}
	for _, part := range strings.Split(levelSpec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if name, lvl, ok := strings.Cut(part, "="); ok {
			if l, err := zapcore.ParseLevel(strings.TrimSpace(lvl)); err == nil {
				c.SubsystemLevels[strings.TrimSpace(name)] = l
			}
			continue
		}
		if l, err := zapcore.ParseLevel(part); err == nil {
			c.DefaultLevel = l
		}
	}
	return c
}

// ConfigFromEnv reads HIOLOAD_LOG_LEVEL and HIOLOAD_LOG_FORMAT.
func ConfigFromEnv() *Config {
	return ParseConfig(os.Getenv("HIOLOAD_LOG_LEVEL"), os.Getenv("HIOLOAD_LOG_FORMAT"))
}

func build(c *Config) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if c.JSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	// Filtering happens per subsystem, the core lets everything through.
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zapcore.DebugLevel)
	return zap.New(core, zap.AddCaller())
}

// Logger returns the logger for subsystem, creating it on first use.
func Logger(subsystem string) *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[subsystem]; ok {
		return l
	}
	if cfg == nil {
		cfg = ConfigFromEnv()
	}
	if root == nil {
		root = build(cfg)
	}
	lvl := cfg.LevelFor(subsystem)
	l := root.Named(subsystem).WithOptions(zap.IncreaseLevel(lvl))
	loggers[subsystem] = l
	return l
}

// SetLogger replaces the root logger; subsystem loggers are rebuilt lazily.
// Passing nil restores the environment-configured logger.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	root = l
	loggers = map[string]*zap.Logger{}
}

// Sync flushes the root logger.
func Sync() error {
	mu.Lock()
	l := root
	mu.Unlock()
	if l == nil {
		return nil
	}
	return l.Sync()
}

// OrDefault returns l if set, otherwise the subsystem logger.
func OrDefault(l *zap.Logger, subsystem string) *zap.Logger {
	if l != nil {
		return l
	}
	return Logger(subsystem)
}
