package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasm-sourcemap/converter"
	"github.com/wippyai/wasm-sourcemap/dwarf"
	"github.com/wippyai/wasm-sourcemap/engine"
	"github.com/wippyai/wasm-sourcemap/sourcemap"
)

// installLogger builds a console logger on stderr and hands it to every
// package that logs.
func installLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""
	if !color.NoColor && isTerminal(os.Stderr) {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), lvl)
	log := zap.New(core)

	dwarf.SetLogger(log.Named("dwarf"))
	sourcemap.SetLogger(log.Named("sourcemap"))
	converter.SetLogger(log.Named("converter"))
	engine.SetLogger(log.Named("engine"))
	return log, nil
}
