package engine

import (
	"context"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-sourcemap/errors"
)

// WazeroEngine compiles modules with wazero to report what the runtime
// sees in them.
type WazeroEngine struct {
	runtime wazero.Runtime
}

// Config holds configuration for engine creation
type Config struct {
	// EnableThreads accepts modules built with the threads proposal,
	// which emscripten emits for -pthread builds.
	EnableThreads bool
}

// CustomSection is a custom section as retained by the runtime.
type CustomSection struct {
	Name string
	Size int
}

// ModuleInfo summarises a compiled module.
type ModuleInfo struct {
	Name           string
	CustomSections []CustomSection
	Imports        []string // "module.name"
	Exports        []string
}

// HasCustomSection reports whether a custom section called name survived
// compilation.
func (m *ModuleInfo) HasCustomSection(name string) bool {
	for _, s := range m.CustomSections {
		if s.Name == name {
			return true
		}
	}
	return false
}

// NewWazeroEngine creates a new wazero-based engine
func NewWazeroEngine(ctx context.Context) (*WazeroEngine, error) {
	return NewWazeroEngineWithConfig(ctx, nil)
}

// NewWazeroEngineWithConfig creates a new engine with custom configuration
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCustomSections(true)

	if cfg != nil && cfg.EnableThreads {
		runtimeCfg = runtimeCfg.WithCoreFeatures(api.CoreFeaturesV2 | experimental.CoreFeaturesThreads)
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return &WazeroEngine{runtime: runtime}, nil
}

// Inspect compiles wasmBytes without instantiating it. Compilation fails on
// modules wazero cannot validate, so a rewritten module that passes Inspect
// is still loadable.
func (e *WazeroEngine) Inspect(ctx context.Context, wasmBytes []byte) (*ModuleInfo, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseScan, errors.KindInvalidData, err, "compile module")
	}
	defer compiled.Close(ctx)

	info := &ModuleInfo{Name: compiled.Name()}
	for _, s := range compiled.CustomSections() {
		info.CustomSections = append(info.CustomSections, CustomSection{
			Name: s.Name(),
			Size: len(s.Data()),
		})
	}
	for _, f := range compiled.ImportedFunctions() {
		module, name, _ := f.Import()
		info.Imports = append(info.Imports, module+"."+name)
	}
	for name := range compiled.ExportedFunctions() {
		info.Exports = append(info.Exports, name)
	}
	sort.Strings(info.Exports)

	Logger().Debug("compiled module",
		zap.Int("custom_sections", len(info.CustomSections)),
		zap.Int("imports", len(info.Imports)),
		zap.Int("exports", len(info.Exports)))
	return info, nil
}

// Close releases the underlying runtime.
func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// InspectModule is Inspect on a short-lived engine.
func InspectModule(ctx context.Context, wasmBytes []byte, cfg *Config) (*ModuleInfo, error) {
	e, err := NewWazeroEngineWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer e.Close(ctx)
	return e.Inspect(ctx, wasmBytes)
}
