package converter

import (
	"context"

	"go.uber.org/zap"

	wasmsourcemap "github.com/wippyai/wasm-sourcemap"
	"github.com/wippyai/wasm-sourcemap/cache"
	"github.com/wippyai/wasm-sourcemap/config"
	"github.com/wippyai/wasm-sourcemap/dwarf"
	"github.com/wippyai/wasm-sourcemap/errors"
	"github.com/wippyai/wasm-sourcemap/sourcemap"
	"github.com/wippyai/wasm-sourcemap/wasm"
)

// Converter runs one configured conversion.
type Converter struct {
	cfg   *config.Config
	fs    wasmsourcemap.FileSystem
	cache *cache.Cache
	log   *zap.Logger
}

// Option customises a Converter.
type Option func(*Converter)

// WithFileSystem replaces the host file system.
func WithFileSystem(fs wasmsourcemap.FileSystem) Option {
	return func(c *Converter) {
		c.fs = fs
	}
}

// WithCache uses c for extracted entries instead of opening cfg.CacheDir.
func WithCache(cc *cache.Cache) Option {
	return func(c *Converter) {
		c.cache = cc
	}
}

// WithLogger overrides the package logger for this converter.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		c.log = l
	}
}

// Result describes a finished run.
type Result struct {
	SourceMap  *sourcemap.SourceMap
	Module     []byte // final module bytes, written only if OutputWasm is set
	CodeOffset int64
	Entries    int
	CacheHit   bool
	WroteWasm  bool
}

// New validates cfg and returns a converter for it.
func New(cfg *config.Config, opts ...Option) (*Converter, error) {
	if cfg == nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, "config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Converter{
		cfg: cfg,
		fs:  wasmsourcemap.OSFileSystem{},
		log: Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.cache == nil && cfg.CacheDir != "" {
		cc, err := cache.Open(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		c.cache = cc
	}
	return c, nil
}

// Run reads both inputs, builds the source map, rewrites the module and
// writes the outputs. Nothing is written unless every step before writing
// succeeds.
func (c *Converter) Run(ctx context.Context) (*Result, error) {
	cfg := c.cfg

	module, err := c.fs.ReadWholeFile(cfg.InputWasm)
	if err != nil {
		return nil, err
	}
	dump, err := c.fs.ReadWholeFile(cfg.InputDwarf)
	if err != nil {
		return nil, err
	}
	if !wasm.IsModule(module) {
		c.log.Warn("input does not start with a wasm header", zap.String("path", cfg.InputWasm))
	}

	entries, hit, err := c.extract(ctx, dump)
	if err != nil {
		return nil, err
	}

	offset, err := wasm.FindCodeSectionOffset(module)
	if err != nil {
		return nil, err
	}

	sm, err := sourcemap.Build(entries, offset, sourcemap.BuildOptions{
		Reader:       c.fs,
		BasePath:     cfg.BasePath,
		Prefixes:     cfg.SourcePrefixes,
		EmbedSources: cfg.EmbedSources,
	})
	if err != nil {
		return nil, err
	}
	mapJSON, err := sm.Marshal()
	if err != nil {
		return nil, err
	}

	out := module
	if cfg.Strip {
		if out, err = wasm.StripDebugSections(out); err != nil {
			return nil, err
		}
		c.log.Debug("stripped debug sections",
			zap.Int("before", len(module)),
			zap.Int("after", len(out)))
	}
	if cfg.SourceMapURL != "" {
		out = wasm.AppendSourceMappingSection(out, cfg.SourceMapURL)
	}

	if err := c.fs.WriteWholeFile(cfg.OutputSourceMap, mapJSON); err != nil {
		return nil, err
	}
	res := &Result{
		SourceMap:  sm,
		Module:     out,
		CodeOffset: offset,
		Entries:    len(entries),
		CacheHit:   hit,
	}
	if cfg.OutputWasm != "" {
		if err := c.fs.WriteWholeFile(cfg.OutputWasm, out); err != nil {
			return nil, err
		}
		res.WroteWasm = true
	}

	c.log.Info("source map written",
		zap.String("path", cfg.OutputSourceMap),
		zap.Int("entries", res.Entries),
		zap.Int("sources", len(sm.Sources)),
		zap.Int64("code_offset", offset),
		zap.Bool("cache_hit", hit))
	return res, nil
}

func (c *Converter) extract(ctx context.Context, dump []byte) ([]dwarf.Entry, bool, error) {
	var key cache.Digest
	if c.cache != nil {
		key = cache.Key(dump)
		entries, ok, err := c.cache.Get(key)
		if err != nil {
			c.log.Warn("cache read failed", zap.String("key", key.String()), zap.Error(err))
		} else if ok {
			c.log.Debug("using cached line entries", zap.String("key", key.String()))
			return entries, true, nil
		}
	}

	entries, err := dwarf.Extract(ctx, dump, dwarf.ExtractOptions{Jobs: c.cfg.Jobs})
	if err != nil {
		return nil, false, err
	}

	if c.cache != nil {
		if err := c.cache.Put(key, entries); err != nil {
			c.log.Warn("cache write failed", zap.String("key", key.String()), zap.Error(err))
		}
	}
	return entries, false, nil
}
