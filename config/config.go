// Package config holds the settings of a conversion run and loads them from
// TOML or YAML files.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-sourcemap/errors"
	"github.com/wippyai/wasm-sourcemap/sourcemap"
)

// Log levels accepted by LogLevel.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Config describes one conversion run.
type Config struct {
	InputWasm       string `toml:"input_wasm" yaml:"input_wasm"`
	InputDwarf      string `toml:"input_dwarf" yaml:"input_dwarf"`
	OutputSourceMap string `toml:"output_source_map" yaml:"output_source_map"`
	// OutputWasm is where the rewritten module goes. Empty skips writing it.
	OutputWasm string `toml:"output_wasm" yaml:"output_wasm"`
	// SourceMapURL is appended as a sourceMappingURL section when set.
	SourceMapURL string `toml:"source_map_url" yaml:"source_map_url"`
	BasePath     string `toml:"base_path" yaml:"base_path"`
	// CacheDir enables the extracted-entry cache.
	CacheDir string `toml:"cache_dir" yaml:"cache_dir"`
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// SourcePrefixes are "old=new" rewrites of listed source names.
	SourcePrefixes []string `toml:"source_prefixes" yaml:"source_prefixes"`

	// Jobs bounds parallel line-table tokenisation. Zero means GOMAXPROCS.
	Jobs int `toml:"jobs" yaml:"jobs"`

	Strip        bool `toml:"stripped" yaml:"stripped"`
	EmbedSources bool `toml:"embed_sources" yaml:"embed_sources"`
}

// Default returns the configuration used when no file or flag sets a value.
func Default() *Config {
	return &Config{
		LogLevel: LevelWarn,
	}
}

// Load reads a configuration file on top of Default. The format follows the
// extension: .toml, .yaml or .yml. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(path, "read config", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, parseError(path, err, "decode toml")
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path(path).
				Value(undecoded[0].String()).
				Detail("unknown key %q", undecoded[0].String()).
				Build()
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return nil, parseError(path, err, "decode yaml")
		}
	default:
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path(path).
			Detail("unsupported config format %q", ext).
			Build()
	}
	return cfg, nil
}

func parseError(path string, cause error, detail string) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidData).
		Path(path).
		Cause(cause).
		Detail("%s", detail).
		Build()
}

// Validate reports the first problem that would stop a run.
func (c *Config) Validate() error {
	required := []struct {
		name, value string
	}{
		{"input wasm file", c.InputWasm},
		{"input dwarf file", c.InputDwarf},
		{"output source map file", c.OutputSourceMap},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.InvalidInput(errors.PhaseConfig, r.name+" is required")
		}
	}

	switch c.LogLevel {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(c.LogLevel).
			Detail("unknown log level %q", c.LogLevel).
			Build()
	}

	if c.Jobs < 0 {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(c.Jobs).
			Detail("jobs must not be negative, got %d", c.Jobs).
			Build()
	}

	if _, err := sourcemap.ParsePrefixes(c.SourcePrefixes); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "source prefixes")
	}
	return nil
}
