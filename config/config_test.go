package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-sourcemap/config"
	"github.com/wippyai/wasm-sourcemap/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "sourcemap.toml", `
input_wasm = "app.wasm"
input_dwarf = "app.dwarf"
output_source_map = "app.wasm.map"
output_wasm = "app.stripped.wasm"
source_map_url = "http://localhost/app.wasm.map"
stripped = true
embed_sources = true
base_path = "/work"
source_prefixes = ["/usr/include=sys", "/tmp/"]
jobs = 4
cache_dir = ".cache"
log_level = "debug"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, &config.Config{
		InputWasm:       "app.wasm",
		InputDwarf:      "app.dwarf",
		OutputSourceMap: "app.wasm.map",
		OutputWasm:      "app.stripped.wasm",
		SourceMapURL:    "http://localhost/app.wasm.map",
		BasePath:        "/work",
		CacheDir:        ".cache",
		LogLevel:        "debug",
		SourcePrefixes:  []string{"/usr/include=sys", "/tmp/"},
		Jobs:            4,
		Strip:           true,
		EmbedSources:    true,
	}, cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "sourcemap.yml", `
input_wasm: app.wasm
input_dwarf: app.dwarf
output_source_map: app.wasm.map
source_prefixes:
  - /src=webpack:///src
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "app.wasm", cfg.InputWasm)
	assert.Equal(t, []string{"/src=webpack:///src"}, cfg.SourcePrefixes)
	assert.Equal(t, config.LevelWarn, cfg.LogLevel, "unset keys keep defaults")
	assert.False(t, cfg.Strip)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEmptyYAML(t *testing.T) {
	cfg, err := config.Load(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadUnknownKey(t *testing.T) {
	_, err := config.Load(writeFile(t, "bad.toml", "input_wasm = \"a\"\nstrip = true\n"))
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidInput})

	_, err = config.Load(writeFile(t, "bad.yaml", "input_wasm: a\nstrip: true\n"))
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidData})
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseIO, Kind: errors.KindIO})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = config.Load(writeFile(t, "conf.json", "{}"))
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidInput})

	_, err = config.Load(writeFile(t, "broken.toml", "jobs = ["))
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidData})
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		cfg := config.Default()
		cfg.InputWasm = "a.wasm"
		cfg.InputDwarf = "a.dwarf"
		cfg.OutputSourceMap = "a.map"
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*config.Config){
		"missing wasm":      func(c *config.Config) { c.InputWasm = "" },
		"missing dwarf":     func(c *config.Config) { c.InputDwarf = "" },
		"missing map":       func(c *config.Config) { c.OutputSourceMap = "" },
		"bad log level":     func(c *config.Config) { c.LogLevel = "verbose" },
		"negative jobs":     func(c *config.Config) { c.Jobs = -1 },
		"empty prefix": func(c *config.Config) { c.SourcePrefixes = []string{"=x"} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidInput})
		})
	}
}

func TestLoadParseErrorDetail(t *testing.T) {
	path := writeFile(t, "broken%d.toml", "jobs = [")
	_, err := config.Load(path)
	require.Error(t, err)

	var cerr *errors.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "decode toml", cerr.Detail)
	assert.Equal(t, path, cerr.Path)
	assert.NotNil(t, cerr.Cause)
}
