package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wippyai/wasm-sourcemap/config"
	"github.com/wippyai/wasm-sourcemap/converter"
)

var convertFlags struct {
	configPath      string
	inputWasm       string
	inputDwarf      string
	outputSourceMap string
	outputWasm      string
	sourceMapURL    string
	basePath        string
	cacheDir        string
	sourcePrefixes  []string
	jobs            int
	strip           bool
	embedSources    bool
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&convertFlags.configPath, "config", "", "read settings from a .toml or .yaml file; flags override it")
	f.StringVar(&convertFlags.inputWasm, "input-wasm-file-path", "", "input wasm module")
	f.StringVar(&convertFlags.inputDwarf, "input-dwarf-file-path", "", "llvm-dwarfdump --debug-info --debug-line output for the module")
	f.StringVar(&convertFlags.outputSourceMap, "output-source-map-file-path", "", "where to write the source map")
	f.StringVar(&convertFlags.outputWasm, "output-wasm-file-path", "", "where to write the rewritten module")
	f.StringVar(&convertFlags.sourceMapURL, "source-map-url", "", "append a sourceMappingURL section with this URL")
	f.BoolVar(&convertFlags.strip, "stripped", false, "remove debug, linking and sourceMappingURL sections")
	f.BoolVar(&convertFlags.embedSources, "is-embed-sources", false, "embed source file contents in the map")
	f.StringVar(&convertFlags.basePath, "base-path", "", "list sources beneath this directory as relative paths")
	f.StringArrayVar(&convertFlags.sourcePrefixes, "source-prefix", nil, "rewrite source names, old=new or old to strip (repeatable)")
	f.IntVar(&convertFlags.jobs, "jobs", 0, "parallel line-table tokenisation (0 = GOMAXPROCS)")
	f.StringVar(&convertFlags.cacheDir, "cache-dir", "", "cache extracted line entries in this directory")
}

// loadConfig starts from the config file, if any, and applies the flags the
// user actually set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if convertFlags.configPath != "" {
		loaded, err := config.Load(convertFlags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("input-wasm-file-path", func() { cfg.InputWasm = convertFlags.inputWasm })
	set("input-dwarf-file-path", func() { cfg.InputDwarf = convertFlags.inputDwarf })
	set("output-source-map-file-path", func() { cfg.OutputSourceMap = convertFlags.outputSourceMap })
	set("output-wasm-file-path", func() { cfg.OutputWasm = convertFlags.outputWasm })
	set("source-map-url", func() { cfg.SourceMapURL = convertFlags.sourceMapURL })
	set("stripped", func() { cfg.Strip = convertFlags.strip })
	set("is-embed-sources", func() { cfg.EmbedSources = convertFlags.embedSources })
	set("base-path", func() { cfg.BasePath = convertFlags.basePath })
	set("source-prefix", func() { cfg.SourcePrefixes = convertFlags.sourcePrefixes })
	set("jobs", func() { cfg.Jobs = convertFlags.jobs })
	set("cache-dir", func() { cfg.CacheDir = convertFlags.cacheDir })
	set("log-level", func() { cfg.LogLevel = logLevel })
	return cfg, nil
}

func runConvert(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := installLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	conv, err := converter.New(cfg, converter.WithLogger(log.Named("converter")))
	if err != nil {
		return err
	}
	res, err := conv.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ok := color.New(color.FgGreen, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(out, "%s %s %s\n", ok("wrote"), cfg.OutputSourceMap,
		dim(fmt.Sprintf("(%d entries, %d sources, code offset 0x%x)", res.Entries, len(res.SourceMap.Sources), res.CodeOffset)))
	if res.WroteWasm {
		fmt.Fprintf(out, "%s %s %s\n", ok("wrote"), cfg.OutputWasm, dim(fmt.Sprintf("(%d bytes)", len(res.Module))))
	}
	if res.CacheHit {
		fmt.Fprintln(out, dim("line entries loaded from cache"))
	}
	return nil
}
