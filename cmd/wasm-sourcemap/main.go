package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:   "wasm-sourcemap",
	Short: "Generate source maps for WebAssembly modules from DWARF line tables",
	Long: `wasm-sourcemap converts an llvm-dwarfdump rendering of a module's
.debug_info and .debug_line sections into a version 3 source map. It can also
strip the debug sections from the module and append a sourceMappingURL
custom section pointing at the map.

  llvm-dwarfdump --debug-info --debug-line app.wasm > app.dwarf
  wasm-sourcemap --input-wasm-file-path app.wasm \
      --input-dwarf-file-path app.dwarf \
      --output-source-map-file-path app.wasm.map`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupOutput,
	RunE:              runConvert,
}

var (
	colorMode string
	logLevel  string
)

func init() {
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	// Accept snake_case spellings such as --source_prefix.
	rootCmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}

func main() {
	rootCmd.Version = buildVersion()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupOutput(cmd *cobra.Command, _ []string) error {
	switch strings.ToLower(colorMode) {
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("unsupported color mode %q (must be auto, on or off)", colorMode)
	}
	_, err := installLogger(logLevel)
	return err
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
