package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wippyai/wasm-sourcemap/engine"
	"github.com/wippyai/wasm-sourcemap/errors"
	"github.com/wippyai/wasm-sourcemap/sourcemap"
	"github.com/wippyai/wasm-sourcemap/wasm"
)

var inspectFlags struct {
	mapPath     string
	runtime     bool
	threads     bool
	interactive bool
	limit       int
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <module.wasm>",
	Short: "Show a module's sections and, optionally, its source map",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.StringVar(&inspectFlags.mapPath, "map", "", "source map to decode against the module")
	f.BoolVar(&inspectFlags.runtime, "runtime", false, "compile the module with wazero and list what the runtime retains")
	f.BoolVar(&inspectFlags.threads, "threads", false, "enable the threads proposal when compiling")
	f.BoolVarP(&inspectFlags.interactive, "interactive", "i", false, "browse mappings interactively (requires --map)")
	f.IntVar(&inspectFlags.limit, "limit", 20, "mappings to print, 0 for all")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	module, err := os.ReadFile(path)
	if err != nil {
		return errors.IO(path, "read", err)
	}
	if !wasm.IsModule(module) {
		return errors.InvalidInput(errors.PhaseScan, path+" is not a WebAssembly module")
	}

	var sm *sourcemap.SourceMap
	if inspectFlags.mapPath != "" {
		data, err := os.ReadFile(inspectFlags.mapPath)
		if err != nil {
			return errors.IO(inspectFlags.mapPath, "read", err)
		}
		if sm, err = sourcemap.Parse(data); err != nil {
			return err
		}
	}

	if inspectFlags.interactive {
		if sm == nil {
			return fmt.Errorf("--interactive requires --map")
		}
		return runInteractive(path, sm)
	}

	out := cmd.OutOrStdout()
	if err := printSections(out, module); err != nil {
		return err
	}
	if inspectFlags.runtime {
		cfg := &engine.Config{EnableThreads: inspectFlags.threads}
		info, err := engine.InspectModule(cmd.Context(), module, cfg)
		if err != nil {
			return err
		}
		printModuleInfo(out, info)
	}
	if sm != nil {
		return printMappings(out, sm, inspectFlags.limit)
	}
	return nil
}

func printSections(w io.Writer, module []byte) error {
	sections, err := wasm.ScanSections(module)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(sections))
	for _, s := range sections {
		name := s.ID.String()
		if s.ID == wasm.SectionCustom {
			name = fmt.Sprintf("custom %q", s.Name)
		}
		rows = append(rows, []string{
			name,
			fmt.Sprintf("0x%x", s.Offset),
			fmt.Sprintf("0x%x", s.BodyOffset),
			strconv.Itoa(s.Size),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("SECTION", "OFFSET", "BODY", "SIZE").
		Rows(rows...)
	fmt.Fprintln(w, t.String())

	// The scan above already succeeded, so the only failure left is a
	// missing code section.
	if off, err := wasm.FindCodeSectionOffset(module); err == nil {
		fmt.Fprintf(w, "code section body at %s\n", color.CyanString("0x%x", off))
	} else {
		fmt.Fprintln(w, color.YellowString("no code section"))
	}
	return nil
}

func printModuleInfo(w io.Writer, info *engine.ModuleInfo) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(w, "\n%s\n", bold("runtime view"))
	if info.Name != "" {
		fmt.Fprintf(w, "  name: %s\n", info.Name)
	}
	for _, s := range info.CustomSections {
		fmt.Fprintf(w, "  custom %-24s %d bytes\n", s.Name, s.Size)
	}
	for _, imp := range info.Imports {
		fmt.Fprintf(w, "  import %s\n", imp)
	}
	for _, exp := range info.Exports {
		fmt.Fprintf(w, "  export %s\n", exp)
	}
}

func printMappings(w io.Writer, sm *sourcemap.SourceMap, limit int) error {
	mappings, err := sourcemap.DecodeMappings(sm.Mappings)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(w, "\n%s %d sources, %d mappings\n", bold("source map"), len(sm.Sources), len(mappings))

	shown := mappings
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, m := range shown {
		fmt.Fprintf(w, "  %s  %s\n", color.CyanString("0x%06x", m.Address), mappingLocation(sm, m))
	}
	if len(shown) < len(mappings) {
		fmt.Fprintf(w, "  ... %d more\n", len(mappings)-len(shown))
	}
	return nil
}

func mappingLocation(sm *sourcemap.SourceMap, m sourcemap.Mapping) string {
	src := "?"
	if m.Source >= 0 && m.Source < int64(len(sm.Sources)) {
		src = sm.Sources[m.Source]
	}
	return fmt.Sprintf("%s:%d:%d", src, m.Line, m.Column)
}
