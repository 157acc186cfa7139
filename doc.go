// Package wasmsourcemap generates source maps for WebAssembly modules from
// their DWARF line tables.
//
// Compilers such as clang and emscripten leave DWARF debug sections in the
// module. Browsers cannot read them, but they can read a version 3 source map
// referenced by a sourceMappingURL custom section. This module converts an
// llvm-dwarfdump text dump of the line tables into such a map and can rewrite
// the module to drop its debug sections and point at the map.
//
// # Architecture Overview
//
//	wasmsourcemap/       Root package with file system interfaces
//	├── wasm/            LEB128 codec, section scanning, strip and append
//	├── dwarf/           llvm-dwarfdump text to line entries
//	├── sourcemap/       Line entries to a source map, VLQ codec
//	├── converter/       End-to-end conversion run
//	├── config/          TOML and YAML configuration
//	├── cache/           On-disk cache of extracted line entries
//	├── engine/          wazero view of a module's custom sections
//	├── errors/          Structured error types
//	└── cmd/wasm-sourcemap/  Command-line tool
//
// # Quick Start
//
//	llvm-dwarfdump --debug-info --debug-line app.wasm > app.dwarf
//	wasm-sourcemap \
//	    --input-wasm-file-path app.wasm \
//	    --input-dwarf-file-path app.dwarf \
//	    --output-source-map-file-path app.wasm.map \
//	    --output-wasm-file-path app.stripped.wasm \
//	    --source-map-url app.wasm.map \
//	    --stripped
//
// From Go:
//
//	cfg := config.Default()
//	cfg.InputWasm = "app.wasm"
//	cfg.InputDwarf = "app.dwarf"
//	cfg.OutputSourceMap = "app.wasm.map"
//
//	conv, err := converter.New(cfg)
//	res, err := conv.Run(ctx)
//
// # Addresses
//
// DWARF addresses in a wasm module are relative to the start of the code
// section body. The source map uses module offsets, so every address is
// shifted by the code section offset found by wasm.FindCodeSectionOffset.
package wasmsourcemap
