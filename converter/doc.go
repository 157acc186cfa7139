// Package converter wires the scanner, extractor and encoder into a single
// run driven by a config.Config.
//
//	cfg := config.Default()
//	cfg.InputWasm = "app.wasm"
//	cfg.InputDwarf = "app.dwarf"
//	cfg.OutputSourceMap = "app.wasm.map"
//
//	conv, err := converter.New(cfg, converter.WithLogger(log))
//	res, err := conv.Run(ctx)
//
// The source map and the rewritten module are fully computed in memory
// before either file is written.
package converter
