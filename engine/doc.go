// Package engine loads modules into the wazero runtime to check what a
// WebAssembly engine sees after a rewrite.
//
// The converter never needs a runtime: every transformation is done on raw
// bytes. The engine is the independent check that a stripped module still
// compiles and that its sourceMappingURL section is where a debugger will
// look for it.
//
//	info, err := engine.InspectModule(ctx, module, nil)
//	if info.HasCustomSection("sourceMappingURL") {
//	    ...
//	}
package engine
