// Package dwarf turns a textual DWARF dump into source line entries.
//
// The input is the output of
//
//	llvm-dwarfdump --debug-info --debug-line module.wasm
//
// not binary DWARF. The .debug_info part is consulted only for each unit's
// DW_AT_comp_dir; everything else comes from the .debug_line tables.
//
//	entries, err := dwarf.Extract(ctx, dump, dwarf.ExtractOptions{Jobs: 4})
//
// Entry addresses are relative to the code section body. Combine them with
// wasm.FindCodeSectionOffset to get module offsets.
package dwarf
