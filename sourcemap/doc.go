// Package sourcemap builds version 3 source maps from DWARF line entries.
//
// A wasm source map has a single generated line. Each segment's generated
// column is a byte offset in the module, so a mappings string is a comma
// separated list of four VLQ deltas: address, source index, line, column.
//
//	sm, err := sourcemap.Build(entries, codeOffset, sourcemap.BuildOptions{})
//	data, err := sm.Marshal()
//
// DecodeMappings reverses the delta encoding for inspection and tests.
package sourcemap
