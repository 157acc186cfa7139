// Package wasm provides the WebAssembly binary primitives used to build and
// attach source maps.
//
// Nothing here decodes a module into structured types. All operations are
// offset computations over the raw bytes: a fixed 8-byte header followed by
// sections of the form (id varuint, size varuint, body).
//
// # Varints
//
//	v, next, err := wasm.DecodeUint(data, pos)
//	enc := wasm.EncodeUint(v)
//
// # Sections
//
// Locate the code section body, which source-map addresses are relative to:
//
//	off, err := wasm.FindCodeSectionOffset(module)
//	if errors.Is(err, wasm.ErrCodeSectionNotFound) {
//	    ...
//	}
//
// Remove DWARF, relocation, linking, and sourceMappingURL custom sections,
// copying everything else byte for byte:
//
//	stripped, err := wasm.StripDebugSections(module)
//
// Point the module at its source map:
//
//	out := wasm.AppendSourceMappingSection(stripped, "app.wasm.map")
package wasm
