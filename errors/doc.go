// Package errors provides structured error types for the wasm-sourcemap tool.
//
// Errors are categorized by Phase (which pipeline stage failed) and Kind
// (error category). The Error type carries the offending file path, a byte
// offset into the input, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseScan, errors.KindTruncated).
//		Path("module.wasm").
//		Offset(42).
//		Detail("section size runs past end of module").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseScan, "code section")
//	err := errors.Truncated(errors.PhaseScan, 17, "varuint")
//
// All errors implement the standard error interface and support errors.Is/As.
// Two *Error values match under errors.Is when phase and kind agree.
package errors
