package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseScan,
				Kind:   KindTruncated,
				Path:   "app.wasm",
				Offset: 17,
				Detail: "section size",
			},
			contains: []string{"[scan]", "truncated", "in app.wasm", "at offset 17", "section size"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseExtract,
				Kind:  KindInvalidUTF8,
			},
			contains: []string{"[extract]", "invalid_utf8"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseIO,
				Kind:   KindIO,
				Detail: "read",
				Cause:  errors.New("permission denied"),
			},
			contains: []string{"[io]", "io", "read", "caused by", "permission denied"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_OffsetOmittedWhenZero(t *testing.T) {
	err := &Error{Phase: PhaseScan, Kind: KindNotFound, Detail: "code section not found"}
	if strings.Contains(err.Error(), "offset") {
		t.Errorf("zero offset should not be rendered: %q", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseRewrite,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase:  PhaseScan,
		Kind:   KindNotFound,
		Detail: "code section not found",
	}

	if !err.Is(&Error{Phase: PhaseScan, Kind: KindNotFound}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseExtract, Kind: KindNotFound}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseScan, Kind: KindTruncated}) {
		t.Error("Is should not match different kind")
	}

	wrapped := Wrap(PhaseIO, KindIO, err, "convert")
	if !errors.Is(wrapped, &Error{Phase: PhaseScan, Kind: KindNotFound}) {
		t.Error("errors.Is should see through Wrap")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseScan, KindOverflow).
		Path("m.wasm").
		Offset(9).
		Value(uint64(1) << 40).
		Cause(cause).
		Detail("section %s too large", "code").
		Build()

	if err.Phase != PhaseScan {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseScan)
	}
	if err.Kind != KindOverflow {
		t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
	}
	if err.Path != "m.wasm" {
		t.Errorf("Path = %q, want m.wasm", err.Path)
	}
	if err.Offset != 9 {
		t.Errorf("Offset = %d, want 9", err.Offset)
	}
	if err.Value != uint64(1)<<40 {
		t.Errorf("Value = %v", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "section code too large" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseScan, "code section")
		if err.Kind != KindNotFound {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
		}
		if err.Detail != "code section not found" {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		err := Truncated(PhaseScan, 12, "varuint")
		if err.Kind != KindTruncated || err.Offset != 12 {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseScan, 3, 300, "u8")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 300 {
			t.Errorf("Value = %v, want 300", err.Value)
		}
	})

	t.Run("InvalidUTF8", func(t *testing.T) {
		err := InvalidUTF8(PhaseExtract, 4, []byte{0xff, 0xfe})
		if err.Kind != KindInvalidUTF8 {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidUTF8)
		}
		if !strings.Contains(err.Detail, "fffe") {
			t.Errorf("Detail = %q, should contain preview", err.Detail)
		}
	})

	t.Run("IO", func(t *testing.T) {
		cause := errors.New("no such file")
		err := IO("in.dwarf", "read", cause)
		if err.Phase != PhaseIO || err.Path != "in.dwarf" || !errors.Is(err, cause) {
			t.Errorf("got %+v", err)
		}
	})
}
