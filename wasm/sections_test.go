package wasm_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/wippyai/wasm-sourcemap/wasm"
)

var header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func section(id wasm.SectionID, body []byte) []byte {
	out := wasm.EncodeUint(uint64(id))
	out = append(out, wasm.EncodeUint(uint64(len(body)))...)
	return append(out, body...)
}

func custom(name string, payload []byte) []byte {
	body := wasm.EncodeUint(uint64(len(name)))
	body = append(body, name...)
	return section(wasm.SectionCustom, append(body, payload...))
}

func module(sections ...[]byte) []byte {
	out := append([]byte{}, header...)
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

func TestIsModule(t *testing.T) {
	if !wasm.IsModule(header) {
		t.Error("header should be recognised")
	}
	if wasm.IsModule([]byte{0x00, 0x61, 0x73}) {
		t.Error("short input accepted")
	}
	if wasm.IsModule([]byte("not wasm")) {
		t.Error("wrong magic accepted")
	}
}

func TestFindCodeSectionOffset(t *testing.T) {
	typeSec := section(wasm.SectionType, []byte{0x01, 0x60, 0x00, 0x00})
	codeBody := []byte{0x01, 0x02, 0x00, 0x0b}
	m := module(typeSec, section(wasm.SectionCode, codeBody), section(wasm.SectionDataCount, []byte{0x00}))

	// header + type section (1 id + 1 size + 4 body) + code id + code size
	want := int64(len(header) + len(typeSec) + 2)

	got, err := wasm.FindCodeSectionOffset(m)
	if err != nil {
		t.Fatalf("FindCodeSectionOffset: %v", err)
	}
	if got != want {
		t.Errorf("offset = %d, want %d", got, want)
	}
	if !bytes.Equal(m[got:got+int64(len(codeBody))], codeBody) {
		t.Error("offset does not point at code body")
	}
}

func TestFindCodeSectionOffsetMultiByteSize(t *testing.T) {
	codeBody := bytes.Repeat([]byte{0x01}, 300)
	m := module(custom("name", []byte{0x00}), section(wasm.SectionCode, codeBody))

	got, err := wasm.FindCodeSectionOffset(m)
	if err != nil {
		t.Fatalf("FindCodeSectionOffset: %v", err)
	}
	want := int64(len(m) - len(codeBody))
	if got != want {
		t.Errorf("offset = %d, want %d", got, want)
	}
}

func TestFindCodeSectionOffsetNotFound(t *testing.T) {
	m := module(section(wasm.SectionType, []byte{0x00}), custom(".debug_info", []byte{1, 2, 3}))
	_, err := wasm.FindCodeSectionOffset(m)
	if !errors.Is(err, wasm.ErrCodeSectionNotFound) {
		t.Fatalf("expected ErrCodeSectionNotFound, got %v", err)
	}

	_, err = wasm.FindCodeSectionOffset(header)
	if !errors.Is(err, wasm.ErrCodeSectionNotFound) {
		t.Fatalf("empty module: expected ErrCodeSectionNotFound, got %v", err)
	}
}

func TestFindCodeSectionOffsetTruncated(t *testing.T) {
	m := module([]byte{byte(wasm.SectionType), 0x80})
	if _, err := wasm.FindCodeSectionOffset(m); !errors.Is(err, wasm.ErrTruncated) {
		t.Errorf("truncated size varint: got %v", err)
	}

	m = module([]byte{byte(wasm.SectionType), 0x10, 0x00})
	if _, err := wasm.FindCodeSectionOffset(m); !errors.Is(err, wasm.ErrTruncated) {
		t.Errorf("body past end: got %v", err)
	}

	if _, err := wasm.FindCodeSectionOffset([]byte{0x00, 0x61}); !errors.Is(err, wasm.ErrTruncated) {
		t.Errorf("short header: got %v", err)
	}
}

func TestScanSections(t *testing.T) {
	m := module(
		section(wasm.SectionType, []byte{0x00}),
		custom("producers", []byte{0x00}),
		section(wasm.SectionCode, []byte{0x00}),
	)

	secs, err := wasm.ScanSections(m)
	if err != nil {
		t.Fatalf("ScanSections: %v", err)
	}
	if len(secs) != 3 {
		t.Fatalf("got %d sections, want 3", len(secs))
	}
	if secs[0].ID != wasm.SectionType || secs[0].Offset != 8 || secs[0].BodyOffset != 10 || secs[0].Size != 1 {
		t.Errorf("type section = %+v", secs[0])
	}
	if secs[1].ID != wasm.SectionCustom || secs[1].Name != "producers" {
		t.Errorf("custom section = %+v", secs[1])
	}
	if secs[2].End() != len(m) {
		t.Errorf("last section ends at %d, module length %d", secs[2].End(), len(m))
	}
	if secs[2].ID.String() != "code" {
		t.Errorf("String() = %q", secs[2].ID.String())
	}
}

func TestIsDebugSection(t *testing.T) {
	tests := map[string]bool{
		"linking":             true,
		"sourceMappingURL":    true,
		".debug_info":         true,
		".debug_line":         true,
		"reloc..debug_info":   true,
		"reloc.CODE":          false,
		"name":                false,
		"producers":           false,
		"target_features":     false,
		"sourceMappingURLx":   false,
		"external_debug_info": false,
	}
	for name, want := range tests {
		if got := wasm.IsDebugSection(name); got != want {
			t.Errorf("IsDebugSection(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestStripDebugSections(t *testing.T) {
	typeSec := section(wasm.SectionType, []byte{0x01, 0x60, 0x00, 0x00})
	nameSec := custom("name", []byte{0x00, 0x01, 0x00})
	codeSec := section(wasm.SectionCode, []byte{0x01, 0x02, 0x00, 0x0b})
	m := module(
		typeSec,
		custom("linking", []byte{0x02}),
		codeSec,
		custom(".debug_info", bytes.Repeat([]byte{0xaa}, 200)),
		custom("reloc..debug_line", []byte{0x01}),
		nameSec,
		custom("sourceMappingURL", []byte{0x03, 'a', '.', 'm'}),
	)

	got, err := wasm.StripDebugSections(m)
	if err != nil {
		t.Fatalf("StripDebugSections: %v", err)
	}
	want := module(typeSec, codeSec, nameSec)
	if !bytes.Equal(got, want) {
		t.Errorf("stripped = %x\nwant       %x", got, want)
	}

	again, err := wasm.StripDebugSections(got)
	if err != nil {
		t.Fatalf("second strip: %v", err)
	}
	if !bytes.Equal(again, got) {
		t.Error("strip is not idempotent")
	}
}

func TestStripDebugSectionsKeepsUnnamedCustom(t *testing.T) {
	// Name length 5 overruns a 2-byte body.
	bad := section(wasm.SectionCustom, []byte{0x05, 'x'})
	m := module(bad, section(wasm.SectionCode, []byte{0x00}))

	got, err := wasm.StripDebugSections(m)
	if err != nil {
		t.Fatalf("StripDebugSections: %v", err)
	}
	if !bytes.Equal(got, m) {
		t.Error("malformed custom section should be copied unchanged")
	}
}

func TestStripDebugSectionsTruncated(t *testing.T) {
	m := module([]byte{byte(wasm.SectionCode), 0x05, 0x00})
	if _, err := wasm.StripDebugSections(m); !errors.Is(err, wasm.ErrTruncated) {
		t.Errorf("expected truncated error, got %v", err)
	}
}

func TestAppendSourceMappingSection(t *testing.T) {
	m := module(section(wasm.SectionCode, []byte{0x00}))
	url := "http://localhost:8080/app.wasm.map"

	got := wasm.AppendSourceMappingSection(m, url)
	if !bytes.Equal(got[:len(m)], m) {
		t.Fatal("original bytes changed")
	}

	want := append(append([]byte{}, m...), custom("sourceMappingURL", append(wasm.EncodeUint(uint64(len(url))), url...))...)
	if !bytes.Equal(got, want) {
		t.Errorf("appended = %x\nwant       %x", got, want)
	}

	secs, err := wasm.ScanSections(got)
	if err != nil {
		t.Fatalf("ScanSections: %v", err)
	}
	last := secs[len(secs)-1]
	if last.Name != wasm.CustomSourceMappingURL {
		t.Errorf("last section name = %q", last.Name)
	}

	stripped, err := wasm.StripDebugSections(got)
	if err != nil {
		t.Fatalf("StripDebugSections: %v", err)
	}
	if !bytes.Equal(stripped, m) {
		t.Error("strip should remove the appended section")
	}
}

func TestAppendSourceMappingSectionLongURL(t *testing.T) {
	url := string(bytes.Repeat([]byte{'u'}, 200))
	got := wasm.AppendSourceMappingSection(module(), url)

	secs, err := wasm.ScanSections(got)
	if err != nil {
		t.Fatalf("ScanSections: %v", err)
	}
	if len(secs) != 1 {
		t.Fatalf("got %d sections, want 1", len(secs))
	}
	// name (1 + 16) + url (2 + 200)
	if secs[0].Size != 219 {
		t.Errorf("size = %d, want 219", secs[0].Size)
	}
}
