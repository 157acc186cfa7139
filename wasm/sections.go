package wasm

import (
	"bytes"
	"encoding/binary"
	"strings"

	"fortio.org/safecast"

	"github.com/wippyai/wasm-sourcemap/errors"
	wbinary "github.com/wippyai/wasm-sourcemap/wasm/internal/binary"
)

// Errors returned by the section scanner. Match them with errors.Is; the
// values actually returned carry offsets and detail.
var (
	ErrCodeSectionNotFound = errors.NotFound(errors.PhaseScan, "code section")
	ErrTruncated           = &errors.Error{Phase: errors.PhaseScan, Kind: errors.KindTruncated}
	ErrOverflow            = &errors.Error{Phase: errors.PhaseScan, Kind: errors.KindOverflow}
)

// Section locates one section within a module's raw bytes.
type Section struct {
	Name       string // custom sections only
	ID         SectionID
	Offset     int // first byte of the section id
	BodyOffset int // first byte after the size field
	Size       int // body length in bytes
}

// End returns the offset one past the last body byte.
func (s Section) End() int {
	return s.BodyOffset + s.Size
}

// IsModule reports whether data starts with the WebAssembly magic and version.
func IsModule(data []byte) bool {
	if len(data) < HeaderSize {
		return false
	}
	return binary.LittleEndian.Uint32(data[0:4]) == Magic &&
		binary.LittleEndian.Uint32(data[4:8]) == Version
}

// IsDebugSection reports whether a custom section with this name is removed
// by StripDebugSections.
func IsDebugSection(name string) bool {
	return name == CustomLinking ||
		name == CustomSourceMappingURL ||
		strings.HasPrefix(name, relocDebugPrefix) ||
		strings.HasPrefix(name, debugPrefix)
}

// walkSections visits each section in order until fn returns false.
// The module header is skipped without being checked.
func walkSections(module []byte, fn func(Section) bool) error {
	if len(module) < HeaderSize {
		return errors.Truncated(errors.PhaseScan, len(module), "module header")
	}

	r := wbinary.NewReaderAt(module, HeaderSize)
	for !r.EOF() {
		start := r.Position()

		id, err := r.ReadU32()
		if err != nil {
			return err
		}
		size, err := r.ReadU32()
		if err != nil {
			return err
		}

		body := r.Position()
		n, err := safecast.Conv[int](size)
		if err != nil {
			return errors.Overflow(errors.PhaseScan, start, size, "int")
		}
		if body+n > len(module) {
			return errors.New(errors.PhaseScan, errors.KindTruncated).
				Offset(start).
				Detail("section %s declares %d bytes, %d available", SectionID(id), n, len(module)-body).
				Build()
		}

		sec := Section{
			ID:         SectionID(id),
			Offset:     start,
			BodyOffset: body,
			Size:       n,
		}
		if sec.ID == SectionCustom {
			// A name that overruns its own section is treated as unnamed.
			if name, err := wbinary.NewReader(module[body : body+n]).ReadName(); err == nil {
				sec.Name = name
			}
		}

		if !fn(sec) {
			return nil
		}
		if err := r.Seek(sec.End()); err != nil {
			return err
		}
	}
	return nil
}

// ScanSections returns every section of the module in file order.
func ScanSections(module []byte) ([]Section, error) {
	var sections []Section
	err := walkSections(module, func(s Section) bool {
		sections = append(sections, s)
		return true
	})
	if err != nil {
		return nil, err
	}
	return sections, nil
}

// FindCodeSectionOffset returns the byte offset of the code section body.
// Sections after the code section are not examined.
func FindCodeSectionOffset(module []byte) (int64, error) {
	offset := -1
	err := walkSections(module, func(s Section) bool {
		if s.ID == SectionCode {
			offset = s.BodyOffset
			return false
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, ErrCodeSectionNotFound
	}
	return int64(offset), nil
}

// StripDebugSections returns a copy of module without debug, linking, and
// source-map custom sections. All other bytes are copied verbatim and in
// their original order.
func StripDebugSections(module []byte) ([]byte, error) {
	sections, err := ScanSections(module)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRewrite, errors.KindInvalidData, err, "strip debug sections")
	}

	var out bytes.Buffer
	out.Grow(len(module))
	out.Write(module[:HeaderSize])
	for _, s := range sections {
		if s.ID == SectionCustom && IsDebugSection(s.Name) {
			continue
		}
		out.Write(module[s.Offset:s.End()])
	}
	return out.Bytes(), nil
}

// AppendSourceMappingSection returns a copy of module with a trailing
// sourceMappingURL custom section pointing at url. Existing sections of the
// same name are left in place.
func AppendSourceMappingSection(module []byte, url string) []byte {
	payload := wbinary.NewWriter()
	payload.WriteName(CustomSourceMappingURL)
	payload.WriteName(url)

	size := uint64(payload.Len())
	w := wbinary.NewWriterSize(len(module) + 1 + SizeUint(size) + payload.Len())
	w.WriteBytes(module)
	w.WriteU64(uint64(SectionCustom))
	w.WriteU64(size)
	w.WriteBytes(payload.Bytes())
	return w.Bytes()
}
