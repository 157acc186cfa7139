package dwarf

import (
	"slices"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-sourcemap/errors"
)

const (
	markerPrefix      = "debug_line["
	stmtListAttr      = "DW_AT_stmt_list"
	compDirAttr       = "DW_AT_comp_dir"
	includeDirsPrefix = "include_directories["
	fileNamesPrefix   = "file_names["
	fileNameField     = "name:"
	dirIndexField     = "dir_index:"
	endSequence       = "end_sequence"
)

// unit is the line-table text of one compilation unit, from just past its
// debug_line[...] marker up to the next marker.
type unit struct {
	marker string // offset as written, e.g. "0x0000004f"
	offset uint64
	start  int // byte offset of text within the dump
	text   string
}

// row is a parsed line-table row with its file index already resolved.
type row struct {
	file    string
	address int64
	line    int32
	column  int32
	eos     bool
}

// segment splits the dump at debug_line[0x...] markers. The text before the
// first marker is the .debug_info rendering. No markers means no units.
func segment(text string) (string, []unit) {
	var units []unit
	infoEnd := -1

	pos := 0
	for {
		i := strings.Index(text[pos:], markerPrefix)
		if i < 0 {
			break
		}
		at := pos + i
		hexStart := at + len(markerPrefix)
		marker, ok := scanMarker(text[hexStart:])
		if !ok {
			pos = hexStart
			continue
		}

		if infoEnd < 0 {
			infoEnd = at
		} else {
			prev := &units[len(units)-1]
			prev.text = text[prev.start:at]
		}

		end := hexStart + len(marker) + 1
		units = append(units, unit{
			marker: marker,
			offset: parseHex(marker[2:]),
			start:  end,
		})
		pos = end
	}

	if infoEnd < 0 {
		return text, nil
	}
	last := &units[len(units)-1]
	last.text = text[last.start:]
	return text[:infoEnd], units
}

// scanMarker matches "0x<hex>]" at the start of s and returns "0x<hex>".
func scanMarker(s string) (string, bool) {
	if !strings.HasPrefix(s, "0x") {
		return "", false
	}
	n := 2
	for n < len(s) && isHexDigit(s[n]) {
		n++
	}
	if n >= len(s) || s[n] != ']' {
		return "", false
	}
	return s[:n], true
}

// compDirs maps each DW_AT_stmt_list offset to the DW_AT_comp_dir of the
// same DIE. Attribute order within the DIE does not matter; the first DIE
// claiming an offset wins.
func compDirs(info string) map[uint64]string {
	dirs := make(map[uint64]string)

	var (
		stmt    uint64
		dir     string
		hasStmt bool
		hasDir  bool
	)
	eachLine(info, 0, func(_ int, line string) {
		t := strings.TrimSpace(line)
		switch {
		case isDIEHeader(t):
			hasStmt, hasDir = false, false
			return
		case strings.HasPrefix(t, stmtListAttr):
			stmt, hasStmt = parenHex(t[len(stmtListAttr):])
		case strings.HasPrefix(t, compDirAttr):
			dir, hasDir = lastQuoted(t[len(compDirAttr):])
		default:
			return
		}
		if hasStmt && hasDir {
			if _, seen := dirs[stmt]; !seen {
				dirs[stmt] = dir
			}
		}
	})
	return dirs
}

// tokenize walks one unit's text: directory table, file table, then rows.
// The tables are local to the unit.
func tokenize(u unit, compDir string) ([]row, error) {
	dirs := map[uint64]string{0: compDir}
	files := make(map[uint64]string)

	var (
		rows    []row
		pending struct {
			index  uint64
			name   string
			active bool
			named  bool
		}
		firstErr error
	)

	eachLine(u.text, u.start, func(off int, line string) {
		if firstErr != nil {
			return
		}
		line = strings.TrimRight(line, "\r")

		if strings.HasPrefix(line, "0x") {
			f, ok, err := parseRow(line, off)
			if err != nil {
				firstErr = err
				return
			}
			if !ok {
				return
			}
			path, declared := files[f.file]
			if !declared {
				firstErr = errors.New(errors.PhaseExtract, errors.KindInvalidData).
					Offset(off).
					Detail("row references undeclared file index %d in unit %s", f.file, u.marker).
					Build()
				return
			}
			rows = append(rows, row{
				file:    path,
				address: f.address,
				line:    f.line,
				column:  f.column,
				eos:     f.eos,
			})
			return
		}

		t := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(t, includeDirsPrefix):
			idx, rest, ok := bracketIndex(t[len(includeDirsPrefix):])
			if !ok {
				return
			}
			if dir, ok := lastQuoted(rest); ok {
				dirs[idx] = dir
			}

		case strings.HasPrefix(t, fileNamesPrefix):
			idx, _, ok := bracketIndex(t[len(fileNamesPrefix):])
			pending.index, pending.name = idx, ""
			pending.active, pending.named = ok, false

		case pending.active && strings.HasPrefix(t, fileNameField):
			pending.name, pending.named = lastQuoted(t[len(fileNameField):])

		case pending.active && pending.named && strings.HasPrefix(t, dirIndexField):
			d, err := strconv.ParseUint(strings.TrimSpace(t[len(dirIndexField):]), 10, 64)
			if err != nil {
				return
			}
			files[pending.index] = resolvePath(dirs, d, pending.name, u.marker)
			pending.active = false
		}
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return rows, nil
}

func resolvePath(dirs map[uint64]string, index uint64, name, marker string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	dir, ok := dirs[index]
	if !ok {
		Logger().Debug("file references undeclared include directory",
			zap.String("unit", marker),
			zap.Uint64("dir_index", index),
			zap.String("name", name))
		return name
	}
	// Directory 0 is "" without a DW_AT_comp_dir, giving "/name".
	return dir + "/" + name
}

type rowFields struct {
	address int64
	file    uint64
	line    int32
	column  int32
	eos     bool
}

// parseRow reads "0x<address> <line> <column> <file> ... [end_sequence]".
// Lines that do not have that shape are not rows and report ok=false.
func parseRow(line string, off int) (rowFields, bool, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return rowFields{}, false, nil
	}
	hex := fields[0][2:]
	if hex == "" || !isHex(hex) || !isDigits(fields[1]) || !isDigits(fields[2]) || !isDigits(fields[3]) {
		return rowFields{}, false, nil
	}

	addr, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return rowFields{}, false, errors.Overflow(errors.PhaseExtract, off, fields[0], "u64")
	}
	address, err := safecast.Conv[int64](addr)
	if err != nil {
		return rowFields{}, false, errors.Overflow(errors.PhaseExtract, off, fields[0], "int64")
	}
	ln, err := parseInt32(fields[1], off)
	if err != nil {
		return rowFields{}, false, err
	}
	col, err := parseInt32(fields[2], off)
	if err != nil {
		return rowFields{}, false, err
	}
	file, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return rowFields{}, false, errors.Overflow(errors.PhaseExtract, off, fields[3], "u64")
	}

	return rowFields{
		address: address,
		file:    file,
		line:    ln,
		column:  col,
		eos:     slices.Contains(fields[4:], endSequence),
	}, true, nil
}

func parseInt32(s string, off int) (int32, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Overflow(errors.PhaseExtract, off, s, "u64")
	}
	n, err := safecast.Conv[int32](v)
	if err != nil {
		return 0, errors.Overflow(errors.PhaseExtract, off, v, "int32")
	}
	return n, nil
}

// eachLine calls fn for every line of s with the line's absolute offset.
func eachLine(s string, base int, fn func(off int, line string)) {
	pos := 0
	for pos < len(s) {
		end := strings.IndexByte(s[pos:], '\n')
		if end < 0 {
			fn(base+pos, s[pos:])
			return
		}
		fn(base+pos, s[pos:pos+end])
		pos += end + 1
	}
}

// isDIEHeader matches "0x0000000b: DW_TAG_...".
func isDIEHeader(t string) bool {
	if !strings.HasPrefix(t, "0x") {
		return false
	}
	i := strings.IndexByte(t, ':')
	return i > 2 && isHex(t[2:i])
}

// parenHex reads the hex value of "(0x...)".
func parenHex(s string) (uint64, bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return 0, false
	}
	end := strings.IndexByte(s[open:], ')')
	if end < 0 {
		return 0, false
	}
	v := strings.TrimSpace(s[open+1 : open+end])
	if !strings.HasPrefix(v, "0x") || !isHex(v[2:]) {
		return 0, false
	}
	n, err := strconv.ParseUint(v[2:], 16, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// lastQuoted returns the last double-quoted string in s. DWARF 5 dumps
// render string forms as `.debug_line_str[0x...] = "value"`.
func lastQuoted(s string) (string, bool) {
	j := strings.LastIndexByte(s, '"')
	if j <= 0 {
		return "", false
	}
	i := strings.LastIndexByte(s[:j], '"')
	if i < 0 {
		return "", false
	}
	return s[i+1 : j], true
}

// bracketIndex reads "  N]" and returns N and the text after the bracket.
func bracketIndex(s string) (uint64, string, bool) {
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return 0, "", false
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s[:end]), 10, 64)
	if err != nil {
		return 0, "", false
	}
	return n, s[end+1:], true
}

func parseHex(s string) uint64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0
	}
	return n
}

func isHexDigit(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
