package sourcemap

import (
	"github.com/wippyai/wasm-sourcemap/errors"
)

// Mapping is one decoded segment with absolute positions. Line and Column
// are as Build received them, 1-based.
type Mapping struct {
	Address int64
	Source  int64
	Line    int64
	Column  int64
}

// DecodeMappings reverses the mappings encoding of Build. Segments are
// separated by commas and carry four or five fields; a fifth name index is
// read and discarded.
func DecodeMappings(mappings string) ([]Mapping, error) {
	var (
		out  []Mapping
		prev = Mapping{Line: 1, Column: 1}
		pos  int
	)
	for pos < len(mappings) {
		if mappings[pos] == ',' {
			pos++
			continue
		}

		var fields [5]int64
		n := 0
		for pos < len(mappings) && mappings[pos] != ',' {
			if n == len(fields) {
				return nil, segmentError(pos, "more than five fields")
			}
			v, next, err := DecodeVLQ(mappings, pos)
			if err != nil {
				return nil, err
			}
			fields[n] = v
			n++
			pos = next
		}
		if n != 4 && n != 5 {
			return nil, segmentError(pos, "segment needs four fields")
		}

		prev = Mapping{
			Address: prev.Address + fields[0],
			Source:  prev.Source + fields[1],
			Line:    prev.Line + fields[2],
			Column:  prev.Column + fields[3],
		}
		out = append(out, prev)
	}
	return out, nil
}

func segmentError(pos int, detail string) error {
	return errors.New(errors.PhaseEncode, errors.KindInvalidData).
		Offset(pos).
		Detail("mappings: %s", detail).
		Build()
}
