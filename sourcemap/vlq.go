package sourcemap

import (
	"math"

	"github.com/wippyai/wasm-sourcemap/errors"
)

const (
	vlqAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	vlqShift        = 5
	vlqMask         = 1<<vlqShift - 1
	vlqContinuation = 1 << vlqShift
	vlqMaxShift     = 64
)

var vlqDecode = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(vlqAlphabet); i++ {
		t[vlqAlphabet[i]] = int8(i)
	}
	return t
}()

// EncodeVLQ returns the base64 VLQ encoding of n.
func EncodeVLQ(n int64) string {
	return string(AppendVLQ(nil, n))
}

// AppendVLQ appends the base64 VLQ encoding of n to dst. The sign moves to
// the lowest bit, then the value is written five bits per character, least
// significant group first.
func AppendVLQ(dst []byte, n int64) []byte {
	// The signed form needs 65 bits for math.MinInt64, so the sign and the
	// magnitude are kept apart.
	mag, sign := uint64(n), uint64(0)
	if n < 0 {
		mag, sign = uint64(^n)+1, 1
	}

	digit := (mag&(vlqMask>>1))<<1 | sign
	mag >>= vlqShift - 1
	for mag > 0 {
		dst = append(dst, vlqAlphabet[vlqContinuation|digit])
		digit = mag & vlqMask
		mag >>= vlqShift
	}
	return append(dst, vlqAlphabet[digit])
}

// DecodeVLQ reads one VLQ value from s starting at pos and returns it with
// the position after its last character.
func DecodeVLQ(s string, pos int) (int64, int, error) {
	start := pos
	var (
		mag   uint64
		sign  bool
		shift uint
		first = true
	)
	for {
		if pos >= len(s) {
			return 0, start, errors.Truncated(errors.PhaseEncode, start, "vlq")
		}
		d := vlqDecode[s[pos]]
		if d < 0 {
			return 0, start, errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Offset(pos).
				Detail("invalid vlq character %q", s[pos]).
				Build()
		}
		pos++

		bits := uint64(d & vlqMask)
		if first {
			sign = bits&1 != 0
			mag = bits >> 1
			shift = vlqShift - 1
			first = false
		} else {
			if shift >= vlqMaxShift || bits<<shift>>shift != bits {
				return 0, start, errors.Overflow(errors.PhaseEncode, start, s[start:pos], "int64")
			}
			mag |= bits << shift
			shift += vlqShift
		}
		if d&vlqContinuation == 0 {
			break
		}
	}

	switch {
	case !sign && mag <= math.MaxInt64:
		return int64(mag), pos, nil
	case sign && mag <= 1<<63:
		return int64(^mag + 1), pos, nil
	}
	return 0, start, errors.Overflow(errors.PhaseEncode, start, s[start:pos], "int64")
}
