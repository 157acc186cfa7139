package sourcemap_test

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-sourcemap/errors"
	"github.com/wippyai/wasm-sourcemap/sourcemap"
)

func TestEncodeVLQ(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "A"},
		{1, "C"},
		{-1, "D"},
		{2, "E"},
		{15, "e"},
		{-15, "f"},
		{16, "gB"},
		{-16, "hB"},
		{123, "2H"},
		{0x110, "gR"},
		{math.MinInt64, "h" + strings.Repeat("g", 11) + "Q"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sourcemap.EncodeVLQ(tt.n), "EncodeVLQ(%d)", tt.n)

		got, next, err := sourcemap.DecodeVLQ(tt.want, 0)
		require.NoError(t, err)
		assert.Equal(t, tt.n, got)
		assert.Equal(t, len(tt.want), next)
	}
}

func TestVLQRoundTrip(t *testing.T) {
	values := []int64{math.MaxInt64, math.MinInt64, math.MinInt64 + 1, math.MaxInt32, math.MinInt32}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		values = append(values, rng.Int63n(1<<40)-(1<<39))
	}

	var s []byte
	for _, v := range values {
		s = sourcemap.AppendVLQ(s, v)
	}

	pos := 0
	for _, want := range values {
		got, next, err := sourcemap.DecodeVLQ(string(s), pos)
		require.NoError(t, err)
		require.Equal(t, want, got)
		pos = next
	}
	assert.Equal(t, len(s), pos)
}

func TestDecodeVLQErrors(t *testing.T) {
	_, _, err := sourcemap.DecodeVLQ("g", 0)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseEncode, Kind: errors.KindTruncated})

	_, _, err = sourcemap.DecodeVLQ("A!", 1)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseEncode, Kind: errors.KindInvalidData})

	_, _, err = sourcemap.DecodeVLQ(strings.Repeat("g", 14)+"A", 0)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseEncode, Kind: errors.KindOverflow})

	// 2^63 fits only as a negative value.
	_, _, err = sourcemap.DecodeVLQ("g"+strings.Repeat("g", 11)+"Q", 0)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseEncode, Kind: errors.KindOverflow})

	// bits above 2^63 in the last group
	_, _, err = sourcemap.DecodeVLQ("g"+strings.Repeat("g", 11)+"R", 0)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseEncode, Kind: errors.KindOverflow})
}
