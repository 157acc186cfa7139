package dwarf

import (
	"context"
	"runtime"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/wasm-sourcemap/errors"
	"github.com/wippyai/wasm-sourcemap/wasm"
)

// ExtractOptions configures Extract.
type ExtractOptions struct {
	// Jobs bounds how many units are tokenised at once.
	// Zero or less uses GOMAXPROCS.
	Jobs int
}

// Extract parses an llvm-dwarfdump rendering of .debug_info and .debug_line
// into line entries in program order.
//
// Each debug_line[0x...] marker starts a unit with its own directory and
// file tables. Units are tokenised concurrently, then merged in marker order.
// End-of-sequence rows become boundary entries one byte before the end
// address. Blocks that start too early to follow a function's size and
// locals preamble are dropped.
func Extract(ctx context.Context, text []byte, opts ExtractOptions) ([]Entry, error) {
	if !utf8.Valid(text) {
		off := firstInvalidUTF8(text)
		return nil, errors.InvalidUTF8(errors.PhaseExtract, off, text[off:])
	}

	info, units := segment(string(text))
	if len(units) == 0 {
		Logger().Debug("no debug_line markers in dump")
		return nil, nil
	}

	tables, err := tokenizeUnits(ctx, units, compDirs(info), opts.Jobs)
	if err != nil {
		return nil, err
	}

	merged := mergeUnits(tables)
	entries, dropped := pruneDeadBlocks(merged)

	Logger().Debug("extracted line entries",
		zap.Int("units", len(units)),
		zap.Int("entries", len(entries)),
		zap.Int("dropped_blocks", dropped),
		zap.Int("dropped_entries", len(merged)-len(entries)))
	return entries, nil
}

func tokenizeUnits(ctx context.Context, units []unit, dirs map[uint64]string, jobs int) ([][]row, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// each goroutine owns one slot
	results := make([][]row, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(units)))

	for i := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := tokenize(units[i], dirs[units[i].offset])
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// mergeUnits concatenates unit rows into entries. An end_sequence row at
// address A becomes an entry at A-1, unless the previously emitted entry
// already sits there, in which case that entry is marked EOS instead. The
// previous entry may belong to an earlier unit.
func mergeUnits(tables [][]row) []Entry {
	var n int
	for _, rows := range tables {
		n += len(rows)
	}
	entries := make([]Entry, 0, n)

	for _, rows := range tables {
		for _, r := range rows {
			if !r.eos {
				entries = append(entries, Entry{
					FilePath: r.file,
					Address:  r.address,
					Line:     r.line,
					Column:   r.column,
				})
				continue
			}

			end := r.address - 1
			if last := len(entries) - 1; last >= 0 && entries[last].Address == end {
				entries[last].EOS = true
				continue
			}
			entries = append(entries, Entry{
				FilePath: r.file,
				Address:  end,
				Line:     r.line,
				Column:   r.column,
				EOS:      true,
			})
		}
	}
	return entries
}

// pruneDeadBlocks removes every block, a run of entries ending at an EOS
// entry, whose first address is below the smallest offset a function body
// can start at. Entries after the last EOS are kept. It returns the
// surviving entries and the number of blocks removed.
func pruneDeadBlocks(entries []Entry) ([]Entry, int) {
	type span struct{ start, end int }

	var dead []span
	start := 0
	for i := range entries {
		if !entries[i].EOS {
			continue
		}
		if !isLiveBlock(entries[start].Address, entries[i].Address) {
			dead = append(dead, span{start, i})
		}
		start = i + 1
	}
	if len(dead) == 0 {
		return entries, 0
	}

	kept := make([]Entry, 0, len(entries))
	prev := 0
	for _, s := range dead {
		kept = append(kept, entries[prev:s.start]...)
		prev = s.end + 1
	}
	kept = append(kept, entries[prev:]...)
	return kept, len(dead)
}

// isLiveBlock reports whether a block spanning [fnStart, fnEnd] starts past
// the locals count byte and the LEB128 body size of its function. An empty
// block (fnEnd one below fnStart) is always live; a negative size counts as
// one byte.
func isLiveBlock(fnStart, fnEnd int64) bool {
	size := fnEnd - fnStart + 1
	if size == 0 {
		return true
	}
	sizeLen := 1
	if size > 0 {
		sizeLen = wasm.SizeUint(uint64(size))
	}
	return fnStart >= int64(1+sizeLen)
}

func firstInvalidUTF8(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(b)
}
