package sourcemap

import (
	"encoding/json"

	"go.uber.org/zap"

	wasmsourcemap "github.com/wippyai/wasm-sourcemap"
	"github.com/wippyai/wasm-sourcemap/dwarf"
	"github.com/wippyai/wasm-sourcemap/errors"
)

// Version is the source map format revision produced by Build.
const Version = 3

// SourceMap is a version 3 source map. Generated positions are byte offsets
// within the wasm module on generated line 0.
type SourceMap struct {
	Version        int       `json:"version"`
	Names          []string  `json:"names"`
	Sources        []string  `json:"sources"`
	SourcesContent []*string `json:"sourcesContent"`
	Mappings       string    `json:"mappings"`
}

// BuildOptions configures Build.
type BuildOptions struct {
	// Reader supplies file contents when EmbedSources is set.
	Reader wasmsourcemap.SourceReader

	// BasePath makes source names beneath it relative.
	BasePath string

	// Prefixes are "old=new" or "old" rewrites of source names,
	// applied after BasePath. The first match wins.
	Prefixes []string

	EmbedSources bool
}

// Build encodes entries as a source map. codeOffset is the module offset of
// the code section body and is added to every entry address.
//
// Entries with line 0 are skipped and column 0 is written as 1. Sources are
// listed in first-seen order. A source that cannot be read while embedding
// gets a null content slot.
func Build(entries []dwarf.Entry, codeOffset int64, opts BuildOptions) (*SourceMap, error) {
	if opts.EmbedSources && opts.Reader == nil {
		return nil, errors.InvalidInput(errors.PhaseEncode, "embedding sources requires a source reader")
	}
	names, err := newRenamer(opts.BasePath, opts.Prefixes)
	if err != nil {
		return nil, err
	}

	sm := &SourceMap{
		Version: Version,
		Names:   []string{},
		Sources: []string{},
	}
	if opts.EmbedSources {
		sm.SourcesContent = []*string{}
	}

	index := make(map[string]int64)
	buf := make([]byte, 0, len(entries)*8)

	var (
		prevAddr, prevSource int64
		prevLine, prevColumn int64 = 1, 1
		segments, skipped    int
	)
	for _, e := range entries {
		if e.Line == 0 {
			skipped++
			continue
		}
		column := int64(e.Column)
		if column == 0 {
			column = 1
		}
		line := int64(e.Line)
		addr := e.Address + codeOffset

		file := NormalizePath(e.FilePath)
		name := names.name(file)
		source, ok := index[name]
		if !ok {
			source = int64(len(sm.Sources))
			index[name] = source
			sm.Sources = append(sm.Sources, name)
			if opts.EmbedSources {
				sm.SourcesContent = append(sm.SourcesContent, readSource(opts.Reader, file))
			}
		}

		if segments > 0 {
			buf = append(buf, ',')
		}
		buf = AppendVLQ(buf, addr-prevAddr)
		buf = AppendVLQ(buf, source-prevSource)
		buf = AppendVLQ(buf, line-prevLine)
		buf = AppendVLQ(buf, column-prevColumn)
		segments++

		prevAddr, prevSource, prevLine, prevColumn = addr, source, line, column
	}
	sm.Mappings = string(buf)

	Logger().Debug("built source map",
		zap.Int("segments", segments),
		zap.Int("sources", len(sm.Sources)),
		zap.Int("skipped", skipped),
		zap.Int64("code_offset", codeOffset))
	return sm, nil
}

func readSource(r wasmsourcemap.SourceReader, path string) *string {
	content, err := r.ReadTextFile(path)
	if err != nil {
		Logger().Warn("source not embedded", zap.String("path", path), zap.Error(err))
		return nil
	}
	return &content
}

// Marshal returns the JSON form of the map.
func (m *SourceMap) Marshal() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "marshal source map")
	}
	return data, nil
}

// Parse decodes a JSON source map and checks its version.
func Parse(data []byte) (*SourceMap, error) {
	var m SourceMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "parse source map")
	}
	if m.Version != Version {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Value(m.Version).
			Detail("unsupported source map version %d", m.Version).
			Build()
	}
	return &m, nil
}
