package sourcemap

import (
	"strings"

	"github.com/wippyai/wasm-sourcemap/errors"
)

// NormalizePath converts backslashes to slashes and removes every "../" and
// "./" occurrence. It does not resolve the path; "a/../b" becomes "a/b".
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.ReplaceAll(p, "../", "")
	return strings.ReplaceAll(p, "./", "")
}

// Prefix rewrites source names that start with Old.
type Prefix struct {
	Old string
	New string
}

// ParsePrefixes parses "old=new" values. A value without "=" removes the prefix.
func ParsePrefixes(values []string) ([]Prefix, error) {
	prefixes := make([]Prefix, 0, len(values))
	for _, v := range values {
		old, repl, _ := strings.Cut(v, "=")
		if old == "" {
			return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
				Value(v).
				Detail("source prefix %q has nothing to replace", v).
				Build()
		}
		prefixes = append(prefixes, Prefix{Old: NormalizePath(old), New: repl})
	}
	return prefixes, nil
}

// renamer maps a normalized file path to the name listed in sources.
type renamer struct {
	base     string
	prefixes []Prefix
}

func newRenamer(basePath string, prefixes []string) (*renamer, error) {
	parsed, err := ParsePrefixes(prefixes)
	if err != nil {
		return nil, err
	}
	base := NormalizePath(basePath)
	if len(base) > 1 {
		base = strings.TrimSuffix(base, "/")
	}
	return &renamer{base: base, prefixes: parsed}, nil
}

// name makes p relative to the base path when p lies beneath it, then
// applies the first matching prefix.
func (r *renamer) name(p string) string {
	if r.base != "" {
		switch {
		case r.base == "/":
			p = strings.TrimPrefix(p, "/")
		case strings.HasPrefix(p, r.base+"/"):
			p = p[len(r.base)+1:]
		}
	}
	for _, pre := range r.prefixes {
		if rest, ok := strings.CutPrefix(p, pre.Old); ok {
			return pre.New + rest
		}
	}
	return p
}
