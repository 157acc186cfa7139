// Package cache stores extracted line entries on disk, keyed by the SHA-256
// of the DWARF dump they came from.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/wippyai/wasm-sourcemap/dwarf"
	"github.com/wippyai/wasm-sourcemap/errors"
)

// Increment when payload or dwarf.Entry encoding changes.
const schemaVersion uint16 = 1

// Digest identifies a DWARF dump.
type Digest [sha256.Size]byte

// Key returns the digest of a dump.
func Key(text []byte) Digest {
	return sha256.Sum256(text)
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

type payload struct {
	Schema  uint16
	Entries []dwarf.Entry
}

// Cache is a directory of msgpack files, one per dump. A nil *Cache is valid
// and never hits. Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Open creates dir if needed and returns a cache rooted there.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.IO(dir, "create cache directory", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "entries", key.String()+".mp")
}

// Get returns the entries stored for key. Payloads written with another
// schema version are reported as misses.
func (c *Cache) Get(key Digest) ([]dwarf.Entry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(key)
	f, err := os.Open(p)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, errors.IO(p, "open cache entry", err)
	}
	defer f.Close()

	var out payload
	if err := msgpack.NewDecoder(f).Decode(&out); err != nil {
		return nil, false, errors.New(errors.PhaseIO, errors.KindInvalidData).
			Path(p).
			Cause(err).
			Detail("decode cache entry").
			Build()
	}
	if out.Schema != schemaVersion {
		return nil, false, nil
	}
	return out.Entries, true, nil
}

// Put stores entries for key, replacing any previous payload atomically.
func (c *Cache) Put(key Digest, entries []dwarf.Entry) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.IO(dir, "create cache directory", err)
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return errors.IO(dir, "create temp file", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(&payload{Schema: schemaVersion, Entries: entries}); err != nil {
		return errors.New(errors.PhaseIO, errors.KindInvalidData).
			Path(p).
			Cause(err).
			Detail("encode cache entry").
			Build()
	}
	if err := f.Close(); err != nil {
		return errors.IO(f.Name(), "close temp file", err)
	}
	if err := os.Rename(f.Name(), p); err != nil {
		return errors.IO(p, "rename temp file", err)
	}
	return nil
}
