package wasmsourcemap

import (
	"os"

	"github.com/wippyai/wasm-sourcemap/errors"
)

// SourceReader reads source files whose contents are embedded in a map.
type SourceReader interface {
	ReadTextFile(path string) (string, error)
}

// FileSystem is the file access a conversion run needs.
type FileSystem interface {
	SourceReader
	ReadWholeFile(path string) ([]byte, error)
	WriteWholeFile(path string, data []byte) error
}

// OSFileSystem reads and writes the host file system.
type OSFileSystem struct{}

var _ FileSystem = OSFileSystem{}

// ReadWholeFile returns the contents of path.
func (OSFileSystem) ReadWholeFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(path, "read", err)
	}
	return data, nil
}

// ReadTextFile returns the contents of path as a string.
func (fs OSFileSystem) ReadTextFile(path string) (string, error) {
	data, err := fs.ReadWholeFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteWholeFile replaces path with data.
func (OSFileSystem) WriteWholeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.IO(path, "write", err)
	}
	return nil
}
