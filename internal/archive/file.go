// Package archive enumerates candidate waveform files from a disk archive
// in one of several modes, filters them by glob pattern, and provides the
// lazily-hashed File type shared by the rest of the pipeline.
package archive

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a physical waveform file. Its MD5 checksum is computed lazily
// and cached, since most pipeline stages never need it (only the Change
// Detector and the granule's files list do).
type File struct {
	Path string // full filesystem path

	once     sync.Once
	checksum string
	hashErr  error
}

// NewFile wraps a full path into a File.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Basename is the fileId: unique within the catalog.
func (f *File) Basename() string {
	return filepath.Base(f.Path)
}

// Checksum returns the hex-encoded MD5 of the file's bytes, computed once
// and cached for the lifetime of the File.
func (f *File) Checksum() (string, error) {
	f.once.Do(func() {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			f.hashErr = fmt.Errorf("archive: checksum %s: %w", f.Path, err)
			return
		}
		sum := md5.Sum(data)
		f.checksum = hex.EncodeToString(sum[:])
	})
	return f.checksum, f.hashErr
}

// Exists reports whether the file is present on disk.
func (f *File) Exists() bool {
	_, err := os.Stat(f.Path)
	return err == nil
}
