// Package storage is the rooted file store behind exhibit attachments and
// the import inbox.
package storage

import "time"

// FileInfo describes one stored file.
type FileInfo struct {
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Checksum string    `json:"checksum"`
	ModTime  time.Time `json:"mod_time"`
}

// Provider is the interface for rooted file operations. All paths are
// relative to the store root.
type Provider interface {
	// List returns files directly inside dir whose name ends with ext.
	// An empty ext matches every file.
	List(dir, ext string) ([]FileInfo, error)
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path.
	Write(path string, content []byte) error
	Delete(path string) error
	Move(oldPath, newPath string) error
	// Abs returns the absolute location of path on disk.
	Abs(path string) (string, error)
}
