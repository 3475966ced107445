// Package storage provides read access to the seed directory.
package storage

import "time"

// FileInfo describes one seed file.
type FileInfo struct {
	Path      string    `json:"path"` // relative to the root
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for seed file access.
type Provider interface {
	// List returns every seed file under dir (relative to root), sorted by path.
	List(dir string) ([]FileInfo, error)
	// Stat describes the single seed file at path (relative to root).
	Stat(path string) (FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
}

// seedExts are the file extensions recognised as seed files.
var seedExts = []string{".yaml", ".yml", ".json"}
