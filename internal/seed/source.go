package seed

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/rollcall/internal/models"
	"github.com/starford/rollcall/internal/storage"
)

// Source is a seed file or a directory of seed files.
type Source struct {
	store storage.Provider
	root  string // absolute directory watched for changes
	rel   string // file relative to root, empty for the whole directory
}

// Open resolves path to a Source. path may name a seed file or a directory.
func Open(path string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("seed: stat %s: %w", path, err)
	}
	dir, rel := path, ""
	if !info.IsDir() {
		if !storage.IsSeedFile(path) {
			return nil, fmt.Errorf("seed: unsupported file type: %s", path)
		}
		dir, rel = filepath.Dir(path), filepath.Base(path)
	}
	fs, err := storage.NewFS(dir)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return &Source{store: fs, root: fs.Root(), rel: rel}, nil
}

// NewSource returns a Source reading rel (or every seed file when rel is
// empty) from store. root is the directory Watch observes.
func NewSource(store storage.Provider, root, rel string) *Source {
	return &Source{store: store, root: root, rel: rel}
}

// Root returns the directory holding the seed files.
func (s *Source) Root() string {
	return s.root
}

// Files returns the seed files making up this source. A single-file source
// only touches that file.
func (s *Source) Files() ([]storage.FileInfo, error) {
	if s.rel == "" {
		return s.store.List("")
	}
	f, err := s.store.Stat(s.rel)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return []storage.FileInfo{f}, nil
}

// Load reads and validates every seed file and returns the merged roster.
func (s *Source) Load() (models.Roster, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}
	rosters := make([]models.Roster, 0, len(files))
	for _, f := range files {
		data, err := s.store.Read(f.Path)
		if err != nil {
			return nil, err
		}
		r, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path, err)
		}
		rosters = append(rosters, r)
	}
	return Merge(rosters...)
}

// fingerprint summarises the checksums of the source files so that Watch can
// skip events that did not change any content.
func (s *Source) fingerprint() (string, error) {
	files, err := s.Files()
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(files))
	for _, f := range files {
		parts = append(parts, f.Path+"="+f.Checksum)
	}
	return strings.Join(parts, ";"), nil
}
