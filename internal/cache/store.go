package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/signalsfoundry/spade/timectrl"
)

// Store writes timestamped payload files.
type Store struct {
	Dir   string
	Clock timectrl.Clock
	// MaxFiles keeps at most this many files per prefix after each Save.
	// Zero disables pruning.
	MaxFiles int
}

// NewStore creates a Store that writes into dir.
func NewStore(dir string, clock timectrl.Clock, maxFiles int) *Store {
	return &Store{Dir: dir, Clock: timectrl.Or(clock), MaxFiles: maxFiles}
}

// Save writes data to <prefix><now><ext> and returns the full path. The file
// appears complete or not at all. A failed prune is reported alongside the
// path of the file that was written.
func (s *Store) Save(prefix, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}

	name := FileName(prefix, timectrl.Or(s.Clock).Now(), ext)
	path := filepath.Join(s.Dir, name)

	tmp, err := os.CreateTemp(s.Dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("renaming %s: %w", name, err)
	}

	if err := s.prune(prefix); err != nil {
		return path, err
	}
	return path, nil
}

func (s *Store) prune(prefix string) error {
	if s.MaxFiles <= 0 {
		return nil
	}
	files, err := listPayloads(s.Dir, prefix, nil)
	if err != nil {
		return err
	}
	if len(files) <= s.MaxFiles {
		return nil
	}

	for _, f := range files[:len(files)-s.MaxFiles] {
		if err := os.Remove(filepath.Join(s.Dir, f.name)); err != nil {
			return fmt.Errorf("pruning cache file %s: %w", f.name, err)
		}
	}
	return nil
}
