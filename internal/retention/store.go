// Package retention persists spoken replies as WAV files under a bounded
// directory. When the cap is reached the oldest file goes first.
package retention

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xpanvictor/aria/pkg/Logger"
)

// Store writes reply audio into one directory and enforces a file cap.
type Store struct {
	dir      string
	maxFiles int
	counter  int
	logger   *Logger.Logger
}

// New creates the directory if needed. maxFiles zero or negative means
// unlimited.
func New(dir string, maxFiles int, logger *Logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create retention directory: %w", err)
	}
	return &Store{dir: dir, maxFiles: maxFiles, logger: logger}, nil
}

// Save writes the WAV payload and prunes the directory to the cap. The
// returned path names the new file.
func (s *Store) Save(wavData []byte) (string, error) {
	s.counter++
	name := fmt.Sprintf("reply_%s_%03d.wav", time.Now().Format("20060102_150405"), s.counter)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, wavData, 0o644); err != nil {
		return "", fmt.Errorf("save reply audio: %w", err)
	}
	s.logger.Debugf("saved reply audio: %s (%d bytes)", name, len(wavData))

	if err := s.prune(); err != nil {
		// The reply was saved; a failed prune only delays cleanup.
		s.logger.Warnf("retention prune failed: %v", err)
	}
	return path, nil
}

// Count reports how many reply files the directory currently holds.
func (s *Store) Count() (int, error) {
	files, err := s.list()
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

type entry struct {
	path    string
	modTime time.Time
}

func (s *Store) list() ([]entry, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "reply_*.wav"))
	if err != nil {
		return nil, err
	}
	entries := make([]entry, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		entries = append(entries, entry{path: m, modTime: info.ModTime()})
	}
	return entries, nil
}

// prune removes the oldest files until the directory fits the cap.
func (s *Store) prune() error {
	if s.maxFiles <= 0 {
		return nil
	}
	entries, err := s.list()
	if err != nil {
		return err
	}
	if len(entries) <= s.maxFiles {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].modTime.Equal(entries[j].modTime) {
			return entries[i].path < entries[j].path
		}
		return entries[i].modTime.Before(entries[j].modTime)
	})
	for _, e := range entries[:len(entries)-s.maxFiles] {
		if err := os.Remove(e.path); err != nil {
			return err
		}
		s.logger.Debugf("pruned old reply audio: %s", filepath.Base(e.path))
	}
	return nil
}
