package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aymanbagabas/go-udiff"
	"gopkg.in/yaml.v3"
)

// DefaultBackups is how many timestamped backups Save keeps around.
const DefaultBackups = 10

// Store reads and writes the inventory YAML file.
type Store struct {
	path    string
	backups int
}

// NewStore creates a store for the given inventory file path.
func NewStore(path string) *Store {
	return &Store{path: path, backups: DefaultBackups}
}

// Path returns the inventory file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads and parses the inventory file. A missing file yields an empty
// inventory rather than an error so a fresh workspace just works.
func (s *Store) Load() (*File, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse inventory YAML: %w", err)
	}
	return &f, nil
}

// Save writes the inventory atomically: marshal, back up the current file,
// then rename a temp file into place.
func (s *Store) Save(f *File) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create inventory directory: %w", err)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal inventory: %w", err)
	}

	if err := s.backup(); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write inventory file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace inventory file: %w", err)
	}
	return nil
}

// backup copies the current file aside and prunes old backups.
func (s *Store) backup() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // nothing to back up
		}
		return fmt.Errorf("failed to read inventory for backup: %w", err)
	}

	backupDir := filepath.Join(filepath.Dir(s.path), "backups")
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("%s.%s.yaml",
		strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path)),
		time.Now().Format("2006-01-02-15-04-05"))
	if err := os.WriteFile(filepath.Join(backupDir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	return s.pruneBackups(backupDir)
}

func (s *Store) pruneBackups(backupDir string) error {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	if len(names) <= s.backups {
		return nil
	}
	// Backup names sort chronologically, oldest first.
	sort.Strings(names)
	for _, name := range names[:len(names)-s.backups] {
		if err := os.Remove(filepath.Join(backupDir, name)); err != nil {
			return err
		}
	}
	return nil
}

// Baseline is a point-in-time snapshot of the inventory plus a fingerprint
// of the on-disk state it was read from. The staging gate compares
// fingerprints to detect external mutation between validations.
type Baseline struct {
	File        *File
	Fingerprint string
}

// Baseline loads the inventory and fingerprints the file it came from.
func (s *Store) Baseline() (*Baseline, error) {
	f, err := s.Load()
	if err != nil {
		return nil, err
	}
	return &Baseline{File: f, Fingerprint: s.fingerprint()}, nil
}

// fingerprint derives a cheap change marker from file metadata. An absent
// file fingerprints as "empty" so first writes still validate.
func (s *Store) fingerprint() string {
	info, err := os.Stat(s.path)
	if err != nil {
		return "empty"
	}
	return fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size())
}

// Diff renders a unified diff between the current on-disk YAML and the
// given next state, for commit previews.
func (s *Store) Diff(next *File) (string, error) {
	current, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read inventory file: %w", err)
	}

	proposed, err := yaml.Marshal(next)
	if err != nil {
		return "", fmt.Errorf("failed to marshal inventory: %w", err)
	}

	name := filepath.Base(s.path)
	edits := udiff.Strings(string(current), string(proposed))
	unified, err := udiff.ToUnified("a/"+name, "b/"+name, string(current), edits, 3)
	if err != nil {
		return "", fmt.Errorf("failed to build diff: %w", err)
	}
	return unified, nil
}
