// Package sets is the on-disk repository for flashcard sets. Each set lives
// in its own directory under the sets root:
//
//	<root>/<name>/set.json
//	<root>/<name>/cards.json
//	<root>/<name>/images/
//	<root>/<name>/sounds/
//
// The directory name is authoritative; set.json carries a copy of the name
// for display and import bookkeeping.
package sets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"cardvault/internal/cards"
	"cardvault/internal/fileutil"
	"cardvault/internal/logging"
	"cardvault/internal/vaulterr"
)

const (
	MetadataFile = "set.json"
	CardsFile    = "cards.json"
)

// Store reads and writes sets under a single root directory. Loaded sets are
// cached; the cache and the disk state are mutated under one lock so they
// cannot diverge.
type Store struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*cards.Set
}

// NewStore opens the repository rooted at dir, creating it if needed.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrIO, "sets", "open", "create sets directory", err)
	}
	return &Store{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "sets"),
		cache:  make(map[string]*cards.Set),
	}, nil
}

// Dir returns the repository root.
func (s *Store) Dir() string { return s.dir }

// SetPath returns the directory of the named set.
func (s *Store) SetPath(name string) string {
	return filepath.Join(s.dir, name)
}

// List returns the names of all sets whose directory contains a set.json,
// sorted lexicographically.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrIO, "sets", "list", "read sets directory", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dir, entry.Name(), MetadataFile)); err == nil {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether a set of this name is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(s.dir, name, MetadataFile))
	return err == nil
}

// LoadMetadata parses only the set.json of the named set.
func (s *Store) LoadMetadata(name string) (cards.Metadata, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name, MetadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cards.Metadata{}, vaulterr.NotFoundf("set %q not found", name)
		}
		return cards.Metadata{}, vaulterr.Wrap(vaulterr.ErrIO, "sets", "metadata", "read set metadata", err)
	}
	meta, err := cards.DecodeMetadata(data)
	if err != nil {
		return cards.Metadata{}, fmt.Errorf("set %q: %w", name, err)
	}
	return meta, nil
}

// Load returns the full set, reading from the cache when possible. A disk
// load stamps last_accessed on the returned set. Failures leave the cache
// untouched.
func (s *Store) Load(name string) (*cards.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(name)
}

func (s *Store) loadLocked(name string) (*cards.Set, error) {
	if set, ok := s.cache[name]; ok {
		return set, nil
	}

	setDir := filepath.Join(s.dir, name)
	metaData, err := os.ReadFile(filepath.Join(setDir, MetadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, vaulterr.NotFoundf("set %q not found", name)
		}
		return nil, vaulterr.Wrap(vaulterr.ErrIO, "sets", "load", "read set metadata", err)
	}

	var cardsData []byte
	cardsData, err = os.ReadFile(filepath.Join(setDir, CardsFile))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, vaulterr.Wrap(vaulterr.ErrIO, "sets", "load", "read cards", err)
		}
		cardsData = nil
	}

	set, err := cards.FromFiles(metaData, cardsData)
	if err != nil {
		return nil, fmt.Errorf("set %q: %w", name, err)
	}
	set.TouchAccessed()

	s.cache[name] = set
	return set, nil
}

// Save writes both files of a set and updates the cache. Set directories and
// media subdirectories are created as needed.
func (s *Store) Save(set *cards.Set) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(set)
}

func (s *Store) saveLocked(set *cards.Set) error {
	setDir := filepath.Join(s.dir, set.Name)
	for _, dir := range []string{setDir, filepath.Join(setDir, cards.MediaDirImages), filepath.Join(setDir, cards.MediaDirSounds)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return vaulterr.Wrap(vaulterr.ErrIO, "sets", "save", "create set directory", err)
		}
	}

	metaData, err := set.EncodeMetadata()
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "sets", "save", "encode metadata", err)
	}
	cardsData, err := set.EncodeCards()
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "sets", "save", "encode cards", err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(setDir, MetadataFile), metaData, 0o644); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "sets", "save", "write set metadata", err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(setDir, CardsFile), cardsData, 0o644); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "sets", "save", "write cards", err)
	}

	s.cache[set.Name] = set
	s.logger.Debug("set saved", logging.String("set", set.Name), logging.Int("cards", set.CardCount()))
	return nil
}

// Create validates the name, builds a set with one blank card, and persists
// it.
func (s *Store) Create(name, description, iconSet string, tags []string, difficulty int) (*cards.Set, error) {
	if err := s.ValidateName(name); err != nil {
		return nil, err
	}
	set := cards.NewSet(name, description)
	if iconSet != "" {
		set.IconSet = iconSet
	}
	if tags != nil {
		set.Tags = append([]string(nil), tags...)
	}
	if difficulty != 0 {
		if difficulty < 1 || difficulty > 5 {
			return nil, vaulterr.Invalidf("difficulty level must be between 1 and 5")
		}
		set.DifficultyLevel = difficulty
	}
	set.NewEmptyCard()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveLocked(set); err != nil {
		return nil, err
	}
	s.logger.Info("set created", logging.String("set", name))
	return set, nil
}

// Delete removes the set directory and evicts the cache entry.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	setDir := filepath.Join(s.dir, name)
	if _, err := os.Stat(setDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return vaulterr.NotFoundf("set %q not found", name)
		}
		return vaulterr.Wrap(vaulterr.ErrIO, "sets", "delete", "stat set directory", err)
	}
	if err := os.RemoveAll(setDir); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "sets", "delete", "remove set directory", err)
	}
	delete(s.cache, name)
	s.logger.Info("set deleted", logging.String("set", name))
	return nil
}

// Rename moves the set directory and rewrites the stored name. Renaming a
// set to its current name is a no-op.
func (s *Store) Rename(oldName, newName string) error {
	if oldName == newName {
		return nil
	}
	if err := s.ValidateName(newName); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	oldDir := filepath.Join(s.dir, oldName)
	newDir := filepath.Join(s.dir, newName)
	if _, err := os.Stat(oldDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return vaulterr.NotFoundf("set %q not found", oldName)
		}
		return vaulterr.Wrap(vaulterr.ErrIO, "sets", "rename", "stat set directory", err)
	}
	if _, err := os.Stat(newDir); err == nil {
		return vaulterr.Invalidf("set %q already exists", newName)
	}
	if err := fileutil.MoveDir(oldDir, newDir); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "sets", "rename", "move set directory", err)
	}
	if err := s.rewriteStoredName(newName); err != nil {
		return err
	}

	if set, ok := s.cache[oldName]; ok {
		delete(s.cache, oldName)
		set.Name = newName
		s.cache[newName] = set
	}
	s.logger.Info("set renamed", logging.String("from", oldName), logging.String("to", newName))
	return nil
}

// rewriteStoredName syncs set.json's name field with the directory name.
func (s *Store) rewriteStoredName(name string) error {
	path := filepath.Join(s.dir, name, MetadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "sets", "rename", "read set metadata", err)
	}
	meta, err := cards.DecodeMetadata(data)
	if err != nil {
		return err
	}
	meta.Name = name
	return writeMetadata(path, meta)
}

// UpdateMetadata applies a patch to the stored metadata and the cached set
// in one critical section, stamping last_modified.
func (s *Store) UpdateMetadata(name string, patch cards.MetadataPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.loadLocked(name)
	if err != nil {
		return err
	}
	if err := set.UpdateMetadata(patch); err != nil {
		return err
	}
	path := filepath.Join(s.dir, name, MetadataFile)
	if err := writeMetadata(path, set.Metadata()); err != nil {
		// Reload on next access rather than serving state disk rejected.
		delete(s.cache, name)
		return err
	}
	return nil
}

func writeMetadata(path string, meta cards.Metadata) error {
	if meta.Tags == nil {
		meta.Tags = []string{}
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "sets", "save", "encode metadata", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "sets", "save", "write set metadata", err)
	}
	return nil
}

// ValidateName enforces the naming rules in order: empty, length, illegal
// characters, uniqueness. The first failure wins.
func (s *Store) ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return vaulterr.Invalidf("set name cannot be empty")
	}
	if len(name) > cards.MaxNameLength {
		return vaulterr.Invalidf("set name cannot exceed %d characters", cards.MaxNameLength)
	}
	if strings.ContainsAny(name, cards.InvalidNameChars) {
		return vaulterr.Invalidf("set name contains invalid characters: %s", cards.InvalidNameChars)
	}
	if s.Exists(name) {
		return vaulterr.Invalidf("set %q already exists", name)
	}
	return nil
}

// CheckIntegrity walks every set and accumulates structural issues rather
// than stopping at the first.
func (s *Store) CheckIntegrity() ([]string, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}
	var issues []string
	for _, name := range names {
		setDir := filepath.Join(s.dir, name)
		if _, err := os.Stat(filepath.Join(setDir, MetadataFile)); err != nil {
			issues = append(issues, fmt.Sprintf("set %q: missing %s", name, MetadataFile))
		}
		if _, err := os.Stat(filepath.Join(setDir, CardsFile)); err != nil {
			issues = append(issues, fmt.Sprintf("set %q: missing %s", name, CardsFile))
		}
		if _, err := s.LoadMetadata(name); err != nil {
			issues = append(issues, fmt.Sprintf("set %q: invalid metadata: %v", name, err))
		}
		for _, dir := range []string{cards.MediaDirImages, cards.MediaDirSounds} {
			if _, err := os.Stat(filepath.Join(setDir, dir)); err != nil {
				issues = append(issues, fmt.Sprintf("set %q: missing %s directory", name, dir))
			}
		}
	}
	return issues, nil
}

// CleanupUnusedMedia deletes media files in the set's images/ and sounds/
// directories that no block references, returning the removed filenames.
func (s *Store) CleanupUnusedMedia(name string) ([]string, error) {
	set, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	referenced := set.ReferencedMedia()

	var removed []string
	for _, dir := range []string{cards.MediaDirImages, cards.MediaDirSounds} {
		mediaDir := filepath.Join(s.dir, name, dir)
		entries, err := os.ReadDir(mediaDir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, vaulterr.Wrap(vaulterr.ErrIO, "sets", "cleanup", "read media directory", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if _, ok := referenced[entry.Name()]; ok {
				continue
			}
			if err := os.Remove(filepath.Join(mediaDir, entry.Name())); err != nil {
				return removed, vaulterr.Wrap(vaulterr.ErrIO, "sets", "cleanup", "remove media file", err)
			}
			removed = append(removed, entry.Name())
		}
	}
	if len(removed) > 0 {
		s.logger.Info("unused media removed", logging.String("set", name), logging.Int("files", len(removed)))
	}
	return removed, nil
}

// ResetCache drops every cached set. Used after wholesale vault replacement.
func (s *Store) ResetCache() {
	s.mu.Lock()
	s.cache = make(map[string]*cards.Set)
	s.mu.Unlock()
}
