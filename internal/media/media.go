// Package media copies card attachments into a set's media directories and
// validates incoming files against the supported formats.
package media

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cardvault/internal/cards"
	"cardvault/internal/fileutil"
	"cardvault/internal/vaulterr"
)

// Kind classifies a media file for routing and validation.
type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

var extensionsByKind = map[Kind][]string{
	KindImage: {".png", ".jpg", ".jpeg", ".bmp", ".gif"},
	KindAudio: {".wav", ".mp3", ".m4a", ".ogg"},
	KindVideo: {".mp4", ".avi", ".mov", ".mkv"},
}

// Dir returns the set-relative directory that files of this kind live in.
func (k Kind) Dir() string {
	if k == KindImage {
		return cards.MediaDirImages
	}
	return cards.MediaDirSounds
}

func (k Kind) valid() bool {
	_, ok := extensionsByKind[k]
	return ok
}

// Store copies media files into set directories under a common root.
type Store struct {
	setsDir string
}

// NewStore returns a store rooted at the repository's sets directory.
func NewStore(setsDir string) *Store {
	return &Store{setsDir: setsDir}
}

// Store copies sourcePath into <setsDir>/<setName>/<images|sounds>/ and
// returns the stored filename. Collisions get a numeric suffix; an existing
// file is never overwritten.
func (s *Store) Store(sourcePath, setName string, kind Kind) (string, error) {
	if !kind.valid() {
		return "", vaulterr.Invalidf("unknown media kind %q", kind)
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return "", vaulterr.Wrap(vaulterr.ErrIO, "media", "store", "source file not accessible", err)
	}
	if err := ValidateFile(sourcePath, kind); err != nil {
		return "", err
	}

	destDir := filepath.Join(s.setsDir, setName, kind.Dir())
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", vaulterr.Wrap(vaulterr.ErrIO, "media", "store", "create media directory", err)
	}

	name := fileutil.SafeFileName(filepath.Base(sourcePath))
	destPath, err := fileutil.UniquePath(destDir, name)
	if err != nil {
		return "", vaulterr.Wrap(vaulterr.ErrIO, "media", "store", "reserve destination name", err)
	}
	if err := fileutil.CopyFileVerified(sourcePath, destPath); err != nil {
		return "", vaulterr.Wrap(vaulterr.ErrIO, "media", "store", "copy media file", err)
	}
	return filepath.Base(destPath), nil
}

// Remove deletes a stored media file. A file that is already gone is not an
// error.
func (s *Store) Remove(setName, dir, filename string) error {
	path := filepath.Join(s.setsDir, setName, dir, filename)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return vaulterr.Wrap(vaulterr.ErrIO, "media", "remove", "delete media file", err)
	}
	return nil
}

// Path returns the absolute path of a stored media file.
func (s *Store) Path(setName, dir, filename string) string {
	return filepath.Join(s.setsDir, setName, dir, filename)
}

// ValidateFile checks that path exists, is a regular file, and carries an
// extension supported for kind.
func ValidateFile(path string, kind Kind) error {
	exts, ok := extensionsByKind[kind]
	if !ok {
		return vaulterr.Invalidf("unknown media kind %q", kind)
	}
	info, err := os.Stat(path)
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "media", "validate", "stat media file", err)
	}
	if !info.Mode().IsRegular() {
		return vaulterr.Invalidf("%s is not a regular file", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range exts {
		if ext == allowed {
			return nil
		}
	}
	return vaulterr.Invalidf("unsupported %s format %q", kind, ext)
}

// FileInfo describes a stored media file.
type FileInfo struct {
	Name string
	Size int64
	Ext  string
}

// Probe returns basic metadata for a media file.
func Probe(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, vaulterr.Wrap(vaulterr.ErrIO, "media", "probe", "stat media file", err)
	}
	return FileInfo{
		Name: info.Name(),
		Size: info.Size(),
		Ext:  strings.ToLower(filepath.Ext(path)),
	}, nil
}
