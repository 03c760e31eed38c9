// Package archive packages sets and whole vaults as ZIP files and stages
// incoming archives for inspection before they are committed.
package archive

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cardvault/internal/cards"
	"cardvault/internal/fileutil"
	"cardvault/internal/icons"
	"cardvault/internal/logging"
	"cardvault/internal/sets"
	"cardvault/internal/vaulterr"
)

// Packager moves sets between the repository and ZIP archives.
type Packager struct {
	store   *sets.Store
	icons   *icons.Registry
	staging string
	logger  *slog.Logger
}

// NewPackager wires a packager over the repository and icon registry.
// Staged imports are extracted under stagingRoot.
func NewPackager(store *sets.Store, registry *icons.Registry, stagingRoot string, logger *slog.Logger) *Packager {
	return &Packager{
		store:   store,
		icons:   registry,
		staging: stagingRoot,
		logger:  logging.NewComponentLogger(logger, "archive"),
	}
}

// ExportSet writes the named set as a ZIP at destPath. The set's files sit
// at relative paths in the archive root; the set's icon set, when it exists,
// is bundled under icons/<name>/. Unreadable metadata skips the icon bundle
// rather than failing the export.
func (p *Packager) ExportSet(name, destPath string) error {
	setDir := p.store.SetPath(name)
	if _, err := os.Stat(setDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return vaulterr.NotFoundf("set %q not found", name)
		}
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "export", "stat set directory", err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "export", "create archive", err)
	}
	zw := zip.NewWriter(out)

	err = func() error {
		if err := addTree(zw, setDir, ""); err != nil {
			return err
		}
		meta, err := p.store.LoadMetadata(name)
		if err != nil {
			// Export the set files even when metadata cannot name an icon
			// set.
			return nil
		}
		iconDir := filepath.Join(p.icons.Dir(), meta.IconSet)
		if info, err := os.Stat(iconDir); err == nil && info.IsDir() {
			return addTree(zw, iconDir, filepath.Join("icons", meta.IconSet))
		}
		return nil
	}()
	if err != nil {
		zw.Close()
		out.Close()
		os.Remove(destPath)
		return err
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "export", "finalize archive", err)
	}
	if err := out.Close(); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "export", "close archive", err)
	}
	p.logger.Info("set exported", logging.String("set", name), logging.String("path", destPath))
	return nil
}

// ExportVault writes every set under sets/ and every icon set under icons/
// into one archive.
func (p *Packager) ExportVault(destPath string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "export", "create archive", err)
	}
	zw := zip.NewWriter(out)

	err = func() error {
		if err := addTree(zw, p.store.Dir(), "sets"); err != nil {
			return err
		}
		return addTree(zw, p.icons.Dir(), "icons")
	}()
	if err != nil {
		zw.Close()
		out.Close()
		os.Remove(destPath)
		return err
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "export", "finalize archive", err)
	}
	if err := out.Close(); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "export", "close archive", err)
	}
	p.logger.Info("vault exported", logging.String("path", destPath))
	return nil
}

// StagedSet is an extracted single-set archive awaiting commit. Close
// removes the staging directory; callers must Close on every path.
type StagedSet struct {
	Name      string
	CardCount int
	IconSet   string
	Dir       string
	IconDirs  map[string]string

	root string
}

// Close removes the staging directory.
func (s *StagedSet) Close() error {
	if s.root == "" {
		return nil
	}
	err := os.RemoveAll(s.root)
	s.root = ""
	return err
}

// StageImport extracts a set archive to a staging directory and reads
// enough of its metadata to drive a conflict prompt.
func (p *Packager) StageImport(zipPath string) (*StagedSet, error) {
	root, err := p.extractToStaging(zipPath)
	if err != nil {
		return nil, err
	}

	metaPath, err := findFile(root, sets.MetadataFile)
	if err != nil {
		os.RemoveAll(root)
		return nil, vaulterr.Invalidf("invalid set archive: no %s found", sets.MetadataFile)
	}
	data, err := os.ReadFile(metaPath)
	if err != nil {
		os.RemoveAll(root)
		return nil, vaulterr.Wrap(vaulterr.ErrIO, "archive", "stage", "read staged metadata", err)
	}
	meta, err := cards.DecodeMetadata(data)
	if err != nil {
		os.RemoveAll(root)
		return nil, err
	}

	staged := &StagedSet{
		Name:      meta.Name,
		CardCount: meta.CardCount,
		IconSet:   meta.IconSet,
		Dir:       filepath.Dir(metaPath),
		IconDirs:  map[string]string{},
		root:      root,
	}
	iconsDir := filepath.Join(root, "icons")
	if entries, err := os.ReadDir(iconsDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				staged.IconDirs[entry.Name()] = filepath.Join(iconsDir, entry.Name())
			}
		}
	}
	return staged, nil
}

// CommitSetImport copies a staged set into the repository under name. When
// the name differs from the archived one, the stored metadata is rewritten
// with the new name and a fresh last_modified. Bundled icon sets are
// imported unless a valid set of the same name already exists.
func (p *Packager) CommitSetImport(staged *StagedSet, name string) error {
	if name == "" {
		name = staged.Name
	}
	if err := p.store.ValidateName(name); err != nil {
		return err
	}

	destDir := p.store.SetPath(name)
	if err := fileutil.CopyTree(staged.Dir, destDir); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "import", "copy staged set", err)
	}
	if name != staged.Name {
		if err := rewriteSetName(destDir, name); err != nil {
			os.RemoveAll(destDir)
			return err
		}
	}

	for iconName, dir := range staged.IconDirs {
		if err := p.icons.ImportDir(dir, iconName); err != nil {
			p.logger.Warn("bundled icon set skipped",
				logging.String("name", iconName), logging.Error(err))
		}
	}
	p.logger.Info("set imported", logging.String("set", name))
	return nil
}

// SuggestName walks "<name> 2", "<name> 3", ... until an unused name is
// found.
func (p *Packager) SuggestName(name string) string {
	return suggestName(name, p.store.Exists)
}

func suggestName(name string, taken func(string) bool) string {
	for counter := 2; ; counter++ {
		candidate := fmt.Sprintf("%s %d", name, counter)
		if !taken(candidate) {
			return candidate
		}
	}
}

// rewriteSetName updates set.json's name and last_modified in place.
func rewriteSetName(setDir, name string) error {
	path := filepath.Join(setDir, sets.MetadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "import", "read staged metadata", err)
	}
	meta, err := cards.DecodeMetadata(data)
	if err != nil {
		return err
	}
	meta.Name = name
	now := time.Now().UTC()
	meta.LastModified = &now
	out, err := encodeMetadata(meta)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, out, 0o644); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "import", "rewrite staged metadata", err)
	}
	return nil
}

// StagedVault is an extracted whole-vault archive. SetsDir or IconsDir may
// be empty when the archive carries no such section.
type StagedVault struct {
	SetsDir  string
	IconsDir string

	root string
}

// Close removes the staging directory.
func (v *StagedVault) Close() error {
	if v.root == "" {
		return nil
	}
	err := os.RemoveAll(v.root)
	v.root = ""
	return err
}

// StageVaultImport extracts a vault archive, accepting both the sets/ and
// icons/ prefixed layout and archives holding set directories at the root.
func (p *Packager) StageVaultImport(zipPath string) (*StagedVault, error) {
	root, err := p.extractToStaging(zipPath)
	if err != nil {
		return nil, err
	}

	staged := &StagedVault{root: root}
	if info, err := os.Stat(filepath.Join(root, "sets")); err == nil && info.IsDir() {
		staged.SetsDir = filepath.Join(root, "sets")
	} else if hasSetDirectories(root) {
		staged.SetsDir = root
	}
	if info, err := os.Stat(filepath.Join(root, "icons")); err == nil && info.IsDir() {
		staged.IconsDir = filepath.Join(root, "icons")
	}
	if staged.SetsDir == "" && staged.IconsDir == "" {
		os.RemoveAll(root)
		return nil, vaulterr.Invalidf("invalid vault archive: no sets found")
	}
	return staged, nil
}

// hasSetDirectories reports whether root directly contains at least one set
// directory.
func hasSetDirectories(root string) bool {
	entries, err := os.ReadDir(root)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "icons" {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, entry.Name(), sets.MetadataFile)); err == nil {
			return true
		}
	}
	return false
}

func (p *Packager) extractToStaging(zipPath string) (string, error) {
	if err := os.MkdirAll(p.staging, 0o755); err != nil {
		return "", vaulterr.Wrap(vaulterr.ErrIO, "archive", "stage", "create staging root", err)
	}
	root, err := os.MkdirTemp(p.staging, "import-")
	if err != nil {
		return "", vaulterr.Wrap(vaulterr.ErrIO, "archive", "stage", "create staging directory", err)
	}
	if err := extractZip(zipPath, root); err != nil {
		os.RemoveAll(root)
		return "", err
	}
	return root, nil
}

// extractZip unpacks an archive, rejecting entries that would escape the
// destination directory.
func extractZip(zipPath, dest string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return vaulterr.Invalidf("invalid zip file")
		}
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "extract", "open archive", err)
	}
	defer zr.Close()

	for _, file := range zr.File {
		target, err := sanitizeArchivePath(dest, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return vaulterr.Wrap(vaulterr.ErrIO, "archive", "extract", "create directory", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return vaulterr.Wrap(vaulterr.ErrIO, "archive", "extract", "create directory", err)
		}
		if err := extractFile(file, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(file *zip.File, target string) error {
	src, err := file.Open()
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "extract", "open archive entry", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "extract", "create file", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "extract", "write file", err)
	}
	if err := dst.Close(); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "extract", "close file", err)
	}
	return nil
}

// findFile returns the first file named base anywhere under root.
func findFile(root, base string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == base {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fs.ErrNotExist
	}
	return found, nil
}

// sanitizeArchivePath resolves an archive entry name under dest, refusing
// absolute paths and parent traversal.
func sanitizeArchivePath(dest, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", vaulterr.Invalidf("archive entry %q escapes extraction directory", name)
	}
	return filepath.Join(dest, cleaned), nil
}

// addTree writes every regular file under root into the archive with paths
// relative to root, optionally under prefix.
func addTree(zw *zip.Writer, root, prefix string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		arcname := filepath.ToSlash(rel)
		if prefix != "" {
			arcname = filepath.ToSlash(filepath.Join(prefix, rel))
		}
		w, err := zw.Create(arcname)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, f)
		f.Close()
		return err
	})
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "export", "add files to archive", err)
	}
	return nil
}

func encodeMetadata(meta cards.Metadata) ([]byte, error) {
	if meta.Tags == nil {
		meta.Tags = []string{}
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrIO, "archive", "import", "encode metadata", err)
	}
	return append(data, '\n'), nil
}
