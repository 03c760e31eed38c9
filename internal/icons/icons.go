// Package icons maintains the vault's icon set registry. An icon set is a
// directory under the registry root holding one PNG per supported size.
package icons

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"

	"cardvault/internal/cards"
	"cardvault/internal/fileutil"
	"cardvault/internal/logging"
	"cardvault/internal/vaulterr"
)

// Sizes lists the pixel dimensions every complete icon set must provide.
var Sizes = []int{256, 128, 64, 32, 16}

const largestSize = 256

// Registry scans and mutates the icon sets under a single root directory.
type Registry struct {
	dir    string
	logger *slog.Logger

	mu        sync.Mutex
	available []string
}

// NewRegistry opens the registry rooted at dir, generating the default icon
// set if it is missing and scanning for valid sets.
func NewRegistry(dir string, logger *slog.Logger) (*Registry, error) {
	r := &Registry{dir: dir, logger: logging.NewComponentLogger(logger, "icons")}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrIO, "icons", "open", "create icons directory", err)
	}
	if err := r.ensureDefault(); err != nil {
		return nil, err
	}
	if err := r.Refresh(); err != nil {
		return nil, err
	}
	return r, nil
}

// Dir returns the registry root.
func (r *Registry) Dir() string {
	return r.dir
}

// List returns the names of all complete icon sets in lexicographic order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.available))
	copy(out, r.available)
	return out
}

// Validate reports whether the named set exists with every required size.
func (r *Registry) Validate(name string) bool {
	return validateDir(filepath.Join(r.dir, name))
}

func validateDir(setDir string) bool {
	info, err := os.Stat(setDir)
	if err != nil || !info.IsDir() {
		return false
	}
	for _, size := range Sizes {
		if _, err := os.Stat(filepath.Join(setDir, fmt.Sprintf("%d.png", size))); err != nil {
			return false
		}
	}
	return true
}

// Resolve returns the path of the PNG for name at size. An unknown set or
// unsupported size falls back to the default set at the largest size.
func (r *Registry) Resolve(name string, size int) string {
	if !r.known(name) {
		name = cards.DefaultIconSet
	}
	if !supportedSize(size) {
		size = largestSize
	}
	path := filepath.Join(r.dir, name, fmt.Sprintf("%d.png", size))
	if _, err := os.Stat(path); err != nil {
		return filepath.Join(r.dir, cards.DefaultIconSet, fmt.Sprintf("%d.png", size))
	}
	return path
}

func (r *Registry) known(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.available {
		if n == name {
			return true
		}
	}
	return false
}

func supportedSize(size int) bool {
	for _, s := range Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// Install builds a new icon set from a source image, resizing it to every
// supported size. The source must decode as PNG, JPEG, GIF, or BMP.
func (r *Registry) Install(sourceImage, name string) error {
	f, err := os.Open(sourceImage)
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "icons", "install", "open source image", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrInvalid, "icons", "install", "decode source image", err)
	}

	setDir := filepath.Join(r.dir, name)
	if err := os.MkdirAll(setDir, 0o755); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "icons", "install", "create icon set directory", err)
	}
	for _, size := range Sizes {
		dst := image.NewRGBA(image.Rect(0, 0, size, size))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
		if err := writePNG(filepath.Join(setDir, fmt.Sprintf("%d.png", size)), dst); err != nil {
			return err
		}
	}
	r.logger.Info("icon set installed", logging.String("name", name))
	return r.Refresh()
}

// Delete removes a custom icon set. The default set cannot be deleted.
func (r *Registry) Delete(name string) error {
	if name == cards.DefaultIconSet {
		return vaulterr.Invalidf("cannot delete default icon set")
	}
	setDir := filepath.Join(r.dir, name)
	if _, err := os.Stat(setDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return vaulterr.NotFoundf("icon set %q not found", name)
		}
		return vaulterr.Wrap(vaulterr.ErrIO, "icons", "delete", "stat icon set", err)
	}
	if err := os.RemoveAll(setDir); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "icons", "delete", "remove icon set", err)
	}
	return r.Refresh()
}

// ImportDir copies a complete icon set directory into the registry. When a
// valid set of the same name already exists it is left untouched; an invalid
// one is replaced.
func (r *Registry) ImportDir(sourceDir, name string) error {
	if !validateDir(sourceDir) {
		return vaulterr.Invalidf("icon set %q is incomplete", name)
	}
	destDir := filepath.Join(r.dir, name)
	if validateDir(destDir) {
		return nil
	}
	if err := os.RemoveAll(destDir); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "icons", "import", "clear icon set", err)
	}
	if err := fileutil.CopyTree(sourceDir, destDir); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "icons", "import", "copy icon set", err)
	}
	r.logger.Info("icon set imported", logging.String("name", name))
	return r.Refresh()
}

// Refresh rescans the registry root, keeping only complete sets and
// regenerating the default set if it has gone missing.
func (r *Registry) Refresh() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "icons", "refresh", "read icons directory", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if validateDir(filepath.Join(r.dir, entry.Name())) {
			names = append(names, entry.Name())
		}
	}
	if !contains(names, cards.DefaultIconSet) {
		if err := r.ensureDefault(); err != nil {
			return err
		}
		names = append(names, cards.DefaultIconSet)
	}
	sort.Strings(names)

	r.mu.Lock()
	r.available = names
	r.mu.Unlock()
	return nil
}

func contains(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
