package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cardvault/internal/icons"
	"cardvault/internal/sets"
	"cardvault/internal/vaulterr"
)

type testVault struct {
	store    *sets.Store
	icons    *icons.Registry
	packager *Packager
}

func newTestVault(t *testing.T) *testVault {
	t.Helper()
	root := t.TempDir()
	store, err := sets.NewStore(filepath.Join(root, "vault", "sets"), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	registry, err := icons.NewRegistry(filepath.Join(root, "vault", "icons"), nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return &testVault{
		store:    store,
		icons:    registry,
		packager: NewPackager(store, registry, filepath.Join(root, "staging"), nil),
	}
}

func (v *testVault) createSet(t *testing.T, name string) {
	t.Helper()
	if _, err := v.store.Create(name, "about "+name, "", nil, 0); err != nil {
		t.Fatalf("Create %s: %v", name, err)
	}
	mediaPath := filepath.Join(v.store.SetPath(name), "images", "pic.png")
	if err := os.WriteFile(mediaPath, []byte("png"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
}

func zipNames(t *testing.T, path string) map[string]bool {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	return names
}

func TestExportSetBundlesIcons(t *testing.T) {
	v := newTestVault(t)
	v.createSet(t, "Geography")

	dest := filepath.Join(t.TempDir(), "geography.zip")
	if err := v.packager.ExportSet("Geography", dest); err != nil {
		t.Fatalf("ExportSet: %v", err)
	}

	names := zipNames(t, dest)
	for _, want := range []string{"set.json", "cards.json", "images/pic.png", "icons/default/256.png", "icons/default/16.png"} {
		if !names[want] {
			t.Fatalf("archive missing %s, has %v", want, names)
		}
	}
}

func TestExportSetMissing(t *testing.T) {
	v := newTestVault(t)
	err := v.packager.ExportSet("Ghost", filepath.Join(t.TempDir(), "x.zip"))
	if !errors.Is(err, vaulterr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExportVaultLayout(t *testing.T) {
	v := newTestVault(t)
	v.createSet(t, "One")
	v.createSet(t, "Two")

	dest := filepath.Join(t.TempDir(), "vault.zip")
	if err := v.packager.ExportVault(dest); err != nil {
		t.Fatalf("ExportVault: %v", err)
	}

	names := zipNames(t, dest)
	for _, want := range []string{"sets/One/set.json", "sets/Two/cards.json", "icons/default/128.png"} {
		if !names[want] {
			t.Fatalf("archive missing %s", want)
		}
	}
}

func TestStageAndCommitSetImport(t *testing.T) {
	src := newTestVault(t)
	src.createSet(t, "Physics")
	archivePath := filepath.Join(t.TempDir(), "physics.zip")
	if err := src.packager.ExportSet("Physics", archivePath); err != nil {
		t.Fatalf("ExportSet: %v", err)
	}

	dst := newTestVault(t)
	staged, err := dst.packager.StageImport(archivePath)
	if err != nil {
		t.Fatalf("StageImport: %v", err)
	}
	defer staged.Close()

	if staged.Name != "Physics" || staged.CardCount != 1 {
		t.Fatalf("unexpected staged info %+v", staged)
	}
	if _, ok := staged.IconDirs["default"]; !ok {
		t.Fatalf("bundled icons not detected: %v", staged.IconDirs)
	}

	if err := dst.packager.CommitSetImport(staged, ""); err != nil {
		t.Fatalf("CommitSetImport: %v", err)
	}
	set, err := dst.store.Load("Physics")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if set.CardCount() != 1 {
		t.Fatalf("imported set has %d cards", set.CardCount())
	}
	if _, err := os.Stat(filepath.Join(dst.store.SetPath("Physics"), "images", "pic.png")); err != nil {
		t.Fatalf("media not imported: %v", err)
	}
}

func TestCommitSetImportRename(t *testing.T) {
	src := newTestVault(t)
	src.createSet(t, "Physics")
	archivePath := filepath.Join(t.TempDir(), "physics.zip")
	if err := src.packager.ExportSet("Physics", archivePath); err != nil {
		t.Fatal(err)
	}

	dst := newTestVault(t)
	dst.createSet(t, "Physics")

	staged, err := dst.packager.StageImport(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	defer staged.Close()

	if err := dst.packager.CommitSetImport(staged, "Physics"); !errors.Is(err, vaulterr.ErrInvalid) {
		t.Fatalf("conflicting commit should fail, got %v", err)
	}

	suggested := dst.packager.SuggestName("Physics")
	if suggested != "Physics 2" {
		t.Fatalf("unexpected suggestion %q", suggested)
	}
	if err := dst.packager.CommitSetImport(staged, suggested); err != nil {
		t.Fatalf("CommitSetImport: %v", err)
	}

	meta, err := dst.store.LoadMetadata("Physics 2")
	if err != nil {
		t.Fatal(err)
	}
	if meta.Name != "Physics 2" {
		t.Fatalf("stored name not rewritten: %q", meta.Name)
	}
	if meta.LastModified == nil {
		t.Fatal("rename should stamp last_modified")
	}
}

func TestStageImportRejectsNonZip(t *testing.T) {
	v := newTestVault(t)
	bogus := filepath.Join(t.TempDir(), "not.zip")
	if err := os.WriteFile(bogus, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := v.packager.StageImport(bogus)
	if !errors.Is(err, vaulterr.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid zip file") {
		t.Fatalf("unexpected message %q", err)
	}
}

func TestStageImportRejectsArchiveWithoutMetadata(t *testing.T) {
	v := newTestVault(t)
	archivePath := filepath.Join(t.TempDir(), "empty.zip")
	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("readme.txt")
	w.Write([]byte("nothing here"))
	zw.Close()
	f.Close()

	_, err = v.packager.StageImport(archivePath)
	if !errors.Is(err, vaulterr.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestStageImportCloseRemovesStaging(t *testing.T) {
	src := newTestVault(t)
	src.createSet(t, "Physics")
	archivePath := filepath.Join(t.TempDir(), "physics.zip")
	if err := src.packager.ExportSet("Physics", archivePath); err != nil {
		t.Fatal(err)
	}

	dst := newTestVault(t)
	staged, err := dst.packager.StageImport(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	dir := staged.Dir
	if err := staged.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatal("staging directory should be removed")
	}
	if err := staged.Close(); err != nil {
		t.Fatalf("second Close should be a no-op: %v", err)
	}
}

func TestExtractRejectsZipSlip(t *testing.T) {
	v := newTestVault(t)
	archivePath := filepath.Join(t.TempDir(), "evil.zip")
	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("../escape.txt")
	w.Write([]byte("evil"))
	zw.Close()
	f.Close()

	_, err = v.packager.StageImport(archivePath)
	if !errors.Is(err, vaulterr.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestStageVaultImportBothLayouts(t *testing.T) {
	src := newTestVault(t)
	src.createSet(t, "Alpha")

	prefixed := filepath.Join(t.TempDir(), "vault.zip")
	if err := src.packager.ExportVault(prefixed); err != nil {
		t.Fatal(err)
	}

	dst := newTestVault(t)
	staged, err := dst.packager.StageVaultImport(prefixed)
	if err != nil {
		t.Fatalf("StageVaultImport: %v", err)
	}
	defer staged.Close()
	if staged.SetsDir == "" || staged.IconsDir == "" {
		t.Fatalf("prefixed layout not detected: %+v", staged)
	}

	// Bare layout: set directories at the archive root.
	bare := filepath.Join(t.TempDir(), "bare.zip")
	f, err := os.Create(bare)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, name := range []string{"Alpha/set.json", "Alpha/cards.json"} {
		w, _ := zw.Create(name)
		if strings.HasSuffix(name, "set.json") {
			w.Write([]byte(`{"name":"Alpha"}`))
		} else {
			w.Write([]byte(`{"cards":[]}`))
		}
	}
	zw.Close()
	f.Close()

	bareStaged, err := dst.packager.StageVaultImport(bare)
	if err != nil {
		t.Fatalf("StageVaultImport bare: %v", err)
	}
	defer bareStaged.Close()
	if bareStaged.SetsDir == "" {
		t.Fatal("bare layout not detected")
	}
}
