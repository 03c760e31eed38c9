package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cardvault/internal/vaulterr"
)

func writeSource(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestStoreRoutesByKind(t *testing.T) {
	setsDir := t.TempDir()
	store := NewStore(setsDir)

	img := writeSource(t, "photo.png")
	snd := writeSource(t, "clip.mp3")
	vid := writeSource(t, "demo.mp4")

	name, err := store.Store(img, "Animals", KindImage)
	if err != nil {
		t.Fatalf("store image: %v", err)
	}
	if _, err := os.Stat(filepath.Join(setsDir, "Animals", "images", name)); err != nil {
		t.Fatalf("image not in images dir: %v", err)
	}

	name, err = store.Store(snd, "Animals", KindAudio)
	if err != nil {
		t.Fatalf("store audio: %v", err)
	}
	if _, err := os.Stat(filepath.Join(setsDir, "Animals", "sounds", name)); err != nil {
		t.Fatalf("audio not in sounds dir: %v", err)
	}

	name, err = store.Store(vid, "Animals", KindVideo)
	if err != nil {
		t.Fatalf("store video: %v", err)
	}
	if _, err := os.Stat(filepath.Join(setsDir, "Animals", "sounds", name)); err != nil {
		t.Fatalf("video not in sounds dir: %v", err)
	}
}

func TestStoreCollisionSuffix(t *testing.T) {
	setsDir := t.TempDir()
	store := NewStore(setsDir)
	src := writeSource(t, "photo.png")

	first, err := store.Store(src, "Animals", KindImage)
	if err != nil {
		t.Fatalf("first store: %v", err)
	}
	second, err := store.Store(src, "Animals", KindImage)
	if err != nil {
		t.Fatalf("second store: %v", err)
	}
	if first != "photo.png" || second != "photo_1.png" {
		t.Fatalf("unexpected names %q, %q", first, second)
	}
}

func TestStoreSanitizesName(t *testing.T) {
	setsDir := t.TempDir()
	store := NewStore(setsDir)
	src := writeSource(t, "my photo?.png")

	name, err := store.Store(src, "Animals", KindImage)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if name != "my photo_.png" {
		t.Fatalf("unexpected sanitized name %q", name)
	}
}

func TestStoreMissingSource(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Store(filepath.Join(t.TempDir(), "absent.png"), "Animals", KindImage)
	if !errors.Is(err, vaulterr.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

func TestStoreRejectsWrongExtension(t *testing.T) {
	store := NewStore(t.TempDir())
	src := writeSource(t, "notes.txt")
	_, err := store.Store(src, "Animals", KindImage)
	if !errors.Is(err, vaulterr.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidateFile(t *testing.T) {
	src := writeSource(t, "track.OGG")
	if err := ValidateFile(src, KindAudio); err != nil {
		t.Fatalf("uppercase extension should validate: %v", err)
	}
	if err := ValidateFile(src, KindVideo); !errors.Is(err, vaulterr.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for wrong kind, got %v", err)
	}
	if err := ValidateFile(src, Kind("document")); !errors.Is(err, vaulterr.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown kind, got %v", err)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	setsDir := t.TempDir()
	store := NewStore(setsDir)
	src := writeSource(t, "photo.png")
	name, err := store.Store(src, "Animals", KindImage)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	if err := store.Remove("Animals", "images", name); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.Remove("Animals", "images", name); err != nil {
		t.Fatalf("second remove should be a no-op: %v", err)
	}
}

func TestProbe(t *testing.T) {
	src := writeSource(t, "photo.PNG")
	info, err := Probe(src)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if info.Name != "photo.PNG" || info.Ext != ".png" || info.Size != int64(len("payload")) {
		t.Fatalf("unexpected info %+v", info)
	}
}
