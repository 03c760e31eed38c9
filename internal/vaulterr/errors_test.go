package vaulterr_test

import (
	"errors"
	"strings"
	"testing"

	"cardvault/internal/vaulterr"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := vaulterr.Wrap(vaulterr.ErrIO, "media", "store", "copy failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, vaulterr.ErrIO) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"media", "store", "copy failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToIO(t *testing.T) {
	err := vaulterr.Wrap(nil, "sets", "save", "write metadata", nil)
	if !errors.Is(err, vaulterr.ErrIO) {
		t.Fatalf("expected nil marker to default to ErrIO, got %v", err)
	}
}

func TestFormattedConstructors(t *testing.T) {
	if err := vaulterr.NotFoundf("set %q not found", "Biology"); !errors.Is(err, vaulterr.ErrNotFound) {
		t.Fatalf("NotFoundf marker lost: %v", err)
	}
	err := vaulterr.Invalidf("set name contains invalid characters: %s", `<>:"/\|?*`)
	if !errors.Is(err, vaulterr.ErrInvalid) {
		t.Fatalf("Invalidf marker lost: %v", err)
	}
	if !strings.Contains(err.Error(), "invalid characters") {
		t.Fatalf("unexpected message: %v", err)
	}
}
