package studylog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cardvault/internal/cards"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "study.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.RecordStatus(context.Background(), "Math", "card-1", cards.StatusKnown); err != nil {
		t.Fatalf("RecordStatus: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	again, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	store.Close()

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestRecordStatusRejectsUnknownStatus(t *testing.T) {
	store := newTestStore(t)
	err := store.RecordStatus(context.Background(), "Math", "card-1", cards.Status("Mastered"))
	if err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestSessionsAndSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sessions := []Session{
		{SetName: "Math", StartedAt: base, Duration: 5 * time.Minute, CardsStudied: 10, KnownCount: 6, ReviewCount: 3, UnknownCount: 1},
		{SetName: "Math", StartedAt: base.Add(24 * time.Hour), Duration: 3 * time.Minute, CardsStudied: 8, KnownCount: 7, ReviewCount: 1},
		{SetName: "History", StartedAt: base, Duration: time.Minute, CardsStudied: 4},
	}
	for _, session := range sessions {
		if err := store.RecordSession(ctx, session); err != nil {
			t.Fatalf("RecordSession: %v", err)
		}
	}

	summary, err := store.SetSummary(ctx, "Math")
	if err != nil {
		t.Fatalf("SetSummary: %v", err)
	}
	if summary.Sessions != 2 || summary.TotalStudied != 18 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.TotalDuration != 8*time.Minute {
		t.Fatalf("unexpected duration %v", summary.TotalDuration)
	}
	if summary.LastStudied == nil || !summary.LastStudied.Equal(base.Add(24*time.Hour)) {
		t.Fatalf("unexpected last studied %v", summary.LastStudied)
	}

	recent, err := store.RecentSessions(ctx, "Math", 1)
	if err != nil {
		t.Fatalf("RecentSessions: %v", err)
	}
	if len(recent) != 1 || !recent[0].StartedAt.Equal(base.Add(24*time.Hour)) {
		t.Fatalf("expected newest session first, got %+v", recent)
	}
}

func TestSummaryForUnknownSetIsZero(t *testing.T) {
	store := newTestStore(t)
	summary, err := store.SetSummary(context.Background(), "Nothing")
	if err != nil {
		t.Fatalf("SetSummary: %v", err)
	}
	if summary.Sessions != 0 || summary.LastStudied != nil {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
}

func TestRenameAndDeleteSet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordStatus(ctx, "Old", "card-1", cards.StatusReview); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordSession(ctx, Session{SetName: "Old", CardsStudied: 2}); err != nil {
		t.Fatal(err)
	}

	if err := store.RenameSet(ctx, "Old", "New"); err != nil {
		t.Fatalf("RenameSet: %v", err)
	}
	summary, err := store.SetSummary(ctx, "New")
	if err != nil {
		t.Fatal(err)
	}
	if summary.Sessions != 1 {
		t.Fatalf("history did not follow rename: %+v", summary)
	}

	if err := store.DeleteSet(ctx, "New"); err != nil {
		t.Fatalf("DeleteSet: %v", err)
	}
	summary, err = store.SetSummary(ctx, "New")
	if err != nil {
		t.Fatal(err)
	}
	if summary.Sessions != 0 {
		t.Fatalf("history not deleted: %+v", summary)
	}
}
