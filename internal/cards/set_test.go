package cards

import (
	"errors"
	"strings"
	"testing"

	"cardvault/internal/vaulterr"
)

func TestNewSetDefaults(t *testing.T) {
	set := NewSet("Biology", "Cell structure")
	if set.IconSet != DefaultIconSet {
		t.Fatalf("expected default icon set, got %q", set.IconSet)
	}
	if set.DifficultyLevel != 1 {
		t.Fatalf("expected difficulty 1, got %d", set.DifficultyLevel)
	}
	if set.CardCount() != 0 {
		t.Fatalf("new set should have no cards")
	}
}

func TestRemoveCardByID(t *testing.T) {
	set := NewSet("S", "")
	first := set.NewEmptyCard()
	second := set.NewEmptyCard()

	set.RemoveCard(first.CardID)
	if set.CardCount() != 1 || set.Cards[0].CardID != second.CardID {
		t.Fatalf("unexpected cards after removal: %+v", set.Cards)
	}
	// Removing an unknown id is a no-op.
	set.RemoveCard("nope")
	if set.CardCount() != 1 {
		t.Fatal("removal of unknown id should not change the set")
	}
}

func TestMoveCard(t *testing.T) {
	set := NewSet("S", "")
	a := set.NewEmptyCard()
	b := set.NewEmptyCard()
	c := set.NewEmptyCard()

	if err := set.MoveCard(2, 0); err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	order := []string{set.Cards[0].CardID, set.Cards[1].CardID, set.Cards[2].CardID}
	want := []string{c.CardID, a.CardID, b.CardID}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order mismatch: got %v want %v", order, want)
		}
	}
	if err := set.MoveCard(0, 9); !errors.Is(err, vaulterr.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for bad index, got %v", err)
	}
}

func TestUpdateMetadataDifficultyRange(t *testing.T) {
	set := NewSet("S", "")
	bad := 6
	if err := set.UpdateMetadata(MetadataPatch{Difficulty: &bad}); !errors.Is(err, vaulterr.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for difficulty 6, got %v", err)
	}
	good := 4
	desc := "harder"
	if err := set.UpdateMetadata(MetadataPatch{Difficulty: &good, Description: &desc}); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if set.DifficultyLevel != 4 || set.Description != "harder" {
		t.Fatalf("patch not applied: %+v", set)
	}
	if set.LastModified == nil {
		t.Fatal("UpdateMetadata should stamp LastModified")
	}
}

func TestProgressStats(t *testing.T) {
	set := NewSet("S", "")
	for i := 0; i < 4; i++ {
		set.NewEmptyCard()
	}
	set.Cards[0].Status = StatusKnown
	set.Cards[1].Status = StatusKnown
	set.Cards[2].Status = StatusReview

	stats := set.ProgressStats()
	if stats.Total != 4 || stats.Known != 2 || stats.Review != 1 || stats.Unknown != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Progress != 50 {
		t.Fatalf("expected 50%% progress, got %v", stats.Progress)
	}
}

func TestValidateAccumulatesIssues(t *testing.T) {
	set := NewSet(strings.Repeat("x", 200), "")
	set.DifficultyLevel = 9
	card := set.NewEmptyCard()
	img := NewImageBlock() // no image path: invalid
	if err := card.AddBlock(SideInformation, img); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}

	issues := set.Validate()
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d: %v", len(issues), issues)
	}
}

func TestReferencedMedia(t *testing.T) {
	set := NewSet("S", "")
	card := set.NewEmptyCard()

	img := NewImageBlock()
	img.ImagePath = "cat.png"
	audio := NewAudioBlock()
	audio.AudioPath = "meow.mp3"
	if err := card.AddBlock(SideInformation, img); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if err := card.AddBlock(SideAnswer, audio); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if err := card.AddBlock(SideAnswer, NewTextBlock()); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}

	refs := set.ReferencedMedia()
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %v", refs)
	}
	for _, name := range []string{"cat.png", "meow.mp3"} {
		if _, ok := refs[name]; !ok {
			t.Fatalf("missing reference %s in %v", name, refs)
		}
	}
}
