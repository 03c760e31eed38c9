package cards

import (
	"errors"
	"testing"

	"cardvault/internal/vaulterr"
)

func buildFixtureSet(t *testing.T) *Set {
	t.Helper()
	set := NewSet("World Capitals", "Capitals of the world")
	set.Tags = []string{"geography", "trivia"}
	set.DifficultyLevel = 3
	set.Touch()

	card := set.NewEmptyCard()
	question := textBlockWith(t, "Capital of France?")
	answer := textBlockWith(t, "Paris")
	img := NewImageBlock()
	img.ImagePath = "eiffel.png"
	img.OriginalFilename = "eiffel tower.png"
	img.Width = 800
	img.Height = 600

	if err := card.AddBlock(SideInformation, question); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if err := card.AddBlock(SideAnswer, answer); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if err := card.AddBlock(SideAnswer, img); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if err := card.SetStatus(StatusReview); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	return set
}

func TestSetRoundTrip(t *testing.T) {
	set := buildFixtureSet(t)

	metaData, err := set.EncodeMetadata()
	if err != nil {
		t.Fatalf("EncodeMetadata: %v", err)
	}
	cardsData, err := set.EncodeCards()
	if err != nil {
		t.Fatalf("EncodeCards: %v", err)
	}

	back, err := FromFiles(metaData, cardsData)
	if err != nil {
		t.Fatalf("FromFiles: %v", err)
	}

	if back.Name != set.Name || back.Description != set.Description {
		t.Fatalf("metadata mismatch: %+v", back)
	}
	if back.IconSet != set.IconSet || back.DifficultyLevel != set.DifficultyLevel {
		t.Fatalf("metadata mismatch: %+v", back)
	}
	if len(back.Tags) != 2 || back.Tags[0] != "geography" {
		t.Fatalf("tags mismatch: %v", back.Tags)
	}
	if back.CardCount() != 1 {
		t.Fatalf("expected 1 card, got %d", back.CardCount())
	}

	card := back.Cards[0]
	if card.CardID != set.Cards[0].CardID {
		t.Fatal("card identity must survive the round trip")
	}
	if card.Status != StatusReview {
		t.Fatalf("status mismatch: %s", card.Status)
	}
	if len(card.InformationSide) != 1 || len(card.AnswerSide) != 2 {
		t.Fatalf("side lengths mismatch: %d/%d", len(card.InformationSide), len(card.AnswerSide))
	}
	img, ok := card.AnswerSide[1].(*ImageBlock)
	if !ok {
		t.Fatalf("expected image block, got %T", card.AnswerSide[1])
	}
	if img.ImagePath != "eiffel.png" || img.Width != 800 {
		t.Fatalf("image block mismatch: %+v", img)
	}
}

func TestMetadataCardCountDenormalized(t *testing.T) {
	set := buildFixtureSet(t)
	set.NewEmptyCard()
	meta := set.Metadata()
	if meta.CardCount != 2 {
		t.Fatalf("expected card_count 2, got %d", meta.CardCount)
	}
}

func TestFromFilesMetadataOnly(t *testing.T) {
	set := buildFixtureSet(t)
	metaData, err := set.EncodeMetadata()
	if err != nil {
		t.Fatalf("EncodeMetadata: %v", err)
	}

	back, err := FromFiles(metaData, nil)
	if err != nil {
		t.Fatalf("FromFiles without cards: %v", err)
	}
	if back.CardCount() != 0 {
		t.Fatalf("metadata-only set should have zero cards, got %d", back.CardCount())
	}
}

func TestDecodeMetadataDefaults(t *testing.T) {
	meta, err := DecodeMetadata([]byte(`{"name":"Bare"}`))
	if err != nil {
		t.Fatalf("DecodeMetadata: %v", err)
	}
	if meta.IconSet != DefaultIconSet {
		t.Fatalf("expected default icon set fallback, got %q", meta.IconSet)
	}
	if meta.DifficultyLevel != 1 {
		t.Fatalf("expected difficulty fallback 1, got %d", meta.DifficultyLevel)
	}
}

func TestDecodeMetadataMalformed(t *testing.T) {
	if _, err := DecodeMetadata([]byte(`{broken`)); !errors.Is(err, vaulterr.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestFromFilesMalformedCards(t *testing.T) {
	set := buildFixtureSet(t)
	metaData, _ := set.EncodeMetadata()
	if _, err := FromFiles(metaData, []byte(`{"cards": [{]`)); !errors.Is(err, vaulterr.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
