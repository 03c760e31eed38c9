package cards

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"cardvault/internal/vaulterr"
)

// DefaultIconSet is the icon set every new set references and the fallback
// for dangling references.
const DefaultIconSet = "default"

const (
	// MaxNameLength is the longest permitted set name.
	MaxNameLength = 128
	// InvalidNameChars are rejected in set names for filesystem safety.
	InvalidNameChars = `<>:"/\|?*`
)

// Set is a named collection of cards plus descriptive metadata. A Set owns
// its cards exclusively.
type Set struct {
	Name            string
	Description     string
	IconSet         string
	Tags            []string
	DifficultyLevel int
	CreatedDate     time.Time
	LastAccessed    *time.Time
	LastModified    *time.Time
	Cards           []*Card
}

// NewSet builds an in-memory set with defaults. It does not touch disk.
func NewSet(name, description string) *Set {
	return &Set{
		Name:            name,
		Description:     description,
		IconSet:         DefaultIconSet,
		DifficultyLevel: 1,
		CreatedDate:     time.Now().UTC(),
	}
}

// CardCount returns the number of cards in the set.
func (s *Set) CardCount() int { return len(s.Cards) }

// AddCard appends a card to the set.
func (s *Set) AddCard(card *Card) error {
	if card == nil {
		return vaulterr.Invalidf("card must not be nil")
	}
	s.Cards = append(s.Cards, card)
	return nil
}

// NewEmptyCard creates, appends, and returns a blank card.
func (s *Set) NewEmptyCard() *Card {
	card := NewCard()
	s.Cards = append(s.Cards, card)
	return card
}

// RemoveCard deletes the card with the given identifier, if present.
func (s *Set) RemoveCard(cardID string) {
	kept := s.Cards[:0]
	for _, card := range s.Cards {
		if card.CardID != cardID {
			kept = append(kept, card)
		}
	}
	s.Cards = kept
}

// Card returns the card with the given identifier, or nil.
func (s *Set) Card(cardID string) *Card {
	for _, card := range s.Cards {
		if card.CardID == cardID {
			return card
		}
	}
	return nil
}

// CardAt returns the card at the given position.
func (s *Set) CardAt(index int) (*Card, error) {
	if index < 0 || index >= len(s.Cards) {
		return nil, vaulterr.Invalidf("card index %d out of range", index)
	}
	return s.Cards[index], nil
}

// MoveCard reorders the card sequence.
func (s *Set) MoveCard(from, to int) error {
	if from < 0 || from >= len(s.Cards) || to < 0 || to >= len(s.Cards) {
		return vaulterr.Invalidf("card index out of range")
	}
	card := s.Cards[from]
	s.Cards = append(s.Cards[:from], s.Cards[from+1:]...)
	s.Cards = append(s.Cards[:to], append([]*Card{card}, s.Cards[to:]...)...)
	return nil
}

// CardsByStatus filters cards by study status.
func (s *Set) CardsByStatus(status Status) []*Card {
	var out []*Card
	for _, card := range s.Cards {
		if card.Status == status {
			out = append(out, card)
		}
	}
	return out
}

// MetadataPatch carries the fields UpdateMetadata may change. Nil fields are
// left untouched.
type MetadataPatch struct {
	Description *string
	IconSet     *string
	Tags        []string
	Difficulty  *int
}

// UpdateMetadata applies a patch, validating the difficulty range.
func (s *Set) UpdateMetadata(patch MetadataPatch) error {
	if patch.Difficulty != nil {
		if *patch.Difficulty < 1 || *patch.Difficulty > 5 {
			return vaulterr.Invalidf("difficulty level must be between 1 and 5")
		}
		s.DifficultyLevel = *patch.Difficulty
	}
	if patch.Description != nil {
		s.Description = *patch.Description
	}
	if patch.IconSet != nil {
		s.IconSet = *patch.IconSet
	}
	if patch.Tags != nil {
		s.Tags = append([]string(nil), patch.Tags...)
	}
	s.Touch()
	return nil
}

// Touch stamps the last-modified timestamp.
func (s *Set) Touch() {
	now := time.Now().UTC()
	s.LastModified = &now
}

// TouchAccessed stamps the last-accessed timestamp.
func (s *Set) TouchAccessed() {
	now := time.Now().UTC()
	s.LastAccessed = &now
}

// ProgressStats summarizes study progress across the set.
type ProgressStats struct {
	Total    int
	Known    int
	Review   int
	Unknown  int
	Progress float64
}

// ProgressStats computes per-status counts and the percentage of known cards.
func (s *Set) ProgressStats() ProgressStats {
	stats := ProgressStats{Total: len(s.Cards)}
	for _, card := range s.Cards {
		switch card.Status {
		case StatusKnown:
			stats.Known++
		case StatusReview:
			stats.Review++
		default:
			stats.Unknown++
		}
	}
	if stats.Total > 0 {
		stats.Progress = float64(stats.Known) / float64(stats.Total) * 100
	}
	return stats
}

// Validate accumulates every problem with the set's content rather than
// stopping at the first.
func (s *Set) Validate() []string {
	var issues []string

	trimmed := strings.TrimSpace(s.Name)
	if trimmed == "" {
		issues = append(issues, "set name cannot be empty")
	}
	if len(s.Name) > MaxNameLength {
		issues = append(issues, fmt.Sprintf("set name cannot exceed %d characters", MaxNameLength))
	}
	if s.DifficultyLevel < 1 || s.DifficultyLevel > 5 {
		issues = append(issues, "difficulty level must be between 1 and 5")
	}

	for i, card := range s.Cards {
		for _, side := range []Side{SideInformation, SideAnswer} {
			blocks, err := card.Blocks(side)
			if err != nil {
				continue
			}
			for j, block := range blocks {
				if err := block.Validate(); err != nil {
					issues = append(issues, fmt.Sprintf("card %d, %s side, block %d: %v", i+1, side, j+1, err))
				}
			}
		}
	}
	return issues
}

// ReferencedMedia collects every media filename referenced by any block on
// any card, keyed by filename.
func (s *Set) ReferencedMedia() map[string]struct{} {
	refs := make(map[string]struct{})
	for _, card := range s.Cards {
		for _, blocks := range [][]Block{card.InformationSide, card.AnswerSide} {
			for _, block := range blocks {
				if name, ok := block.MediaFilename(); ok {
					refs[name] = struct{}{}
				}
			}
		}
	}
	return refs
}

func joinMediaPath(vaultRoot, setName, mediaDir, name string) string {
	return filepath.Join(vaultRoot, "sets", setName, mediaDir, name)
}
