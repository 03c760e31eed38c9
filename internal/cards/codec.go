package cards

import (
	"encoding/json"
	"fmt"
	"time"

	"cardvault/internal/vaulterr"
)

// Metadata is the set.json record. CardCount is denormalized so listings can
// report it without parsing cards.json.
type Metadata struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	IconSet         string     `json:"icon_set"`
	Tags            []string   `json:"tags"`
	DifficultyLevel int        `json:"difficulty_level"`
	CreatedDate     time.Time  `json:"created_date"`
	LastAccessed    *time.Time `json:"last_accessed,omitempty"`
	LastModified    *time.Time `json:"last_modified,omitempty"`
	CardCount       int        `json:"card_count"`
}

type cardsDocument struct {
	Cards []*Card `json:"cards"`
}

// Metadata builds the set.json record for the set's current state.
func (s *Set) Metadata() Metadata {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return Metadata{
		Name:            s.Name,
		Description:     s.Description,
		IconSet:         s.IconSet,
		Tags:            tags,
		DifficultyLevel: s.DifficultyLevel,
		CreatedDate:     s.CreatedDate,
		LastAccessed:    s.LastAccessed,
		LastModified:    s.LastModified,
		CardCount:       len(s.Cards),
	}
}

// EncodeMetadata renders the set.json payload.
func (s *Set) EncodeMetadata() ([]byte, error) {
	data, err := json.MarshalIndent(s.Metadata(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode set metadata: %w", err)
	}
	return append(data, '\n'), nil
}

// EncodeCards renders the cards.json payload.
func (s *Set) EncodeCards() ([]byte, error) {
	doc := cardsDocument{Cards: s.Cards}
	if doc.Cards == nil {
		doc.Cards = []*Card{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode cards: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeMetadata parses a set.json payload.
func DecodeMetadata(data []byte) (Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("%w: parse set metadata: %w", vaulterr.ErrInvalid, err)
	}
	if meta.IconSet == "" {
		meta.IconSet = DefaultIconSet
	}
	if meta.DifficultyLevel == 0 {
		meta.DifficultyLevel = 1
	}
	return meta, nil
}

// FromFiles reconstructs a set from its metadata payload and, when present,
// its cards payload. cardsData may be nil for a metadata-only set, which
// yields zero cards.
func FromFiles(metaData, cardsData []byte) (*Set, error) {
	meta, err := DecodeMetadata(metaData)
	if err != nil {
		return nil, err
	}

	set := &Set{
		Name:            meta.Name,
		Description:     meta.Description,
		IconSet:         meta.IconSet,
		Tags:            meta.Tags,
		DifficultyLevel: meta.DifficultyLevel,
		CreatedDate:     meta.CreatedDate,
		LastAccessed:    meta.LastAccessed,
		LastModified:    meta.LastModified,
	}

	if len(cardsData) > 0 {
		var doc cardsDocument
		if err := json.Unmarshal(cardsData, &doc); err != nil {
			return nil, fmt.Errorf("%w: parse cards: %w", vaulterr.ErrInvalid, err)
		}
		set.Cards = doc.Cards
	}
	return set, nil
}
