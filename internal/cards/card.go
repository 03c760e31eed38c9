package cards

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cardvault/internal/vaulterr"
)

// Status tracks how well a card is known.
type Status string

const (
	StatusKnown   Status = "Known"
	StatusReview  Status = "Review"
	StatusUnknown Status = "Unknown"
)

// ParseStatus validates a stored status string.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusKnown, StatusReview, StatusUnknown:
		return Status(value), nil
	default:
		return "", vaulterr.Invalidf("invalid status %q, must be one of Known, Review, Unknown", value)
	}
}

// Side names one of a card's two block sequences.
type Side string

const (
	SideInformation Side = "information"
	SideAnswer      Side = "answer"
)

const maxBlocksPerSide = 10

// Card is a two-sided unit of study content. Identity is the CardID, not the
// position within the owning set.
type Card struct {
	CardID          string     `json:"card_id"`
	InformationSide []Block    `json:"information_side"`
	AnswerSide      []Block    `json:"answer_side"`
	Status          Status     `json:"status"`
	CreatedDate     time.Time  `json:"created_date"`
	LastStudied     *time.Time `json:"last_studied,omitempty"`
}

// NewCard returns an empty card with a fresh identifier and Unknown status.
func NewCard() *Card {
	return &Card{
		CardID:      uuid.NewString(),
		Status:      StatusUnknown,
		CreatedDate: time.Now().UTC(),
	}
}

// Blocks returns the block sequence for the given side.
func (c *Card) Blocks(side Side) ([]Block, error) {
	switch side {
	case SideInformation:
		return c.InformationSide, nil
	case SideAnswer:
		return c.AnswerSide, nil
	default:
		return nil, vaulterr.Invalidf("invalid side %q, must be %q or %q", side, SideInformation, SideAnswer)
	}
}

// AddBlock appends a block to the given side, enforcing the per-side cap.
func (c *Card) AddBlock(side Side, block Block) error {
	target, err := c.sideRef(side)
	if err != nil {
		return err
	}
	if len(*target) >= maxBlocksPerSide {
		return vaulterr.Invalidf("maximum of %d blocks per side allowed", maxBlocksPerSide)
	}
	*target = append(*target, block)
	return nil
}

// RemoveBlock deletes the block at index from the given side.
func (c *Card) RemoveBlock(side Side, index int) error {
	target, err := c.sideRef(side)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(*target) {
		return vaulterr.Invalidf("block index %d out of range", index)
	}
	*target = append((*target)[:index], (*target)[index+1:]...)
	return nil
}

// MoveBlock reorders a block within the given side.
func (c *Card) MoveBlock(side Side, from, to int) error {
	target, err := c.sideRef(side)
	if err != nil {
		return err
	}
	blocks := *target
	if from < 0 || from >= len(blocks) || to < 0 || to >= len(blocks) {
		return vaulterr.Invalidf("block index out of range")
	}
	block := blocks[from]
	blocks = append(blocks[:from], blocks[from+1:]...)
	blocks = append(blocks[:to], append([]Block{block}, blocks[to:]...)...)
	*target = blocks
	return nil
}

// SetStatus updates the study status and stamps LastStudied.
func (c *Card) SetStatus(status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	c.Status = status
	now := time.Now().UTC()
	c.LastStudied = &now
	return nil
}

func (c *Card) sideRef(side Side) (*[]Block, error) {
	switch side {
	case SideInformation:
		return &c.InformationSide, nil
	case SideAnswer:
		return &c.AnswerSide, nil
	default:
		return nil, vaulterr.Invalidf("invalid side %q, must be %q or %q", side, SideInformation, SideAnswer)
	}
}

// UnmarshalJSON reconstructs the polymorphic block sequences through the
// block_type discriminator.
func (c *Card) UnmarshalJSON(data []byte) error {
	var record struct {
		CardID          string            `json:"card_id"`
		InformationSide []json.RawMessage `json:"information_side"`
		AnswerSide      []json.RawMessage `json:"answer_side"`
		Status          string            `json:"status"`
		CreatedDate     time.Time         `json:"created_date"`
		LastStudied     *time.Time        `json:"last_studied"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("%w: decode card: %w", vaulterr.ErrInvalid, err)
	}

	c.CardID = record.CardID
	if c.CardID == "" {
		c.CardID = uuid.NewString()
	}
	c.CreatedDate = record.CreatedDate
	c.LastStudied = record.LastStudied

	c.Status = StatusUnknown
	if record.Status != "" {
		status, err := ParseStatus(record.Status)
		if err != nil {
			return err
		}
		c.Status = status
	}

	c.InformationSide = nil
	for _, raw := range record.InformationSide {
		block, err := DecodeBlock(raw)
		if err != nil {
			return err
		}
		c.InformationSide = append(c.InformationSide, block)
	}
	c.AnswerSide = nil
	for _, raw := range record.AnswerSide {
		block, err := DecodeBlock(raw)
		if err != nil {
			return err
		}
		c.AnswerSide = append(c.AnswerSide, block)
	}
	return nil
}
