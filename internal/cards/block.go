package cards

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cardvault/internal/vaulterr"
)

// BlockType discriminates the content block variants. The set is closed:
// display, edit, and serialization all dispatch over these four values.
type BlockType string

const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
	BlockAudio BlockType = "audio"
	BlockVideo BlockType = "video"
)

// Media directories inside a set, relative to the set root. Image blocks
// resolve against MediaDirImages; audio and video against MediaDirSounds.
const (
	MediaDirImages = "images"
	MediaDirSounds = "sounds"
)

const (
	maxTextRunes   = 1024
	maxImageWidth  = 3840
	maxImageHeight = 2160
	maxVideoSecs   = 300
)

// Block is one unit of card content. Implementations are exactly the four
// variants in this package.
type Block interface {
	// ID returns the block's stable opaque identifier.
	ID() string
	// Type returns the serialization discriminator.
	Type() BlockType
	// Validate reports whether the block's content is well formed.
	Validate() error
	// MediaFilename returns the relative media filename referenced by the
	// block and true, or "" and false for blocks without media.
	MediaFilename() (string, bool)
	// MediaDir returns the set-relative directory the media filename
	// resolves against, or "" for blocks without media.
	MediaDir() string

	sealed()
}

// TextBlock holds formatted text content.
type TextBlock struct {
	BlockID     string    `json:"block_id"`
	BlockType   BlockType `json:"block_type"`
	TextContent string    `json:"text_content"`
	FontSize    int       `json:"font_size"`
	Alignment   string    `json:"alignment"`
	CreatedDate time.Time `json:"created_date"`
}

// NewTextBlock returns an empty text block with defaults matching new-block
// creation in the editor.
func NewTextBlock() *TextBlock {
	return &TextBlock{
		BlockID:     uuid.NewString(),
		BlockType:   BlockText,
		FontSize:    12,
		Alignment:   "left",
		CreatedDate: time.Now().UTC(),
	}
}

func (b *TextBlock) ID() string      { return b.BlockID }
func (b *TextBlock) Type() BlockType { return BlockText }
func (b *TextBlock) sealed()         {}

func (b *TextBlock) MediaFilename() (string, bool) { return "", false }
func (b *TextBlock) MediaDir() string              { return "" }

// SetText replaces the block content, enforcing the length cap.
func (b *TextBlock) SetText(content string) error {
	if len([]rune(content)) > maxTextRunes {
		return vaulterr.Invalidf("text content exceeds maximum length of %d characters", maxTextRunes)
	}
	b.TextContent = content
	return nil
}

func (b *TextBlock) Validate() error {
	if len([]rune(b.TextContent)) > maxTextRunes {
		return vaulterr.Invalidf("text exceeds %d characters", maxTextRunes)
	}
	switch b.Alignment {
	case "", "left", "center", "right":
	default:
		return vaulterr.Invalidf("unknown alignment %q", b.Alignment)
	}
	return nil
}

// ImageBlock references an image file in the set's images directory.
type ImageBlock struct {
	BlockID          string    `json:"block_id"`
	BlockType        BlockType `json:"block_type"`
	ImagePath        string    `json:"image_path"`
	OriginalFilename string    `json:"original_filename"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	CreatedDate      time.Time `json:"created_date"`
}

// NewImageBlock returns an image block with no file attached yet.
func NewImageBlock() *ImageBlock {
	return &ImageBlock{
		BlockID:     uuid.NewString(),
		BlockType:   BlockImage,
		CreatedDate: time.Now().UTC(),
	}
}

func (b *ImageBlock) ID() string      { return b.BlockID }
func (b *ImageBlock) Type() BlockType { return BlockImage }
func (b *ImageBlock) sealed()         {}

func (b *ImageBlock) MediaFilename() (string, bool) { return b.ImagePath, b.ImagePath != "" }
func (b *ImageBlock) MediaDir() string              { return MediaDirImages }

func (b *ImageBlock) Validate() error {
	if b.ImagePath == "" {
		return vaulterr.Invalidf("no image file specified")
	}
	if b.Width > maxImageWidth || b.Height > maxImageHeight {
		return vaulterr.Invalidf("image dimensions (%dx%d) exceed maximum allowed size (%dx%d)",
			b.Width, b.Height, maxImageWidth, maxImageHeight)
	}
	return nil
}

// AudioBlock references an audio file in the set's sounds directory.
type AudioBlock struct {
	BlockID          string    `json:"block_id"`
	BlockType        BlockType `json:"block_type"`
	AudioPath        string    `json:"audio_path"`
	OriginalFilename string    `json:"original_filename"`
	Duration         float64   `json:"duration"`
	CreatedDate      time.Time `json:"created_date"`
}

// NewAudioBlock returns an audio block with no file attached yet.
func NewAudioBlock() *AudioBlock {
	return &AudioBlock{
		BlockID:     uuid.NewString(),
		BlockType:   BlockAudio,
		CreatedDate: time.Now().UTC(),
	}
}

func (b *AudioBlock) ID() string      { return b.BlockID }
func (b *AudioBlock) Type() BlockType { return BlockAudio }
func (b *AudioBlock) sealed()         {}

func (b *AudioBlock) MediaFilename() (string, bool) { return b.AudioPath, b.AudioPath != "" }
func (b *AudioBlock) MediaDir() string              { return MediaDirSounds }

func (b *AudioBlock) Validate() error {
	if b.AudioPath == "" {
		return vaulterr.Invalidf("no audio file specified")
	}
	return nil
}

// VideoBlock references a video file in the set's sounds directory.
type VideoBlock struct {
	BlockID          string    `json:"block_id"`
	BlockType        BlockType `json:"block_type"`
	VideoPath        string    `json:"video_path"`
	OriginalFilename string    `json:"original_filename"`
	Duration         float64   `json:"duration"`
	ThumbnailPath    string    `json:"thumbnail_path"`
	CreatedDate      time.Time `json:"created_date"`
}

// NewVideoBlock returns a video block with no file attached yet.
func NewVideoBlock() *VideoBlock {
	return &VideoBlock{
		BlockID:     uuid.NewString(),
		BlockType:   BlockVideo,
		CreatedDate: time.Now().UTC(),
	}
}

func (b *VideoBlock) ID() string      { return b.BlockID }
func (b *VideoBlock) Type() BlockType { return BlockVideo }
func (b *VideoBlock) sealed()         {}

func (b *VideoBlock) MediaFilename() (string, bool) { return b.VideoPath, b.VideoPath != "" }
func (b *VideoBlock) MediaDir() string              { return MediaDirSounds }

func (b *VideoBlock) Validate() error {
	if b.VideoPath == "" {
		return vaulterr.Invalidf("no video file specified")
	}
	if b.Duration > maxVideoSecs {
		return vaulterr.Invalidf("video duration %.0fs exceeds maximum of %ds", b.Duration, maxVideoSecs)
	}
	return nil
}

// NewBlock constructs an empty block of the given type.
func NewBlock(blockType BlockType) (Block, error) {
	switch blockType {
	case BlockText:
		return NewTextBlock(), nil
	case BlockImage:
		return NewImageBlock(), nil
	case BlockAudio:
		return NewAudioBlock(), nil
	case BlockVideo:
		return NewVideoBlock(), nil
	default:
		return nil, vaulterr.Invalidf("unknown block type %q", blockType)
	}
}

// DecodeBlock reconstructs a block from its serialized form using the
// block_type discriminator.
func DecodeBlock(raw json.RawMessage) (Block, error) {
	var probe struct {
		BlockType BlockType `json:"block_type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: decode block envelope: %w", vaulterr.ErrInvalid, err)
	}

	var target Block
	switch probe.BlockType {
	case BlockText:
		target = &TextBlock{}
	case BlockImage:
		target = &ImageBlock{}
	case BlockAudio:
		target = &AudioBlock{}
	case BlockVideo:
		target = &VideoBlock{}
	default:
		return nil, vaulterr.Invalidf("unknown block type %q", probe.BlockType)
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("%w: decode %s block: %w", vaulterr.ErrInvalid, probe.BlockType, err)
	}
	return target, nil
}

// ResolveMediaPath resolves a block's relative media reference to an absolute
// path inside the vault. Returns false for blocks without media.
func ResolveMediaPath(vaultRoot, setName string, block Block) (string, bool) {
	name, ok := block.MediaFilename()
	if !ok {
		return "", false
	}
	return joinMediaPath(vaultRoot, setName, block.MediaDir(), name), true
}
