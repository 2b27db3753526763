package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxUploadImages bounds the number of selfies accepted per batch.
const MaxUploadImages = 5

// GenerationRecord is one completed generation batch. Records are
// append-only: they are written once, after at least one image was
// produced, and never mutated or deleted.
type GenerationRecord struct {
	ID        string    `json:"id" dynamodbav:"RecordID"`
	OwnerID   string    `json:"ownerId" dynamodbav:"OwnerID"`
	Images    []string  `json:"images" dynamodbav:"Images"` // data-URI encoded results, in generation order
	CreatedAt time.Time `json:"createdAt" dynamodbav:"CreatedAt"`
}

// NewGenerationRecord assembles a record for a non-empty result batch.
func NewGenerationRecord(ownerID string, images []string) GenerationRecord {
	return GenerationRecord{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Images:    images,
		CreatedAt: time.Now().UTC(),
	}
}

// UploadImage is one user-selected source image awaiting generation.
type UploadImage struct {
	Name string
	MIME string
	Data []byte
}

// StyleSuggestion is an ephemeral suggestion produced by the text model.
// It is shown to the user and never persisted.
type StyleSuggestion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GalleryView flattens all image references across the given records,
// deduplicates by value, and orders them newest-record-first. Records are
// expected in store order (oldest first); the projection reverses them.
func GalleryView(records []GenerationRecord) []string {
	seen := make(map[string]bool)
	var images []string
	for i := len(records) - 1; i >= 0; i-- {
		for _, img := range records[i].Images {
			if seen[img] {
				continue
			}
			seen[img] = true
			images = append(images, img)
		}
	}
	return images
}
