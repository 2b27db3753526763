package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/zack-george/instanthspro/pkg/errors"
)

func TestProfileDebit(t *testing.T) {
	t.Run("SufficientBalance", func(t *testing.T) {
		p := Profile{Credits: 100}
		balance, err := p.Debit(GenerationCost)
		require.NoError(t, err)
		assert.Equal(t, 50, balance)
	})

	t.Run("ExactBalance", func(t *testing.T) {
		p := Profile{Credits: GenerationCost}
		balance, err := p.Debit(GenerationCost)
		require.NoError(t, err)
		assert.Equal(t, 0, balance)
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		p := Profile{Credits: 49}
		_, err := p.Debit(GenerationCost)
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("NegativeAmount", func(t *testing.T) {
		p := Profile{Credits: 100}
		_, err := p.Debit(-1)
		require.Error(t, err)
	})
}

func TestProfileAddCredits(t *testing.T) {
	p := Profile{Credits: 10}

	balance, err := p.AddCredits(100)
	require.NoError(t, err)
	assert.Equal(t, 110, balance)

	_, err = p.AddCredits(0)
	assert.Error(t, err)

	_, err = p.AddCredits(-5)
	assert.Error(t, err)
}

func TestProfileCanAfford(t *testing.T) {
	assert.False(t, Profile{Credits: 49}.CanAfford())
	assert.True(t, Profile{Credits: 50}.CanAfford())
	assert.True(t, Profile{Credits: 51}.CanAfford())
}

func TestNewProfileStartsAtZero(t *testing.T) {
	p := NewProfile("user-1", "user@example.com")
	assert.Equal(t, "user-1", p.IdentityID)
	assert.Equal(t, "user@example.com", p.Email)
	assert.Equal(t, 0, p.Credits)
}

func TestGalleryViewOrdering(t *testing.T) {
	older := GenerationRecord{
		OwnerID:   "u",
		Images:    []string{"img-a", "img-b"},
		CreatedAt: time.Now().Add(-time.Hour),
	}
	newer := GenerationRecord{
		OwnerID:   "u",
		Images:    []string{"img-c"},
		CreatedAt: time.Now(),
	}

	view := GalleryView([]GenerationRecord{older, newer})
	assert.Equal(t, []string{"img-c", "img-a", "img-b"}, view)
}

func TestGalleryViewDeduplicates(t *testing.T) {
	first := GenerationRecord{Images: []string{"img-a", "img-b"}}
	second := GenerationRecord{Images: []string{"img-b", "img-c"}}

	view := GalleryView([]GenerationRecord{first, second})

	// Newest record wins the first occurrence of a duplicate.
	assert.Equal(t, []string{"img-b", "img-c", "img-a"}, view)
}

func TestGalleryViewEmpty(t *testing.T) {
	assert.Empty(t, GalleryView(nil))
	assert.Empty(t, GalleryView([]GenerationRecord{}))
}

func TestNewGenerationRecord(t *testing.T) {
	rec := NewGenerationRecord("user-1", []string{"data:image/png;base64,AAAA"})
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "user-1", rec.OwnerID)
	assert.Len(t, rec.Images, 1)
	assert.WithinDuration(t, time.Now(), rec.CreatedAt, time.Minute)
}
