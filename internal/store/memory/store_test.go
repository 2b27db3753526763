package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zack-george/instanthspro/internal/domain"
	"github.com/zack-george/instanthspro/internal/store"
)

func receiveProfile(t *testing.T, ch <-chan domain.Profile) domain.Profile {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for profile update")
		return domain.Profile{}
	}
}

func receiveRecords(t *testing.T, ch <-chan []domain.GenerationRecord) []domain.GenerationRecord {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for generation update")
		return nil
	}
}

func TestProfileLifecycle(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	_, err := s.GetProfile(ctx, "user-1")
	require.True(t, store.IsNotFound(err))

	profile := domain.NewProfile("user-1", "u@example.com")
	require.NoError(t, s.CreateProfileIfAbsent(ctx, profile))

	got, err := s.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Credits)

	err = s.CreateProfileIfAbsent(ctx, profile)
	assert.True(t, store.IsAlreadyExists(err))
}

func TestUpdateCredits(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	err := s.UpdateCredits(ctx, "missing", 10)
	assert.True(t, store.IsNotFound(err))

	require.NoError(t, s.CreateProfileIfAbsent(ctx, domain.NewProfile("user-1", "u@example.com")))
	require.NoError(t, s.UpdateCredits(ctx, "user-1", 150))

	got, err := s.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 150, got.Credits)
}

func TestSubscribeProfileDeliversUpdates(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	ch, cancel, err := s.SubscribeProfile(ctx, "user-1")
	require.NoError(t, err)
	defer cancel()

	// No record yet: no initial snapshot.
	select {
	case p := <-ch:
		t.Fatalf("unexpected initial snapshot: %+v", p)
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, s.CreateProfileIfAbsent(ctx, domain.NewProfile("user-1", "u@example.com")))
	assert.Equal(t, 0, receiveProfile(t, ch).Credits)

	require.NoError(t, s.UpdateCredits(ctx, "user-1", 100))
	assert.Equal(t, 100, receiveProfile(t, ch).Credits)
}

func TestSubscribeProfileInitialSnapshot(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	require.NoError(t, s.CreateProfileIfAbsent(ctx, domain.NewProfile("user-1", "u@example.com")))
	require.NoError(t, s.UpdateCredits(ctx, "user-1", 42))

	ch, cancel, err := s.SubscribeProfile(ctx, "user-1")
	require.NoError(t, err)
	defer cancel()

	assert.Equal(t, 42, receiveProfile(t, ch).Credits)
}

func TestSubscriptionTeardown(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	ch, cancel, err := s.SubscribeProfile(ctx, "user-1")
	require.NoError(t, err)

	cancel()
	// Cancel must be idempotent.
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Writes after teardown must not panic.
	require.NoError(t, s.CreateProfileIfAbsent(ctx, domain.NewProfile("user-1", "u@example.com")))
}

func TestSubscribeGenerations(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	ch, cancel, err := s.SubscribeGenerations(ctx, "user-1")
	require.NoError(t, err)
	defer cancel()

	assert.Empty(t, receiveRecords(t, ch))

	rec := domain.NewGenerationRecord("user-1", []string{"data:image/png;base64,AAAA"})
	require.NoError(t, s.AppendGeneration(ctx, rec))

	records := receiveRecords(t, ch)
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)
}

func TestListGenerationsOldestFirst(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	older := domain.GenerationRecord{ID: "a", OwnerID: "u", CreatedAt: time.Now().Add(-time.Hour)}
	newer := domain.GenerationRecord{ID: "b", OwnerID: "u", CreatedAt: time.Now()}

	require.NoError(t, s.AppendGeneration(ctx, newer))
	require.NoError(t, s.AppendGeneration(ctx, older))

	records, err := s.ListGenerations(ctx, "u")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
}

func TestGenerationsAreScopedByOwner(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	require.NoError(t, s.AppendGeneration(ctx, domain.NewGenerationRecord("user-1", []string{"x"})))

	records, err := s.ListGenerations(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, records)
}
