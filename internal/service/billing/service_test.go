package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zack-george/instanthspro/internal/domain"
	"github.com/zack-george/instanthspro/internal/store/memory"
	appErrors "github.com/zack-george/instanthspro/pkg/errors"
)

func TestPurchase(t *testing.T) {
	st := memory.NewStore(nil)
	ctx := context.Background()
	require.NoError(t, st.CreateProfileIfAbsent(ctx, domain.NewProfile("user-1", "u@example.com")))

	svc := NewService(st, nil, nil, nil)

	balance, err := svc.Purchase(ctx, "user-1", "starter")
	require.NoError(t, err)
	assert.Equal(t, 100, balance)

	balance, err = svc.Purchase(ctx, "user-1", "pro")
	require.NoError(t, err)
	assert.Equal(t, 600, balance)

	stored, err := st.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 600, stored.Credits)
}

func TestPurchaseUnknownPack(t *testing.T) {
	st := memory.NewStore(nil)
	svc := NewService(st, nil, nil, nil)

	_, err := svc.Purchase(context.Background(), "user-1", "mega")
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
}

func TestPurchaseMissingProfile(t *testing.T) {
	st := memory.NewStore(nil)
	svc := NewService(st, nil, nil, nil)

	_, err := svc.Purchase(context.Background(), "ghost", "starter")
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestFindPack(t *testing.T) {
	pack, ok := FindPack("studio")
	require.True(t, ok)
	assert.Equal(t, 1000, pack.Credits)

	_, ok = FindPack("nope")
	assert.False(t, ok)
}
