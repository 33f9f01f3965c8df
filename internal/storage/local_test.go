package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdantfoods/storefront/internal"
	"github.com/verdantfoods/storefront/internal/domain"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "shopping-cart")
	require.NoError(t, err)

	snap := &domain.CartSnapshot{
		SessionID: "session-1",
		Lines: []domain.CartLine{
			{ProductID: "a", Quantity: 3},
			{ProductID: "b", Quantity: 1},
		},
		SelectedIDs: []string{"a"},
	}

	require.NoError(t, s.Save(context.Background(), snap))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestLocalStorage_LoadMissing(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "shopping-cart")
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	assert.True(t, errors.Is(err, ErrSnapshotNotFound))
}

func TestLocalStorage_SaveReplaces(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "shopping-cart")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &domain.CartSnapshot{SessionID: "s", Lines: []domain.CartLine{{ProductID: "a", Quantity: 1}}}))
	require.NoError(t, s.Save(ctx, &domain.CartSnapshot{SessionID: "s"}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Lines, "last writer wins")
}

func testConfig(t *testing.T, provider string) internal.StorageConfig {
	t.Helper()
	return internal.StorageConfig{
		Provider:  provider,
		StoreName: "shopping-cart",
		LocalPath: t.TempDir(),
	}
}

func TestNewStorage_UnknownProvider(t *testing.T) {
	_, err := NewStorage(testConfig(t, "sqlite"))
	require.Error(t, err)

	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, codeInvalid, se.Code)
}

func TestNewStorage_DefaultsToLocal(t *testing.T) {
	s, err := NewStorage(testConfig(t, ""))
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)
}
