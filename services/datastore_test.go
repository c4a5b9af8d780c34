package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crous-x/models"
)

type stubSource struct {
	raw       []*models.RawListing
	err       error
	fetches   int
	refreshes int
}

func (s *stubSource) FetchAll(ctx context.Context) ([]*models.RawListing, error) {
	s.fetches++
	return s.raw, s.err
}

type refreshingSource struct {
	stubSource
}

func (s *refreshingSource) Refresh(ctx context.Context) ([]*models.RawListing, error) {
	s.refreshes++
	return s.raw, s.err
}

func TestDataStoreLoad(t *testing.T) {
	src := &stubSource{raw: []*models.RawListing{
		{ID: i64(1), Title: str("Studio")},
		{ID: i64(2)},
	}}
	store := NewDataStore(src, newTestLogger(t))

	assert.Empty(t, store.GetAll())
	assert.False(t, store.Loaded())

	store.Load(context.Background())

	require.Len(t, store.GetAll(), 1)
	assert.Equal(t, int64(1), store.GetAll()[0].ID)
	assert.True(t, store.Loaded())
}

func TestDataStoreLoadFailureLeavesEmptyStore(t *testing.T) {
	src := &stubSource{raw: []*models.RawListing{{ID: i64(1), Title: str("Studio")}}}
	store := NewDataStore(src, newTestLogger(t))
	store.Load(context.Background())
	require.Len(t, store.GetAll(), 1)

	src.err = errors.New("connection refused")
	store.Reload(context.Background())

	assert.NotNil(t, store.GetAll())
	assert.Empty(t, store.GetAll())
}

func TestDataStoreNilSource(t *testing.T) {
	store := NewDataStore(nil, newTestLogger(t))
	store.Load(context.Background())
	assert.Empty(t, store.GetAll())
	assert.True(t, store.Loaded())
}

func TestDataStoreReloadUsesRefresher(t *testing.T) {
	src := &refreshingSource{stubSource{raw: []*models.RawListing{{ID: i64(1), Title: str("Studio")}}}}
	store := NewDataStore(src, newTestLogger(t))

	store.Load(context.Background())
	store.Reload(context.Background())

	assert.Equal(t, 1, src.fetches)
	assert.Equal(t, 1, src.refreshes)
}

func TestDataStoreGetAllReturnsCopy(t *testing.T) {
	src := &stubSource{raw: []*models.RawListing{
		{ID: i64(1), Title: str("Studio")},
		{ID: i64(2), Title: str("T2")},
	}}
	store := NewDataStore(src, newTestLogger(t))
	store.Load(context.Background())

	got := store.GetAll()
	got[0] = nil
	_ = append(got[:1], &models.Listing{ID: 99})

	again := store.GetAll()
	require.Len(t, again, 2)
	assert.Equal(t, int64(1), again[0].ID)
	assert.Equal(t, int64(2), again[1].ID)
}
