package promotions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/streamvault/streamvault-backend/pkg/db/models"
	"github.com/streamvault/streamvault-backend/pkg/pagination"
)

func setupPromotionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	promotions := `
CREATE TABLE IF NOT EXISTS promotions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  discount_percentage TEXT,
  discount_amount TEXT,
  active INTEGER NOT NULL DEFAULT 0,
  starts_at DATETIME,
  ends_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(promotions).Error)

	return db
}

func seedPromotion(t *testing.T, db *gorm.DB, promo *models.Promotion) *models.Promotion {
	t.Helper()
	if promo.ID == uuid.Nil {
		promo.ID = uuid.New()
	}
	require.NoError(t, db.Create(promo).Error)
	return promo
}

func TestFindLive_PicksOldestOverlapping(t *testing.T) {
	db := setupPromotionsTestDB(t)
	repo := NewRepository(db)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	pct := decimal.NewFromInt(10)
	older := seedPromotion(t, db, &models.Promotion{
		Name:               "spring sale",
		DiscountPercentage: &pct,
		Active:             true,
		CreatedAt:          now.Add(-48 * time.Hour),
	})
	seedPromotion(t, db, &models.Promotion{
		Name:      "flash sale",
		Active:    true,
		CreatedAt: now.Add(-time.Hour),
	})

	live, err := repo.FindLive(context.Background(), now)
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, older.ID, live.ID)
}

func TestFindLive_RespectsWindowAndActiveFlag(t *testing.T) {
	db := setupPromotionsTestDB(t)
	repo := NewRepository(db)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	seedPromotion(t, db, &models.Promotion{Name: "inactive", Active: false, CreatedAt: past})
	seedPromotion(t, db, &models.Promotion{Name: "not started", Active: true, StartsAt: &future, CreatedAt: past})
	seedPromotion(t, db, &models.Promotion{Name: "ended", Active: true, EndsAt: &past, CreatedAt: past})

	live, err := repo.FindLive(context.Background(), now)
	require.NoError(t, err)
	assert.Nil(t, live)

	// Inclusive boundaries: a window of exactly [now, now] is live.
	edge := seedPromotion(t, db, &models.Promotion{
		Name:      "edge",
		Active:    true,
		StartsAt:  &now,
		EndsAt:    &now,
		CreatedAt: past,
	})

	live, err = repo.FindLive(context.Background(), now)
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, edge.ID, live.ID)
}

func TestFindLive_NullWindowIsAlwaysLive(t *testing.T) {
	db := setupPromotionsTestDB(t)
	repo := NewRepository(db)

	open := seedPromotion(t, db, &models.Promotion{Name: "evergreen", Active: true, CreatedAt: time.Now().UTC()})

	live, err := repo.FindLive(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, open.ID, live.ID)
}

func TestList_PaginatesNewestFirst(t *testing.T) {
	db := setupPromotionsTestDB(t)
	repo := NewRepository(db)
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		seedPromotion(t, db, &models.Promotion{
			Name:      "promo",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	page, next, err := repo.List(context.Background(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt))

	rest, next, err := repo.List(context.Background(), pagination.Params{
		Limit:  2,
		Cursor: pagination.EncodeCursor(*next),
	})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Nil(t, next)
}
