package clinics

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/caremesh/caremesh-backend/pkg/db/models"
	pkgerrors "github.com/caremesh/caremesh-backend/pkg/errors"
)

func setupClinicsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	clinics := `
CREATE TABLE IF NOT EXISTS clinics (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  stripe_account_id TEXT,
  doctor_fee NUMERIC NOT NULL DEFAULT 0,
  sync_visit_fee NUMERIC NOT NULL DEFAULT 0,
  async_visit_fee NUMERIC NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	tiers := `
CREATE TABLE IF NOT EXISTS clinic_fee_tiers (
  id TEXT PRIMARY KEY,
  clinic_id TEXT NOT NULL,
  min_orders INTEGER NOT NULL DEFAULT 0,
  platform_fee_percent NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`

	for _, stmt := range []string{clinics, tiers} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func TestClinicRepositoryFindBySlug(t *testing.T) {
	db := setupClinicsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	clinic := &models.Clinic{ID: uuid.New(), Name: "Coastal Health", Slug: "coastal", Active: true}
	require.NoError(t, db.Create(clinic).Error)
	tier := &models.ClinicFeeTier{ID: uuid.New(), ClinicID: clinic.ID, MinOrders: 0}
	require.NoError(t, db.Create(tier).Error)

	found, err := repo.FindBySlug(ctx, "coastal")
	require.NoError(t, err)
	assert.Equal(t, clinic.ID, found.ID)
	assert.Len(t, found.FeeTiers, 1)
}

func TestClinicRepositoryMissingReturnsNotFound(t *testing.T) {
	db := setupClinicsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = repo.FindBySlug(ctx, "no-such-clinic")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
