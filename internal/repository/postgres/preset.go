package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ledgerstack/tenant-core/internal/domain"
)

type PresetRepository struct {
	writerDB    *gorm.DB
	readerDB    *gorm.DB
	allowBypass bool
}

func NewPresetRepository(writerDB, readerDB *gorm.DB, allowBypass bool) *PresetRepository {
	return &PresetRepository{
		writerDB:    writerDB,
		readerDB:    readerDB,
		allowBypass: allowBypass,
	}
}

// Upsert keeps one row per (tenant, kind), replacing the payload on
// reinstall so the stored copy always matches what is applied.
func (r *PresetRepository) Upsert(ctx context.Context, preset *domain.TenantPreset) error {
	if err := assignTenant(ctx, &preset.TenantID); err != nil {
		return err
	}
	if preset.ID == "" {
		preset.ID = uuid.New().String()
	}
	return r.writerDB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"payload", "source_country", "source_industry", "is_active", "updated_at",
			}),
		}).
		Create(preset).Error
}

func (r *PresetRepository) Get(ctx context.Context, tenantID string, kind domain.PresetKind) (*domain.TenantPreset, error) {
	var preset domain.TenantPreset
	db := tenantScope(r.readerDB, ctx, r.allowBypass)
	if err := db.First(&preset, "tenant_id = ? AND kind = ?", tenantID, kind).Error; err != nil {
		return nil, err
	}
	return &preset, nil
}

func (r *PresetRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.TenantPreset, error) {
	var presets []domain.TenantPreset
	db := tenantScope(r.readerDB, ctx, r.allowBypass)
	if err := db.Where("tenant_id = ?", tenantID).Order("kind").Find(&presets).Error; err != nil {
		return nil, err
	}
	return presets, nil
}
