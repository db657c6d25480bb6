package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledgerstack/tenant-core/internal/domain"
)

type OnboardingRepository struct {
	writerDB    *gorm.DB
	readerDB    *gorm.DB
	allowBypass bool
}

func NewOnboardingRepository(writerDB, readerDB *gorm.DB, allowBypass bool) *OnboardingRepository {
	return &OnboardingRepository{
		writerDB:    writerDB,
		readerDB:    readerDB,
		allowBypass: allowBypass,
	}
}

// GetOrCreate returns the tenant's progress row, initializing it at step
// one on first access. The unique index on tenant_id makes concurrent
// first accesses converge on a single row.
func (r *OnboardingRepository) GetOrCreate(ctx context.Context, tenantID string) (*domain.OnboardingProgress, error) {
	progress, err := r.Get(ctx, tenantID)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &domain.OnboardingProgress{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		CurrentStep:    domain.StepSubscription,
		CompletedSteps: domain.IntList{},
		StepData:       domain.JSONB{},
	}
	if err := r.writerDB.WithContext(ctx).Create(fresh).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.Get(ctx, tenantID)
		}
		return nil, err
	}
	return fresh, nil
}

func (r *OnboardingRepository) Get(ctx context.Context, tenantID string) (*domain.OnboardingProgress, error) {
	var progress domain.OnboardingProgress
	db := tenantScope(r.readerDB, ctx, r.allowBypass)
	if err := db.First(&progress, "tenant_id = ?", tenantID).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *OnboardingRepository) Update(ctx context.Context, progress *domain.OnboardingProgress) error {
	if err := assignTenant(ctx, &progress.TenantID); err != nil {
		return err
	}
	return r.writerDB.WithContext(ctx).Save(progress).Error
}
