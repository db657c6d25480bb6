package postgres

import (
	"github.com/ledgerstack/tenant-core/internal/config"
	"github.com/ledgerstack/tenant-core/internal/repository"
)

type postgresRepository struct {
	tenantRepo     repository.TenantRepository
	userRepo       repository.UserRepository
	onboardingRepo repository.OnboardingRepository
	presetRepo     repository.PresetRepository
	referenceRepo  repository.ReferenceRepository
	auditRepo      repository.AuditRepository
}

// NewPostgresRepository wires every table repository to the writer/reader
// pair. allowBypass comes from configuration and gates the system-context
// escape hatch in tenantScope.
func NewPostgresRepository(dbConnections *config.DatabaseConnections, allowBypass bool) repository.PostgresRepository {
	writer, reader := dbConnections.Writer, dbConnections.Reader
	return &postgresRepository{
		tenantRepo:     NewTenantRepository(writer, reader),
		userRepo:       NewUserRepository(writer, reader, allowBypass),
		onboardingRepo: NewOnboardingRepository(writer, reader, allowBypass),
		presetRepo:     NewPresetRepository(writer, reader, allowBypass),
		referenceRepo:  NewReferenceRepository(writer, reader, allowBypass),
		auditRepo:      NewAuditRepository(writer, reader, allowBypass),
	}
}

func (r *postgresRepository) Tenant() repository.TenantRepository {
	return r.tenantRepo
}

func (r *postgresRepository) User() repository.UserRepository {
	return r.userRepo
}

func (r *postgresRepository) Onboarding() repository.OnboardingRepository {
	return r.onboardingRepo
}

func (r *postgresRepository) Preset() repository.PresetRepository {
	return r.presetRepo
}

func (r *postgresRepository) Reference() repository.ReferenceRepository {
	return r.referenceRepo
}

func (r *postgresRepository) Audit() repository.AuditRepository {
	return r.auditRepo
}
