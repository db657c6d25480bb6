package composite

import (
	opensearchclient "github.com/opensearch-project/opensearch-go/v2"

	"github.com/ledgerstack/tenant-core/internal/config"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/internal/repository/opensearch"
	"github.com/ledgerstack/tenant-core/internal/repository/postgres"
)

type compositeRepository struct {
	repository.PostgresRepository
	osRepo repository.OpenSearchRepository
}

// NewCompositeRepository joins postgres (source of truth) with the
// OpenSearch mirror behind a single Repository.
func NewCompositeRepository(dbConnections *config.DatabaseConnections, osClient *opensearchclient.Client, osConfig *config.OpenSearchConfig, allowBypass bool) repository.Repository {
	return &compositeRepository{
		PostgresRepository: postgres.NewPostgresRepository(dbConnections, allowBypass),
		osRepo:             opensearch.NewRepository(osClient, osConfig),
	}
}

// NewPostgresOnly wraps a postgres repository as a full Repository with
// no OpenSearch mirror. Workers use it: they append audit records but
// never serve search queries.
func NewPostgresOnly(pg repository.PostgresRepository) repository.Repository {
	return &compositeRepository{PostgresRepository: pg}
}

func (r *compositeRepository) OpenSearch() repository.OpenSearchRepository {
	return r.osRepo
}
