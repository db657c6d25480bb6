package opensearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/ledgerstack/tenant-core/internal/config"
	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
)

// Repository mirrors audit records into per-tenant monthly indices.
// Postgres stays the source of truth; OpenSearch only serves search, so
// indexing failures are retried by the index worker rather than failing
// the originating request.
type Repository struct {
	client *opensearch.Client
	config *config.OpenSearchConfig
}

func NewRepository(client *opensearch.Client, cfg *config.OpenSearchConfig) *Repository {
	return &Repository{
		client: client,
		config: cfg,
	}
}

var _ repository.OpenSearchRepository = (*Repository)(nil)

func (r *Repository) Index(ctx context.Context, record *domain.AuditRecord) error {
	indexTime := time.Now()
	if !record.Timestamp.IsZero() {
		indexTime = record.Timestamp
	}
	indexName := r.config.GetIndexName(record.TenantID, indexTime)

	if err := r.CreateIndex(ctx, record.TenantID, indexTime); err != nil {
		return fmt.Errorf("failed to ensure index exists: %w", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index:      indexName,
		DocumentID: record.ID,
		Body:       strings.NewReader(string(data)),
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}

	return nil
}

func (r *Repository) BulkIndex(ctx context.Context, records []domain.AuditRecord) error {
	if len(records) == 0 {
		return nil
	}

	// Group records per target index so one request never spans tenants.
	groups := make(map[string][]domain.AuditRecord)
	for _, record := range records {
		indexTime := time.Now()
		if !record.Timestamp.IsZero() {
			indexTime = record.Timestamp
		}
		indexName := r.config.GetIndexName(record.TenantID, indexTime)
		groups[indexName] = append(groups[indexName], record)
	}

	for indexName, group := range groups {
		if err := r.bulkIndexGroup(ctx, indexName, group); err != nil {
			return fmt.Errorf("failed to bulk index group for index %s: %w", indexName, err)
		}
	}

	return nil
}

func (r *Repository) bulkIndexGroup(ctx context.Context, indexName string, records []domain.AuditRecord) error {
	indexTime := time.Now()
	if !records[0].Timestamp.IsZero() {
		indexTime = records[0].Timestamp
	}
	if err := r.CreateIndex(ctx, records[0].TenantID, indexTime); err != nil {
		return fmt.Errorf("failed to ensure index exists: %w", err)
	}

	var bulkBody strings.Builder
	for _, record := range records {
		action := map[string]any{
			"index": map[string]any{
				"_index": indexName,
				"_id":    record.ID,
			},
		}
		actionLine, err := json.Marshal(action)
		if err != nil {
			return fmt.Errorf("failed to marshal action: %w", err)
		}
		bulkBody.Write(actionLine)
		bulkBody.WriteString("\n")

		docLine, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		bulkBody.Write(docLine)
		bulkBody.WriteString("\n")
	}

	req := opensearchapi.BulkRequest{
		Body: strings.NewReader(bulkBody.String()),
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("failed to execute bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk request failed: %s", res.String())
	}

	return nil
}

// Search queries the scoped tenant's index pattern. The pattern itself is
// the isolation boundary here: there is no cross-index fallback.
func (r *Repository) Search(ctx context.Context, filter *domain.AuditFilter) ([]domain.AuditRecord, error) {
	tenantID, err := tenantctx.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	query := buildSearchQuery(filter)

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{r.config.GetIndexPattern(tenantID)},
		Body:  strings.NewReader(string(queryJSON)),
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		// No index yet for this tenant: no records were ever mirrored.
		if res.StatusCode == 404 {
			return []domain.AuditRecord{}, nil
		}
		return nil, fmt.Errorf("search request failed: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source domain.AuditRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var records []domain.AuditRecord
	for _, hit := range searchResult.Hits.Hits {
		records = append(records, hit.Source)
	}

	return records, nil
}

func buildSearchQuery(filter *domain.AuditFilter) map[string]any {
	must := make([]map[string]any, 0)

	exactMatches := map[string]string{
		"user_id":       filter.UserID,
		"operation":     filter.Operation,
		"resource_type": filter.ResourceType,
		"resource_id":   filter.ResourceID,
		"request_id":    filter.RequestID,
		"session_id":    filter.SessionID,
	}
	for field, value := range exactMatches {
		if value != "" {
			must = append(must, termQuery(field, value))
		}
	}

	if filter.IPAddress != "" {
		must = append(must, termQuery("ip_address", filter.IPAddress))
	}

	if !filter.StartTime.IsZero() || !filter.EndTime.IsZero() {
		must = append(must, timeRangeQuery(filter.StartTime, filter.EndTime))
	}

	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": must,
			},
		},
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query["from"] = (filter.Page - 1) * filter.PageSize
		query["size"] = filter.PageSize
	}

	query["sort"] = []map[string]any{
		{
			"timestamp": map[string]any{
				"order": "desc",
			},
		},
		{
			"sequence": map[string]any{
				"order": "desc",
			},
		},
	}

	return query
}

func termQuery(field, value string) map[string]any {
	return map[string]any{
		"term": map[string]any{
			field: value,
		},
	}
}

func timeRangeQuery(startTime, endTime time.Time) map[string]any {
	timeRange := make(map[string]any)
	if !startTime.IsZero() {
		timeRange["gte"] = startTime
	}
	if !endTime.IsZero() {
		timeRange["lte"] = endTime
	}
	return map[string]any{
		"range": map[string]any{
			"timestamp": timeRange,
		},
	}
}

func indexMapping() string {
	return `{
		"mappings": {
			"properties": {
				"id": { "type": "keyword" },
				"tenant_id": { "type": "keyword" },
				"user_id": { "type": "keyword" },
				"session_id": { "type": "keyword" },
				"request_id": { "type": "keyword" },
				"operation": { "type": "keyword" },
				"resource_type": { "type": "keyword" },
				"resource_id": { "type": "keyword" },
				"resource_name": { "type": "text" },
				"old_image": {
					"type": "object",
					"dynamic": true
				},
				"new_image": {
					"type": "object",
					"dynamic": true
				},
				"changed_fields": { "type": "keyword" },
				"compliance_framework": { "type": "keyword" },
				"data_classification": { "type": "keyword" },
				"sensitive": { "type": "boolean" },
				"sequence": { "type": "long" },
				"audit_hash": { "type": "keyword" },
				"timestamp": { "type": "date" },
				"retention_until": { "type": "date" },
				"archived": { "type": "boolean" },
				"ip_address": { "type": "ip" },
				"user_agent": { "type": "text" }
			}
		},
		"settings": {
			"index": {
				"number_of_shards": 1,
				"number_of_replicas": 1,
				"refresh_interval": "1s",
				"mapping": {
					"total_fields": {
						"limit": 2000
					}
				}
			}
		}
	}`
}

func (r *Repository) CreateIndex(ctx context.Context, tenantID string, t time.Time) error {
	indexName := r.config.GetIndexName(tenantID, t)

	exists := opensearchapi.IndicesExistsRequest{
		Index: []string{indexName},
	}
	res, err := exists.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	create := opensearchapi.IndicesCreateRequest{
		Index: indexName,
		Body:  strings.NewReader(indexMapping()),
	}

	res, err = create.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index: %s", res.String())
	}

	return nil
}

// DeleteIndex removes every index belonging to the tenant. Used only by
// offboarding after the retention horizon has passed.
func (r *Repository) DeleteIndex(ctx context.Context, tenantID string) error {
	req := opensearchapi.IndicesDeleteRequest{
		Index: []string{r.config.GetIndexPattern(tenantID)},
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("failed to delete indices: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("error deleting indices: %s", res.String())
	}

	return nil
}
