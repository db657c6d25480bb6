package config

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
)

// OpenSearchConfig points at the audit search cluster. Indices are
// per-tenant and per-day so retention sweeps can drop whole indices.
type OpenSearchConfig struct {
	Host        string
	Port        string
	Username    string
	Password    string
	IndexPrefix string
}

func DefaultOpenSearchConfig() *OpenSearchConfig {
	return &OpenSearchConfig{
		Host:        getEnvOrDefault("OPENSEARCH_HOST", "localhost"),
		Port:        getEnvOrDefault("OPENSEARCH_PORT", "9200"),
		Username:    getEnvOrDefault("OPENSEARCH_USERNAME", ""),
		Password:    getEnvOrDefault("OPENSEARCH_PASSWORD", ""),
		IndexPrefix: getEnvOrDefault("OPENSEARCH_INDEX_PREFIX", "audit_records"),
	}
}

func (c *OpenSearchConfig) GetClient() (*opensearch.Client, error) {
	cfg := opensearch.Config{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
		Addresses: []string{
			fmt.Sprintf("http://%s:%s", c.Host, c.Port),
		},
	}
	if c.Username != "" && c.Password != "" {
		cfg.Username = c.Username
		cfg.Password = c.Password
	}
	return opensearch.NewClient(cfg)
}

// GetIndexName returns <prefix>_<tenant_id>_YYYY_MM_DD for the day the
// record was written.
func (c *OpenSearchConfig) GetIndexName(tenantID string, t time.Time) string {
	return fmt.Sprintf("%s_%s_%s", c.prefix(), tenantID, t.Format("2006_01_02"))
}

// GetIndexPattern matches every daily index of one tenant.
func (c *OpenSearchConfig) GetIndexPattern(tenantID string) string {
	return fmt.Sprintf("%s_%s_*", c.prefix(), tenantID)
}

func (c *OpenSearchConfig) prefix() string {
	if c.IndexPrefix == "" {
		return "audit_records"
	}
	return c.IndexPrefix
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
