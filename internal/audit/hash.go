// Package audit holds the pure pieces of the audit engine: tamper-evident
// hashing, sensitive-field masking, and classification heuristics. The
// recorder service in internal/service composes these with storage.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/ledgerstack/tenant-core/internal/domain"
)

// hashTuple is the canonical subset of an audit record covered by the
// integrity hash. Marshaling a map-backed structure through encoding/json
// yields key-sorted, stable output, which makes the hash recomputable.
type hashTuple struct {
	TenantID     string      `json:"tenant_id"`
	UserID       string      `json:"user_id"`
	Operation    string      `json:"operation"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id"`
	Timestamp    string      `json:"timestamp"`
	OldImage     interface{} `json:"old_image"`
	NewImage     interface{} `json:"new_image"`
}

// ComputeHash returns the 64-char lowercase hex SHA-256 over the canonical
// JSON of the record's core tuple.
func ComputeHash(tenantID, userID string, op domain.Operation, resourceType, resourceID string, ts time.Time, oldImage, newImage domain.JSONB) string {
	tuple := hashTuple{
		TenantID:     tenantID,
		UserID:       userID,
		Operation:    string(op),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Timestamp:    ts.UTC().Format(time.RFC3339Nano),
		OldImage:     decodeImage(oldImage),
		NewImage:     decodeImage(newImage),
	}

	data, err := json.Marshal(tuple)
	if err != nil {
		// The tuple is built from already-valid JSON; a failure here
		// means a programming error, and an empty hash would verify as
		// tampered, which is the safe direction.
		return ""
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// RecordHash recomputes the hash for an existing record.
func RecordHash(r *domain.AuditRecord) string {
	userID := ""
	if r.UserID != nil {
		userID = *r.UserID
	}
	return ComputeHash(r.TenantID, userID, r.Operation, r.ResourceType, r.ResourceID, r.Timestamp, r.OldImage, r.NewImage)
}

// Verify reports whether the stored hash matches the recomputed one.
func Verify(r *domain.AuditRecord) bool {
	return r.AuditHash != "" && r.AuditHash == RecordHash(r)
}

// decodeImage normalizes raw JSON into generic Go values so that byte-level
// formatting differences in the stored jsonb cannot change the hash.
func decodeImage(img domain.JSONB) interface{} {
	if len(img) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(img, &v); err != nil {
		return string(img)
	}
	return v
}
