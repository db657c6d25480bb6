package audit

import (
	"encoding/json"
	"strings"

	"github.com/ledgerstack/tenant-core/internal/domain"
)

// MaskedValue replaces sensitive field values in audit images.
const MaskedValue = "***MASKED***"

// sensitiveSubstrings is matched against lowercased field names. The name
// heuristic is the fallback; entities may additionally declare sensitive
// fields at the schema level.
var sensitiveSubstrings = []string{
	"password",
	"ssn",
	"credit_card",
	"bank_account",
	"routing_number",
	"api_key",
	"secret",
	"token",
	"private_key",
	"encryption_key",
}

// IsSensitiveField reports whether a field name matches the sensitive set.
func IsSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range sensitiveSubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// MaskMap replaces values of sensitive fields, recursing into nested
// objects and into arrays of objects. The input map is not modified.
func MaskMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if IsSensitiveField(k) {
			out[k] = MaskedValue
			continue
		}
		out[k] = maskValue(v)
	}
	return out
}

func maskValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return MaskMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, elem := range t {
			out[i] = maskValue(elem)
		}
		return out
	default:
		return v
	}
}

// MaskImage masks a raw JSON image. Non-object images pass through.
func MaskImage(img domain.JSONB) domain.JSONB {
	if len(img) == 0 {
		return img
	}
	var m map[string]interface{}
	if err := json.Unmarshal(img, &m); err != nil {
		return img
	}
	masked, err := json.Marshal(MaskMap(m))
	if err != nil {
		return img
	}
	return domain.JSONB(masked)
}
