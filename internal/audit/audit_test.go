package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerstack/tenant-core/internal/domain"
)

func TestIsSensitiveField(t *testing.T) {
	assert.True(t, IsSensitiveField("password"))
	assert.True(t, IsSensitiveField("PasswordHash"))
	assert.True(t, IsSensitiveField("user_api_key"))
	assert.True(t, IsSensitiveField("refresh_token"))
	assert.False(t, IsSensitiveField("email"))
	assert.False(t, IsSensitiveField("name"))
}

func TestMaskMap(t *testing.T) {
	in := map[string]interface{}{
		"name":     "Acme",
		"password": "hunter2",
		"billing": map[string]interface{}{
			"credit_card": "4111111111111111",
			"city":        "Kuala Lumpur",
		},
	}

	out := MaskMap(in)

	assert.Equal(t, "Acme", out["name"])
	assert.Equal(t, MaskedValue, out["password"])
	nested := out["billing"].(map[string]interface{})
	assert.Equal(t, MaskedValue, nested["credit_card"])
	assert.Equal(t, "Kuala Lumpur", nested["city"])

	// input untouched
	assert.Equal(t, "hunter2", in["password"])
	assert.Equal(t, "4111111111111111", in["billing"].(map[string]interface{})["credit_card"])
}

func TestMaskMapArrays(t *testing.T) {
	in := map[string]interface{}{
		"lines": []interface{}{
			map[string]interface{}{
				"description": "settlement",
				"credit_card": "4111-1111-1111-1111",
			},
			map[string]interface{}{
				"description": "refund",
				"bank_account": map[string]interface{}{
					"number": "123",
				},
			},
		},
		"tags": []interface{}{"a", "b"},
	}

	out := MaskMap(in)

	lines := out["lines"].([]interface{})
	first := lines[0].(map[string]interface{})
	assert.Equal(t, "settlement", first["description"])
	assert.Equal(t, MaskedValue, first["credit_card"])
	second := lines[1].(map[string]interface{})
	assert.Equal(t, MaskedValue, second["bank_account"])
	assert.Equal(t, []interface{}{"a", "b"}, out["tags"])

	// input untouched
	assert.Equal(t, "4111-1111-1111-1111", in["lines"].([]interface{})[0].(map[string]interface{})["credit_card"])
}

func TestMaskMapNil(t *testing.T) {
	assert.Nil(t, MaskMap(nil))
}

func TestClassify(t *testing.T) {
	class, sensitive := Classify(map[string]interface{}{"email": "a@b.com"})
	assert.Equal(t, domain.ClassConfidential, class)
	assert.True(t, sensitive)

	class, sensitive = Classify(map[string]interface{}{"balance": 100.0})
	assert.Equal(t, domain.ClassConfidential, class)
	assert.False(t, sensitive)

	class, sensitive = Classify(map[string]interface{}{"slug": "acme"})
	assert.Equal(t, domain.ClassInternal, class)
	assert.False(t, sensitive)

	class, sensitive = Classify(map[string]interface{}{"is_sensitive": true, "note": "x"})
	assert.Equal(t, domain.ClassConfidential, class)
	assert.True(t, sensitive)

	class, sensitive = Classify(nil)
	assert.Equal(t, domain.ClassInternal, class)
	assert.False(t, sensitive)
}

func TestFrameworkFor(t *testing.T) {
	assert.Equal(t, domain.FrameworkHIPAA, FrameworkFor(map[string]interface{}{"diagnosis": "x"}))
	assert.Equal(t, domain.FrameworkGDPR, FrameworkFor(map[string]interface{}{"email": "a@b.com"}))
	assert.Equal(t, domain.FrameworkSOX, FrameworkFor(map[string]interface{}{"amount": 1}))
	assert.Equal(t, domain.FrameworkSOX, FrameworkFor(nil))
}

func TestChangedFields(t *testing.T) {
	old := map[string]interface{}{"name": "a", "plan": "trial", "kept": 1}
	new := map[string]interface{}{"name": "b", "plan": "trial", "kept": 1, "added": true}

	assert.Equal(t, []string{"added", "name"}, ChangedFields(old, new))
	assert.Empty(t, ChangedFields(old, old))
	assert.Equal(t, []string{"added", "kept", "name", "plan"}, ChangedFields(nil, new))
}

func TestComputeHashStable(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	h1 := ComputeHash("t1", "u1", domain.OpUpdate, "tenant", "t1", ts,
		domain.JSONB(`{"a":1,"b":2}`), nil)
	// same content, different jsonb formatting
	h2 := ComputeHash("t1", "u1", domain.OpUpdate, "tenant", "t1", ts,
		domain.JSONB(`{ "b": 2, "a": 1 }`), nil)

	require.Len(t, h1, 64)
	assert.Equal(t, h1, h2)

	h3 := ComputeHash("t1", "u1", domain.OpUpdate, "tenant", "t1", ts,
		domain.JSONB(`{"a":1,"b":3}`), nil)
	assert.NotEqual(t, h1, h3)
}

func TestVerify(t *testing.T) {
	uid := "u1"
	record := &domain.AuditRecord{
		ID:           "r1",
		TenantID:     "t1",
		UserID:       &uid,
		Operation:    domain.OpCreate,
		ResourceType: "user",
		ResourceID:   "u2",
		NewImage:     domain.JSONB(`{"name":"bob"}`),
		Timestamp:    time.Now().UTC(),
	}
	record.AuditHash = RecordHash(record)
	assert.True(t, Verify(record))

	record.ResourceID = "u3"
	assert.False(t, Verify(record))

	record.AuditHash = ""
	assert.False(t, Verify(record))
}
