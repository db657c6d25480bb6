package audit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledgerstack/tenant-core/internal/domain"
)

var (
	financialFields = []string{"balance", "amount", "debit", "credit", "rate", "price", "cost"}
	personalFields  = []string{"email", "phone", "address", "birth", "national_id"}
	medicalFields   = []string{"diagnosis", "medical", "patient", "prescription"}
)

func hasAnyField(m map[string]interface{}, substrings []string) bool {
	for k := range m {
		lower := strings.ToLower(k)
		for _, s := range substrings {
			if strings.Contains(lower, s) {
				return true
			}
		}
	}
	return false
}

// Classify determines the data classification of an image and whether it
// carries sensitive personal data. Financial and personal fields are
// CONFIDENTIAL; personal fields additionally set the sensitive flag.
func Classify(image map[string]interface{}) (domain.DataClassification, bool) {
	if image == nil {
		return domain.ClassInternal, false
	}
	if flagged, ok := image["is_sensitive"].(bool); ok && flagged {
		return domain.ClassConfidential, true
	}
	if hasAnyField(image, personalFields) {
		return domain.ClassConfidential, true
	}
	if hasAnyField(image, financialFields) {
		return domain.ClassConfidential, false
	}
	return domain.ClassInternal, false
}

// FrameworkFor picks the compliance framework governing a record from the
// fields it touches. Financial data is SOX, personal data GDPR, medical
// HIPAA; SOX is the default regime for an accounting platform.
func FrameworkFor(image map[string]interface{}) domain.ComplianceFramework {
	if image == nil {
		return domain.FrameworkSOX
	}
	if hasAnyField(image, medicalFields) {
		return domain.FrameworkHIPAA
	}
	if hasAnyField(image, personalFields) {
		return domain.FrameworkGDPR
	}
	return domain.FrameworkSOX
}

// ChangedFields computes the symmetric difference between two images as a
// sorted list of field names whose stringified values differ.
func ChangedFields(oldImage, newImage map[string]interface{}) []string {
	changed := map[string]bool{}
	for k, ov := range oldImage {
		nv, ok := newImage[k]
		if !ok || stringify(ov) != stringify(nv) {
			changed[k] = true
		}
	}
	for k := range newImage {
		if _, ok := oldImage[k]; !ok {
			changed[k] = true
		}
	}

	fields := make([]string, 0, len(changed))
	for k := range changed {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

func stringify(v interface{}) string {
	return fmt.Sprintf("%v", v)
}
