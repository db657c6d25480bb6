package domain

import (
	"time"
)

// PresetKind identifies one bundle of reference data.
type PresetKind string

const (
	PresetCurrency         PresetKind = "currency"
	PresetTaxCategories    PresetKind = "tax_categories"
	PresetTaxRates         PresetKind = "tax_rates"
	PresetAccountTypes     PresetKind = "account_types"
	PresetChartOfAccounts  PresetKind = "chart_of_accounts"
	PresetInvoiceNumbering PresetKind = "invoice_numbering"
	PresetEInvoiceConfig   PresetKind = "einvoice_config"
	PresetCountrySettings  PresetKind = "country_settings"
)

// PresetInstallOrder is the strict engine sequence: later kinds may
// reference rows created by earlier ones.
var PresetInstallOrder = []PresetKind{
	PresetCurrency,
	PresetTaxCategories,
	PresetTaxRates,
	PresetAccountTypes,
	PresetChartOfAccounts,
	PresetInvoiceNumbering,
	PresetEInvoiceConfig,
	PresetCountrySettings,
}

// TenantPreset stores the payload that was applied for a tenant and kind,
// kept for reproducibility. Unique on (tenant, kind).
type TenantPreset struct {
	ID             string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TenantID       string     `gorm:"type:uuid;not null;uniqueIndex:idx_tenant_presets_tenant_kind" json:"tenant_id"`
	Kind           PresetKind `gorm:"type:text;not null;uniqueIndex:idx_tenant_presets_tenant_kind" json:"kind"`
	Payload        JSONB      `gorm:"type:jsonb" json:"payload,omitempty"`
	SourceCountry  string     `gorm:"type:text" json:"source_country"`
	SourceIndustry string     `gorm:"type:text" json:"source_industry"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time  `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
	Tenant         *Tenant    `gorm:"foreignKey:TenantID" json:"-"`
}

func (TenantPreset) TableName() string {
	return "tenant_presets"
}

// Countries with supported tax regimes and e-invoicing mandates. Used by
// the engine when finalizing tenant capability flags.
var (
	TaxSupportedCountries      = map[string]bool{"MY": true, "SG": true, "TH": true, "ID": true, "PH": true, "VN": true}
	EInvoiceSupportedCountries = map[string]bool{"MY": true, "SG": true}
)
