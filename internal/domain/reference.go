package domain

import (
	"time"
)

// Company is the tenant's legal entity profile, written during onboarding
// step 3. Exactly one company per tenant is primary.
type Company struct {
	ID           string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TenantID     string    `gorm:"type:uuid;not null;index" json:"tenant_id"`
	LegalName    string    `gorm:"type:text;not null" json:"legal_name"`
	CountryCode  string    `gorm:"type:text;not null" json:"country_code"`
	IndustryCode string    `gorm:"type:text" json:"industry_code"`
	Timezone     string    `gorm:"type:text" json:"timezone"`
	Currency     string    `gorm:"type:text" json:"currency"`
	TaxID        string    `gorm:"type:text" json:"tax_id,omitempty"`
	Address      JSONB     `gorm:"type:jsonb" json:"address,omitempty"`
	IsPrimary    bool      `gorm:"not null;default:false" json:"is_primary"`
	CreatedBy    string    `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy    string    `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt    time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
	Tenant       *Tenant   `gorm:"foreignKey:TenantID" json:"-"`
}

func (Company) TableName() string {
	return "companies"
}

type Currency struct {
	ID            string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TenantID      string    `gorm:"type:uuid;not null;uniqueIndex:idx_currencies_tenant_code" json:"tenant_id"`
	Code          string    `gorm:"type:text;not null;uniqueIndex:idx_currencies_tenant_code" json:"code"`
	Name          string    `gorm:"type:text;not null" json:"name"`
	Symbol        string    `gorm:"type:text" json:"symbol"`
	DecimalPlaces int       `gorm:"not null;default:2" json:"decimal_places"`
	IsBase        bool      `gorm:"not null;default:false" json:"is_base"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Currency) TableName() string {
	return "currencies"
}

type CurrencyConfig struct {
	ID              string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TenantID        string    `gorm:"type:uuid;not null;uniqueIndex" json:"tenant_id"`
	BaseCurrency    string    `gorm:"type:text;not null" json:"base_currency"`
	AutoUpdateRates bool      `gorm:"not null;default:false" json:"auto_update_rates"`
	CreatedAt       time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (CurrencyConfig) TableName() string {
	return "currency_configs"
}

type ExchangeRate struct {
	ID            string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TenantID      string    `gorm:"type:uuid;not null;index" json:"tenant_id"`
	FromCurrency  string    `gorm:"type:text;not null" json:"from_currency"`
	ToCurrency    string    `gorm:"type:text;not null" json:"to_currency"`
	Rate          float64   `gorm:"type:numeric(20,10);not null" json:"rate"`
	Source        string    `gorm:"type:text;not null;default:'manual'" json:"source"`
	EffectiveDate time.Time `gorm:"type:timestamp with time zone;not null" json:"effective_date"`
	CreatedAt     time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ExchangeRate) TableName() string {
	return "exchange_rates"
}

type TaxCategory struct {
	ID          string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TenantID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_tax_categories_tenant_code" json:"tenant_id"`
	Code        string    `gorm:"type:text;not null;uniqueIndex:idx_tax_categories_tenant_code" json:"code"`
	Name        string    `gorm:"type:text;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (TaxCategory) TableName() string {
	return "tax_categories"
}

type TaxRate struct {
	ID            string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TenantID      string     `gorm:"type:uuid;not null;uniqueIndex:idx_tax_rates_tenant_code" json:"tenant_id"`
	CategoryID    *string    `gorm:"type:uuid" json:"category_id,omitempty"`
	Code          string     `gorm:"type:text;not null;uniqueIndex:idx_tax_rates_tenant_code" json:"code"`
	Name          string     `gorm:"type:text;not null" json:"name"`
	Rate          float64    `gorm:"type:numeric(8,4);not null" json:"rate"`
	TaxType       string     `gorm:"type:text" json:"tax_type"`
	Region        string     `gorm:"type:text" json:"region,omitempty"`
	IsDefault     bool       `gorm:"not null;default:false" json:"is_default"`
	IsActive      bool       `gorm:"not null;default:true" json:"is_active"`
	Description   string     `gorm:"type:text" json:"description"`
	EffectiveFrom *time.Time `gorm:"type:date" json:"effective_from,omitempty"`
	CreatedAt     time.Time  `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (TaxRate) TableName() string {
	return "tax_rates"
}

type AccountType struct {
	ID            string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TenantID      string    `gorm:"type:uuid;not null;uniqueIndex:idx_account_types_tenant_code" json:"tenant_id"`
	Code          string    `gorm:"type:text;not null;uniqueIndex:idx_account_types_tenant_code" json:"code"`
	Name          string    `gorm:"type:text;not null" json:"name"`
	Category      string    `gorm:"type:text;not null" json:"category"`
	NormalBalance string    `gorm:"type:text;not null" json:"normal_balance"`
	CreatedAt     time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AccountType) TableName() string {
	return "account_types"
}

// ChartOfAccount preserves parent/child structure by code so presets can
// be applied in any file order.
type ChartOfAccount struct {
	ID            string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TenantID      string    `gorm:"type:uuid;not null;uniqueIndex:idx_coa_tenant_code" json:"tenant_id"`
	Code          string    `gorm:"type:text;not null;uniqueIndex:idx_coa_tenant_code" json:"code"`
	Name          string    `gorm:"type:text;not null" json:"name"`
	Type          string    `gorm:"type:text;not null" json:"type"`
	ParentID      *string   `gorm:"type:uuid" json:"parent_id,omitempty"`
	ParentCode    string    `gorm:"type:text" json:"parent_code,omitempty"`
	NormalBalance string    `gorm:"type:text;not null;default:'debit'" json:"normal_balance"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedBy     string    `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy     string    `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt     time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ChartOfAccount) TableName() string {
	return "chart_of_accounts"
}

type InvoiceNumbering struct {
	ID         string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TenantID   string    `gorm:"type:uuid;not null;uniqueIndex" json:"tenant_id"`
	Format     string    `gorm:"type:text;not null" json:"format"`
	Prefix     string    `gorm:"type:text;not null;default:'INV'" json:"prefix"`
	NextNumber int       `gorm:"not null;default:1" json:"next_number"`
	CreatedAt  time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (InvoiceNumbering) TableName() string {
	return "invoice_numbering"
}

type EInvoiceConfig struct {
	ID             string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TenantID       string     `gorm:"type:uuid;not null;uniqueIndex" json:"tenant_id"`
	Provider       string     `gorm:"type:text" json:"provider"`
	Endpoint       string     `gorm:"type:text" json:"endpoint"`
	RequiredFields StringList `gorm:"type:jsonb" json:"required_fields,omitempty"`
	Enabled        bool       `gorm:"not null;default:false" json:"enabled"`
	CreatedAt      time.Time  `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (EInvoiceConfig) TableName() string {
	return "einvoice_configs"
}
