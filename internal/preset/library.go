// Package preset loads versioned bundles of reference data from a
// read-only directory tree. Documents are JSON files keyed by country and
// optional industry; the library resolves the most specific file, fills
// country gaps with built-in defaults, and caches loaded documents
// process-wide. The engine in internal/service consumes these documents
// and never invents data beyond the documented injection rules.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SupportedSchemaVersion is the document schema this build understands.
const SupportedSchemaVersion = 1

type AccountDef struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	ParentCode    string `json:"parent_code,omitempty"`
	NormalBalance string `json:"normal_balance"`
}

type ChartOfAccountsDoc struct {
	SchemaVersion int          `json:"schema_version"`
	Name          string       `json:"name"`
	Accounts      []AccountDef `json:"accounts"`
}

type TaxRateDef struct {
	Name          string  `json:"name"`
	Code          string  `json:"code"`
	Rate          float64 `json:"rate"`
	TaxType       string  `json:"tax_type"`
	Region        string  `json:"region,omitempty"`
	Category      string  `json:"category,omitempty"`
	IsDefault     bool    `json:"is_default"`
	IsActive      bool    `json:"is_active"`
	Description   string  `json:"description"`
	EffectiveFrom string  `json:"effective_from,omitempty"`
}

type TaxRatesDoc struct {
	SchemaVersion int          `json:"schema_version"`
	TaxModel      string       `json:"tax_model"`
	SupportsTax   bool         `json:"supports_tax"`
	TaxRates      []TaxRateDef `json:"tax_rates"`
}

type TaxCategoryDef struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type TaxCategoriesDoc struct {
	SchemaVersion int              `json:"schema_version"`
	Categories    []TaxCategoryDef `json:"categories"`
}

type CurrencyDef struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	DecimalPlaces int    `json:"decimal_places"`
	IsBase        bool   `json:"is_base"`
}

type CurrenciesDoc struct {
	SchemaVersion int           `json:"schema_version"`
	BaseCurrency  string        `json:"base_currency"`
	Currencies    []CurrencyDef `json:"currencies"`
}

type AccountTypeDef struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	NormalBalance string `json:"normal_balance"`
}

type AccountTypesDoc struct {
	SchemaVersion int              `json:"schema_version"`
	AccountTypes  []AccountTypeDef `json:"account_types"`
}

type InvoiceNumberingDoc struct {
	SchemaVersion int    `json:"schema_version"`
	Format        string `json:"format"`
	Prefix        string `json:"prefix"`
	StartNumber   int    `json:"start_number"`
}

type EInvoiceDoc struct {
	SchemaVersion  int      `json:"schema_version"`
	Supported      bool     `json:"supported"`
	Provider       string   `json:"provider,omitempty"`
	Endpoint       string   `json:"endpoint,omitempty"`
	RequiredFields []string `json:"required_fields,omitempty"`
}

type CountrySettingsDoc struct {
	SchemaVersion int    `json:"schema_version"`
	Timezone      string `json:"timezone"`
	DateFormat    string `json:"date_format"`
	Locale        string `json:"locale"`
	Currency      string `json:"currency"`
}

// Library reads preset documents beneath a base directory. Loads are
// cached; Reload swaps the cache atomically for configuration reloads.
type Library struct {
	baseDir string

	mu    sync.RWMutex
	cache map[string][]byte
}

func NewLibrary(baseDir string) *Library {
	return &Library{
		baseDir: baseDir,
		cache:   make(map[string][]byte),
	}
}

// Reload drops the cached documents so the next load re-reads the tree.
func (l *Library) Reload() {
	l.mu.Lock()
	l.cache = make(map[string][]byte)
	l.mu.Unlock()
}

func (l *Library) readFile(rel string) ([]byte, bool) {
	l.mu.RLock()
	data, ok := l.cache[rel]
	l.mu.RUnlock()
	if ok {
		return data, data != nil
	}

	data, err := os.ReadFile(filepath.Join(l.baseDir, rel))
	if err != nil {
		data = nil
	}
	l.mu.Lock()
	l.cache[rel] = data
	l.mu.Unlock()
	return data, data != nil
}

// resolve tries candidate file names under dir in priority order and
// returns the first that exists.
func (l *Library) resolve(dir string, candidates []string) ([]byte, string, bool) {
	for _, name := range candidates {
		rel := filepath.Join(dir, name)
		if data, ok := l.readFile(rel); ok {
			return data, rel, true
		}
	}
	return nil, "", false
}

func decode(data []byte, rel string, v interface{}, version *int) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("preset %s: %w", rel, err)
	}
	if version != nil {
		if *version == 0 {
			*version = SupportedSchemaVersion
		}
		if *version > SupportedSchemaVersion {
			return fmt.Errorf("preset %s: schema_version %d not supported", rel, *version)
		}
	}
	return nil
}

// ChartOfAccounts resolves the chart for (country, industry):
// industry_country, then industry, then country, then default. For MY,
// missing top-level heads are appended so the structured chart always has
// the five roots.
func (l *Library) ChartOfAccounts(country, industry string) (*ChartOfAccountsDoc, error) {
	country = strings.ToUpper(country)
	industry = strings.ToLower(industry)

	var candidates []string
	if industry != "" {
		candidates = append(candidates,
			fmt.Sprintf("%s_%s.json", industry, country),
			fmt.Sprintf("%s.json", industry),
		)
	}
	candidates = append(candidates, fmt.Sprintf("%s.json", country), "default.json")

	data, rel, ok := l.resolve("chart_of_accounts", candidates)
	if !ok {
		return nil, fmt.Errorf("no chart of accounts preset for country %s", country)
	}

	var doc ChartOfAccountsDoc
	if err := decode(data, rel, &doc, &doc.SchemaVersion); err != nil {
		return nil, err
	}

	if country == "MY" {
		doc.Accounts = appendMissingHeads(doc.Accounts)
	}
	return &doc, nil
}

// TaxRates resolves tax_rates/<country>.json. MY charts are patched with
// the SST triple when absent; countries without a document fall back to a
// default GST triple.
func (l *Library) TaxRates(country string) (*TaxRatesDoc, error) {
	country = strings.ToUpper(country)

	data, rel, ok := l.resolve("tax_rates", []string{country + ".json"})
	if !ok {
		return defaultGSTDoc(), nil
	}

	var doc TaxRatesDoc
	if err := decode(data, rel, &doc, &doc.SchemaVersion); err != nil {
		return nil, err
	}

	if country == "MY" {
		doc.TaxRates = appendMissingSST(doc.TaxRates)
	}
	return &doc, nil
}

// TaxCategories returns the country's category document, or nil when the
// engine should fall back to its per-country defaults.
func (l *Library) TaxCategories(country string) (*TaxCategoriesDoc, error) {
	data, rel, ok := l.resolve("tax_categories", []string{strings.ToUpper(country) + ".json"})
	if !ok {
		return nil, nil
	}
	var doc TaxCategoriesDoc
	if err := decode(data, rel, &doc, &doc.SchemaVersion); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Currencies returns the country's currency document. Without a file the
// native currency plus USD is synthesized.
func (l *Library) Currencies(country string) (*CurrenciesDoc, error) {
	country = strings.ToUpper(country)
	data, rel, ok := l.resolve("currencies", []string{country + ".json"})
	if ok {
		var doc CurrenciesDoc
		if err := decode(data, rel, &doc, &doc.SchemaVersion); err != nil {
			return nil, err
		}
		if doc.BaseCurrency == "" {
			doc.BaseCurrency = NativeCurrency(country)
		}
		return &doc, nil
	}

	base := NativeCurrency(country)
	doc := &CurrenciesDoc{
		SchemaVersion: SupportedSchemaVersion,
		BaseCurrency:  base,
		Currencies: []CurrencyDef{
			{Code: base, Name: base, DecimalPlaces: 2, IsBase: true},
		},
	}
	if base != "USD" {
		doc.Currencies = append(doc.Currencies, CurrencyDef{Code: "USD", Name: "US Dollar", Symbol: "$", DecimalPlaces: 2})
	}
	return doc, nil
}

// AccountTypes returns the country's refinements or the baseline heads.
func (l *Library) AccountTypes(country string) (*AccountTypesDoc, error) {
	data, rel, ok := l.resolve("account_types", []string{strings.ToUpper(country) + ".json", "default.json"})
	if ok {
		var doc AccountTypesDoc
		if err := decode(data, rel, &doc, &doc.SchemaVersion); err != nil {
			return nil, err
		}
		return &doc, nil
	}
	return &AccountTypesDoc{SchemaVersion: SupportedSchemaVersion, AccountTypes: baselineAccountTypes()}, nil
}

// InvoiceNumbering returns the country's numbering rule or the built-in
// country format.
func (l *Library) InvoiceNumbering(country string) (*InvoiceNumberingDoc, error) {
	country = strings.ToUpper(country)
	data, rel, ok := l.resolve("invoice_numbering", []string{country + ".json"})
	if ok {
		var doc InvoiceNumberingDoc
		if err := decode(data, rel, &doc, &doc.SchemaVersion); err != nil {
			return nil, err
		}
		return &doc, nil
	}
	return &InvoiceNumberingDoc{
		SchemaVersion: SupportedSchemaVersion,
		Format:        invoiceFormatFor(country),
		Prefix:        "INV",
		StartNumber:   1,
	}, nil
}

// EInvoice returns the e-invoicing document; countries without a mandate
// are unsupported.
func (l *Library) EInvoice(country string) (*EInvoiceDoc, error) {
	country = strings.ToUpper(country)
	data, rel, ok := l.resolve("einvoice", []string{country + ".json"})
	if ok {
		var doc EInvoiceDoc
		if err := decode(data, rel, &doc, &doc.SchemaVersion); err != nil {
			return nil, err
		}
		return &doc, nil
	}
	return &EInvoiceDoc{SchemaVersion: SupportedSchemaVersion, Supported: false}, nil
}

// CountrySettings returns locale settings for the country.
func (l *Library) CountrySettings(country string) (*CountrySettingsDoc, error) {
	country = strings.ToUpper(country)
	data, rel, ok := l.resolve("country_settings", []string{country + ".json"})
	if ok {
		var doc CountrySettingsDoc
		if err := decode(data, rel, &doc, &doc.SchemaVersion); err != nil {
			return nil, err
		}
		return &doc, nil
	}
	return &CountrySettingsDoc{
		SchemaVersion: SupportedSchemaVersion,
		Timezone:      "UTC",
		DateFormat:    "YYYY-MM-DD",
		Locale:        "en",
		Currency:      NativeCurrency(country),
	}, nil
}
