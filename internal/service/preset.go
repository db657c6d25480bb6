package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/preset"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

// StepResult reports one engine step. Error is empty on success.
type StepResult struct {
	Success     bool   `json:"success"`
	RecordCount int    `json:"record_count"`
	Name        string `json:"name,omitempty"`
	Error       string `json:"error,omitempty"`
}

// InstallReport is the full engine outcome, keyed by preset kind.
type InstallReport map[domain.PresetKind]StepResult

// Succeeded reports whether every step installed cleanly.
func (r InstallReport) Succeeded() bool {
	for _, res := range r {
		if !res.Success {
			return false
		}
	}
	return true
}

// ProgressDetail carries the in-flight state of one engine step, with a
// display message like "Importing 42/45 GL Accounts" when record totals
// are known.
type ProgressDetail struct {
	Status         string `json:"status"`
	RecordsCreated int    `json:"records_created"`
	TotalExpected  int    `json:"total_expected"`
	Message        string `json:"message,omitempty"`
}

// ProgressFunc receives installation progress. overallPercent covers the
// whole run; stepIndex is 1-based within totalSteps.
type ProgressFunc func(kind domain.PresetKind, overallPercent, stepIndex, totalSteps int, detail ProgressDetail)

// presetRecordLabels names what each step imports, for progress display.
var presetRecordLabels = map[domain.PresetKind]string{
	domain.PresetCurrency:         "Currencies",
	domain.PresetTaxCategories:    "Tax Categories",
	domain.PresetTaxRates:         "Tax Rates",
	domain.PresetAccountTypes:     "Account Types",
	domain.PresetChartOfAccounts:  "GL Accounts",
	domain.PresetInvoiceNumbering: "Numbering Sequences",
	domain.PresetEInvoiceConfig:   "E-Invoice Configs",
	domain.PresetCountrySettings:  "Country Settings",
}

func progressMessage(kind domain.PresetKind, created, expected int) string {
	if expected <= 0 {
		return ""
	}
	label := presetRecordLabels[kind]
	if label == "" {
		label = "Records"
	}
	return fmt.Sprintf("Importing %d/%d %s", created, expected, label)
}

// PresetService is the provisioning engine. Steps run in the fixed
// install order so later bundles can reference rows created by earlier
// ones; each step is idempotent by count-check and a failing step is
// reported but does not stop the run.
type PresetService struct {
	repo    repository.Repository
	library *preset.Library
	logger  *logger.Logger
}

func NewPresetService(repo repository.Repository, library *preset.Library, log *logger.Logger) *PresetService {
	return &PresetService{
		repo:    repo,
		library: library,
		logger:  log,
	}
}

// Install runs every preset step for the scoped tenant and finalizes its
// capability flags. Cancellation is honored between steps, never inside
// one; a cancelled run returns the partial report and the context error.
func (s *PresetService) Install(ctx context.Context, country, industry string, progress ProgressFunc) (InstallReport, error) {
	tenantID, err := tenantctx.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	report := make(InstallReport, len(domain.PresetInstallOrder))
	steps := map[domain.PresetKind]func(context.Context, string, string, tickFunc) (int, string, error){
		domain.PresetCurrency:         s.installCurrencies,
		domain.PresetTaxCategories:    s.installTaxCategories,
		domain.PresetTaxRates:         s.installTaxRates,
		domain.PresetAccountTypes:     s.installAccountTypes,
		domain.PresetChartOfAccounts:  s.installChartOfAccounts,
		domain.PresetInvoiceNumbering: s.installInvoiceNumbering,
		domain.PresetEInvoiceConfig:   s.installEInvoiceConfig,
		domain.PresetCountrySettings:  s.installCountrySettings,
	}

	total := len(domain.PresetInstallOrder)
	for i, kind := range domain.PresetInstallOrder {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		stepIndex := i + 1
		inFlightPercent := i * 100 / total
		donePercent := stepIndex * 100 / total

		s.notify(progress, kind, inFlightPercent, stepIndex, total, ProgressDetail{
			Status: domain.PresetStatusInProgress,
		})
		tick := func(created, expected int) {
			s.notify(progress, kind, inFlightPercent, stepIndex, total, ProgressDetail{
				Status:         domain.PresetStatusInProgress,
				RecordsCreated: created,
				TotalExpected:  expected,
				Message:        progressMessage(kind, created, expected),
			})
		}
		count, name, err := steps[kind](ctx, country, industry, tick)
		if err != nil {
			s.logger.Error(fmt.Sprintf("preset step %s failed", kind), err)
			report[kind] = StepResult{Success: false, Error: err.Error()}
			s.notify(progress, kind, inFlightPercent, stepIndex, total, ProgressDetail{
				Status: domain.PresetStatusFailed,
			})
			continue
		}

		report[kind] = StepResult{Success: true, RecordCount: count, Name: name}
		s.notify(progress, kind, donePercent, stepIndex, total, ProgressDetail{
			Status:         domain.PresetStatusCompleted,
			RecordsCreated: count,
			TotalExpected:  count,
		})
		s.recordApplied(ctx, tenantID, kind, country, industry, count, name)
	}

	if err := s.finalizeCapabilities(ctx, tenantID, country); err != nil {
		s.logger.Error("failed to finalize tenant capabilities", err)
	}

	return report, nil
}

// tickFunc lets a step report created-so-far against its expected total.
type tickFunc func(created, expected int)

func (s *PresetService) notify(progress ProgressFunc, kind domain.PresetKind, overallPercent, stepIndex, totalSteps int, detail ProgressDetail) {
	if progress != nil {
		progress(kind, overallPercent, stepIndex, totalSteps, detail)
	}
}

// recordApplied stores what was installed for reproducibility.
func (s *PresetService) recordApplied(ctx context.Context, tenantID string, kind domain.PresetKind, country, industry string, count int, name string) {
	payload, err := domain.NewJSONB(map[string]interface{}{
		"record_count": count,
		"name":         name,
		"applied_at":   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	p := &domain.TenantPreset{
		TenantID:       tenantID,
		Kind:           kind,
		Payload:        payload,
		SourceCountry:  country,
		SourceIndustry: industry,
		IsActive:       true,
	}
	if err := s.repo.Preset().Upsert(ctx, p); err != nil {
		s.logger.Error(fmt.Sprintf("failed to record applied preset %s", kind), err)
	}
}

// ListApplied returns the presets recorded for the scoped tenant.
func (s *PresetService) ListApplied(ctx context.Context) ([]domain.TenantPreset, error) {
	tenantID, err := tenantctx.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.Preset().ListByTenant(ctx, tenantID)
}

func (s *PresetService) installCurrencies(ctx context.Context, country, _ string, tick tickFunc) (int, string, error) {
	existing, err := s.repo.Reference().CountCurrencies(ctx)
	if err != nil {
		return 0, "", err
	}
	if existing > 0 {
		return int(existing), "already installed", nil
	}

	doc, err := s.library.Currencies(country)
	if err != nil {
		return 0, "", err
	}

	created := 0
	for _, def := range doc.Currencies {
		c := &domain.Currency{
			Code:          def.Code,
			Name:          def.Name,
			Symbol:        def.Symbol,
			DecimalPlaces: def.DecimalPlaces,
			IsBase:        def.IsBase || def.Code == doc.BaseCurrency,
			IsActive:      true,
		}
		if err := s.repo.Reference().CreateCurrency(ctx, c); err != nil {
			return created, "", err
		}
		created++
		tick(created, len(doc.Currencies))
	}

	if _, err := s.repo.Reference().GetCurrencyConfig(ctx); errors.Is(err, gorm.ErrRecordNotFound) {
		cfg := &domain.CurrencyConfig{BaseCurrency: doc.BaseCurrency}
		if err := s.repo.Reference().CreateCurrencyConfig(ctx, cfg); err != nil {
			return created, "", err
		}
	}

	// Seed a placeholder USD<->base rate so conversion paths never start
	// from an empty table. Rate 1.0, source manual; real rates replace it.
	if doc.BaseCurrency != "" && doc.BaseCurrency != "USD" {
		rate := &domain.ExchangeRate{
			FromCurrency:  "USD",
			ToCurrency:    doc.BaseCurrency,
			Rate:          1.0,
			Source:        "manual",
			EffectiveDate: time.Now().UTC(),
		}
		if err := s.repo.Reference().CreateExchangeRate(ctx, rate); err != nil {
			return created, "", err
		}
	}

	return created, doc.BaseCurrency, nil
}

func (s *PresetService) installTaxCategories(ctx context.Context, country, _ string, tick tickFunc) (int, string, error) {
	existing, err := s.repo.Reference().CountTaxCategories(ctx)
	if err != nil {
		return 0, "", err
	}
	if existing > 0 {
		return int(existing), "already installed", nil
	}

	doc, err := s.library.TaxCategories(country)
	if err != nil {
		return 0, "", err
	}
	defs := preset.DefaultTaxCategories(country)
	if doc != nil {
		defs = doc.Categories
	}

	created := 0
	for _, def := range defs {
		c := &domain.TaxCategory{
			Code:        def.Code,
			Name:        def.Name,
			Description: def.Description,
		}
		if err := s.repo.Reference().CreateTaxCategory(ctx, c); err != nil {
			return created, "", err
		}
		created++
		tick(created, len(defs))
	}
	return created, "", nil
}

func (s *PresetService) installTaxRates(ctx context.Context, country, _ string, tick tickFunc) (int, string, error) {
	existing, err := s.repo.Reference().CountTaxRates(ctx)
	if err != nil {
		return 0, "", err
	}
	if existing > 0 {
		return int(existing), "already installed", nil
	}

	doc, err := s.library.TaxRates(country)
	if err != nil {
		return 0, "", err
	}

	created := 0
	for _, def := range doc.TaxRates {
		r := &domain.TaxRate{
			Code:        def.Code,
			Name:        def.Name,
			Rate:        def.Rate,
			TaxType:     def.TaxType,
			Region:      def.Region,
			IsDefault:   def.IsDefault,
			IsActive:    def.IsActive,
			Description: def.Description,
		}
		if def.Category != "" {
			if cat, err := s.repo.Reference().GetTaxCategoryByCode(ctx, def.Category); err == nil {
				r.CategoryID = &cat.ID
			}
		}
		if def.EffectiveFrom != "" {
			if from, err := time.Parse("2006-01-02", def.EffectiveFrom); err == nil {
				r.EffectiveFrom = &from
			}
		}
		if err := s.repo.Reference().CreateTaxRate(ctx, r); err != nil {
			return created, "", err
		}
		created++
		tick(created, len(doc.TaxRates))
	}
	return created, doc.TaxModel, nil
}

func (s *PresetService) installAccountTypes(ctx context.Context, country, _ string, tick tickFunc) (int, string, error) {
	existing, err := s.repo.Reference().CountAccountTypes(ctx)
	if err != nil {
		return 0, "", err
	}
	if existing > 0 {
		return int(existing), "already installed", nil
	}

	doc, err := s.library.AccountTypes(country)
	if err != nil {
		return 0, "", err
	}

	created := 0
	for _, def := range doc.AccountTypes {
		t := &domain.AccountType{
			Code:          def.Code,
			Name:          def.Name,
			Category:      def.Category,
			NormalBalance: def.NormalBalance,
		}
		if err := s.repo.Reference().CreateAccountType(ctx, t); err != nil {
			return created, "", err
		}
		created++
		tick(created, len(doc.AccountTypes))
	}
	return created, "", nil
}

// installChartOfAccounts creates accounts in dependency order: an account
// whose parent_code is not yet persisted waits for a later pass. Documents
// are normally parent-first so this converges in one or two passes.
func (s *PresetService) installChartOfAccounts(ctx context.Context, country, industry string, tick tickFunc) (int, string, error) {
	existing, err := s.repo.Reference().CountAccounts(ctx)
	if err != nil {
		return 0, "", err
	}
	if existing > 0 {
		return int(existing), "already installed", nil
	}

	doc, err := s.library.ChartOfAccounts(country, industry)
	if err != nil {
		return 0, "", err
	}

	createdByCode := make(map[string]string, len(doc.Accounts))
	pending := doc.Accounts
	created := 0

	for pass := 0; len(pending) > 0 && pass < len(doc.Accounts); pass++ {
		var deferred []preset.AccountDef
		progressed := false
		for _, def := range pending {
			var parentID *string
			if def.ParentCode != "" {
				id, ok := createdByCode[def.ParentCode]
				if !ok {
					deferred = append(deferred, def)
					continue
				}
				parentID = &id
			}
			a := &domain.ChartOfAccount{
				Code:          def.Code,
				Name:          def.Name,
				Type:          def.Type,
				ParentID:      parentID,
				ParentCode:    def.ParentCode,
				NormalBalance: def.NormalBalance,
				IsActive:      true,
			}
			if err := s.repo.Reference().CreateAccount(ctx, a); err != nil {
				return created, "", err
			}
			createdByCode[def.Code] = a.ID
			created++
			tick(created, len(doc.Accounts))
			progressed = true
		}
		if !progressed {
			return created, "", fmt.Errorf("chart of accounts has unresolvable parent codes: %d accounts skipped", len(deferred))
		}
		pending = deferred
	}

	return created, doc.Name, nil
}

func (s *PresetService) installInvoiceNumbering(ctx context.Context, country, _ string, _ tickFunc) (int, string, error) {
	if _, err := s.repo.Reference().GetInvoiceNumbering(ctx); err == nil {
		return 1, "already installed", nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, "", err
	}

	doc, err := s.library.InvoiceNumbering(country)
	if err != nil {
		return 0, "", err
	}

	n := &domain.InvoiceNumbering{
		Format:     doc.Format,
		Prefix:     doc.Prefix,
		NextNumber: doc.StartNumber,
	}
	if err := s.repo.Reference().CreateInvoiceNumbering(ctx, n); err != nil {
		return 0, "", err
	}
	return 1, doc.Format, nil
}

func (s *PresetService) installEInvoiceConfig(ctx context.Context, country, _ string, _ tickFunc) (int, string, error) {
	doc, err := s.library.EInvoice(country)
	if err != nil {
		return 0, "", err
	}

	cfg := &domain.EInvoiceConfig{
		Provider:       doc.Provider,
		Endpoint:       doc.Endpoint,
		RequiredFields: domain.StringList(doc.RequiredFields),
		Enabled:        doc.Supported,
	}
	if err := s.repo.Reference().UpsertEInvoiceConfig(ctx, cfg); err != nil {
		return 0, "", err
	}
	return 1, doc.Provider, nil
}

// installCountrySettings fills tenant locale fields that are still empty.
// Values the tenant already chose during onboarding win over the preset.
func (s *PresetService) installCountrySettings(ctx context.Context, country, _ string, _ tickFunc) (int, string, error) {
	tenantID, err := tenantctx.TenantID(ctx)
	if err != nil {
		return 0, "", err
	}
	tenant, err := s.repo.Tenant().GetByID(ctx, tenantID)
	if err != nil {
		return 0, "", err
	}

	doc, err := s.library.CountrySettings(country)
	if err != nil {
		return 0, "", err
	}

	if tenant.Timezone == "" {
		tenant.Timezone = doc.Timezone
	}
	if tenant.BaseCurrency == "" {
		tenant.BaseCurrency = doc.Currency
	}
	settings := tenant.Settings.AsMap()
	if settings == nil {
		settings = map[string]interface{}{}
	}
	if _, ok := settings["date_format"]; !ok {
		settings["date_format"] = doc.DateFormat
	}
	if _, ok := settings["locale"]; !ok {
		settings["locale"] = doc.Locale
	}
	settingsJSON, err := domain.NewJSONB(settings)
	if err != nil {
		return 0, "", err
	}
	tenant.Settings = settingsJSON

	if err := s.repo.Tenant().Update(ctx, tenant); err != nil {
		return 0, "", err
	}
	return 1, doc.Locale, nil
}

// finalizeCapabilities derives supports_tax and supports_einvoice from
// what was actually installed, gated by the country support lists.
func (s *PresetService) finalizeCapabilities(ctx context.Context, tenantID, country string) error {
	tenant, err := s.repo.Tenant().GetByID(ctx, tenantID)
	if err != nil {
		return err
	}

	supportsTax := false
	if domain.TaxSupportedCountries[country] {
		count, err := s.repo.Reference().CountTaxRates(ctx)
		if err != nil {
			return err
		}
		supportsTax = count > 0
	}

	supportsEInvoice := false
	if domain.EInvoiceSupportedCountries[country] {
		if cfg, err := s.repo.Reference().GetEInvoiceConfig(ctx); err == nil {
			supportsEInvoice = cfg.Enabled
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	tenant.SupportsTax = supportsTax
	tenant.SupportsEInvoice = supportsEInvoice
	return s.repo.Tenant().Update(ctx, tenant)
}
