package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePreset(t *testing.T, baseDir, rel, content string) {
	t.Helper()
	path := filepath.Join(baseDir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestChartOfAccountsResolution(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "chart_of_accounts/default.json",
		`{"schema_version":1,"name":"default","accounts":[{"code":"1000","name":"Assets","type":"asset","normal_balance":"debit"}]}`)
	writePreset(t, dir, "chart_of_accounts/SG.json",
		`{"schema_version":1,"name":"country","accounts":[{"code":"1000","name":"Assets","type":"asset","normal_balance":"debit"}]}`)
	writePreset(t, dir, "chart_of_accounts/retail.json",
		`{"schema_version":1,"name":"industry","accounts":[{"code":"1000","name":"Assets","type":"asset","normal_balance":"debit"}]}`)
	writePreset(t, dir, "chart_of_accounts/retail_SG.json",
		`{"schema_version":1,"name":"industry_country","accounts":[{"code":"1000","name":"Assets","type":"asset","normal_balance":"debit"}]}`)

	lib := NewLibrary(dir)

	doc, err := lib.ChartOfAccounts("SG", "retail")
	require.NoError(t, err)
	assert.Equal(t, "industry_country", doc.Name)

	doc, err = lib.ChartOfAccounts("TH", "retail")
	require.NoError(t, err)
	assert.Equal(t, "industry", doc.Name)

	doc, err = lib.ChartOfAccounts("SG", "logistics")
	require.NoError(t, err)
	assert.Equal(t, "country", doc.Name)

	doc, err = lib.ChartOfAccounts("TH", "")
	require.NoError(t, err)
	assert.Equal(t, "default", doc.Name)
}

func TestChartOfAccountsMissingEverywhere(t *testing.T) {
	lib := NewLibrary(t.TempDir())
	_, err := lib.ChartOfAccounts("TH", "")
	assert.Error(t, err)
}

func TestChartOfAccountsMalaysiaHeadInjection(t *testing.T) {
	dir := t.TempDir()
	// only two heads present; the other three must be injected for MY
	writePreset(t, dir, "chart_of_accounts/MY.json",
		`{"schema_version":1,"name":"my","accounts":[
			{"code":"1000","name":"Assets","type":"asset","normal_balance":"debit"},
			{"code":"2000","name":"Liabilities","type":"liability","normal_balance":"credit"}
		]}`)

	lib := NewLibrary(dir)
	doc, err := lib.ChartOfAccounts("MY", "")
	require.NoError(t, err)

	types := map[string]bool{}
	for _, a := range doc.Accounts {
		if a.ParentCode == "" {
			types[a.Type] = true
		}
	}
	for _, want := range []string{"asset", "liability", "equity", "revenue", "expense"} {
		assert.True(t, types[want], "missing head for %s", want)
	}
}

func TestTaxRatesMalaysiaSSTInjection(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "tax_rates/MY.json",
		`{"schema_version":1,"tax_model":"sst","supports_tax":true,"tax_rates":[
			{"name":"SST Sales Tax","code":"SST_SALES","rate":10,"tax_type":"sst","is_active":true}
		]}`)

	lib := NewLibrary(dir)
	doc, err := lib.TaxRates("MY")
	require.NoError(t, err)

	codes := map[string]bool{}
	for _, r := range doc.TaxRates {
		codes[r.Code] = true
	}
	assert.True(t, codes["SST_SALES"])
	assert.True(t, codes["SST_SERVICE"])
	assert.True(t, codes["SST_EXEMPT"])
	assert.Len(t, doc.TaxRates, 3)
}

func TestTaxRatesDefaultGSTTriple(t *testing.T) {
	lib := NewLibrary(t.TempDir())
	doc, err := lib.TaxRates("XX")
	require.NoError(t, err)
	require.Len(t, doc.TaxRates, 3)
	assert.Equal(t, "GST_STANDARD", doc.TaxRates[0].Code)
	assert.Equal(t, 7.0, doc.TaxRates[0].Rate)
	assert.True(t, doc.TaxRates[0].IsDefault)
}

func TestCurrenciesSynthesized(t *testing.T) {
	lib := NewLibrary(t.TempDir())

	doc, err := lib.Currencies("MY")
	require.NoError(t, err)
	assert.Equal(t, "MYR", doc.BaseCurrency)
	require.Len(t, doc.Currencies, 2)
	assert.True(t, doc.Currencies[0].IsBase)
	assert.Equal(t, "USD", doc.Currencies[1].Code)

	doc, err = lib.Currencies("US")
	require.NoError(t, err)
	assert.Equal(t, "USD", doc.BaseCurrency)
	assert.Len(t, doc.Currencies, 1)
}

func TestEInvoiceUnsupportedByDefault(t *testing.T) {
	lib := NewLibrary(t.TempDir())
	doc, err := lib.EInvoice("TH")
	require.NoError(t, err)
	assert.False(t, doc.Supported)
}

func TestCountrySettingsFallback(t *testing.T) {
	lib := NewLibrary(t.TempDir())
	doc, err := lib.CountrySettings("SG")
	require.NoError(t, err)
	assert.Equal(t, "UTC", doc.Timezone)
	assert.Equal(t, "SGD", doc.Currency)
}

func TestSchemaVersionRejected(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "tax_rates/SG.json",
		`{"schema_version":99,"tax_rates":[]}`)

	lib := NewLibrary(dir)
	_, err := lib.TaxRates("SG")
	assert.Error(t, err)
}

func TestReloadDropsCache(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary(dir)

	// miss is cached
	_, err := lib.ChartOfAccounts("SG", "")
	require.Error(t, err)

	writePreset(t, dir, "chart_of_accounts/SG.json",
		`{"schema_version":1,"name":"late","accounts":[]}`)
	_, err = lib.ChartOfAccounts("SG", "")
	require.Error(t, err, "stale negative entry should still answer")

	lib.Reload()
	doc, err := lib.ChartOfAccounts("SG", "")
	require.NoError(t, err)
	assert.Equal(t, "late", doc.Name)
}
