package preset

// Built-in fallbacks used when the preset tree has no document for a
// country. Injection rules for Malaysia live here too.

var nativeCurrencies = map[string]string{
	"MY": "MYR",
	"SG": "SGD",
	"TH": "THB",
	"ID": "IDR",
	"PH": "PHP",
	"VN": "VND",
	"US": "USD",
	"GB": "GBP",
	"AU": "AUD",
}

// NativeCurrency returns the country's currency code, defaulting to USD.
func NativeCurrency(country string) string {
	if code, ok := nativeCurrencies[country]; ok {
		return code
	}
	return "USD"
}

func invoiceFormatFor(country string) string {
	switch country {
	case "MY":
		return "INV-{YYYY}-{MM}-{####}"
	case "TH":
		return "INV-{YYYYMM}-{####}"
	default:
		return "INV-{YYYY}-{####}"
	}
}

// sstEffectiveFrom is the date Malaysia reinstated SST.
const sstEffectiveFrom = "2018-09-01"

var sstDefaults = []TaxRateDef{
	{Name: "SST Sales Tax", Code: "SST_SALES", Rate: 10, TaxType: "sst", IsActive: true, IsDefault: true, Description: "Sales tax on taxable goods", EffectiveFrom: sstEffectiveFrom},
	{Name: "SST Service Tax", Code: "SST_SERVICE", Rate: 6, TaxType: "sst", IsActive: true, Description: "Service tax on taxable services", EffectiveFrom: sstEffectiveFrom},
	{Name: "SST Exempt", Code: "SST_EXEMPT", Rate: 0, TaxType: "sst", IsActive: true, Description: "Exempt supplies", EffectiveFrom: sstEffectiveFrom},
}

// appendMissingSST guarantees the Malaysian SST triple is present.
func appendMissingSST(rates []TaxRateDef) []TaxRateDef {
	have := map[string]bool{}
	for _, r := range rates {
		have[r.Code] = true
	}
	for _, def := range sstDefaults {
		if !have[def.Code] {
			rates = append(rates, def)
		}
	}
	return rates
}

// defaultGSTDoc is the triple injected for countries without a tax
// document: standard 7%, zero-rated, exempt.
func defaultGSTDoc() *TaxRatesDoc {
	return &TaxRatesDoc{
		SchemaVersion: SupportedSchemaVersion,
		TaxModel:      "gst",
		SupportsTax:   true,
		TaxRates: []TaxRateDef{
			{Name: "GST Standard", Code: "GST_STANDARD", Rate: 7, TaxType: "gst", IsDefault: true, IsActive: true, Description: "Standard rated supplies"},
			{Name: "GST Zero Rated", Code: "GST_ZERO", Rate: 0, TaxType: "gst", IsActive: true, Description: "Zero rated supplies"},
			{Name: "GST Exempt", Code: "GST_EXEMPT", Rate: 0, TaxType: "gst", IsActive: true, Description: "Exempt supplies"},
		},
	}
}

var defaultHeads = []AccountDef{
	{Code: "1000", Name: "Assets", Type: "asset", NormalBalance: "debit"},
	{Code: "2000", Name: "Liabilities", Type: "liability", NormalBalance: "credit"},
	{Code: "3000", Name: "Equity", Type: "equity", NormalBalance: "credit"},
	{Code: "4000", Name: "Revenue", Type: "revenue", NormalBalance: "credit"},
	{Code: "5000", Name: "Expenses", Type: "expense", NormalBalance: "debit"},
}

// appendMissingHeads adds any of the five top-level heads the chart lacks.
// A head counts as present when a parentless account of its type exists.
func appendMissingHeads(accounts []AccountDef) []AccountDef {
	haveType := map[string]bool{}
	for _, a := range accounts {
		if a.ParentCode == "" {
			haveType[a.Type] = true
		}
	}
	for _, head := range defaultHeads {
		if !haveType[head.Type] {
			accounts = append(accounts, head)
		}
	}
	return accounts
}

func baselineAccountTypes() []AccountTypeDef {
	return []AccountTypeDef{
		{Code: "ASSET", Name: "Asset", Category: "asset", NormalBalance: "debit"},
		{Code: "LIABILITY", Name: "Liability", Category: "liability", NormalBalance: "credit"},
		{Code: "EQUITY", Name: "Equity", Category: "equity", NormalBalance: "credit"},
		{Code: "REVENUE", Name: "Revenue", Category: "revenue", NormalBalance: "credit"},
		{Code: "EXPENSE", Name: "Expense", Category: "expense", NormalBalance: "debit"},
	}
}

// DefaultTaxCategories lists per-country tax categories used when no
// category document exists for the country.
func DefaultTaxCategories(country string) []TaxCategoryDef {
	switch country {
	case "MY":
		return []TaxCategoryDef{
			{Code: "GST", Name: "GST"},
			{Code: "SST", Name: "SST"},
			{Code: "SERVICE_TAX", Name: "Service Tax"},
		}
	case "SG":
		return []TaxCategoryDef{
			{Code: "GST", Name: "GST"},
			{Code: "WHT", Name: "Withholding Tax"},
		}
	case "TH":
		return []TaxCategoryDef{
			{Code: "VAT", Name: "VAT"},
			{Code: "WHT", Name: "Withholding Tax"},
		}
	case "ID":
		return []TaxCategoryDef{
			{Code: "VAT", Name: "VAT"},
			{Code: "PPN", Name: "PPN"},
		}
	case "PH":
		return []TaxCategoryDef{
			{Code: "VAT", Name: "VAT"},
			{Code: "WHT", Name: "Withholding Tax"},
		}
	default:
		return []TaxCategoryDef{
			{Code: "SALES_TAX", Name: "Sales Tax"},
			{Code: "VAT", Name: "VAT"},
		}
	}
}
