package domain

// TenantPathRule declares how a table's rows resolve to their owning
// tenant. An empty Via means the table carries tenant_id directly;
// otherwise Via names the foreign-key column and ViaTable the table the
// walk continues through.
type TenantPathRule struct {
	Via      string
	ViaTable string
}

// tenantPathTable is fixed at compile time. Tables absent from it are
// tenant-global: never filtered, but writes are still audited.
var tenantPathTable = map[string]TenantPathRule{
	"tenants":               {},
	"tenant_domains":        {},
	"users":                 {},
	"onboarding_progress":   {},
	"tenant_presets":        {},
	"companies":             {},
	"currencies":            {},
	"currency_configs":      {},
	"exchange_rates":        {},
	"tax_categories":        {},
	"tax_rates":             {},
	"account_types":         {},
	"chart_of_accounts":     {},
	"invoice_numbering":     {},
	"einvoice_configs":      {},
	"audit_logs":            {},
	"audit_queries":         {},
	"audit_exports":         {},
	"audit_violations":      {},
	"compliance_violations": {},

	// Walked paths for collaborator entities that reference instead of
	// owning a tenant column.
	"journal_entries":      {Via: "company_id", ViaTable: "companies"},
	"journal_entry_lines":  {Via: "journal_entry_id", ViaTable: "journal_entries"},
	"invoices":             {Via: "company_id", ViaTable: "companies"},
	"purchase_orders":      {},
	"purchase_order_lines": {Via: "purchase_order_id", ViaTable: "purchase_orders"},
	"sales_orders":         {},
	"sales_order_lines":    {Via: "sales_order_id", ViaTable: "sales_orders"},
}

// IsTenantScoped reports whether rows of the table belong to a tenant.
func IsTenantScoped(table string) bool {
	_, ok := tenantPathTable[table]
	return ok
}

// TenantPathFor returns the declared rule for a table.
func TenantPathFor(table string) (TenantPathRule, bool) {
	rule, ok := tenantPathTable[table]
	return rule, ok
}
