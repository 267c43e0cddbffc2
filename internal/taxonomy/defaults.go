package taxonomy

import "github.com/parthgeek/tally/internal/model"

// Stable tier-1 ids. Ids are never reused, so gaps are deliberate.
const (
	idIncome    = 1
	idCOGS      = 2
	idOpex      = 3
	idLiability = 4
	idClearing  = 5
)

func intPtr(v int) *int { return &v }

// defaultCategories is the built-in small-business taxonomy. Storage seeds
// from this set; the registry serves it directly when no database is wired.
var defaultCategories = []model.Category{
	// Tier 1.
	{ID: idIncome, Slug: "income", Name: "Income", Type: model.AccountingRevenue, Tier: 1, PnL: true, Industries: []string{model.IndustryAll}},
	{ID: idCOGS, Slug: "cost-of-goods", Name: "Cost of Goods Sold", Type: model.AccountingCOGS, Tier: 1, PnL: true, Industries: []string{model.IndustryAll}},
	{ID: idOpex, Slug: "operating-expenses", Name: "Operating Expenses", Type: model.AccountingOpex, Tier: 1, PnL: true, Industries: []string{model.IndustryAll}},
	{ID: idLiability, Slug: "liabilities", Name: "Liabilities", Type: model.AccountingLiability, Tier: 1, PnL: false, Industries: []string{model.IndustryAll}},
	{ID: idClearing, Slug: "clearing", Name: "Clearing", Type: model.AccountingClearing, Tier: 1, PnL: false, Industries: []string{model.IndustryAll}},

	// Tier 2: income.
	{ID: 10, Slug: "sales-revenue", Name: "Sales Revenue", ParentID: intPtr(idIncome), Type: model.AccountingRevenue, Tier: 2, PnL: true, Industries: []string{model.IndustryAll}},
	{ID: 11, Slug: "service-revenue", Name: "Service Revenue", ParentID: intPtr(idIncome), Type: model.AccountingRevenue, Tier: 2, PnL: true, Industries: []string{"services", "consulting", "software"}},
	{ID: 12, Slug: "interest-income", Name: "Interest Income", ParentID: intPtr(idIncome), Type: model.AccountingRevenue, Tier: 2, PnL: true, Industries: []string{model.IndustryAll}},

	// Tier 2: cost of goods.
	{ID: 20, Slug: "materials", Name: "Materials & Inventory", ParentID: intPtr(idCOGS), Type: model.AccountingCOGS, Tier: 2, PnL: true, Industries: []string{"retail", "manufacturing", "ecommerce"}},
	{ID: 21, Slug: "freight-shipping", Name: "Freight & Shipping", ParentID: intPtr(idCOGS), Type: model.AccountingCOGS, Tier: 2, PnL: true, Industries: []string{model.IndustryAll}},
	{ID: 22, Slug: "merchant-fees", Name: "Merchant Processing Fees", ParentID: intPtr(idCOGS), Type: model.AccountingCOGS, Tier: 2, PnL: true, Industries: []string{"retail", "ecommerce"}},

	// Tier 2: operating expenses.
	{
		ID: 30, Slug: "meals-and-entertainment", Name: "Meals & Entertainment", ParentID: intPtr(idOpex),
		Type: model.AccountingOpex, Tier: 2, PnL: true, Industries: []string{model.IndustryAll},
		Attributes: map[string]model.AttributeSchema{
			"attendees":        {Type: model.AttributeNumber},
			"business_purpose": {Type: model.AttributeString},
		},
	},
	{
		ID: 31, Slug: "travel", Name: "Travel", ParentID: intPtr(idOpex),
		Type: model.AccountingOpex, Tier: 2, PnL: true, Industries: []string{model.IndustryAll},
		Attributes: map[string]model.AttributeSchema{
			"trip_purpose": {Type: model.AttributeString, Required: true},
			"destination":  {Type: model.AttributeString},
		},
	},
	{
		ID: 32, Slug: "software-subscriptions", Name: "Software & Subscriptions", ParentID: intPtr(idOpex),
		Type: model.AccountingOpex, Tier: 2, PnL: true, Industries: []string{model.IndustryAll},
		Attributes: map[string]model.AttributeSchema{
			"billing_period": {Type: model.AttributeEnum, Allowed: []string{"monthly", "annual"}},
			"seats":          {Type: model.AttributeNumber},
		},
	},
	{ID: 33, Slug: "office-supplies", Name: "Office Supplies", ParentID: intPtr(idOpex), Type: model.AccountingOpex, Tier: 2, PnL: true, Industries: []string{model.IndustryAll}},
	{ID: 34, Slug: "general-admin", Name: "General & Administrative", ParentID: intPtr(idOpex), Type: model.AccountingOpex, Tier: 2, PnL: true, Industries: []string{model.IndustryAll}},
	{ID: 35, Slug: "professional-services", Name: "Professional Services", ParentID: intPtr(idOpex), Type: model.AccountingOpex, Tier: 2, PnL: true, Industries: []string{model.IndustryAll}},
	{ID: 36, Slug: "advertising-marketing", Name: "Advertising & Marketing", ParentID: intPtr(idOpex), Type: model.AccountingOpex, Tier: 2, PnL: true, Industries: []string{model.IndustryAll}},
	{ID: 37, Slug: "rent-utilities", Name: "Rent & Utilities", ParentID: intPtr(idOpex), Type: model.AccountingOpex, Tier: 2, PnL: true, Industries: []string{model.IndustryAll}},
	{ID: 38, Slug: "insurance", Name: "Insurance", ParentID: intPtr(idOpex), Type: model.AccountingOpex, Tier: 2, PnL: true, Industries: []string{model.IndustryAll}},
	{ID: 39, Slug: "bank-fees", Name: "Bank Fees", ParentID: intPtr(idOpex), Type: model.AccountingOpex, Tier: 2, PnL: true, Industries: []string{model.IndustryAll}},
	{ID: 40, Slug: "vehicle-fuel", Name: "Vehicle & Fuel", ParentID: intPtr(idOpex), Type: model.AccountingOpex, Tier: 2, PnL: true, Industries: []string{model.IndustryAll}},
	{
		ID: 41, Slug: "payroll", Name: "Payroll", ParentID: intPtr(idOpex),
		Type: model.AccountingOpex, Tier: 2, PnL: true, Industries: []string{model.IndustryAll},
		Attributes: map[string]model.AttributeSchema{
			"period_start": {Type: model.AttributeString},
			"period_end":   {Type: model.AttributeString},
		},
	},

	// Tier 2: liabilities.
	{ID: 50, Slug: "loan-payments", Name: "Loan Payments", ParentID: intPtr(idLiability), Type: model.AccountingLiability, Tier: 2, PnL: false, Industries: []string{model.IndustryAll}},
	{ID: 51, Slug: "tax-payments", Name: "Tax Payments", ParentID: intPtr(idLiability), Type: model.AccountingLiability, Tier: 2, PnL: false, Industries: []string{model.IndustryAll}},
	{ID: 52, Slug: "credit-card-payments", Name: "Credit Card Payments", ParentID: intPtr(idLiability), Type: model.AccountingLiability, Tier: 2, PnL: false, Industries: []string{model.IndustryAll}},

	// Tier 2: clearing.
	{ID: 60, Slug: "transfers", Name: "Transfers", ParentID: intPtr(idClearing), Type: model.AccountingClearing, Tier: 2, PnL: false, Industries: []string{model.IndustryAll}},
	{ID: 61, Slug: "owner-draws", Name: "Owner Draws", ParentID: intPtr(idClearing), Type: model.AccountingEquity, Tier: 2, PnL: false, Industries: []string{model.IndustryAll}},

	// The always-resolvable fallback.
	{ID: 99, Slug: model.FallbackSlug, Name: "Miscellaneous", ParentID: intPtr(idOpex), Type: model.AccountingOpex, Tier: 2, PnL: true, Industries: []string{model.IndustryAll}},
}

// Default returns a registry over the built-in category set.
func Default() *Registry {
	return MustNewRegistry(defaultCategories)
}

// DefaultCategories returns a copy of the built-in category set, for seeding
// storage.
func DefaultCategories() []model.Category {
	out := make([]model.Category, len(defaultCategories))
	copy(out, defaultCategories)
	return out
}
