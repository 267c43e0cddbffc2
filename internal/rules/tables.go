package rules

import "github.com/parthgeek/tally/internal/model"

// mccCategories maps merchant category codes to taxonomy slugs. An MCC only
// describes the merchant's line of business, never the purchase intent, so
// MCC signals are emitted at family strength.
var mccCategories = map[string]string{
	// Food and drink.
	"5411": "meals-and-entertainment", // Grocery stores
	"5812": "meals-and-entertainment", // Restaurants
	"5813": "meals-and-entertainment", // Bars
	"5814": "meals-and-entertainment", // Fast food

	// Travel.
	"4112": "travel", // Passenger rail
	"4121": "travel", // Taxis and rideshare
	"4511": "travel", // Airlines
	"7011": "travel", // Hotels

	// Fuel.
	"5541": "vehicle-fuel", // Service stations
	"5542": "vehicle-fuel", // Automated fuel dispensers

	// Software.
	"5734": "software-subscriptions", // Computer software stores
	"7372": "software-subscriptions", // Computer programming services

	// Supplies.
	"5111": "office-supplies", // Stationery and office supplies
	"5943": "office-supplies", // Stationery stores

	// Services.
	"7311": "advertising-marketing", // Advertising services
	"7392": "professional-services", // Consulting
	"8111": "professional-services", // Legal services
	"8931": "professional-services", // Accounting services

	// Utilities and telecom.
	"4814": "rent-utilities", // Telecom services
	"4899": "rent-utilities", // Cable and other pay television
	"4900": "rent-utilities", // Utilities

	// Financial.
	"6012": "bank-fees", // Financial institutions
	"6300": "insurance", // Insurance sales

	// Logistics.
	"4214": "freight-shipping", // Motor freight carriers
	"4215": "freight-shipping", // Courier services
}

// CategoryForMCC returns the taxonomy slug an MCC maps to, if known. The
// guardrail validator shares this table for its compatibility check.
func CategoryForMCC(mcc string) (string, bool) {
	slug, ok := mccCategories[mcc]
	return slug, ok
}

// vendorRule matches a known merchant by name or description.
type vendorRule struct {
	Pattern  string // Case-insensitive regex applied to merchant name and description
	Slug     string
	Strength model.SignalStrength
}

// Exact strength means the merchant implies the category outright. Family
// strength covers ambiguous brands (Uber is rides or food depending on the
// sub-brand).
var vendorRules = []vendorRule{
	{Pattern: `\b(AWS|AMAZON WEB SERVICES)\b`, Slug: "software-subscriptions", Strength: model.StrengthExact},
	{Pattern: `\bGITHUB\b`, Slug: "software-subscriptions", Strength: model.StrengthExact},
	{Pattern: `\bGOOGLE\s*(WORKSPACE|GSUITE|CLOUD)\b`, Slug: "software-subscriptions", Strength: model.StrengthExact},
	{Pattern: `\b(SLACK|ZOOM\.US|NOTION|FIGMA|ATLASSIAN|ADOBE)\b`, Slug: "software-subscriptions", Strength: model.StrengthExact},
	{Pattern: `\b(GUSTO|PAYCHEX|ADP PAYROLL)\b`, Slug: "payroll", Strength: model.StrengthExact},
	{Pattern: `\b(UBER\s*EATS|DOORDASH|GRUBHUB)\b`, Slug: "meals-and-entertainment", Strength: model.StrengthExact},
	{Pattern: `\b(UBER|LYFT)\b`, Slug: "travel", Strength: model.StrengthFamily},
	{Pattern: `\b(DELTA AIR|UNITED AIR|AMERICAN AIR|SOUTHWEST AIR|ALASKA AIR)`, Slug: "travel", Strength: model.StrengthExact},
	{Pattern: `\b(MARRIOTT|HILTON|HYATT|AIRBNB)\b`, Slug: "travel", Strength: model.StrengthExact},
	{Pattern: `\b(SHELL OIL|CHEVRON|EXXON|MOBIL)\b`, Slug: "vehicle-fuel", Strength: model.StrengthExact},
	{Pattern: `\b(STAPLES|OFFICE DEPOT|OFFICEMAX)\b`, Slug: "office-supplies", Strength: model.StrengthExact},
	{Pattern: `\b(FEDEX|UPS STORE|USPS)\b`, Slug: "freight-shipping", Strength: model.StrengthExact},
	{Pattern: `\bSTRIPE\s*(PAYOUT|TRANSFER)\b`, Slug: "sales-revenue", Strength: model.StrengthFamily},
	{Pattern: `\b(GOOGLE ADS|FACEBK\s*ADS|META ADS|LINKEDIN ADS)`, Slug: "advertising-marketing", Strength: model.StrengthExact},
	{Pattern: `\b(STATE FARM|GEICO|PROGRESSIVE INS|HARTFORD)\b`, Slug: "insurance", Strength: model.StrengthExact},
	{Pattern: `\b(COMCAST|XFINITY|VERIZON|T-MOBILE|CENTURYLINK)\b`, Slug: "rent-utilities", Strength: model.StrengthExact},
}

// keywordRule matches free-text description tokens.
type keywordRule struct {
	Pattern  string
	Slug     string
	Strength model.SignalStrength
}

var keywordRules = []keywordRule{
	{Pattern: `\bPAYROLL\b`, Slug: "payroll", Strength: model.StrengthFamily},
	{Pattern: `\bINSURANCE\b`, Slug: "insurance", Strength: model.StrengthFamily},
	{Pattern: `\bINTEREST (EARNED|PAID|PAYMENT)\b`, Slug: "interest-income", Strength: model.StrengthFamily},
	{Pattern: `\bLOAN (PMT|PAYMENT)\b`, Slug: "loan-payments", Strength: model.StrengthFamily},
	{Pattern: `\b(IRS|TAX (PMT|PAYMENT)|EFTPS)\b`, Slug: "tax-payments", Strength: model.StrengthFamily},
	{Pattern: `\b(TRANSFER|XFER)\b`, Slug: "transfers", Strength: model.StrengthFamily},
	{Pattern: `\b(WIRE FEE|SERVICE CHARGE|OVERDRAFT|MONTHLY FEE|NSF FEE)\b`, Slug: "bank-fees", Strength: model.StrengthFamily},
	{Pattern: `\bSUBSCRIPTION\b`, Slug: "software-subscriptions", Strength: model.StrengthFamily},
	{Pattern: `\bRENT\b`, Slug: "rent-utilities", Strength: model.StrengthFamily},
}

// patternRule matches structural templates in the raw description.
type patternRule struct {
	Pattern  string
	Slug     string
	Strength model.SignalStrength
}

var patternRules = []patternRule{
	{Pattern: `\b(CREDIT CARD|CC) (AUTOPAY|PMT|PAYMENT)\b`, Slug: "credit-card-payments", Strength: model.StrengthFamily},
	{Pattern: `^CHECK\s*#?\d+`, Slug: "general-admin", Strength: model.StrengthUnknown},
	{Pattern: `\bRECURRING\b`, Slug: "software-subscriptions", Strength: model.StrengthUnknown},
}

// amountInflowPattern backs the weakest heuristic: an unexplained credit that
// calls itself a deposit or payout is probably revenue.
const amountInflowPattern = `\b(DEPOSIT|PAYOUT)\b`

// baseConfidence derives a signal's confidence from its type and match
// strength.
var baseConfidence = map[model.SignalType]map[model.SignalStrength]float64{
	model.SignalMCC: {
		model.StrengthExact:  0.90,
		model.StrengthFamily: 0.70,
	},
	model.SignalVendor: {
		model.StrengthExact:   0.96,
		model.StrengthFamily:  0.85,
		model.StrengthUnknown: 0.60,
	},
	model.SignalKeyword: {
		model.StrengthExact:   0.80,
		model.StrengthFamily:  0.60,
		model.StrengthUnknown: 0.50,
	},
	model.SignalPattern: {
		model.StrengthExact:   0.80,
		model.StrengthFamily:  0.65,
		model.StrengthUnknown: 0.50,
	},
	model.SignalAmount: {
		model.StrengthUnknown: 0.40,
	},
}

func confidenceFor(signalType model.SignalType, strength model.SignalStrength) float64 {
	if byStrength, ok := baseConfidence[signalType]; ok {
		if conf, ok := byStrength[strength]; ok {
			return conf
		}
	}
	return 0.50
}
