package model

// AccountingType classifies where a category lands in the books.
type AccountingType string

// Accounting type constants.
const (
	AccountingRevenue   AccountingType = "revenue"
	AccountingCOGS      AccountingType = "cogs"
	AccountingOpex      AccountingType = "opex"
	AccountingLiability AccountingType = "liability"
	AccountingClearing  AccountingType = "clearing"
	AccountingAsset     AccountingType = "asset"
	AccountingEquity    AccountingType = "equity"
)

// AttributeType describes the value type an attribute accepts.
type AttributeType string

// Attribute type constants.
const (
	AttributeString AttributeType = "string"
	AttributeNumber AttributeType = "number"
	AttributeBool   AttributeType = "bool"
	AttributeEnum   AttributeType = "enum"
)

// AttributeSchema declares a single attribute a category accepts.
type AttributeSchema struct {
	Type     AttributeType
	Allowed  []string // For enum attributes only
	Required bool
}

// IndustryAll marks a category as applicable to every vertical.
const IndustryAll = "all"

// FallbackSlug is the always-resolvable category used when no classifier
// produces a confident answer. The registry refuses to start without it.
const FallbackSlug = "miscellaneous"

// Category is a node in the two-tier accounting taxonomy. IDs are stable and
// never reused; slugs are globally unique.
type Category struct {
	Attributes map[string]AttributeSchema
	ParentID   *int
	Slug       string
	Name       string
	Type       AccountingType
	Industries []string
	ID         int
	Tier       int // 1 for umbrella categories, 2 for leaves
	PnL        bool
}

// AppliesTo reports whether the category is usable in the given industry
// vertical.
func (c *Category) AppliesTo(industry string) bool {
	for _, ind := range c.Industries {
		if ind == IndustryAll || ind == industry {
			return true
		}
	}
	return false
}

// ExpectsInflow reports whether the accounting type implies a non-negative
// amount. Used by the guardrail amount-sign check.
func (c *Category) ExpectsInflow() bool {
	return c.Type == AccountingRevenue
}
