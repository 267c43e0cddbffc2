// Package guardrail polices proposed categories against domain constraints.
// Every check is advisory: the validator annotates and flags, it never blocks
// a categorization from completing.
package guardrail

import (
	"fmt"

	"github.com/parthgeek/tally/internal/model"
	"github.com/parthgeek/tally/internal/rules"
	"github.com/parthgeek/tally/internal/taxonomy"
)

// DefaultConfidenceFloor is the confidence below which a decision is always
// routed to review, regardless of the auto-apply threshold.
const DefaultConfidenceFloor = 0.60

// compatibleFamilies lists category pairs the MCC check treats as
// interchangeable. The map is symmetric; addPair keeps it that way.
var compatibleFamilies = map[string]map[string]bool{}

func addPair(a, b string) {
	if compatibleFamilies[a] == nil {
		compatibleFamilies[a] = map[string]bool{}
	}
	if compatibleFamilies[b] == nil {
		compatibleFamilies[b] = map[string]bool{}
	}
	compatibleFamilies[a][b] = true
	compatibleFamilies[b][a] = true
}

func init() {
	addPair("software-subscriptions", "general-admin")
	addPair("office-supplies", "general-admin")
	addPair("rent-utilities", "general-admin")
	addPair("meals-and-entertainment", "travel")
	addPair("professional-services", "general-admin")
	addPair("bank-fees", "merchant-fees")
	addPair("freight-shipping", "materials")
}

// Config holds the tunable guardrail thresholds.
type Config struct {
	ConfidenceFloor float64
}

// DefaultConfig returns the default guardrail configuration.
func DefaultConfig() Config {
	return Config{ConfidenceFloor: DefaultConfidenceFloor}
}

// Validator runs the post-hoc sanity checks on a chosen category.
type Validator struct {
	registry *taxonomy.Registry
	floor    float64
}

// New creates a guardrail validator over the given taxonomy.
func New(registry *taxonomy.Registry, cfg Config) *Validator {
	floor := cfg.ConfidenceFloor
	if floor <= 0 {
		floor = DefaultConfidenceFloor
	}
	return &Validator{registry: registry, floor: floor}
}

// Check validates a proposed category against the transaction. It always
// returns a usable outcome; violations are recorded, never thrown, and the
// fallback category stands in for an unresolvable slug.
func (v *Validator) Check(txn model.Transaction, slug string, confidence float64) model.GuardrailOutcome {
	outcome := model.GuardrailOutcome{
		CategorySlug: slug,
		Confidence:   confidence,
	}

	cat, resolved := v.registry.BySlug(slug)
	if !resolved {
		cat = v.registry.Fallback()
		outcome.CategorySlug = cat.Slug
		outcome.Violations = append(outcome.Violations,
			fmt.Sprintf("unknown category %q coerced to %s", slug, cat.Slug))
	}

	if msg := v.checkMCC(txn, cat); msg != "" {
		outcome.Violations = append(outcome.Violations, msg)
	}

	if confidence < v.floor {
		outcome.ForceReview = true
		outcome.Violations = append(outcome.Violations,
			fmt.Sprintf("confidence %.2f below floor %.2f, review required", confidence, v.floor))
	}

	if cat.ExpectsInflow() && txn.AmountCents < 0 {
		outcome.Violations = append(outcome.Violations,
			fmt.Sprintf("revenue category %s assigned to a %d cent outflow", cat.Slug, txn.AmountCents))
	}

	return outcome
}

// checkMCC reports a violation when the transaction's MCC has a known mapping
// that disagrees with the proposed category outside its compatible family.
func (v *Validator) checkMCC(txn model.Transaction, cat *model.Category) string {
	if txn.MCC == "" {
		return ""
	}
	mapped, known := rules.CategoryForMCC(txn.MCC)
	if !known || mapped == cat.Slug {
		return ""
	}
	if compatibleFamilies[mapped][cat.Slug] {
		return ""
	}
	return fmt.Sprintf("mcc %s maps to %s but %s was proposed", txn.MCC, mapped, cat.Slug)
}
