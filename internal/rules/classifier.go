// Package rules implements the deterministic Pass-1 signal classifier. It is
// a pure function of a transaction against static tables: no network, no
// mutable state, identical output for identical input.
package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/parthgeek/tally/internal/model"
)

type compiledVendorRule struct {
	regex *regexp.Regexp
	vendorRule
}

type compiledKeywordRule struct {
	regex *regexp.Regexp
	keywordRule
}

type compiledPatternRule struct {
	regex *regexp.Regexp
	patternRule
}

// Classifier evaluates the static rule tables against a transaction. All
// patterns are compiled once at construction; Classify never mutates state.
type Classifier struct {
	inflowRegex *regexp.Regexp
	vendors     []compiledVendorRule
	keywords    []compiledKeywordRule
	patterns    []compiledPatternRule
}

// NewClassifier compiles the built-in rule tables.
func NewClassifier() (*Classifier, error) {
	c := &Classifier{}

	for _, rule := range vendorRules {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("vendor rule %q: %w", rule.Pattern, err)
		}
		c.vendors = append(c.vendors, compiledVendorRule{regex: re, vendorRule: rule})
	}
	for _, rule := range keywordRules {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("keyword rule %q: %w", rule.Pattern, err)
		}
		c.keywords = append(c.keywords, compiledKeywordRule{regex: re, keywordRule: rule})
	}
	for _, rule := range patternRules {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern rule %q: %w", rule.Pattern, err)
		}
		c.patterns = append(c.patterns, compiledPatternRule{regex: re, patternRule: rule})
	}

	re, err := regexp.Compile("(?i)" + amountInflowPattern)
	if err != nil {
		return nil, fmt.Errorf("inflow pattern: %w", err)
	}
	c.inflowRegex = re

	return c, nil
}

// MustNewClassifier is NewClassifier for the static built-in tables, which
// are known to compile.
func MustNewClassifier() *Classifier {
	c, err := NewClassifier()
	if err != nil {
		panic(err)
	}
	return c
}

// Signals returns every rule match for the transaction, strongest first.
func (c *Classifier) Signals(txn model.Transaction) []model.Signal {
	var signals []model.Signal

	if slug, ok := CategoryForMCC(txn.MCC); ok {
		signals = append(signals, model.Signal{
			Type:         model.SignalMCC,
			Evidence:     fmt.Sprintf("mcc %s maps to %s", txn.MCC, slug),
			CategorySlug: slug,
			Strength:     model.StrengthFamily,
			Confidence:   confidenceFor(model.SignalMCC, model.StrengthFamily),
		})
	}

	searchText := strings.TrimSpace(txn.MerchantName + " " + txn.Description)

	for _, rule := range c.vendors {
		if match := rule.regex.FindString(searchText); match != "" {
			signals = append(signals, model.Signal{
				Type:         model.SignalVendor,
				Evidence:     fmt.Sprintf("vendor %q matches %s", strings.TrimSpace(match), rule.Slug),
				CategorySlug: rule.Slug,
				Strength:     rule.Strength,
				Confidence:   confidenceFor(model.SignalVendor, rule.Strength),
			})
		}
	}

	for _, rule := range c.keywords {
		if match := rule.regex.FindString(searchText); match != "" {
			signals = append(signals, model.Signal{
				Type:         model.SignalKeyword,
				Evidence:     fmt.Sprintf("keyword %q suggests %s", strings.TrimSpace(match), rule.Slug),
				CategorySlug: rule.Slug,
				Strength:     rule.Strength,
				Confidence:   confidenceFor(model.SignalKeyword, rule.Strength),
			})
		}
	}

	for _, rule := range c.patterns {
		if match := rule.regex.FindString(txn.Description); match != "" {
			signals = append(signals, model.Signal{
				Type:         model.SignalPattern,
				Evidence:     fmt.Sprintf("pattern %q suggests %s", strings.TrimSpace(match), rule.Slug),
				CategorySlug: rule.Slug,
				Strength:     rule.Strength,
				Confidence:   confidenceFor(model.SignalPattern, rule.Strength),
			})
		}
	}

	if txn.IsInflow() && c.inflowRegex.MatchString(searchText) {
		signals = append(signals, model.Signal{
			Type:         model.SignalAmount,
			Evidence:     "inflow described as a deposit or payout",
			CategorySlug: "sales-revenue",
			Strength:     model.StrengthUnknown,
			Confidence:   confidenceFor(model.SignalAmount, model.StrengthUnknown),
		})
	}

	rankSignals(signals)
	return signals
}

// Classify runs Pass-1 and returns the best-candidate result. The highest
// confidence signal wins; ties break by fixed precedence MCC > vendor >
// keyword/pattern > amount. No match returns an empty result, never an error.
func (c *Classifier) Classify(txn model.Transaction) model.CategorizationResult {
	signals := c.Signals(txn)
	if len(signals) == 0 {
		return model.CategorizationResult{Engine: model.EnginePass1}
	}

	best := signals[0]
	rationale := make([]string, 0, len(signals))
	for _, sig := range signals {
		rationale = append(rationale, sig.Evidence)
	}

	return model.CategorizationResult{
		CategorySlug: best.CategorySlug,
		Confidence:   model.Float64(best.Confidence),
		Rationale:    rationale,
		Engine:       model.EnginePass1,
	}
}

// rankSignals sorts by confidence descending, breaking ties by type
// precedence and then by evidence for determinism.
func rankSignals(signals []model.Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].Confidence != signals[j].Confidence {
			return signals[i].Confidence > signals[j].Confidence
		}
		if signals[i].Precedence() != signals[j].Precedence() {
			return signals[i].Precedence() < signals[j].Precedence()
		}
		return signals[i].Evidence < signals[j].Evidence
	})
}
