package model

// EngineTag identifies which classifier produced a result.
type EngineTag string

// Engine tag constants.
const (
	EnginePass1 EngineTag = "pass1"
	EngineLLM   EngineTag = "llm"
)

// CategorizationResult is the output of a single classifier pass. An empty
// CategorySlug with a nil Confidence means the pass produced nothing.
type CategorizationResult struct {
	Attributes   map[string]any
	Confidence   *float64
	CategorySlug string
	Rationale    []string
	Engine       EngineTag
}

// HasCategory reports whether the pass produced a usable category.
func (r *CategorizationResult) HasCategory() bool {
	return r.CategorySlug != ""
}

// ConfidenceOrZero returns the confidence, treating undefined as zero for
// arbitration comparisons.
func (r *CategorizationResult) ConfidenceOrZero() float64 {
	if r.Confidence == nil {
		return 0
	}
	return *r.Confidence
}

// GuardrailOutcome is the possibly-adjusted category plus any advisory
// violations. It always carries a usable category, violations or not.
type GuardrailOutcome struct {
	CategorySlug string
	Violations   []string
	Confidence   float64
	ForceReview  bool
}

// OutcomeStatus tags how a categorization attempt concluded.
type OutcomeStatus string

// Outcome status constants.
const (
	// OutcomeOK means a classifier produced the result on its own merits.
	OutcomeOK OutcomeStatus = "ok"
	// OutcomeFallback means the result was degraded to a safe default;
	// Reason says why.
	OutcomeFallback OutcomeStatus = "fallback"
	// OutcomeFatal means a caller contract was violated; Err is set and the
	// result is unusable.
	OutcomeFatal OutcomeStatus = "fatal"
)

// Outcome is the tagged result of a categorization attempt. Callers switch on
// Status instead of inspecting errors.
type Outcome struct {
	Err    error
	Status OutcomeStatus
	Reason string
	Result CategorizationResult
}

// Ok wraps a result that a classifier produced normally.
func Ok(result CategorizationResult) Outcome {
	return Outcome{Status: OutcomeOK, Result: result}
}

// Fallback wraps a degraded result with the reason it was degraded.
func Fallback(result CategorizationResult, reason string) Outcome {
	return Outcome{Status: OutcomeFallback, Result: result, Reason: reason}
}

// Fatal wraps a caller contract violation.
func Fatal(err error) Outcome {
	return Outcome{Status: OutcomeFatal, Err: err}
}

// Usable reports whether the outcome carries a result the apply step may
// persist.
func (o *Outcome) Usable() bool {
	return o.Status != OutcomeFatal && o.Result.HasCategory()
}

// Float64 returns a pointer to v. Convenience for optional confidences.
func Float64(v float64) *float64 {
	return &v
}
