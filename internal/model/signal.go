package model

// SignalType identifies which rule family produced a signal. The order of the
// constants is the tie-break precedence when confidences are equal.
type SignalType string

// Signal type constants, strongest precedence first.
const (
	SignalMCC     SignalType = "mcc"
	SignalVendor  SignalType = "vendor"
	SignalKeyword SignalType = "keyword"
	SignalPattern SignalType = "pattern"
	SignalAmount  SignalType = "amount"
)

// SignalStrength grades how specific the rule match was.
type SignalStrength string

// Signal strength constants.
const (
	StrengthExact   SignalStrength = "exact"
	StrengthFamily  SignalStrength = "family"
	StrengthUnknown SignalStrength = "unknown"
)

// Signal is a single piece of rule evidence pointing at a category. Signals
// are ephemeral: produced and consumed within one Pass-1 invocation.
type Signal struct {
	Type         SignalType
	Evidence     string
	CategorySlug string
	Strength     SignalStrength
	Confidence   float64
}

var signalPrecedence = map[SignalType]int{
	SignalMCC:     0,
	SignalVendor:  1,
	SignalKeyword: 2,
	SignalPattern: 2, // Keyword and pattern share a precedence level
	SignalAmount:  3,
}

// Precedence returns the tie-break rank of the signal type, lower is
// stronger. Unknown types rank last.
func (s *Signal) Precedence() int {
	if p, ok := signalPrecedence[s.Type]; ok {
		return p
	}
	return len(signalPrecedence)
}
