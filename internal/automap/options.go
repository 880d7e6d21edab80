package automap

// Default tuning values.
const (
	DefaultThreshold   = 0.5
	DefaultBoostWeight = 0.2
)

// DefaultDenylist holds header tokens that never name a financial field.
var DefaultDenylist = []string{"product name", "model", "code", "category", "region", "status"}

// DefaultBoostTokens holds domain tokens that earn a score boost when both the
// field key and the header mention them.
var DefaultBoostTokens = []string{"price", "tax", "insurance", "subsidy", "discount", "road", "rto"}

// Options tunes the fuzzy stage.
type Options struct {
	// Denylist tokens exclude a header from fuzzy matching when the
	// lower-cased header contains any of them. Tokens should be lower-case.
	Denylist []string

	// BoostTokens add BoostWeight to a fuzzy score once per token shared by
	// the lower-cased field key and header. Tokens should be lower-case.
	BoostTokens []string

	// BoostWeight is the additive boost per shared token. Zero means
	// DefaultBoostWeight (0.2).
	BoostWeight float64

	// Threshold is the minimum fuzzy score a header needs to be accepted.
	// Zero means DefaultThreshold (0.5), so a threshold of exactly 0 cannot
	// be expressed.
	Threshold float64
}

// DefaultOptions returns the stock token lists and constants.
func DefaultOptions() Options {
	return Options{
		Denylist:    append([]string(nil), DefaultDenylist...),
		BoostTokens: append([]string(nil), DefaultBoostTokens...),
		BoostWeight: DefaultBoostWeight,
		Threshold:   DefaultThreshold,
	}
}

// withDefaults fills zero-valued numeric options. Token lists are left as
// given so callers can switch them off with an empty slice.
func (o Options) withDefaults() Options {
	if o.BoostWeight == 0 {
		o.BoostWeight = DefaultBoostWeight
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	return o
}
