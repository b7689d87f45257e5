package engine

import "github.com/gyeh/cms-pricing/internal/money"

// ApplyModifiers applies the modifier chain to base in modifier order
//. -50 (bilateral)
// multiplies by 1.5; -51 (multiple procedures) multiplies by 0.5.
// Unknown modifiers pass through unchanged but are returned so the
// caller can record them in the trace.
func ApplyModifiers(base money.Cents, modifiers []string) (money.Cents, []string) {
	amount := base
	var unknown []string
	for _, m := range modifiers {
		switch m {
		case "-50":
			amount = amount.MulFloat(1.5)
		case "-51":
			amount = amount.MulFloat(0.5)
		default:
			unknown = append(unknown, m)
		}
	}
	return amount, unknown
}
