// Package ruleengine is a minimal extensible rule pipeline: an ordered
// sequence of rules over a shared, caller-defined context. Each rule
// reports whether it applies and, if so, executes and may short-circuit
// later rules.
//
// Used by internal/resolver (policy matching) and internal/compiler
// (catalog admission), the two places that share this matching pattern.
package ruleengine

// Context is the minimal contract a rule pipeline operates over: it must
// expose the short-circuit flags the engine checks between rules. Callers
// embed Flags into their own richer context type.
type Context interface {
	Flags() *Flags
}

// Flags holds the mutable short-circuit state a rule can set to influence
// the rest of the pipeline.
type Flags struct {
	// Matched is set by a rule that found a definitive match; Run skips
	// the remaining rules once this is true. What a match means is left
	// to each pipeline.
	Matched bool
	// ShouldSkip is set by a rule that determined the whole pipeline
	// should stop without a match (e.g., an admission rule rejecting the
	// candidate outright).
	ShouldSkip bool
}

// Rule is a single pipeline stage. Priority determines run order (stable
// sort, ascending — lower runs first). ShouldApply is checked before
// Execute so a rule can be a no-op for contexts it doesn't concern.
type Rule[C Context] struct {
	Name        string
	Priority    int
	ShouldApply func(ctx C) bool
	Execute     func(ctx C) error
}

// Run sorts rules by priority (stable) and executes each one whose
// ShouldApply reports true, in order, stopping early once ctx.Flags().
// Matched or ShouldSkip becomes true.
func Run[C Context](ctx C, rules []Rule[C]) error {
	ordered := make([]Rule[C], len(rules))
	copy(ordered, rules)
	stableSortByPriority(ordered)

	for _, r := range ordered {
		flags := ctx.Flags()
		if flags.Matched || flags.ShouldSkip {
			break
		}
		if r.ShouldApply != nil && !r.ShouldApply(ctx) {
			continue
		}
		if r.Execute == nil {
			continue
		}
		if err := r.Execute(ctx); err != nil {
			return err
		}
	}
	return nil
}

// stableSortByPriority is a small insertion sort: rule sets are tiny
// (single digits), so this avoids pulling in sort.Slice's reflection for a
// pipeline that runs on every resolution.
func stableSortByPriority[C Context](rules []Rule[C]) {
	for i := 1; i < len(rules); i++ {
		j := i
		for j > 0 && rules[j-1].Priority > rules[j].Priority {
			rules[j-1], rules[j] = rules[j], rules[j-1]
			j--
		}
	}
}
