package havoc

// Applicable exposes the length preconditions for tests.
func Applicable(s Strategy, n, maxLen int) bool {
	return s.applicable(n, maxLen)
}

// PickStrategy draws one strategy from a selector over enabled.
func PickStrategy(enabled []Strategy, r *Rand) Strategy {
	sel := newSelector(enabled)

	return sel.pick(r)
}
