package flow

// ConsentService checks whether a consent token covers the scopes a flow
// requires. A denial aborts the flow before any step runs.
type ConsentService interface {
	EnsureGranted(token string, scopes []string) error
}

// BudgetGuard gates tool spending. A false return skips the step; the flow
// continues.
type BudgetGuard interface {
	Allow(toolID string, maxCostUSD float64, maxTokens int) bool
}

// PermissiveConsent grants every scope. Default when no service is wired.
type PermissiveConsent struct{}

var _ ConsentService = (*PermissiveConsent)(nil)

func (PermissiveConsent) EnsureGranted(string, []string) error { return nil }

// PermissiveBudget allows every spend. Default when no guard is wired.
type PermissiveBudget struct{}

var _ BudgetGuard = (*PermissiveBudget)(nil)

func (PermissiveBudget) Allow(string, float64, int) bool { return true }
