package analytics

import "math"

// WarningThreshold is the usage percentage at which a budget starts warning.
const WarningThreshold = 80.0

// Evaluation is the outcome of checking spending against a limit. It is
// either a ValidBudget or a NoBudget; the two are told apart by type so that
// "no budget configured" never looks like a zero-amount budget.
type Evaluation interface {
	Snapshot() BudgetSnapshot
	isEvaluation()
}

// ValidBudget is the evaluation of spending against a positive limit.
type ValidBudget struct {
	Spent        float64
	Limit        float64
	Percentage   float64
	Remaining    float64
	IsOverBudget bool
	IsWarning    bool
}

// NoBudget is the evaluation when no usable limit exists.
type NoBudget struct {
	Spent float64
}

func (ValidBudget) isEvaluation() {}
func (NoBudget) isEvaluation()    {}

// BudgetSnapshot is the flat form of an Evaluation used in responses.
type BudgetSnapshot struct {
	Spent          float64 `json:"spent"`
	Limit          float64 `json:"limit"`
	Percentage     float64 `json:"percentage"`
	Remaining      float64 `json:"remaining"`
	IsOverBudget   bool    `json:"is_over_budget"`
	IsWarning      bool    `json:"is_warning"`
	HasValidBudget bool    `json:"has_valid_budget"`
}

// Snapshot flattens a valid evaluation.
func (v ValidBudget) Snapshot() BudgetSnapshot {
	return BudgetSnapshot{
		Spent:          v.Spent,
		Limit:          v.Limit,
		Percentage:     v.Percentage,
		Remaining:      v.Remaining,
		IsOverBudget:   v.IsOverBudget,
		IsWarning:      v.IsWarning,
		HasValidBudget: true,
	}
}

// Snapshot flattens a missing budget: every derived figure is zero.
func (n NoBudget) Snapshot() BudgetSnapshot {
	return BudgetSnapshot{Spent: n.Spent}
}

// BudgetInput pairs an amount spent with an optional limit. A nil Limit means
// no budget was set.
type BudgetInput struct {
	Spent float64
	Limit *float64
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func validLimit(limit *float64) (float64, bool) {
	if limit == nil {
		return 0, false
	}
	l := *limit
	if math.IsNaN(l) || math.IsInf(l, 0) || l <= 0 {
		return 0, false
	}
	return l, true
}

// Evaluate checks spending against a limit. It never fails: a missing,
// non-finite, zero or negative limit yields NoBudget, and a non-finite spent
// amount counts as zero.
func Evaluate(in BudgetInput) Evaluation {
	spent := finiteOrZero(in.Spent)
	limit, ok := validLimit(in.Limit)
	if !ok {
		return NoBudget{Spent: spent}
	}

	pct := spent / limit * 100
	return ValidBudget{
		Spent:        spent,
		Limit:        limit,
		Percentage:   pct,
		Remaining:    limit - spent,
		IsOverBudget: spent > limit,
		IsWarning:    pct >= WarningThreshold,
	}
}

// EvaluateTotal rolls several category budgets into one. Spent amounts are
// summed with invalid values counted as zero; only valid limits contribute to
// the total limit, and a total limit of zero means there is no budget.
func EvaluateTotal(items []BudgetInput) Evaluation {
	var spent, limit float64
	for _, it := range items {
		spent += finiteOrZero(it.Spent)
		if l, ok := validLimit(it.Limit); ok {
			limit += l
		}
	}
	if limit == 0 {
		return NoBudget{Spent: spent}
	}
	return Evaluate(BudgetInput{Spent: spent, Limit: &limit})
}

// Limit is a convenience for building a BudgetInput with a set limit.
func Limit(v float64) *float64 {
	return &v
}
