package backtrack

import (
	"errors"
	"fmt"
)

// ErrBudgetExceeded is the errors.Is sentinel every *BudgetExceededError
// unwraps to.
var ErrBudgetExceeded = errors.New("backtrack: step budget exceeded")

// BudgetExceededError signals that a match call consumed more steps than its
// caller's step budget allowed. It is a recoverable signal, not a
// parse-time failure: the analyzer deliberately triggers it as evidence a
// candidate pump explodes the matcher, while an ordinary caller treats it as
// "this input is likely pathological, retry with a larger budget or give up".
type BudgetExceededError struct {
	// Steps is the number of match steps executed before the budget tripped.
	Steps uint64
	// Budget is the budget that was exceeded.
	Budget uint64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("backtrack: step budget exceeded (%d steps, budget %d)", e.Steps, e.Budget)
}

// Unwrap lets callers match with errors.Is(err, ErrBudgetExceeded).
func (e *BudgetExceededError) Unwrap() error { return ErrBudgetExceeded }

// IsBudgetExceeded reports whether err is (or wraps) a *BudgetExceededError.
func IsBudgetExceeded(err error) bool {
	return errors.Is(err, ErrBudgetExceeded)
}
