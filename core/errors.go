package core

import "errors"

// ErrBudgetExhausted is returned when a run attempts more model calls than
// its configured ceiling allows. Runs ending this way are reported distinctly
// from ordinary failures so clients can suggest raising the limit.
var ErrBudgetExhausted = errors.New("model call budget exhausted")
