package state

// RuleError is a business-rule rejection: the operation's precondition was not
// met and no state was mutated. The code is stable and machine-readable so
// clients and logs can distinguish failure causes.
type RuleError struct {
	Code string
}

func (e *RuleError) Error() string {
	return e.Code
}

func ruleError(code string) *RuleError {
	return &RuleError{Code: code}
}
