package core

// DecisionResult represents the outcome of a business decision in a Decide function.
//
// DecisionResult should only be constructed using the provided factory methods:
// IdempotentDecision(), SuccessDecision(event), or RejectedDecision(err).
// A rejected decision carries no event: a command that breaks a rule leaves the ledger untouched.
type DecisionResult struct {
	Outcome string      // "idempotent", "success", or "rejected"
	Event   DomainEvent // nil unless the outcome is "success"
	Err     error
}

const (
	idempotentOutcome = "idempotent"
	successOutcome    = "success"
	rejectedOutcome   = "rejected"
)

// IdempotentDecision creates a DecisionResult indicating no state change is needed.
func IdempotentDecision() DecisionResult {
	return DecisionResult{Outcome: idempotentOutcome}
}

// SuccessDecision creates a DecisionResult indicating a successful state change with an event to append.
func SuccessDecision(event DomainEvent) DecisionResult {
	return DecisionResult{
		Outcome: successOutcome,
		Event:   event,
	}
}

// RejectedDecision creates a DecisionResult indicating a business rule violation.
func RejectedDecision(err error) DecisionResult {
	return DecisionResult{
		Outcome: rejectedOutcome,
		Err:     err,
	}
}

// HasEventToAppend returns true if there is an event to append to the event store.
func (r DecisionResult) HasEventToAppend() bool {
	return r.Outcome == successOutcome
}

// IsIdempotent returns true if the command was already satisfied.
func (r DecisionResult) IsIdempotent() bool {
	return r.Outcome == idempotentOutcome
}

// HasError returns the error if there is one, otherwise nil.
func (r DecisionResult) HasError() error {
	if r.Outcome == rejectedOutcome {
		return r.Err
	}

	return nil
}
