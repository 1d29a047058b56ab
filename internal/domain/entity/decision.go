package entity

// Decision is the uniform result of every guarded operation.
// A denial carries a human-readable reason suitable for direct display;
// business-rule denials are values, never errors.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Allow returns an allowing decision
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision with the given reason
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}
