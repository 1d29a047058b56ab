package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerManagerValidate Trigger = "MANAGER_VALIDATE"
	TriggerITApprove       Trigger = "IT_APPROVE"
	TriggerReject          Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
