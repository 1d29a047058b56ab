package entity

import "time"

// ApprovalStatus represents the workflow state of an approval request
type ApprovalStatus string

const (
	ApprovalWaitingManager ApprovalStatus = "WAITING_MANAGER_APPROVAL"
	ApprovalWaitingIT      ApprovalStatus = "WAITING_IT_PROCESSING"
	ApprovalApproved       ApprovalStatus = "Approved"
	ApprovalRejected       ApprovalStatus = "Rejected"
)

var validApprovalStatuses = map[ApprovalStatus]bool{
	ApprovalWaitingManager: true,
	ApprovalWaitingIT:      true,
	ApprovalApproved:       true,
	ApprovalRejected:       true,
}

// approvalTransitions is the total adjacency of the approval workflow.
// The state machine in application/workflow is configured from the same
// adjacency; a test keeps the two in sync.
var approvalTransitions = map[ApprovalStatus][]ApprovalStatus{
	ApprovalWaitingManager: {ApprovalWaitingIT, ApprovalRejected},
	ApprovalWaitingIT:      {ApprovalApproved, ApprovalRejected},
	ApprovalApproved:       {},
	ApprovalRejected:       {},
}

// String returns the string representation of the status
func (s ApprovalStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is one of the defined statuses
func (s ApprovalStatus) IsValid() bool {
	return validApprovalStatuses[s]
}

// IsTerminal returns true if no further transitions are allowed
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

// CanTransitionTo returns true if next is adjacent to s in the fixed path
func (s ApprovalStatus) CanTransitionTo(next ApprovalStatus) bool {
	for _, to := range approvalTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// StepStatus represents the outcome of a single validation step
type StepStatus string

const (
	StepPending   StepStatus = "Pending"
	StepValidated StepStatus = "Validated"
	StepRejected  StepStatus = "Rejected"
)

// ValidationStep is one stage in an approval's sign-off sequence
type ValidationStep struct {
	Role   Role       `json:"role"`
	Status StepStatus `json:"status"`
}

// Urgency levels for approval requests
const (
	UrgencyLow    = "low"
	UrgencyNormal = "normal"
	UrgencyHigh   = "high"
)

// Approval represents an equipment assignment request moving through
// the manager/IT validation path
type Approval struct {
	ID                  string           `json:"id"`
	RequesterID         string           `json:"requester_id"`
	RequesterName       string           `json:"requester_name"`
	RequesterRole       Role             `json:"requester_role"`
	BeneficiaryID       string           `json:"beneficiary_id"`
	BeneficiaryName     string           `json:"beneficiary_name"`
	IsDelegated         bool             `json:"is_delegated"`
	EquipmentCategory   string           `json:"equipment_category"`
	Reason              string           `json:"reason"`
	Urgency             string           `json:"urgency"`
	Status              ApprovalStatus   `json:"status"`
	ValidationSteps     []ValidationStep `json:"validation_steps"`
	CurrentStep         int              `json:"current_step"`
	AssignedEquipmentID string           `json:"assigned_equipment_id,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// IsActive returns true while the approval has not reached a terminal status
func (a *Approval) IsActive() bool {
	return !a.Status.IsTerminal()
}
