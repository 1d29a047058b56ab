package entity

import "time"

// EventType identifies the semantic class of a movement-history event
type EventType string

const (
	EventCreate             EventType = "CREATE"
	EventUpdate             EventType = "UPDATE"
	EventDelete             EventType = "DELETE"
	EventAssignPending      EventType = "ASSIGN_PENDING"
	EventAssignManagerWait  EventType = "ASSIGN_MANAGER_WAIT"
	EventAssignITProcessing EventType = "ASSIGN_IT_PROCESSING"
	EventAssignDotationWait EventType = "ASSIGN_DOTATION_WAIT"
	EventAssignConfirmed    EventType = "ASSIGN_CONFIRMED"
	EventAssignDisputed     EventType = "ASSIGN_DISPUTED"
	EventReturn             EventType = "RETURN"
	EventRepairStart        EventType = "REPAIR_START"
	EventRepairEnd          EventType = "REPAIR_END"
	EventApprovalCreated    EventType = "APPROVAL_CREATED"
	EventApprovalStep       EventType = "APPROVAL_STEP"
	EventApprovalApproved   EventType = "APPROVAL_APPROVED"
	EventApprovalRejected   EventType = "APPROVAL_REJECTED"
	EventAccessDenied       EventType = "ACCESS_DENIED"
	EventSystemNotice       EventType = "SYSTEM_NOTICE"
)

var validEventTypes = map[EventType]bool{
	EventCreate:             true,
	EventUpdate:             true,
	EventDelete:             true,
	EventAssignPending:      true,
	EventAssignManagerWait:  true,
	EventAssignITProcessing: true,
	EventAssignDotationWait: true,
	EventAssignConfirmed:    true,
	EventAssignDisputed:     true,
	EventReturn:             true,
	EventRepairStart:        true,
	EventRepairEnd:          true,
	EventApprovalCreated:    true,
	EventApprovalStep:       true,
	EventApprovalApproved:   true,
	EventApprovalRejected:   true,
	EventAccessDenied:       true,
	EventSystemNotice:       true,
}

var eventLabels = map[EventType]string{
	EventCreate:             "Created",
	EventUpdate:             "Updated",
	EventDelete:             "Deleted",
	EventAssignPending:      "Delivery pending",
	EventAssignManagerWait:  "Awaiting manager approval",
	EventAssignITProcessing: "IT processing",
	EventAssignDotationWait: "Awaiting dotation approval",
	EventAssignConfirmed:    "Assignment confirmed",
	EventAssignDisputed:     "Assignment disputed",
	EventReturn:             "Returned",
	EventRepairStart:        "Repair started",
	EventRepairEnd:          "Repair completed",
	EventApprovalCreated:    "Approval requested",
	EventApprovalStep:       "Approval step",
	EventApprovalApproved:   "Approval granted",
	EventApprovalRejected:   "Approval rejected",
	EventAccessDenied:       "Access denied",
	EventSystemNotice:       "System notice",
}

// String returns the string representation of the event type
func (t EventType) String() string {
	return string(t)
}

// IsValid returns true if the event type is one of the defined constants
func (t EventType) IsValid() bool {
	return validEventTypes[t]
}

// Label returns the human-readable title used in timelines
func (t EventType) Label() string {
	if label, ok := eventLabels[t]; ok {
		return label
	}
	return string(t)
}

// TargetType identifies the kind of entity an event refers to
type TargetType string

const (
	TargetUser      TargetType = "USER"
	TargetEquipment TargetType = "EQUIPMENT"
	TargetApproval  TargetType = "APPROVAL"
	TargetSystem    TargetType = "SYSTEM"
)

// String returns the string representation of the target type
func (t TargetType) String() string {
	return string(t)
}

// HistoryEvent is one append-only entry in the movement history.
// Events are created exactly once by the mutating operation and are
// never edited or deleted.
type HistoryEvent struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Type        EventType         `json:"type"`
	ActorID     string            `json:"actor_id,omitempty"`
	ActorName   string            `json:"actor_name,omitempty"`
	ActorRole   Role              `json:"actor_role,omitempty"`
	TargetType  TargetType        `json:"target_type"`
	TargetID    string            `json:"target_id"`
	TargetName  string            `json:"target_name,omitempty"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	IsSystem    bool              `json:"is_system"`
	IsSensitive bool              `json:"is_sensitive"`
}
