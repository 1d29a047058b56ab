package event

// Type identifies the type of internal bus event
type Type string

const (
	// TypeMutationCommitted fires after a store mutation is committed in
	// memory; the snapshot persister subscribes to it.
	TypeMutationCommitted Type = "store.mutation_committed"

	// TypeAccessDenied fires when a guard denies an operation.
	TypeAccessDenied Type = "store.access_denied"

	// TypeSystemNotice fires for machine-generated notifications.
	TypeSystemNotice Type = "system.notice"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeMutationCommitted, TypeAccessDenied, TypeSystemNotice:
		return true
	default:
		return false
	}
}
