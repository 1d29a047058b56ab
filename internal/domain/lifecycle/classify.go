// Package lifecycle classifies equipment mutations into semantic movement
// events. Classification is a pure function of the (old, new) record pair;
// exactly one event type is produced per mutation.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/assetdesk/assetdesk/internal/domain/entity"
)

// Classification is the semantic summary of one equipment mutation
type Classification struct {
	Type        entity.EventType
	Description string
	Metadata    map[string]string
}

// workflowEvents maps a pure assignment-status progression (no holder change)
// to its event type
var workflowEvents = map[entity.AssignmentStatus]entity.EventType{
	entity.AssignWaitingManager:  entity.EventAssignManagerWait,
	entity.AssignWaitingIT:       entity.EventAssignITProcessing,
	entity.AssignWaitingDotation: entity.EventAssignDotationWait,
	entity.AssignPendingDelivery: entity.EventAssignPending,
	entity.AssignPendingReturn:   entity.EventReturn,
	entity.AssignConfirmed:       entity.EventAssignConfirmed,
	entity.AssignDisputed:        entity.EventAssignDisputed,
}

// Classify determines the single semantic event for the transition from old
// to new. Rules are checked in priority order: holder added, holder removed,
// repair boundary, workflow progression, generic update.
func Classify(old, new *entity.Equipment) Classification {
	meta := transitionMetadata(old, new)

	switch {
	case !old.HasUser() && new.HasUser():
		return classifyAssignment(new, meta)

	case old.HasUser() && !new.HasUser():
		return classifyReturn(old, new, meta)

	case old.Status != entity.StatusInRepair && new.Status == entity.StatusInRepair:
		return Classification{
			Type:        entity.EventRepairStart,
			Description: fmt.Sprintf("%s sent to repair", new.AssetID),
			Metadata:    meta,
		}

	case old.Status == entity.StatusInRepair && new.Status != entity.StatusInRepair:
		return Classification{
			Type:        entity.EventRepairEnd,
			Description: fmt.Sprintf("%s back from repair", new.AssetID),
			Metadata:    meta,
		}

	case old.AssignmentStatus != new.AssignmentStatus:
		if eventType, ok := workflowEvents[new.AssignmentStatus]; ok {
			return Classification{
				Type:        eventType,
				Description: fmt.Sprintf("%s moved to %s", new.AssetID, new.AssignmentStatus),
				Metadata:    meta,
			}
		}
		fallthrough

	default:
		return Classification{
			Type:        entity.EventUpdate,
			Description: describeUpdate(old, new),
			Metadata:    meta,
		}
	}
}

func classifyAssignment(new *entity.Equipment, meta map[string]string) Classification {
	meta["beneficiary_id"] = new.UserID
	meta["beneficiary_name"] = new.UserName

	var eventType entity.EventType
	switch {
	case new.AssignmentStatus == entity.AssignConfirmed || new.Status == entity.StatusAssigned:
		eventType = entity.EventAssignConfirmed
	case new.AssignmentStatus == entity.AssignWaitingManager:
		eventType = entity.EventAssignManagerWait
	case new.AssignmentStatus == entity.AssignWaitingDotation:
		eventType = entity.EventAssignDotationWait
	default:
		eventType = entity.EventAssignPending
	}

	return Classification{
		Type:        eventType,
		Description: fmt.Sprintf("%s assigned to %s", new.AssetID, new.UserName),
		Metadata:    meta,
	}
}

func classifyReturn(old, new *entity.Equipment, meta map[string]string) Classification {
	meta["previous_holder_id"] = old.UserID
	meta["previous_holder_name"] = old.UserName

	description := fmt.Sprintf("%s returned by %s", old.AssetID, old.UserName)
	if old.AssignmentStatus == entity.AssignPendingReturn {
		if new.Status == entity.StatusInRepair {
			description = fmt.Sprintf("%s inspected and sent to repair", old.AssetID)
		} else {
			description = fmt.Sprintf("%s inspected and returned to stock", old.AssetID)
		}
	}

	return Classification{
		Type:        entity.EventReturn,
		Description: description,
		Metadata:    meta,
	}
}

func transitionMetadata(old, new *entity.Equipment) map[string]string {
	meta := map[string]string{
		"from_status": old.Status.String(),
		"to_status":   new.Status.String(),
	}
	if old.AssignmentStatus != new.AssignmentStatus {
		meta["from_assignment"] = old.AssignmentStatus.String()
		meta["to_assignment"] = new.AssignmentStatus.String()
	}
	return meta
}

func describeUpdate(old, new *entity.Equipment) string {
	var changes []string
	if old.Status != new.Status {
		changes = append(changes, fmt.Sprintf("status %s → %s", old.Status, new.Status))
	}
	if old.UserID != new.UserID && old.HasUser() && new.HasUser() {
		changes = append(changes, fmt.Sprintf("reassigned from %s to %s", old.UserName, new.UserName))
	}
	if old.Model != new.Model {
		changes = append(changes, fmt.Sprintf("model %s → %s", old.Model, new.Model))
	}
	if old.Type != new.Type {
		changes = append(changes, fmt.Sprintf("type %s → %s", old.Type, new.Type))
	}
	if len(changes) == 0 {
		return fmt.Sprintf("%s updated", new.AssetID)
	}
	return fmt.Sprintf("%s updated: %s", new.AssetID, strings.Join(changes, ", "))
}
