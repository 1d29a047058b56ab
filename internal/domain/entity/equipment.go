package entity

import "time"

// EquipmentStatus represents the physical condition of an item.
// The wire values are kept as displayed in the inventory registers.
type EquipmentStatus string

const (
	StatusAvailable EquipmentStatus = "Disponible"
	StatusAssigned  EquipmentStatus = "Attribué"
	StatusInRepair  EquipmentStatus = "En réparation"
)

var validEquipmentStatuses = map[EquipmentStatus]bool{
	StatusAvailable: true,
	StatusAssigned:  true,
	StatusInRepair:  true,
}

// String returns the string representation of the status
func (s EquipmentStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is one of the defined statuses
func (s EquipmentStatus) IsValid() bool {
	return validEquipmentStatuses[s]
}

// AssignmentStatus represents the custody workflow state of an item,
// distinct from its physical condition
type AssignmentStatus string

const (
	AssignNone            AssignmentStatus = "NONE"
	AssignWaitingManager  AssignmentStatus = "WAITING_MANAGER_APPROVAL"
	AssignWaitingIT       AssignmentStatus = "WAITING_IT_PROCESSING"
	AssignWaitingDotation AssignmentStatus = "WAITING_DOTATION_APPROVAL"
	AssignPendingDelivery AssignmentStatus = "PENDING_DELIVERY"
	AssignConfirmed       AssignmentStatus = "CONFIRMED"
	AssignDisputed        AssignmentStatus = "DISPUTED"
	AssignPendingReturn   AssignmentStatus = "PENDING_RETURN"
)

var validAssignmentStatuses = map[AssignmentStatus]bool{
	AssignNone:            true,
	AssignWaitingManager:  true,
	AssignWaitingIT:       true,
	AssignWaitingDotation: true,
	AssignPendingDelivery: true,
	AssignConfirmed:       true,
	AssignDisputed:        true,
	AssignPendingReturn:   true,
}

// String returns the string representation of the assignment status
func (s AssignmentStatus) String() string {
	return string(s)
}

// IsValid returns true if the assignment status is one of the defined statuses
func (s AssignmentStatus) IsValid() bool {
	return validAssignmentStatuses[s]
}

// InCustody returns true for states in which the item must have a holder
func (s AssignmentStatus) InCustody() bool {
	return s != AssignNone && validAssignmentStatuses[s]
}

// FinancialInfo is the purchase snapshot carried by an item.
// Depreciation arithmetic is computed outside the engine.
type FinancialInfo struct {
	PurchasePrice      float64    `json:"purchase_price,omitempty"`
	PurchaseDate       *time.Time `json:"purchase_date,omitempty"`
	DepreciationMethod string     `json:"depreciation_method,omitempty"`
	DepreciationYears  int        `json:"depreciation_years,omitempty"`
	SalvageValue       float64    `json:"salvage_value,omitempty"`
}

// Equipment represents a tracked physical item
type Equipment struct {
	ID                string           `json:"id"`
	AssetID           string           `json:"asset_id"`
	Type              string           `json:"type"`
	Model             string           `json:"model"`
	Status            EquipmentStatus  `json:"status"`
	AssignmentStatus  AssignmentStatus `json:"assignment_status"`
	UserID            string           `json:"user_id,omitempty"`
	UserName          string           `json:"user_name,omitempty"`
	AssignedAt        *time.Time       `json:"assigned_at,omitempty"`
	AssignedByName    string           `json:"assigned_by_name,omitempty"`
	ConfirmedAt       *time.Time       `json:"confirmed_at,omitempty"`
	ReturnRequestedAt *time.Time       `json:"return_requested_at,omitempty"`
	ReturnInspectedAt *time.Time       `json:"return_inspected_at,omitempty"`
	RepairStartDate   *time.Time       `json:"repair_start_date,omitempty"`
	RepairEndDate     *time.Time       `json:"repair_end_date,omitempty"`
	Financial         FinancialInfo    `json:"financial"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// HasUser returns true if a holder is recorded on the item
func (e *Equipment) HasUser() bool {
	return e.UserID != ""
}

// CustodyConsistent verifies the holder/assignment-status invariant:
// a holder is recorded iff the assignment status is a custody state,
// and Attribué implies a holder.
func (e *Equipment) CustodyConsistent() bool {
	if e.HasUser() != e.AssignmentStatus.InCustody() {
		return false
	}
	if e.Status == StatusAssigned && !e.HasUser() {
		return false
	}
	return true
}

// EquipmentPatch describes a partial update to an equipment record.
// Nil fields are left untouched; ClearUser removes the holder.
type EquipmentPatch struct {
	Type              *string           `json:"type,omitempty"`
	Model             *string           `json:"model,omitempty"`
	Status            *EquipmentStatus  `json:"status,omitempty"`
	AssignmentStatus  *AssignmentStatus `json:"assignment_status,omitempty"`
	UserID            *string           `json:"user_id,omitempty"`
	UserName          *string           `json:"user_name,omitempty"`
	ClearUser         bool              `json:"clear_user,omitempty"`
	AssignedAt        *time.Time        `json:"assigned_at,omitempty"`
	AssignedByName    *string           `json:"assigned_by_name,omitempty"`
	ConfirmedAt       *time.Time        `json:"confirmed_at,omitempty"`
	ReturnRequestedAt *time.Time        `json:"return_requested_at,omitempty"`
	ReturnInspectedAt *time.Time        `json:"return_inspected_at,omitempty"`
	RepairStartDate   *time.Time        `json:"repair_start_date,omitempty"`
	RepairEndDate     *time.Time        `json:"repair_end_date,omitempty"`
	Financial         *FinancialInfo    `json:"financial,omitempty"`
}

// Apply returns a copy of e with the patch applied
func (p *EquipmentPatch) Apply(e Equipment) Equipment {
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Model != nil {
		e.Model = *p.Model
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.AssignmentStatus != nil {
		e.AssignmentStatus = *p.AssignmentStatus
	}
	if p.ClearUser {
		e.UserID = ""
		e.UserName = ""
	} else {
		if p.UserID != nil {
			e.UserID = *p.UserID
		}
		if p.UserName != nil {
			e.UserName = *p.UserName
		}
	}
	if p.AssignedAt != nil {
		e.AssignedAt = p.AssignedAt
	}
	if p.AssignedByName != nil {
		e.AssignedByName = *p.AssignedByName
	}
	if p.ConfirmedAt != nil {
		e.ConfirmedAt = p.ConfirmedAt
	}
	if p.ReturnRequestedAt != nil {
		e.ReturnRequestedAt = p.ReturnRequestedAt
	}
	if p.ReturnInspectedAt != nil {
		e.ReturnInspectedAt = p.ReturnInspectedAt
	}
	if p.RepairStartDate != nil {
		e.RepairStartDate = p.RepairStartDate
	}
	if p.RepairEndDate != nil {
		e.RepairEndDate = p.RepairEndDate
	}
	if p.Financial != nil {
		e.Financial = *p.Financial
	}
	return e
}
