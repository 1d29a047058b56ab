package persistence

import (
	"time"

	"github.com/assetdesk/assetdesk/internal/application/store"
	"github.com/assetdesk/assetdesk/internal/domain/entity"
)

// Seed returns the baseline dataset installed on first start. Persisted
// records always win over seed records with the same id, so reruns only add
// what is missing.
func Seed() store.State {
	seededAt := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)

	return store.State{
		Users: []entity.User{
			{
				ID: "seed-superadmin", Name: "System Root", Email: "root@assetdesk.local",
				Role: entity.RoleSuperAdmin, Department: "IT",
				Status: entity.UserActive, CreatedAt: seededAt, UpdatedAt: seededAt,
			},
			{
				ID: "seed-admin", Name: "IT Support", Email: "support@assetdesk.local",
				Role: entity.RoleAdmin, Department: "IT",
				Status: entity.UserActive, CreatedAt: seededAt, UpdatedAt: seededAt,
			},
			{
				ID: "seed-manager", Name: "Team Manager", Email: "manager@assetdesk.local",
				Role: entity.RoleManager, Department: "Engineering",
				Status: entity.UserActive, CreatedAt: seededAt, UpdatedAt: seededAt,
			},
			{
				ID: "seed-employee", Name: "First Employee", Email: "employee@assetdesk.local",
				Role: entity.RoleUser, Department: "Engineering", ManagerID: "seed-manager",
				Status: entity.UserActive, CreatedAt: seededAt, UpdatedAt: seededAt,
			},
		},
		Equipment: []entity.Equipment{
			{
				ID: "seed-eq-1", AssetID: "AST-001", Type: "laptop", Model: "ThinkPad T14",
				Status: entity.StatusAvailable, AssignmentStatus: entity.AssignNone,
				CreatedAt: seededAt, UpdatedAt: seededAt,
			},
			{
				ID: "seed-eq-2", AssetID: "AST-002", Type: "monitor", Model: "Dell U2723QE",
				Status: entity.StatusAvailable, AssignmentStatus: entity.AssignNone,
				CreatedAt: seededAt, UpdatedAt: seededAt,
			},
		},
		Settings: map[string]string{
			"report.title": "Equipment register",
		},
	}
}
