// Package report generates xlsx exports of the equipment register.
package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/assetdesk/assetdesk/internal/domain/entity"
)

const (
	inventorySheet = "Inventory"
	movementsSheet = "Movements"
)

// InventoryGenerator builds the equipment register workbook
type InventoryGenerator struct {
	companyName string
	logger      *zap.Logger
}

// NewInventoryGenerator creates a new inventory generator
func NewInventoryGenerator(companyName string, logger *zap.Logger) *InventoryGenerator {
	return &InventoryGenerator{
		companyName: companyName,
		logger:      logger,
	}
}

// DefaultTitle is used when no report title has been configured
const DefaultTitle = "Equipment register"

// Generate builds a workbook with the current register and the movement
// history. The caller owns the returned file. An empty title falls back to
// DefaultTitle.
func (g *InventoryGenerator) Generate(title string, equipment []entity.Equipment, events []entity.HistoryEvent, generatedAt time.Time) (*excelize.File, error) {
	if title == "" {
		title = DefaultTitle
	}
	f := excelize.NewFile()

	index, err := f.NewSheet(inventorySheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		g.logger.Warn("Failed to drop default sheet", zap.Error(err))
	}

	g.setCell(f, inventorySheet, "A1", g.companyName)
	g.setCell(f, inventorySheet, "A2", fmt.Sprintf("%s - %s", title, generatedAt.Format("2006-01-02")))

	headers := []string{"Asset ID", "Type", "Model", "Status", "Assignment", "Holder", "Assigned by", "Assigned at"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 4)
		g.setCell(f, inventorySheet, cell, header)
	}

	for row, item := range equipment {
		values := []string{
			item.AssetID,
			item.Type,
			item.Model,
			item.Status.String(),
			item.AssignmentStatus.String(),
			item.UserName,
			item.AssignedByName,
			formatTime(item.AssignedAt),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+5)
			g.setCell(f, inventorySheet, cell, value)
		}
	}

	if err := g.fillMovements(f, events); err != nil {
		return nil, err
	}

	g.logger.Info("Inventory report generated",
		zap.Int("equipment", len(equipment)),
		zap.Int("movements", len(events)))

	return f, nil
}

// fillMovements writes the equipment movement history to its own sheet
func (g *InventoryGenerator) fillMovements(f *excelize.File, events []entity.HistoryEvent) error {
	if _, err := f.NewSheet(movementsSheet); err != nil {
		return fmt.Errorf("failed to create movements sheet: %w", err)
	}

	headers := []string{"Date", "Asset", "Movement", "Description", "Actor"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		g.setCell(f, movementsSheet, cell, header)
	}

	row := 2
	for _, evt := range events {
		if evt.TargetType != entity.TargetEquipment || evt.IsSensitive {
			continue
		}
		values := []string{
			evt.Timestamp.Format("2006-01-02 15:04"),
			evt.TargetName,
			evt.Type.Label(),
			evt.Description,
			evt.ActorName,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			g.setCell(f, movementsSheet, cell, value)
		}
		row++
	}

	return nil
}

// setCell sets a cell value in the workbook
func (g *InventoryGenerator) setCell(f *excelize.File, sheet, cell, value string) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		g.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func formatTime(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Format("2006-01-02")
}
