package inventory

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"propertytrack/internal/apperr"
	"propertytrack/internal/auth"
	"propertytrack/internal/models"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Inventory"

var sheetHeader = []any{"Room", "Name", "Category", "Quantity", "Status", "Notes", "Last checked"}

// ParseSheet reads inventory rows from the first sheet of an XLSX workbook.
// Columns are name, category, quantity, status, notes. A first row whose
// first cell reads "name" or "item" is treated as a header.
func ParseSheet(r io.Reader) ([]CreateInput, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Validation("could not read xlsx file")
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Validation("xlsx file has no sheets")
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, apperr.Validation("could not read sheet " + sheets[0])
	}

	start := 0
	if len(rows) > 0 && isHeader(rows[0]) {
		start = 1
	}

	var (
		out    []CreateInput
		fields []apperr.FieldError
	)
	for i := start; i < len(rows); i++ {
		row := rows[i]
		name := cell(row, 0)
		if name == "" {
			continue
		}
		line := i + 1

		in := CreateInput{
			Name:     name,
			Category: cell(row, 1),
			Notes:    cell(row, 4),
		}
		if q := cell(row, 2); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil {
				fields = append(fields, apperr.FieldError{
					Field:   fmt.Sprintf("row %d quantity", line),
					Message: "must be a whole number",
				})
				continue
			}
			in.Quantity = &n
		}
		if st := cell(row, 3); st != "" {
			in.Status = models.InventoryStatus(strings.ToLower(strings.ReplaceAll(st, " ", "_")))
		}
		out = append(out, in)
	}

	if len(fields) > 0 {
		return nil, apperr.Validation("xlsx file has invalid rows", fields...)
	}
	if len(out) == 0 {
		return nil, apperr.Validation("xlsx file has no inventory rows")
	}
	return out, nil
}

// WriteSheet renders items as an inventory checklist workbook.
func WriteSheet(w io.Writer, items []models.InventoryItem, roomNames map[uint]string) error {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName(wb.GetSheetName(0), exportSheet); err != nil {
		return err
	}

	header := sheetHeader
	if err := wb.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return err
	}
	if style, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = wb.SetCellStyle(exportSheet, "A1", "G1", style)
	}

	for i, it := range items {
		checked := ""
		if it.LastCheckedAt != nil {
			checked = it.LastCheckedAt.UTC().Format("2006-01-02 15:04")
		}
		row := []any{roomNames[it.RoomID], it.Name, it.Category, it.Quantity, string(it.Status), it.Notes, checked}

		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(exportSheet, addr, &row); err != nil {
			return err
		}
	}
	_ = wb.SetColWidth(exportSheet, "A", "B", 24)
	_ = wb.SetColWidth(exportSheet, "F", "F", 40)

	return wb.Write(w)
}

// Import parses an XLSX workbook and creates its rows in roomID through
// BulkCreate, so the whole sheet is inserted or none of it is.
func (s *Service) Import(ctx context.Context, actor auth.Actor, roomID uint, r io.Reader) ([]models.InventoryItem, error) {
	if _, err := s.writableRoom(ctx, actor.Identity, roomID); err != nil {
		return nil, err
	}
	rows, err := ParseSheet(r)
	if err != nil {
		return nil, err
	}
	return s.BulkCreate(ctx, actor, roomID, BulkCreateInput{Items: rows})
}

// Export writes every inventory item of a property as an XLSX checklist.
func (s *Service) Export(ctx context.Context, ident auth.Identity, propertyID uint, w io.Writer) error {
	if _, err := s.policy.Property(ctx, ident, propertyID); err != nil {
		return err
	}

	var rooms []models.Room
	if err := s.db.WithContext(ctx).Where("property_id = ?", propertyID).Find(&rooms).Error; err != nil {
		return apperr.Internal("could not load rooms", err)
	}
	names := make(map[uint]string, len(rooms))
	for _, r := range rooms {
		names[r.ID] = r.Name
	}

	var items []models.InventoryItem
	err := s.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("room_id ASC, name ASC").
		Find(&items).Error
	if err != nil {
		return apperr.Internal("could not load inventory", err)
	}

	if err := WriteSheet(w, items, names); err != nil {
		return apperr.Internal("could not build xlsx file", err)
	}
	return nil
}

func isHeader(row []string) bool {
	switch strings.ToLower(cell(row, 0)) {
	case "name", "item", "item name":
		return true
	}
	return false
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
