package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ghosh-vishnu/MINITAB/pkg/address"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the authoritative mapping from (worksheet, row, column) to cell
// values, plus the worksheet directory of each spreadsheet.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the sqlite database at dsn and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Spreadsheet{}, &Worksheet{}, &Cell{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an already opened gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateSpreadsheet creates a spreadsheet with a default active "Sheet1"
// worksheet. Non-positive capacities fall back to the defaults.
func (s *Store) CreateSpreadsheet(name, description string, rowCount, columnCount int) (*Spreadsheet, error) {
	if rowCount <= 0 {
		rowCount = DefaultRowCount
	}
	if columnCount <= 0 {
		columnCount = DefaultColumnCount
	}
	sheet := &Spreadsheet{
		Name:        name,
		Description: description,
		RowCount:    rowCount,
		ColumnCount: columnCount,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sheet).Error; err != nil {
			return err
		}
		ws := &Worksheet{
			SpreadsheetID: sheet.ID,
			Name:          DefaultWorksheetName,
			Position:      1,
			IsActive:      true,
		}
		return tx.Create(ws).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create spreadsheet: %w", err)
	}
	log.Debugf("Created spreadsheet %s (%dx%d)", sheet.ID, rowCount, columnCount)
	return sheet, nil
}

// GetSpreadsheet returns a spreadsheet by id.
func (s *Store) GetSpreadsheet(id string) (*Spreadsheet, error) {
	var sheet Spreadsheet
	if err := s.db.First(&sheet, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: spreadsheet %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &sheet, nil
}

// ListSpreadsheets returns all spreadsheets, most recently updated first.
func (s *Store) ListSpreadsheets() ([]Spreadsheet, error) {
	var sheets []Spreadsheet
	if err := s.db.Order("updated_at DESC").Find(&sheets).Error; err != nil {
		return nil, err
	}
	return sheets, nil
}

// DeleteSpreadsheet removes a spreadsheet with all its worksheets and cells.
func (s *Store) DeleteSpreadsheet(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var sheet Spreadsheet
		if err := tx.First(&sheet, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: spreadsheet %s", ErrNotFound, id)
			}
			return err
		}
		if err := tx.Where(
			"worksheet_id IN (?)",
			tx.Model(&Worksheet{}).Select("id").Where("spreadsheet_id = ?", id),
		).Delete(&Cell{}).Error; err != nil {
			return err
		}
		if err := tx.Where("spreadsheet_id = ?", id).Delete(&Worksheet{}).Error; err != nil {
			return err
		}
		return tx.Delete(&sheet).Error
	})
}

// SaveWorksheetNames replaces the denormalized worksheet-name cache.
func (s *Store) SaveWorksheetNames(id string, names map[string]string) (*Spreadsheet, error) {
	sheet, err := s.GetSpreadsheet(id)
	if err != nil {
		return nil, err
	}
	sheet.WorksheetNames = names
	if err := s.db.Save(sheet).Error; err != nil {
		return nil, err
	}
	return sheet, nil
}

// ListWorksheets returns a spreadsheet's worksheets in tab order. The first
// query against a spreadsheet with no worksheets creates the default
// "Sheet1" so callers always see at least one tab.
func (s *Store) ListWorksheets(spreadsheetID string) ([]Worksheet, error) {
	if _, err := s.GetSpreadsheet(spreadsheetID); err != nil {
		return nil, err
	}
	var worksheets []Worksheet
	err := s.db.Where("spreadsheet_id = ?", spreadsheetID).
		Order("position ASC").Find(&worksheets).Error
	if err != nil {
		return nil, err
	}
	if len(worksheets) == 0 {
		ws := Worksheet{
			SpreadsheetID: spreadsheetID,
			Name:          DefaultWorksheetName,
			Position:      1,
			IsActive:      true,
		}
		if err := s.db.Create(&ws).Error; err != nil {
			return nil, err
		}
		log.Debugf("Created default worksheet for spreadsheet %s", spreadsheetID)
		worksheets = append(worksheets, ws)
	}
	return worksheets, nil
}

// GetWorksheet returns a worksheet by id.
func (s *Store) GetWorksheet(id string) (*Worksheet, error) {
	var ws Worksheet
	if err := s.db.First(&ws, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: worksheet %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &ws, nil
}

// CreateWorksheet appends a worksheet at the next tab position. The new
// worksheet is not active until explicitly activated.
func (s *Store) CreateWorksheet(spreadsheetID, name string) (*Worksheet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if _, err := s.GetSpreadsheet(spreadsheetID); err != nil {
		return nil, err
	}
	ws := &Worksheet{
		SpreadsheetID: spreadsheetID,
		Name:          name,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ws.Position = nextPosition(tx, spreadsheetID)
		return tx.Create(ws).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create worksheet: %w", err)
	}
	return ws, nil
}

// SetActiveWorksheet marks one worksheet as the spreadsheet's active tab,
// clearing the flag on all its siblings in the same transaction.
func (s *Store) SetActiveWorksheet(spreadsheetID, worksheetID string) (*Worksheet, error) {
	var ws Worksheet
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ws, "id = ? AND spreadsheet_id = ?", worksheetID, spreadsheetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: worksheet %s", ErrNotFound, worksheetID)
			}
			return err
		}
		if err := tx.Model(&Worksheet{}).
			Where("spreadsheet_id = ? AND id <> ?", spreadsheetID, worksheetID).
			Update("is_active", false).Error; err != nil {
			return err
		}
		ws.IsActive = true
		return tx.Model(&ws).Update("is_active", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// RenameWorksheet sets a worksheet's display name.
func (s *Store) RenameWorksheet(worksheetID, name string) (*Worksheet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	ws, err := s.GetWorksheet(worksheetID)
	if err != nil {
		return nil, err
	}
	ws.Name = name
	if err := s.db.Save(ws).Error; err != nil {
		return nil, err
	}
	return ws, nil
}

// DuplicateWorksheet creates a copy of a worksheet, deep-copying its cells,
// appended at the next tab position with a " (Copy)" name suffix.
func (s *Store) DuplicateWorksheet(worksheetID string) (*Worksheet, error) {
	src, err := s.GetWorksheet(worksheetID)
	if err != nil {
		return nil, err
	}
	dup := &Worksheet{
		SpreadsheetID: src.SpreadsheetID,
		Name:          src.Name + " (Copy)",
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		dup.Position = nextPosition(tx, src.SpreadsheetID)
		if err := tx.Create(dup).Error; err != nil {
			return err
		}
		var cells []Cell
		if err := tx.Where("worksheet_id = ?", src.ID).Find(&cells).Error; err != nil {
			return err
		}
		for i := range cells {
			copied := Cell{
				WorksheetID: dup.ID,
				RowIndex:    cells[i].RowIndex,
				ColumnIndex: cells[i].ColumnIndex,
				Value:       cells[i].Value,
				Formula:     cells[i].Formula,
				DataType:    cells[i].DataType,
				Style:       cells[i].Style,
			}
			if err := tx.Create(&copied).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("duplicate worksheet: %w", err)
	}
	return dup, nil
}

// DeleteWorksheet removes a worksheet and all its cells. Deleting the last
// worksheet of a spreadsheet is refused. If the deleted worksheet was
// active, the first remaining worksheet in tab order becomes active.
func (s *Store) DeleteWorksheet(worksheetID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var ws Worksheet
		if err := tx.First(&ws, "id = ?", worksheetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: worksheet %s", ErrNotFound, worksheetID)
			}
			return err
		}
		var siblings int64
		if err := tx.Model(&Worksheet{}).
			Where("spreadsheet_id = ?", ws.SpreadsheetID).Count(&siblings).Error; err != nil {
			return err
		}
		if siblings <= 1 {
			return ErrLastWorksheet
		}
		if err := tx.Where("worksheet_id = ?", ws.ID).Delete(&Cell{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&ws).Error; err != nil {
			return err
		}
		if ws.IsActive {
			var next Worksheet
			err := tx.Where("spreadsheet_id = ?", ws.SpreadsheetID).
				Order("position ASC").First(&next).Error
			if err != nil {
				return err
			}
			if err := tx.Model(&next).Update("is_active", true).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetCells returns all stored cells of a worksheet. Blank positions are not
// materialized; order is unspecified.
func (s *Store) GetCells(worksheetID string) ([]Cell, error) {
	if _, err := s.GetWorksheet(worksheetID); err != nil {
		return nil, err
	}
	var cells []Cell
	if err := s.db.Where("worksheet_id = ?", worksheetID).Find(&cells).Error; err != nil {
		return nil, err
	}
	return cells, nil
}

// WriteCell upserts the cell at (row, col) of a worksheet. The lookup is
// scoped by worksheet only, never by the parent spreadsheet. Writing an
// empty value with no formula removes the cell. A nil cell with nil error
// means the position is now blank.
func (s *Store) WriteCell(worksheetID string, row, col int, value, formula, dataType string) (*Cell, error) {
	ws, sheet, err := s.worksheetWithCapacity(worksheetID)
	if err != nil {
		return nil, err
	}
	if err := checkBounds(row, col, sheet); err != nil {
		return nil, err
	}
	var cell *Cell
	err = s.db.Transaction(func(tx *gorm.DB) error {
		in := CellInput{Row: row, Col: col, Value: value, Formula: formula, DataType: dataType}
		var txErr error
		cell, txErr = upsertCell(tx, ws.ID, in)
		if txErr != nil {
			return txErr
		}
		return touchWorksheet(tx, ws.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("write cell %s: %w", address.Encode(row, col), err)
	}
	return cell, nil
}

// BulkWriteCells applies the WriteCell upsert semantics to every input in a
// single transaction. All bounds are validated before anything is written,
// so a bad entry leaves the worksheet untouched.
func (s *Store) BulkWriteCells(worksheetID string, inputs []CellInput) error {
	ws, sheet, err := s.worksheetWithCapacity(worksheetID)
	if err != nil {
		return err
	}
	for _, in := range inputs {
		if err := checkBounds(in.Row, in.Col, sheet); err != nil {
			return err
		}
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, in := range inputs {
			if _, err := upsertCell(tx, ws.ID, in); err != nil {
				return err
			}
		}
		return touchWorksheet(tx, ws.ID)
	})
	if err != nil {
		return fmt.Errorf("bulk write %d cells: %w", len(inputs), err)
	}
	log.Debugf("Bulk wrote %d cells to worksheet %s", len(inputs), ws.ID)
	return nil
}

// DeleteCell removes the cell at (row, col) if present. Deleting an absent
// cell is a no-op.
func (s *Store) DeleteCell(worksheetID string, row, col int) error {
	ws, err := s.GetWorksheet(worksheetID)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where(
			"worksheet_id = ? AND row_index = ? AND column_index = ?",
			ws.ID, row, col,
		).Delete(&Cell{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return touchWorksheet(tx, ws.ID)
	})
}

func (s *Store) worksheetWithCapacity(worksheetID string) (*Worksheet, *Spreadsheet, error) {
	ws, err := s.GetWorksheet(worksheetID)
	if err != nil {
		return nil, nil, err
	}
	sheet, err := s.GetSpreadsheet(ws.SpreadsheetID)
	if err != nil {
		return nil, nil, err
	}
	return ws, sheet, nil
}

func checkBounds(row, col int, sheet *Spreadsheet) error {
	if row < 0 || col < 0 || row >= sheet.RowCount || col >= sheet.ColumnCount {
		return fmt.Errorf("%w: (%d, %d) outside %dx%d grid",
			ErrOutOfBounds, row, col, sheet.RowCount, sheet.ColumnCount)
	}
	return nil
}

func upsertCell(tx *gorm.DB, worksheetID string, in CellInput) (*Cell, error) {
	var existing Cell
	err := tx.Where(
		"worksheet_id = ? AND row_index = ? AND column_index = ?",
		worksheetID, in.Row, in.Col,
	).First(&existing).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// A blank write is a delete: the store stays sparse.
	if in.IsBlank() {
		if found {
			if err := tx.Delete(&existing).Error; err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	dataType := in.DataType
	if dataType == "" {
		dataType = TypeText
	}
	if found {
		existing.Value = in.Value
		existing.Formula = in.Formula
		existing.DataType = dataType
		if err := tx.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	cell := Cell{
		WorksheetID: worksheetID,
		RowIndex:    in.Row,
		ColumnIndex: in.Col,
		Value:       in.Value,
		Formula:     in.Formula,
		DataType:    dataType,
	}
	if err := tx.Create(&cell).Error; err != nil {
		return nil, err
	}
	return &cell, nil
}

func touchWorksheet(tx *gorm.DB, worksheetID string) error {
	return tx.Model(&Worksheet{}).Where("id = ?", worksheetID).
		Update("updated_at", time.Now()).Error
}

func nextPosition(tx *gorm.DB, spreadsheetID string) int {
	var maxPos int
	tx.Model(&Worksheet{}).Where("spreadsheet_id = ?", spreadsheetID).
		Select("COALESCE(MAX(position), 0)").Scan(&maxPos)
	return maxPos + 1
}
