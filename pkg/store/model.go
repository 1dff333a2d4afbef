package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultRowCount      = 100
	DefaultColumnCount   = 26
	DefaultWorksheetName = "Sheet1"
)

// Data type classification hints. Informational only; the store never parses
// a value against its declared type.
const (
	TypeText    = "text"
	TypeNumber  = "number"
	TypeDate    = "date"
	TypeFormula = "formula"
)

type Spreadsheet struct {
	ID          string `gorm:"type:text;primaryKey"`
	Name        string `gorm:"type:text;not null"`
	Description string `gorm:"type:text"`
	RowCount    int    `gorm:"not null;default:100"`
	ColumnCount int    `gorm:"not null;default:26"`
	IsPublic    bool   `gorm:"not null;default:false"`
	// Denormalized worksheet-id -> display-name cache kept for list views.
	WorksheetNames map[string]string `gorm:"serializer:json"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Worksheets []Worksheet `gorm:"constraint:OnDelete:CASCADE"`
}

func (s *Spreadsheet) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type Worksheet struct {
	ID            string `gorm:"type:text;primaryKey"`
	SpreadsheetID string `gorm:"type:text;not null;index:idx_worksheet_position,priority:1"`
	Name          string `gorm:"type:text;not null"`
	Position      int    `gorm:"not null;index:idx_worksheet_position,priority:2"`
	IsActive      bool   `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Cells []Cell `gorm:"constraint:OnDelete:CASCADE"`
}

func (w *Worksheet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// Cell is one occupied grid position. Cells are keyed by worksheet alone, so
// two sibling worksheets can each hold a cell at the same (row, column)
// without colliding. The unique index guarantees at most one cell per
// position at the schema level.
type Cell struct {
	ID          string         `gorm:"type:text;primaryKey"`
	WorksheetID string         `gorm:"type:text;not null;uniqueIndex:idx_cell_position,priority:1"`
	RowIndex    int            `gorm:"not null;uniqueIndex:idx_cell_position,priority:2"`
	ColumnIndex int            `gorm:"not null;uniqueIndex:idx_cell_position,priority:3"`
	Value       string         `gorm:"type:text"`
	Formula     string         `gorm:"type:text"`
	DataType    string         `gorm:"type:text;not null;default:text"`
	Style       map[string]any `gorm:"serializer:json"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *Cell) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CellInput is one entry of a single or bulk cell write.
type CellInput struct {
	Row      int    `json:"row_index"`
	Col      int    `json:"column_index"`
	Value    string `json:"value"`
	Formula  string `json:"formula,omitempty"`
	DataType string `json:"data_type,omitempty"`
}

// IsBlank reports whether writing this input should remove the cell instead
// of storing it: a cell with no value and no formula is equivalent to no
// cell at all.
func (in CellInput) IsBlank() bool {
	return in.Value == "" && in.Formula == ""
}
