package api

import (
	"time"

	"github.com/ghosh-vishnu/MINITAB/pkg/store"
)

type spreadsheetResponse struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	RowCount       int               `json:"row_count"`
	ColumnCount    int               `json:"column_count"`
	IsPublic       bool              `json:"is_public"`
	WorksheetNames map[string]string `json:"worksheet_names,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type worksheetResponse struct {
	ID            string    `json:"id"`
	SpreadsheetID string    `json:"spreadsheet_id"`
	Name          string    `json:"name"`
	Position      int       `json:"position"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type cellResponse struct {
	ID          string    `json:"id"`
	RowIndex    int       `json:"row_index"`
	ColumnIndex int       `json:"column_index"`
	Value       string    `json:"value"`
	Formula     string    `json:"formula,omitempty"`
	DataType    string    `json:"data_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type createSpreadsheetRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	RowCount    int    `json:"row_count"`
	ColumnCount int    `json:"column_count"`
}

type worksheetNamesRequest struct {
	WorksheetNames map[string]string `json:"worksheet_names"`
}

type createWorksheetRequest struct {
	Name string `json:"name"`
}

type renameWorksheetRequest struct {
	Name string `json:"name"`
}

type writeCellRequest struct {
	RowIndex    *int   `json:"row_index"`
	ColumnIndex *int   `json:"column_index"`
	Value       string `json:"value"`
	Formula     string `json:"formula"`
	DataType    string `json:"data_type"`
}

type bulkWriteRequest struct {
	Cells []store.CellInput `json:"cells"`
}

type deleteCellRequest struct {
	RowIndex    *int `json:"row_index"`
	ColumnIndex *int `json:"column_index"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toSpreadsheetResponse(s *store.Spreadsheet) spreadsheetResponse {
	return spreadsheetResponse{
		ID:             s.ID,
		Name:           s.Name,
		Description:    s.Description,
		RowCount:       s.RowCount,
		ColumnCount:    s.ColumnCount,
		IsPublic:       s.IsPublic,
		WorksheetNames: s.WorksheetNames,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func toWorksheetResponse(w *store.Worksheet) worksheetResponse {
	return worksheetResponse{
		ID:            w.ID,
		SpreadsheetID: w.SpreadsheetID,
		Name:          w.Name,
		Position:      w.Position,
		IsActive:      w.IsActive,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

func toCellResponse(c *store.Cell) cellResponse {
	return cellResponse{
		ID:          c.ID,
		RowIndex:    c.RowIndex,
		ColumnIndex: c.ColumnIndex,
		Value:       c.Value,
		Formula:     c.Formula,
		DataType:    c.DataType,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
