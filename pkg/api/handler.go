package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/ghosh-vishnu/MINITAB/pkg/store"
	"github.com/ghosh-vishnu/MINITAB/pkg/tabular"
)

const maxImportSize = 32 << 20

type handler struct {
	store *store.Store
}

func sendResponse(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Errorf("Failed to marshal response: %v", err)
		sendResponse(w, http.StatusInternalServerError, []byte(`{"error":"internal error"}`))
		return
	}
	sendResponse(w, status, body)
}

func sendError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrOutOfBounds),
		errors.Is(err, store.ErrEmptyName),
		errors.Is(err, tabular.ErrParse):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrLastWorksheet):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Warnf("Request failed: %v", err)
	}
	sendJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}

// worksheetIn resolves a worksheet and checks it belongs to the spreadsheet
// named in the URL, so a path can never reach across spreadsheets.
func (h *handler) worksheetIn(spreadsheetID, worksheetID string) (*store.Worksheet, error) {
	ws, err := h.store.GetWorksheet(worksheetID)
	if err != nil {
		return nil, err
	}
	if ws.SpreadsheetID != spreadsheetID {
		return nil, fmt.Errorf("%w: worksheet %s", store.ErrNotFound, worksheetID)
	}
	return ws, nil
}

func (h *handler) listSpreadsheets(w http.ResponseWriter, r *http.Request) {
	sheets, err := h.store.ListSpreadsheets()
	if err != nil {
		sendError(w, err)
		return
	}
	out := make([]spreadsheetResponse, len(sheets))
	for i := range sheets {
		out[i] = toSpreadsheetResponse(&sheets[i])
	}
	sendJSON(w, http.StatusOK, out)
}

func (h *handler) createSpreadsheet(w http.ResponseWriter, r *http.Request) {
	var req createSpreadsheetRequest
	if err := decodeBody(r, &req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	sheet, err := h.store.CreateSpreadsheet(req.Name, req.Description, req.RowCount, req.ColumnCount)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, toSpreadsheetResponse(sheet))
}

func (h *handler) getSpreadsheet(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.store.GetSpreadsheet(chi.URLParam(r, "spreadsheetID"))
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, toSpreadsheetResponse(sheet))
}

func (h *handler) deleteSpreadsheet(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteSpreadsheet(chi.URLParam(r, "spreadsheetID")); err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, messageResponse{Message: "Spreadsheet deleted successfully"})
}

func (h *handler) saveWorksheetNames(w http.ResponseWriter, r *http.Request) {
	var req worksheetNamesRequest
	if err := decodeBody(r, &req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	sheet, err := h.store.SaveWorksheetNames(chi.URLParam(r, "spreadsheetID"), req.WorksheetNames)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, toSpreadsheetResponse(sheet))
}

func (h *handler) listWorksheets(w http.ResponseWriter, r *http.Request) {
	worksheets, err := h.store.ListWorksheets(chi.URLParam(r, "spreadsheetID"))
	if err != nil {
		sendError(w, err)
		return
	}
	out := make([]worksheetResponse, len(worksheets))
	for i := range worksheets {
		out[i] = toWorksheetResponse(&worksheets[i])
	}
	sendJSON(w, http.StatusOK, out)
}

func (h *handler) createWorksheet(w http.ResponseWriter, r *http.Request) {
	var req createWorksheetRequest
	if err := decodeBody(r, &req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	ws, err := h.store.CreateWorksheet(chi.URLParam(r, "spreadsheetID"), req.Name)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, toWorksheetResponse(ws))
}

func (h *handler) renameWorksheet(w http.ResponseWriter, r *http.Request) {
	var req renameWorksheetRequest
	if err := decodeBody(r, &req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if _, err := h.worksheetIn(chi.URLParam(r, "spreadsheetID"), chi.URLParam(r, "worksheetID")); err != nil {
		sendError(w, err)
		return
	}
	ws, err := h.store.RenameWorksheet(chi.URLParam(r, "worksheetID"), req.Name)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, toWorksheetResponse(ws))
}

func (h *handler) deleteWorksheet(w http.ResponseWriter, r *http.Request) {
	if _, err := h.worksheetIn(chi.URLParam(r, "spreadsheetID"), chi.URLParam(r, "worksheetID")); err != nil {
		sendError(w, err)
		return
	}
	if err := h.store.DeleteWorksheet(chi.URLParam(r, "worksheetID")); err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, messageResponse{Message: "Worksheet deleted successfully"})
}

func (h *handler) activateWorksheet(w http.ResponseWriter, r *http.Request) {
	ws, err := h.store.SetActiveWorksheet(chi.URLParam(r, "spreadsheetID"), chi.URLParam(r, "worksheetID"))
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, toWorksheetResponse(ws))
}

func (h *handler) duplicateWorksheet(w http.ResponseWriter, r *http.Request) {
	if _, err := h.worksheetIn(chi.URLParam(r, "spreadsheetID"), chi.URLParam(r, "worksheetID")); err != nil {
		sendError(w, err)
		return
	}
	ws, err := h.store.DuplicateWorksheet(chi.URLParam(r, "worksheetID"))
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, toWorksheetResponse(ws))
}

func (h *handler) getCells(w http.ResponseWriter, r *http.Request) {
	if _, err := h.worksheetIn(chi.URLParam(r, "spreadsheetID"), chi.URLParam(r, "worksheetID")); err != nil {
		sendError(w, err)
		return
	}
	cells, err := h.store.GetCells(chi.URLParam(r, "worksheetID"))
	if err != nil {
		sendError(w, err)
		return
	}
	out := make([]cellResponse, len(cells))
	for i := range cells {
		out[i] = toCellResponse(&cells[i])
	}
	sendJSON(w, http.StatusOK, out)
}

func (h *handler) writeCell(w http.ResponseWriter, r *http.Request) {
	var req writeCellRequest
	if err := decodeBody(r, &req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.RowIndex == nil || req.ColumnIndex == nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "row_index and column_index are required"})
		return
	}
	if _, err := h.worksheetIn(chi.URLParam(r, "spreadsheetID"), chi.URLParam(r, "worksheetID")); err != nil {
		sendError(w, err)
		return
	}
	cell, err := h.store.WriteCell(
		chi.URLParam(r, "worksheetID"),
		*req.RowIndex, *req.ColumnIndex,
		req.Value, req.Formula, req.DataType,
	)
	if err != nil {
		sendError(w, err)
		return
	}
	if cell == nil {
		// Blank write cleared the position.
		sendJSON(w, http.StatusOK, messageResponse{Message: "Cell cleared"})
		return
	}
	sendJSON(w, http.StatusOK, toCellResponse(cell))
}

func (h *handler) bulkWriteCells(w http.ResponseWriter, r *http.Request) {
	var req bulkWriteRequest
	if err := decodeBody(r, &req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if _, err := h.worksheetIn(chi.URLParam(r, "spreadsheetID"), chi.URLParam(r, "worksheetID")); err != nil {
		sendError(w, err)
		return
	}
	if err := h.store.BulkWriteCells(chi.URLParam(r, "worksheetID"), req.Cells); err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, messageResponse{Message: "Cells updated successfully"})
}

func (h *handler) deleteCell(w http.ResponseWriter, r *http.Request) {
	var req deleteCellRequest
	if err := decodeBody(r, &req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.RowIndex == nil || req.ColumnIndex == nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "row_index and column_index are required"})
		return
	}
	if _, err := h.worksheetIn(chi.URLParam(r, "spreadsheetID"), chi.URLParam(r, "worksheetID")); err != nil {
		sendError(w, err)
		return
	}
	if err := h.store.DeleteCell(chi.URLParam(r, "worksheetID"), *req.RowIndex, *req.ColumnIndex); err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, messageResponse{Message: "Cell deleted successfully"})
}

func (h *handler) importFile(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.store.GetSpreadsheet(chi.URLParam(r, "spreadsheetID"))
	if err != nil {
		sendError(w, err)
		return
	}
	ws, err := h.worksheetIn(sheet.ID, chi.URLParam(r, "worksheetID"))
	if err != nil {
		sendError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "no file provided"})
		return
	}
	defer file.Close()

	format := r.URL.Query().Get("format")
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(header.Filename), ".")
	}

	var rows [][]string
	switch strings.ToLower(format) {
	case "csv":
		rows, err = tabular.ReadCSV(file)
	case "xlsx":
		rows, err = tabular.ReadWorkbook(file, r.FormValue("sheet_name"))
	default:
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unsupported import format %q", format)})
		return
	}
	if err != nil {
		// The file never parsed, so nothing was written.
		sendError(w, err)
		return
	}

	inputs := tabular.ImportTable(rows, sheet.RowCount, sheet.ColumnCount)
	if err := h.store.BulkWriteCells(ws.ID, inputs); err != nil {
		sendError(w, err)
		return
	}

	log.Infof("Imported %d cells from %s into worksheet %s", len(inputs), header.Filename, ws.ID)
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"message": "File imported successfully",
		"cells":   len(inputs),
		"rows":    len(rows),
	})
}

func (h *handler) exportFile(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.store.GetSpreadsheet(chi.URLParam(r, "spreadsheetID"))
	if err != nil {
		sendError(w, err)
		return
	}
	ws, err := h.worksheetIn(sheet.ID, chi.URLParam(r, "worksheetID"))
	if err != nil {
		sendError(w, err)
		return
	}
	cells, err := h.store.GetCells(ws.ID)
	if err != nil {
		sendError(w, err)
		return
	}
	rows := tabular.ExportTable(cells)

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	var buf bytes.Buffer
	var contentType string
	switch format {
	case "csv":
		err = tabular.WriteCSV(&buf, rows)
		contentType = "text/csv"
	case "xlsx":
		err = tabular.WriteWorkbook(&buf, ws.Name, rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unsupported export format %q", format)})
		return
	}
	if err != nil {
		sendError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, sheet.Name, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *handler) columns(w http.ResponseWriter, r *http.Request) {
	if _, err := h.worksheetIn(chi.URLParam(r, "spreadsheetID"), chi.URLParam(r, "worksheetID")); err != nil {
		sendError(w, err)
		return
	}
	cells, err := h.store.GetCells(chi.URLParam(r, "worksheetID"))
	if err != nil {
		sendError(w, err)
		return
	}

	if raw := r.URL.Query().Get("column"); raw != "" {
		col, err := strconv.Atoi(raw)
		if err != nil || col < 0 {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid column %q", raw)})
			return
		}
		values := tabular.NumericColumn(cells, col)
		if values == nil {
			values = []float64{}
		}
		sendJSON(w, http.StatusOK, map[string]interface{}{"column": col, "values": values})
		return
	}

	cols := tabular.PopulatedColumns(cells)
	if cols == nil {
		cols = []int{}
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"columns": cols})
}
