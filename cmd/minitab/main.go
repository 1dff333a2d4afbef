package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/ghosh-vishnu/MINITAB/pkg/config"
	"github.com/ghosh-vishnu/MINITAB/pkg/store"
	"github.com/ghosh-vishnu/MINITAB/pkg/syncer"
	"github.com/ghosh-vishnu/MINITAB/pkg/tabular"

	log "github.com/sirupsen/logrus"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose logging")
	configFile := flag.String("config", "minitab.toml", "Path to the config file")
	file := flag.String("file", "", "CSV or XLSX file to import or export (required)")
	spreadsheetID := flag.String("spreadsheet", "", "Spreadsheet ID (created on import when empty)")
	worksheetID := flag.String("worksheet", "", "Worksheet ID (defaults to the active worksheet)")
	export := flag.Bool("export", false, "Export the worksheet to -file instead of importing")

	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	if *file == "" {
		log.Error("You must specify a file with -file")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.NewDatastore(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	st, err := store.Open(cfg.Store.DBFilename)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(*file)), ".")
	if format != "csv" && format != "xlsx" {
		log.Fatalf("Unsupported file format %q, want .csv or .xlsx", filepath.Ext(*file))
	}

	if *export {
		if err := runExport(st, *spreadsheetID, *worksheetID, *file, format); err != nil {
			log.Fatalf("Failed to export: %v", err)
		}
		return
	}
	if err := runImport(st, *spreadsheetID, *worksheetID, *file, format); err != nil {
		log.Fatalf("Failed to import: %v", err)
	}
}

func runImport(st *store.Store, spreadsheetID, worksheetID, path, format string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var rows [][]string
	if format == "csv" {
		rows, err = tabular.ReadCSV(f)
	} else {
		rows, err = tabular.ReadWorkbook(f, "")
	}
	if err != nil {
		return err
	}

	var sheet *store.Spreadsheet
	if spreadsheetID == "" {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		// Size the new grid to fit the file
		maxCols := 0
		for _, row := range rows {
			if len(row) > maxCols {
				maxCols = len(row)
			}
		}
		sheet, err = st.CreateSpreadsheet(name, "", len(rows), maxCols)
		if err != nil {
			return err
		}
		log.Infof("Created spreadsheet %s (%q)", sheet.ID, sheet.Name)
	} else {
		sheet, err = st.GetSpreadsheet(spreadsheetID)
		if err != nil {
			return err
		}
	}

	ws, err := resolveWorksheet(st, sheet.ID, worksheetID)
	if err != nil {
		return err
	}

	inputs := tabular.ImportTable(rows, sheet.RowCount, sheet.ColumnCount)
	// Imports skip the debounce path and land in one synchronous bulk write.
	coord := syncer.New(st, ws.ID, 0, nil)
	if err := coord.ImportCells(inputs); err != nil {
		return err
	}
	log.Infof("Imported %d cells into worksheet %s (%q)", len(inputs), ws.ID, ws.Name)
	return nil
}

func runExport(st *store.Store, spreadsheetID, worksheetID, path, format string) error {
	if spreadsheetID == "" {
		log.Error("You must specify a spreadsheet ID with -spreadsheet")
		os.Exit(1)
	}
	ws, err := resolveWorksheet(st, spreadsheetID, worksheetID)
	if err != nil {
		return err
	}
	cells, err := st.GetCells(ws.ID)
	if err != nil {
		return err
	}
	rows := tabular.ExportTable(cells)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if format == "csv" {
		err = tabular.WriteCSV(f, rows)
	} else {
		err = tabular.WriteWorkbook(f, ws.Name, rows)
	}
	if err != nil {
		return err
	}
	log.Infof("Exported %d cells from worksheet %s (%q) to %s", len(cells), ws.ID, ws.Name, path)
	return nil
}

// resolveWorksheet picks the named worksheet, or the spreadsheet's active
// one when no ID is given.
func resolveWorksheet(st *store.Store, spreadsheetID, worksheetID string) (*store.Worksheet, error) {
	if worksheetID != "" {
		ws, err := st.GetWorksheet(worksheetID)
		if err != nil {
			return nil, err
		}
		return ws, nil
	}
	worksheets, err := st.ListWorksheets(spreadsheetID)
	if err != nil {
		return nil, err
	}
	for i := range worksheets {
		if worksheets[i].IsActive {
			return &worksheets[i], nil
		}
	}
	return &worksheets[0], nil
}
