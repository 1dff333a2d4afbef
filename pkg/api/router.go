package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghosh-vishnu/MINITAB/pkg/store"
)

// GetRouter initialises a new http router and applies all routes
func GetRouter(s *store.Store) http.Handler {
	r := chi.NewRouter()
	return applyRoutes(r, &handler{store: s})
}

func applyRoutes(r chi.Router, h *handler) chi.Router {
	r.Route("/api/spreadsheets", func(r chi.Router) {
		r.Get("/", h.listSpreadsheets)
		r.Post("/", h.createSpreadsheet)

		r.Route("/{spreadsheetID}", func(r chi.Router) {
			r.Get("/", h.getSpreadsheet)
			r.Delete("/", h.deleteSpreadsheet)
			r.Post("/worksheet-names", h.saveWorksheetNames)

			r.Route("/worksheets", func(r chi.Router) {
				r.Get("/", h.listWorksheets)
				r.Post("/", h.createWorksheet)

				r.Route("/{worksheetID}", func(r chi.Router) {
					r.Patch("/", h.renameWorksheet)
					r.Delete("/", h.deleteWorksheet)
					r.Post("/activate", h.activateWorksheet)
					r.Post("/duplicate", h.duplicateWorksheet)

					r.Get("/cells", h.getCells)
					r.Post("/cells", h.writeCell)
					r.Post("/cells/bulk", h.bulkWriteCells)
					r.Delete("/cells", h.deleteCell)

					r.Post("/import", h.importFile)
					r.Get("/export", h.exportFile)
					r.Get("/columns", h.columns)
				})
			})
		})
	})

	return r
}
