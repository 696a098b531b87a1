package rest

import (
	"net/http"

	"github.com/ersonp/roots-core/internal/application/handlers"
	"github.com/ersonp/roots-core/internal/domain/services"
)

const maxImportBytes = 32 << 20

func (rt *Router) reindex(w http.ResponseWriter, r *http.Request) {
	n, err := rt.h.Match.HandleReindex(r.Context())
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"indexed": n})
}

func (rt *Router) export(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.h.Export.Handle(r.Context())
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// importTree reads a document from the body. The format query parameter
// selects json (default) or csv.
func (rt *Router) importTree(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dryRun, err := queryBool(r, "dry_run")
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	format := q.Get("format")
	if format == "" {
		format = "json"
	}

	result, err := rt.h.Import.HandleReader(r.Context(), http.MaxBytesReader(w, r.Body, maxImportBytes), handlers.ImportOptions{
		Format:     format,
		DryRun:     dryRun,
		OnConflict: services.ConflictStrategy(q.Get("on_conflict")),
	})
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, importResponse(result))
}

func (rt *Router) seed(w http.ResponseWriter, r *http.Request) {
	result, err := rt.h.Import.HandleSeed(r.Context())
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, importResponse(result))
}

type importErrorBody struct {
	Section string `json:"section"`
	Line    int    `json:"line,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func importResponse(result *handlers.ImportResult) map[string]any {
	errs := make([]importErrorBody, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, importErrorBody{Section: e.Section, Line: e.Line, Field: e.Field, Message: e.Message})
	}
	return map[string]any{
		"imported": result.Imported,
		"skipped":  result.Skipped,
		"errors":   errs,
	}
}
