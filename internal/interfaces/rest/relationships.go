package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ersonp/roots-core/internal/application/handlers"
)

func (rt *Router) createRelationship(w http.ResponseWriter, r *http.Request) {
	var req handlers.CreateRelationshipRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.respondError(w, r, err)
		return
	}
	rel, created, err := rt.h.Relationships.HandleCreate(r.Context(), req)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	respondJSON(w, status, rel)
}

func (rt *Router) deleteRelationship(w http.ResponseWriter, r *http.Request) {
	if err := rt.h.Relationships.HandleDelete(r.Context(), chi.URLParam(r, "relationshipID")); err != nil {
		rt.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) checkRelationships(w http.ResponseWriter, r *http.Request) {
	issues, err := rt.h.Relationships.HandleCheck(r.Context())
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"issues": issues,
		"count":  len(issues),
	})
}

func (rt *Router) repairRelationships(w http.ResponseWriter, r *http.Request) {
	result, err := rt.h.Relationships.HandleRepair(r.Context())
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
