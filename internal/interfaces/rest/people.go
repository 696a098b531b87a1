package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ersonp/roots-core/internal/application/handlers"
)

func (rt *Router) listPeople(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}

	result, err := rt.h.People.HandleList(r.Context(), handlers.ListPeopleOptions{
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (rt *Router) createPerson(w http.ResponseWriter, r *http.Request) {
	var req handlers.CreatePersonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.respondError(w, r, err)
		return
	}
	person, err := rt.h.People.HandleCreate(r.Context(), req)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, person)
}

func (rt *Router) getPerson(w http.ResponseWriter, r *http.Request) {
	person, err := rt.h.People.HandleGet(r.Context(), chi.URLParam(r, "personID"))
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, person)
}

func (rt *Router) updatePerson(w http.ResponseWriter, r *http.Request) {
	var req handlers.UpdatePersonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.respondError(w, r, err)
		return
	}
	person, err := rt.h.People.HandleUpdate(r.Context(), chi.URLParam(r, "personID"), req)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, person)
}

func (rt *Router) deletePerson(w http.ResponseWriter, r *http.Request) {
	if err := rt.h.People.HandleDelete(r.Context(), chi.URLParam(r, "personID")); err != nil {
		rt.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) ancestors(w http.ResponseWriter, r *http.Request) {
	generations, err := queryInt(r, "generations", 0)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	result, err := rt.h.People.HandleAncestors(r.Context(), chi.URLParam(r, "personID"), generations)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (rt *Router) descendants(w http.ResponseWriter, r *http.Request) {
	generations, err := queryInt(r, "generations", 0)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	result, err := rt.h.People.HandleDescendants(r.Context(), chi.URLParam(r, "personID"), generations)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (rt *Router) history(w http.ResponseWriter, r *http.Request) {
	entries, err := rt.h.People.HandleHistory(r.Context(), chi.URLParam(r, "personID"))
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (rt *Router) listRelationships(w http.ResponseWriter, r *http.Request) {
	result, err := rt.h.Relationships.HandleList(r.Context(), chi.URLParam(r, "personID"), handlers.ListOptions{
		Type: r.URL.Query().Get("type"),
	})
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (rt *Router) matches(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	candidates, err := rt.h.Match.HandleCandidates(r.Context(), chi.URLParam(r, "personID"), limit)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}
