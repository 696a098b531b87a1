package rest

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ersonp/roots-core/internal/application/handlers"
)

const maxUploadMemory = 32 << 20

func (rt *Router) listEvents(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personID")
	if _, err := rt.h.People.HandleGet(r.Context(), personID); err != nil {
		rt.respondError(w, r, err)
		return
	}
	events, err := rt.h.Events.HandleList(r.Context(), personID)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

func (rt *Router) createEvent(w http.ResponseWriter, r *http.Request) {
	var req handlers.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.respondError(w, r, err)
		return
	}
	req.PersonID = chi.URLParam(r, "personID")

	event, err := rt.h.Events.HandleCreate(r.Context(), req)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, event)
}

func (rt *Router) getEvent(w http.ResponseWriter, r *http.Request) {
	event, err := rt.h.Events.HandleGet(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

func (rt *Router) updateEvent(w http.ResponseWriter, r *http.Request) {
	var req handlers.UpdateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.respondError(w, r, err)
		return
	}
	event, err := rt.h.Events.HandleUpdate(r.Context(), chi.URLParam(r, "eventID"), req)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

func (rt *Router) deleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := rt.h.Events.HandleDelete(r.Context(), chi.URLParam(r, "eventID")); err != nil {
		rt.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) listMedia(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personID")
	if _, err := rt.h.People.HandleGet(r.Context(), personID); err != nil {
		rt.respondError(w, r, err)
		return
	}
	media, err := rt.h.Media.HandleList(r.Context(), personID)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, media)
}

func (rt *Router) createMedia(w http.ResponseWriter, r *http.Request) {
	var req handlers.CreateMediaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.respondError(w, r, err)
		return
	}
	media, err := rt.h.Media.HandleCreate(r.Context(), req)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, media)
}

// uploadMedia accepts a multipart form with the content in "file" and the
// record fields as form values.
func (rt *Router) uploadMedia(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		rt.respondError(w, r, fmt.Errorf("%w: invalid multipart form: %v", errBadRequest, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		rt.respondError(w, r, fmt.Errorf("%w: missing file: %v", errBadRequest, err))
		return
	}
	defer file.Close()

	media, err := rt.h.Media.HandleUpload(r.Context(), handlers.UploadMediaRequest{
		Type:        r.FormValue("type"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
		Caption:     r.FormValue("caption"),
		Date:        r.FormValue("date"),
		SourceID:    r.FormValue("source_id"),
		PersonIDs:   r.MultipartForm.Value["person_id"],
		EventIDs:    r.MultipartForm.Value["event_id"],
	})
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, media)
}

func (rt *Router) getMedia(w http.ResponseWriter, r *http.Request) {
	media, err := rt.h.Media.HandleGet(r.Context(), chi.URLParam(r, "mediaID"))
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, media)
}

func (rt *Router) updateMedia(w http.ResponseWriter, r *http.Request) {
	var req handlers.UpdateMediaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.respondError(w, r, err)
		return
	}
	media, err := rt.h.Media.HandleUpdate(r.Context(), chi.URLParam(r, "mediaID"), req)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, media)
}

func (rt *Router) deleteMedia(w http.ResponseWriter, r *http.Request) {
	if err := rt.h.Media.HandleDelete(r.Context(), chi.URLParam(r, "mediaID")); err != nil {
		rt.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) mediaContent(w http.ResponseWriter, r *http.Request) {
	body, media, err := rt.h.Media.HandleOpen(r.Context(), chi.URLParam(r, "mediaID"))
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(media.BlobKey))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "inline; filename="+strconv.Quote(path.Base(media.BlobKey)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}

func (rt *Router) mediaLinks(w http.ResponseWriter, r *http.Request) {
	links, err := rt.h.Media.HandleLinks(r.Context(), chi.URLParam(r, "mediaID"))
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, links)
}

func (rt *Router) linkMedia(w http.ResponseWriter, r *http.Request) {
	var req handlers.LinkMediaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.respondError(w, r, err)
		return
	}
	req.MediaID = chi.URLParam(r, "mediaID")
	if err := rt.h.Media.HandleLink(r.Context(), req); err != nil {
		rt.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) unlinkMedia(w http.ResponseWriter, r *http.Request) {
	var req handlers.LinkMediaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.respondError(w, r, err)
		return
	}
	req.MediaID = chi.URLParam(r, "mediaID")
	if err := rt.h.Media.HandleUnlink(r.Context(), req); err != nil {
		rt.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) listSources(w http.ResponseWriter, r *http.Request) {
	sources, err := rt.h.Sources.HandleList(r.Context())
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sources)
}

func (rt *Router) createSource(w http.ResponseWriter, r *http.Request) {
	var req handlers.CreateSourceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.respondError(w, r, err)
		return
	}
	source, err := rt.h.Sources.HandleCreate(r.Context(), req)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, source)
}

func (rt *Router) getSource(w http.ResponseWriter, r *http.Request) {
	source, err := rt.h.Sources.HandleGet(r.Context(), chi.URLParam(r, "sourceID"))
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, source)
}

func (rt *Router) updateSource(w http.ResponseWriter, r *http.Request) {
	var req handlers.UpdateSourceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.respondError(w, r, err)
		return
	}
	source, err := rt.h.Sources.HandleUpdate(r.Context(), chi.URLParam(r, "sourceID"), req)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, source)
}

func (rt *Router) deleteSource(w http.ResponseWriter, r *http.Request) {
	if err := rt.h.Sources.HandleDelete(r.Context(), chi.URLParam(r, "sourceID")); err != nil {
		rt.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) listCitations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("kind") == "" || q.Get("subject_id") == "" {
		rt.respondError(w, r, fmt.Errorf("%w: kind and subject_id are required", errBadRequest))
		return
	}
	citations, err := rt.h.Sources.HandleCitations(r.Context(), q.Get("kind"), q.Get("subject_id"))
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, citations)
}

func (rt *Router) cite(w http.ResponseWriter, r *http.Request) {
	var req handlers.CiteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.respondError(w, r, err)
		return
	}
	citation, err := rt.h.Sources.HandleCite(r.Context(), req)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, citation)
}

func (rt *Router) uncite(w http.ResponseWriter, r *http.Request) {
	var req handlers.CiteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.respondError(w, r, err)
		return
	}
	if err := rt.h.Sources.HandleUncite(r.Context(), req); err != nil {
		rt.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
