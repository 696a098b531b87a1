// Package rest exposes the family tree over HTTP.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ersonp/roots-core/internal/application/handlers"
)

// Handlers bundles the application handlers the API serves. Match may be nil
// or disabled.
type Handlers struct {
	People        *handlers.PersonHandler
	Relationships *handlers.RelationshipHandler
	Events        *handlers.EventHandler
	Media         *handlers.MediaHandler
	Sources       *handlers.SourceHandler
	Match         *handlers.MatchHandler
	Import        *handlers.ImportHandler
	Export        *handlers.ExportHandler
}

// Router creates and configures the HTTP router.
type Router struct {
	h      Handlers
	logger *zap.Logger
}

// NewRouter creates a new router instance.
func NewRouter(h Handlers, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{h: h, logger: logger}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(Logger(rt.logger))

	router.Get("/health", rt.healthCheck)

	router.Route("/people", func(r chi.Router) {
		r.Get("/", rt.listPeople)
		r.Post("/", rt.createPerson)
		r.Route("/{personID}", func(r chi.Router) {
			r.Get("/", rt.getPerson)
			r.Patch("/", rt.updatePerson)
			r.Delete("/", rt.deletePerson)
			r.Get("/relationships", rt.listRelationships)
			r.Get("/ancestors", rt.ancestors)
			r.Get("/descendants", rt.descendants)
			r.Get("/history", rt.history)
			r.Get("/events", rt.listEvents)
			r.Post("/events", rt.createEvent)
			r.Get("/media", rt.listMedia)
			r.Get("/matches", rt.matches)
		})
	})

	router.Route("/relationships", func(r chi.Router) {
		r.Post("/", rt.createRelationship)
		r.Get("/check", rt.checkRelationships)
		r.Post("/repair", rt.repairRelationships)
		r.Delete("/{relationshipID}", rt.deleteRelationship)
	})

	router.Route("/events/{eventID}", func(r chi.Router) {
		r.Get("/", rt.getEvent)
		r.Patch("/", rt.updateEvent)
		r.Delete("/", rt.deleteEvent)
	})

	router.Route("/media", func(r chi.Router) {
		r.Post("/", rt.createMedia)
		r.Post("/upload", rt.uploadMedia)
		r.Route("/{mediaID}", func(r chi.Router) {
			r.Get("/", rt.getMedia)
			r.Patch("/", rt.updateMedia)
			r.Delete("/", rt.deleteMedia)
			r.Get("/content", rt.mediaContent)
			r.Get("/links", rt.mediaLinks)
			r.Post("/links", rt.linkMedia)
			r.Delete("/links", rt.unlinkMedia)
		})
	})

	router.Route("/sources", func(r chi.Router) {
		r.Get("/", rt.listSources)
		r.Post("/", rt.createSource)
		r.Route("/{sourceID}", func(r chi.Router) {
			r.Get("/", rt.getSource)
			r.Patch("/", rt.updateSource)
			r.Delete("/", rt.deleteSource)
		})
	})

	router.Route("/citations", func(r chi.Router) {
		r.Get("/", rt.listCitations)
		r.Post("/", rt.cite)
		r.Delete("/", rt.uncite)
	})

	router.Post("/match/reindex", rt.reindex)
	router.Get("/export", rt.export)
	router.Post("/import", rt.importTree)
	router.Post("/seed", rt.seed)

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"match":  rt.h.Match.Enabled(),
	})
}
