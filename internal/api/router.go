package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/othala/internal/repostore"
	"github.com/starford/othala/internal/sse"
)

// NewRouter creates a chi router with the repository routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// broker, if non-nil, streams commit events at GET /events.
func NewRouter(store *repostore.Store, broker *sse.Broker, authEnabled bool, token, author, email string) chi.Router {
	h := NewHandler(store, broker, author, email)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/repository_info", h.RepositoryInfo)
	r.Get("/translation_info", h.TranslationInfo)

	r.Get("/directories", h.ListDirectories)
	r.Post("/directories", h.CreateDirectory)
	r.Patch("/directories/{directory}", h.UpdateDirectory)
	r.Delete("/directories/{directory}", h.DeleteDirectory)

	r.Get("/directories/{directory}/documents", h.ListDocuments)
	r.Post("/directories/{directory}/documents", h.CreateDocument)
	r.Get("/directories/{directory}/documents/{document}/attachments", h.Attachments)

	r.Route("/directories/{directory}/documents/{document}/files/{filename}", func(r chi.Router) {
		r.Get("/", h.GetFile)
		r.Get("/edit", h.EditFile)
		r.Patch("/", h.UpdateFile)
		r.Delete("/", h.DeleteFile)
		r.Get("/history", h.FileHistory)
		r.Post("/translate", h.Translate)
	})

	if broker != nil {
		r.Get("/events", broker.ServeHTTP)
	}

	return r
}
