package ops

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(view ViewFunc) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/session", Session(view))
	return r
}
