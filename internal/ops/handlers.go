// Package ops is the small HTTP surface the worker and operators poll to
// observe a live core process.
package ops

import (
	"encoding/json"
	"net/http"

	"github.com/andre-estevam-brainweb/daas-core/internal/lobby"
)

// ViewFunc yields the current session view, or false while no session
// exists yet.
type ViewFunc func() (lobby.View, bool)

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func Session(view ViewFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := view()
		if !ok {
			http.Error(w, "no active session", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
}
