package web

import (
	"encoding/json"
	"net/http"

	"github.com/sitelet/sitelet/internal/errs"
)

// writeJSON emits a JSON body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error onto its HTTP status via the shared
// taxonomy and emits {"error": "..."}.
func writeError(w http.ResponseWriter, err error) {
	writeErrorStatus(w, errs.HTTPStatus(err), err.Error())
}

func writeErrorStatus(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
