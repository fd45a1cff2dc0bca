package v1

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter creates the legacy form API router. Paths and parameter names
// match the original CGI endpoints so existing clients keep working.
func NewRouter(legacy *LegacyHandler) *mux.Router {
	router := mux.NewRouter()

	router.Use(versionHeaders)

	router.HandleFunc("/goslimmapper", legacy.GoSlimMapper).Methods("GET", "POST")
	router.HandleFunc("/termfinder", legacy.TermFinder).Methods("GET", "POST")
	router.HandleFunc("/gotermfinder", legacy.GoTermFinder).Methods("GET", "POST")

	// Health check
	router.HandleFunc("/health", healthCheck).Methods("GET")

	return router
}

// versionHeaders adds API version headers to responses
func versionHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v1")
		w.Header().Set("X-API-Deprecated", "true")
		w.Header().Set("X-API-Latest", "v2")
		next.ServeHTTP(w, r)
	})
}

// healthCheck provides a health check endpoint
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","version":"v1"}`))
}
