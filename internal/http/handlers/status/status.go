// Package status serves the welcome page and the liveness probe. Neither
// handler touches storage.
package status

import (
	"net/http"

	"github.com/aanand-mishra/students-registry/internal/utils/response"
)

// Welcome is the body served on GET /.
const Welcome = "Welcome to the Student API! Try accessing /students to see all students."

// Index handles GET /.
func Index() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteText(w, http.StatusOK, Welcome)
	}
}

// Health handles GET /health.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}
