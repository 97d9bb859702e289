// Package router builds the application's HTTP handler: the route table
// plus the middleware every request passes through.
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/students-registry/internal/http/handlers/status"
	"github.com/aanand-mishra/students-registry/internal/http/handlers/student"
	"github.com/aanand-mishra/students-registry/internal/http/middleware"
	"github.com/aanand-mishra/students-registry/internal/storage"
)

// New registers every route against storage.
//
// Route table:
//
//	GET    /                → welcome text
//	GET    /health          → liveness probe
//	GET    /students        → list all students
//	POST   /students        → create a student
//	GET    /students/{id}   → get one student
//	PUT    /students/{id}   → partially update a student
//	DELETE /students/{id}   → delete a student
//
// Unmatched paths get the mux's 404 and a wrong method gets its 405.
func New(storage storage.Storage, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", status.Index())
	mux.HandleFunc("GET /health", status.Health())

	mux.HandleFunc("GET /students", student.GetList(storage))
	mux.HandleFunc("POST /students", student.New(storage))
	mux.HandleFunc("GET /students/{id}", student.GetByID(storage))
	mux.HandleFunc("PUT /students/{id}", student.Update(storage))
	mux.HandleFunc("DELETE /students/{id}", student.Delete(storage))

	return middleware.Chain(mux,
		middleware.RequestID(log),
		middleware.AccessLog,
		middleware.MaxBody(middleware.MaxBodyBytes),
	)
}
