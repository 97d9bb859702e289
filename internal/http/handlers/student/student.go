// Package student contains the HTTP handlers for the Student resource.
//
// Each exported function is a factory: it receives the storage once at
// route registration and returns the http.HandlerFunc the router calls
// on every request.
//
//	router.HandleFunc("POST /students", student.New(storage))
package student

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/students-registry/internal/http/middleware"
	"github.com/aanand-mishra/students-registry/internal/storage"
	"github.com/aanand-mishra/students-registry/internal/types"
	"github.com/aanand-mishra/students-registry/internal/utils/response"
)

// Request body errors. All are reported as 400 Bad Request.
var (
	ErrEmptyBody = errors.New("request body is empty")
	ErrNotObject = errors.New("request body must be a JSON object")
	ErrNoFields  = errors.New("request body has no fields")

	errInvalidJSON = errors.New("invalid JSON body")
)

var validate = validator.New()

// New handles POST /students.
//
// Request body:
//
//	{ "Name": "Alice", "Grade": "B", "Email": "alice@example.com" }
//
// Only Name is required. Responds 201 with the created student.
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.Logger(r.Context())
		log.Info("creating a student")

		fields, err := decodeObject(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		in, err := newStudentFromFields(fields)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if !validBody(w, in) {
			return
		}

		created, err := storage.CreateStudent(in)
		if err != nil {
			writeStorageError(w, log, err)
			return
		}

		log.Info("student created", slog.Int64("id", created.ID))
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// GetByID handles GET /students/{id}. An id that is not a plain decimal
// integer is treated like an unknown id.
func GetByID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.Logger(r.Context())
		log.Info("getting a student", slog.String("id", r.PathValue("id")))

		id, ok := parseID(r)
		if !ok {
			writeNotFound(w)
			return
		}

		student, err := storage.GetStudentByID(id)
		if err != nil {
			writeStorageError(w, log, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// GetList handles GET /students. Responds with [] when the store is empty.
func GetList(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.Logger(r.Context())
		log.Info("getting all students")

		students, err := storage.GetStudents()
		if err != nil {
			writeStorageError(w, log, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// Update handles PUT /students/{id}.
//
// Only the fields present in the body are changed, and Name may not be
// set to "":
//
//	{ "Grade": "A" }
//
// The id is resolved before the body is read, so an unknown id is a 404
// even when the body is invalid.
func Update(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.Logger(r.Context())
		log.Info("updating a student", slog.String("id", r.PathValue("id")))

		id, ok := parseID(r)
		if !ok {
			writeNotFound(w)
			return
		}

		if _, err := storage.GetStudentByID(id); err != nil {
			writeStorageError(w, log, err)
			return
		}

		fields, err := decodeObject(r)
		if err == nil && len(fields) == 0 {
			err = ErrNoFields
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		patch, err := patchFromFields(fields)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if !validBody(w, patch) {
			return
		}

		updated, err := storage.UpdateStudentByID(id, patch)
		if err != nil {
			writeStorageError(w, log, err)
			return
		}

		log.Info("student updated", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE /students/{id}. Responds 204 with no body.
func Delete(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.Logger(r.Context())
		log.Info("deleting a student", slog.String("id", r.PathValue("id")))

		id, ok := parseID(r)
		if !ok {
			writeNotFound(w)
			return
		}

		if err := storage.DeleteStudentByID(id); err != nil {
			writeStorageError(w, log, err)
			return
		}

		log.Info("student deleted", slog.Int64("id", id))
		response.NoContent(w)
	}
}

// parseID accepts only unsigned decimal digits that fit in an int64.
func parseID(r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, false
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// decodeObject reads the whole body and returns its top-level keys. The
// body must be exactly one JSON object; trailing data is rejected.
func decodeObject(r *http.Request) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}
	if !json.Valid(body) {
		return nil, errInvalidJSON
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, ErrNotObject
	}
	return fields, nil
}

// stringField decodes fields[key]. Keys match exactly, so "name" is not
// "Name". A missing key or a JSON null yields nil.
func stringField(fields map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := fields[key]
	if !ok {
		return nil, nil
	}
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: field %s must be a string", errInvalidJSON, key)
	}
	return v, nil
}

// newStudentFromFields reads Name, Grade and Email and ignores every
// other key, including ID.
func newStudentFromFields(fields map[string]json.RawMessage) (types.NewStudent, error) {
	var in types.NewStudent

	name, err := stringField(fields, "Name")
	if err != nil {
		return in, err
	}
	if name != nil {
		in.Name = *name
	}
	if in.Grade, err = stringField(fields, "Grade"); err != nil {
		return in, err
	}
	if in.Email, err = stringField(fields, "Email"); err != nil {
		return in, err
	}
	return in, nil
}

func patchFromFields(fields map[string]json.RawMessage) (types.StudentPatch, error) {
	var (
		patch types.StudentPatch
		err   error
	)
	if patch.Name, err = stringField(fields, "Name"); err != nil {
		return patch, err
	}
	if patch.Grade, err = stringField(fields, "Grade"); err != nil {
		return patch, err
	}
	if patch.Email, err = stringField(fields, "Email"); err != nil {
		return patch, err
	}
	return patch, nil
}

// validBody runs the validate tags on v and writes a 400 when they fail.
func validBody(w http.ResponseWriter, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verrs))
		return false
	}
	response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
	return false
}

func writeNotFound(w http.ResponseWriter) {
	response.WriteJSON(w, http.StatusNotFound, response.GeneralError(storage.ErrNotFound))
}

func writeStorageError(w http.ResponseWriter, log *slog.Logger, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeNotFound(w)
		return
	}
	log.Error("storage error", slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
}
