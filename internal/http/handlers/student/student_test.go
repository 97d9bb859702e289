package student

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/students-registry/internal/storage"
	"github.com/aanand-mishra/students-registry/internal/storage/memory"
	"github.com/aanand-mishra/students-registry/internal/types"
	"github.com/aanand-mishra/students-registry/internal/utils/response"
)

// mockStorage lets tests force backend failures.
type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) CreateStudent(s types.NewStudent) (types.Student, error) {
	args := m.Called(s)
	return args.Get(0).(types.Student), args.Error(1)
}

func (m *mockStorage) GetStudentByID(id int64) (types.Student, error) {
	args := m.Called(id)
	return args.Get(0).(types.Student), args.Error(1)
}

func (m *mockStorage) GetStudents() ([]types.Student, error) {
	args := m.Called()
	return args.Get(0).([]types.Student), args.Error(1)
}

func (m *mockStorage) UpdateStudentByID(id int64, p types.StudentPatch) (types.Student, error) {
	args := m.Called(id, p)
	return args.Get(0).(types.Student), args.Error(1)
}

func (m *mockStorage) DeleteStudentByID(id int64) error {
	return m.Called(id).Error(0)
}

// serve routes a single request through a mux carrying the same patterns
// as the real router, so PathValue is populated.
func serve(t *testing.T, s storage.Storage, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /students", GetList(s))
	mux.HandleFunc("POST /students", New(s))
	mux.HandleFunc("GET /students/{id}", GetByID(s))
	mux.HandleFunc("PUT /students/{id}", Update(s))
	mux.HandleFunc("DELETE /students/{id}", Delete(s))

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeStudent(t *testing.T, rr *httptest.ResponseRecorder) types.Student {
	t.Helper()
	var s types.Student
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&s))
	return s
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var r response.Response
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&r))
	return r
}

func TestNew_Defaults(t *testing.T) {
	rr := serve(t, memory.New(), http.MethodPost, "/students", `{"Name":"Alice"}`)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"ID":1,"Name":"Alice","Grade":"N/A","Email":""}`, rr.Body.String())
}

func TestNew_IgnoresClientID(t *testing.T) {
	rr := serve(t, memory.New(), http.MethodPost, "/students", `{"ID":42,"Name":"Alice","Grade":"B"}`)

	require.Equal(t, http.StatusCreated, rr.Code)
	got := decodeStudent(t, rr)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "B", got.Grade)
}

func TestNew_BadRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "empty body", body: "", wantErr: ErrEmptyBody.Error()},
		{name: "malformed", body: `{"Name":`, wantErr: "invalid JSON body"},
		{name: "array", body: `[{"Name":"Alice"}]`, wantErr: ErrNotObject.Error()},
		{name: "null", body: `null`, wantErr: ErrNotObject.Error()},
		{name: "no name", body: `{}`, wantErr: "field Name is required"},
		{name: "empty name", body: `{"Name":""}`, wantErr: "field Name is required"},
		{name: "name not a string", body: `{"Name":7}`, wantErr: "invalid JSON body"},
		{name: "name null", body: `{"Name":null}`, wantErr: "field Name is required"},
		{name: "lowercase name", body: `{"name":"alice"}`, wantErr: "field Name is required"},
		{name: "trailing data", body: `{"Name":"Alice"} not json`, wantErr: "invalid JSON body"},
		{name: "two objects", body: `{"Name":"Alice"}{"Name":"Bob"}`, wantErr: "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, memory.New(), http.MethodPost, "/students", tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			got := decodeError(t, rr)
			assert.Equal(t, response.StatusError, got.Status)
			assert.Contains(t, got.Error, tt.wantErr)
		})
	}
}

func TestGetByID(t *testing.T) {
	s := memory.New()
	created, err := s.CreateStudent(types.NewStudent{Name: "Alice"})
	require.NoError(t, err)

	rr := serve(t, s, http.MethodGet, "/students/1", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, created, decodeStudent(t, rr))
}

func TestGetByID_NotFound(t *testing.T) {
	s := memory.New()
	_, err := s.CreateStudent(types.NewStudent{Name: "Alice"})
	require.NoError(t, err)

	for _, id := range []string{"999", "abc", "-1", "+1", "1.0", "99999999999999999999"} {
		t.Run(id, func(t *testing.T) {
			rr := serve(t, s, http.MethodGet, "/students/"+id, "")
			assert.Equal(t, http.StatusNotFound, rr.Code)
		})
	}
}

func TestGetList(t *testing.T) {
	s := memory.New()

	rr := serve(t, s, http.MethodGet, "/students", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	_, err := s.CreateStudent(types.NewStudent{Name: "Alice"})
	require.NoError(t, err)
	_, err = s.CreateStudent(types.NewStudent{Name: "Bob"})
	require.NoError(t, err)

	rr = serve(t, s, http.MethodGet, "/students", "")
	var got []types.Student
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Len(t, got, 2)
}

func TestUpdate_Partial(t *testing.T) {
	s := memory.New()
	email := "alice@example.com"
	_, err := s.CreateStudent(types.NewStudent{Name: "Alice", Email: &email})
	require.NoError(t, err)

	rr := serve(t, s, http.MethodPut, "/students/1", `{"Grade":"A"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, types.Student{ID: 1, Name: "Alice", Grade: "A", Email: email}, decodeStudent(t, rr))
}

func TestUpdate_UnknownFieldsOnly(t *testing.T) {
	s := memory.New()
	_, err := s.CreateStudent(types.NewStudent{Name: "Alice"})
	require.NoError(t, err)

	rr := serve(t, s, http.MethodPut, "/students/1", `{"ID":9,"Nickname":"Al"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, types.Student{ID: 1, Name: "Alice", Grade: "N/A"}, decodeStudent(t, rr))
}

func TestUpdate_NotFoundBeforeBodyCheck(t *testing.T) {
	rr := serve(t, memory.New(), http.MethodPut, "/students/3", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(t, memory.New(), http.MethodPut, "/students/x", `{"Grade":"A"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdate_BadRequest(t *testing.T) {
	for name, body := range map[string]string{
		"empty body":    "",
		"malformed":     `{"Grade"`,
		"empty object":  `{}`,
		"string":        `"A"`,
		"trailing data": `{"Grade":"A"} not json`,
		"empty name":    `{"Name":"","Grade":"A"}`,
		"grade number":  `{"Grade":5}`,
	} {
		t.Run(name, func(t *testing.T) {
			s := memory.New()
			_, err := s.CreateStudent(types.NewStudent{Name: "Alice"})
			require.NoError(t, err)

			rr := serve(t, s, http.MethodPut, "/students/1", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)

			stored, err := s.GetStudentByID(1)
			require.NoError(t, err)
			assert.Equal(t, types.Student{ID: 1, Name: "Alice", Grade: "N/A"}, stored)
		})
	}
}

func TestUpdate_KeysAreCaseSensitive(t *testing.T) {
	s := memory.New()
	_, err := s.CreateStudent(types.NewStudent{Name: "Alice"})
	require.NoError(t, err)

	rr := serve(t, s, http.MethodPut, "/students/1", `{"grade":"A","NAME":"Bob"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, types.Student{ID: 1, Name: "Alice", Grade: "N/A"}, decodeStudent(t, rr))
}

func TestNew_KeysAreCaseSensitive(t *testing.T) {
	rr := serve(t, memory.New(), http.MethodPost, "/students", `{"Name":"Alice","grade":"B","EMAIL":"a@x.io"}`)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, types.Student{ID: 1, Name: "Alice", Grade: "N/A", Email: ""}, decodeStudent(t, rr))
}

func TestDelete(t *testing.T) {
	s := memory.New()
	_, err := s.CreateStudent(types.NewStudent{Name: "Alice"})
	require.NoError(t, err)

	rr := serve(t, s, http.MethodDelete, "/students/1", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = serve(t, s, http.MethodGet, "/students/1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(t, s, http.MethodDelete, "/students/1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStorageFailureIsInternalError(t *testing.T) {
	boom := errors.New("disk on fire")

	t.Run("list", func(t *testing.T) {
		s := new(mockStorage)
		s.On("GetStudents").Return([]types.Student(nil), boom)

		rr := serve(t, s, http.MethodGet, "/students", "")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, boom.Error(), decodeError(t, rr).Error)
		s.AssertExpectations(t)
	})

	t.Run("create", func(t *testing.T) {
		s := new(mockStorage)
		s.On("CreateStudent", types.NewStudent{Name: "Alice"}).Return(types.Student{}, boom)

		rr := serve(t, s, http.MethodPost, "/students", `{"Name":"Alice"}`)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		s.AssertExpectations(t)
	})

	t.Run("delete", func(t *testing.T) {
		s := new(mockStorage)
		s.On("DeleteStudentByID", int64(4)).Return(boom)

		rr := serve(t, s, http.MethodDelete, "/students/4", "")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		s.AssertExpectations(t)
	})

	t.Run("update not found from backend", func(t *testing.T) {
		s := new(mockStorage)
		s.On("GetStudentByID", int64(2)).Return(types.Student{}, storage.ErrNotFound)

		rr := serve(t, s, http.MethodPut, "/students/2", `{"Grade":"A"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		s.AssertNotCalled(t, "UpdateStudentByID", mock.Anything, mock.Anything)
	})
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw    string
		want   int64
		wantOK bool
	}{
		{"1", 1, true},
		{"0", 0, true},
		{"007", 7, true},
		{"", 0, false},
		{"-3", 0, false},
		{"1e3", 0, false},
		{"99999999999999999999", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/students/x", nil)
			req.SetPathValue("id", tt.raw)

			got, ok := parseID(req)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
