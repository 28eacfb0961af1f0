package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/realtime"
	"library-backend/internal/domains/title/model"
	"library-backend/internal/domains/title/repository"
	"library-backend/internal/domains/title/service"
)

type noLoans struct{}

func (noLoans) CountActiveByTitle(ctx context.Context, titleID uuid.UUID) (int, error) {
	return 0, nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewService(repository.NewMemoryRepository(), noLoans{}, realtime.NewHub(8), nil)
	h := NewHandler(svc)

	r := gin.New()
	r.GET("/titles", h.ListTitles)
	r.GET("/titles/:id", h.GetTitle)
	r.POST("/admin/titles", h.CreateTitle)
	r.PUT("/admin/titles/:id", h.UpdateTitle)
	r.DELETE("/admin/titles/:id", h.DeleteTitle)
	return r
}

func send(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func Test_TitleHandler_CRUD(t *testing.T) {
	r := newRouter()

	w := send(r, http.MethodPost, "/admin/titles", map[string]interface{}{
		"isbn": "9780441013593", "title": "Dune", "author": "Frank Herbert", "copies_total": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created model.Title
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	assert.Equal(t, 2, created.CopiesAvailable)

	w = send(r, http.MethodGet, "/titles/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(r, http.MethodGet, "/titles?search=dune", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = send(r, http.MethodPut, "/admin/titles/"+created.ID.String(), map[string]interface{}{
		"title": "Dune Messiah", "version": created.Version,
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = send(r, http.MethodPut, "/admin/titles/"+created.ID.String(), map[string]interface{}{
		"title": "Children of Dune", "version": created.Version,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, model.ErrCodeVersionConflict, decode(t, w).Error.Code)

	w = send(r, http.MethodDelete, "/admin/titles/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(r, http.MethodGet, "/titles/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, model.ErrCodeTitleNotFound, decode(t, w).Error.Code)
}

func Test_TitleHandler_ValidationAndConflicts(t *testing.T) {
	r := newRouter()

	w := send(r, http.MethodPost, "/admin/titles", map[string]interface{}{"title": "No isbn"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := map[string]interface{}{"isbn": "9780000000001", "title": "A", "author": "B", "copies_total": 1}
	require.Equal(t, http.StatusCreated, send(r, http.MethodPost, "/admin/titles", body).Code)

	w = send(r, http.MethodPost, "/admin/titles", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, model.ErrCodeISBNExists, decode(t, w).Error.Code)

	w = send(r, http.MethodGet, "/titles/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func Test_mapTitleError_HidesInternalErrors(t *testing.T) {
	status, code, msg := mapTitleError(errors.New("connection refused"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, model.ErrCodeInternal, code)
	assert.NotContains(t, msg, "connection refused")
}
