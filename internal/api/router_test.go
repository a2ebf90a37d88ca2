package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/japb1998/contacts/internal/config"
	"github.com/japb1998/contacts/internal/database"
	"github.com/japb1998/contacts/internal/dto"
	"github.com/japb1998/contacts/internal/model"
	"github.com/japb1998/contacts/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: config.EnvDevelopment,
		ServiceName: "contacts-test",
		APIPrefix:   "/api/v1",
		CORSOrigin:  "http://localhost:5173",
		StoreDriver: config.DriverMemory,
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	svc := service.NewContactService(database.NewMemoryRepository(), zap.NewNop())
	return InitRoutes(testConfig(), svc, zap.NewNop())
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createContact(t *testing.T, r http.Handler, name, email string, category model.Category) model.Contact {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/v1/contacts", map[string]any{
		"name":     name,
		"email":    email,
		"phone":    "5551234567",
		"category": category,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return *decode[dto.ContactResponse](t, w).Data
}

func TestCreateAndGet(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/contacts", map[string]any{
		"name":  "  Alice ",
		"email": "Alice@X.com",
		"phone": "5551234567",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[dto.ContactResponse](t, w)
	assert.True(t, created.Success)
	assert.Equal(t, "Contact created successfully", created.Message)
	assert.Equal(t, "alice@x.com", created.Data.Email)
	assert.Equal(t, model.CategoryOther, created.Data.Category)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Contains(t, raw["data"], "_id")

	w = do(t, r, http.MethodGet, "/api/v1/contacts/"+created.Data.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[dto.ContactResponse](t, w)
	assert.Equal(t, "Alice", got.Data.Name)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestCreate_ValidationEnvelope(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/contacts", map[string]any{
		"name":  "A",
		"email": "nope",
		"phone": "12",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode[struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Errors  []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}](t, w)
	assert.False(t, body.Success)
	assert.Equal(t, "Validation Error", body.Message)
	require.Len(t, body.Errors, 3)
	fields := []string{body.Errors[0].Field, body.Errors[1].Field, body.Errors[2].Field}
	assert.ElementsMatch(t, []string{"name", "email", "phone"}, fields)
}

func TestCreate_Conflict(t *testing.T) {
	r := newTestRouter(t)
	createContact(t, r, "Alice", "alice@x.com", model.CategoryWork)

	w := do(t, r, http.MethodPost, "/api/v1/contacts", map[string]any{
		"name":  "Alice",
		"email": "ALICE@x.com",
		"phone": "5551234567",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	body := decode[struct {
		Message string             `json:"message"`
		Errors  dto.ConflictDetail `json:"errors"`
	}](t, w)
	assert.Equal(t, "Email already exists", body.Message)
	assert.Equal(t, dto.ConflictDetail{Field: "email", Value: "alice@x.com"}, body.Errors)
}

func TestCreate_MalformedJSON(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/api/v1/contacts", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreate_BodyTooLarge(t *testing.T) {
	r := newTestRouter(t)
	big := fmt.Sprintf(`{"name":"Alice","email":"a@x.com","phone":"5551234567","message":"%s"}`, strings.Repeat("x", 20<<10))
	w := do(t, r, http.MethodPost, "/api/v1/contacts", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestList(t *testing.T) {
	r := newTestRouter(t)
	createContact(t, r, "Alice", "alice@x.com", model.CategoryWork)
	createContact(t, r, "Bob", "bob@x.com", model.CategoryFamily)

	w := do(t, r, http.MethodGet, "/api/v1/contacts?search=ali", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[dto.ListResponse](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Alice", list.Data[0].Name)
	assert.Equal(t, dto.Pagination{Page: 1, Limit: 10, Total: 1, TotalPages: 1}, list.Pagination)

	w = do(t, r, http.MethodGet, "/api/v1/contacts?category=Family&page=1&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[dto.ListResponse](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Bob", list.Data[0].Name)

	w = do(t, r, http.MethodGet, "/api/v1/contacts?page=9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[dto.ListResponse](t, w)
	assert.Empty(t, list.Data)
	assert.Equal(t, 9, list.Pagination.Page)
	assert.EqualValues(t, 2, list.Pagination.Total)
	assert.Equal(t, 1, list.Pagination.TotalPages)
}

func TestList_InvalidQuery(t *testing.T) {
	r := newTestRouter(t)

	for _, q := range []string{"page=0", "limit=5001", "category=Enemies", "page=abc"} {
		w := do(t, r, http.MethodGet, "/api/v1/contacts?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	r := newTestRouter(t)
	alice := createContact(t, r, "Alice", "alice@x.com", model.CategoryWork)
	createContact(t, r, "Bob", "bob@x.com", model.CategoryWork)

	w := do(t, r, http.MethodPut, "/api/v1/contacts/"+alice.ID, map[string]any{"category": "Friends"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[dto.ContactResponse](t, w)
	assert.Equal(t, "Contact updated successfully", updated.Message)
	assert.Equal(t, model.CategoryFriends, updated.Data.Category)
	assert.Equal(t, "Alice", updated.Data.Name)

	w = do(t, r, http.MethodPut, "/api/v1/contacts/"+alice.ID, map[string]any{"email": "bob@x.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPut, "/api/v1/contacts/"+alice.ID, map[string]any{"name": "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodDelete, "/api/v1/contacts/"+alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Contact deleted successfully", decode[dto.MessageResponse](t, w).Message)

	w = do(t, r, http.MethodGet, "/api/v1/contacts/"+alice.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Contact not found", decode[dto.ErrorResponse](t, w).Message)

	w = do(t, r, http.MethodDelete, "/api/v1/contacts/"+alice.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvalidID(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/contacts/123", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[struct {
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}](t, w)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "id", body.Errors[0].Field)
	assert.Equal(t, "Invalid contact ID", body.Errors[0].Message)
}

func TestBulkDelete(t *testing.T) {
	r := newTestRouter(t)
	a := createContact(t, r, "Alice", "alice@x.com", model.CategoryWork)
	b := createContact(t, r, "Bob", "bob@x.com", model.CategoryWork)

	w := do(t, r, http.MethodPost, "/api/v1/contacts/bulk-delete", dto.BulkDelete{IDs: []string{a.ID, b.ID, "507f1f77bcf86cd799439011"}})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[dto.BulkDeleteResponse](t, w)
	assert.True(t, res.Success)
	assert.EqualValues(t, 2, res.DeletedCount)
	assert.Equal(t, "Successfully deleted 2 contact(s)", res.Message)

	w = do(t, r, http.MethodPost, "/api/v1/contacts/bulk-delete", dto.BulkDelete{IDs: []string{a.ID}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No contacts found to delete", decode[dto.ErrorResponse](t, w).Message)

	w = do(t, r, http.MethodPost, "/api/v1/contacts/bulk-delete", dto.BulkDelete{IDs: []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndNoRoute(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/healthcheck", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[dto.HealthResponse](t, w)
	assert.True(t, health.Success)
	assert.Equal(t, "Server is running", health.Message)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = do(t, r, http.MethodGet, "/api/v1/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", decode[dto.ErrorResponse](t, w).Message)
}

func TestPublicDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(\"contacts\")"), 0o644))

	cfg := testConfig()
	cfg.PublicDir = dir
	r := InitRoutes(cfg, service.NewContactService(database.NewMemoryRepository(), zap.NewNop()), zap.NewNop())

	w := do(t, r, http.MethodGet, "/app.js", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "contacts")

	w = do(t, r, http.MethodGet, "/../../etc/passwd", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(recoverMiddleware(zap.NewNop(), false))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(t, r, http.MethodGet, "/boom", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[dto.ErrorResponse](t, w)
	assert.Equal(t, "Internal Server Error", body.Message)
	assert.Empty(t, body.Stack)
}
