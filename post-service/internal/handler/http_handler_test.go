package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/outbox"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/peer"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/response"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/storage"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/repository"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/service"
)

type stubUsers struct {
	unavailable bool
}

func (s *stubUsers) GetUser(_ context.Context, id int64) (*peer.UserView, error) {
	if s.unavailable {
		return nil, errs.New(errs.ErrDependencyUnavailable, "user-service unavailable")
	}
	if id != 1 {
		return nil, errs.Newf(errs.ErrNotFound, "user %d not found", id)
	}
	return &peer.UserView{ID: 1, Username: "alice"}, nil
}

func newRouter(t *testing.T) (*gin.Engine, *stubUsers, *pubsub.MemoryBus) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenInMemory(t.Name(), &domain.PostModel{})
	require.NoError(t, err)
	bus := pubsub.NewMemoryBus()
	em, err := outbox.NewEmitter(db, bus, outbox.ModeDirect)
	require.NoError(t, err)
	st, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir(), PublicURL: "http://localhost:8082/uploads"})
	require.NoError(t, err)

	users := &stubUsers{}
	r := gin.New()
	h := NewHandler(
		service.NewPostService(repository.NewGormPostRepository(db), users, em, st, nil, 0),
		service.NewImageService(st, 0, 1<<20),
	)
	h.RegisterRoutes(r)
	h.RegisterUploadRoutes(r, "/uploads")
	r.Static("/uploads", st.BasePath())
	return r, users, bus
}

func do(r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestPostRoutes(t *testing.T) {
	r, users, bus := newRouter(t)

	w, _ := do(r, http.MethodPost, "/api/v1/posts", map[string]interface{}{"user_id": 1, "content": "hello"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
	assert.Len(t, bus.Events(pubsub.TopicPostCreated), 1)

	w, _ = do(r, http.MethodPost, "/api/v1/posts", map[string]interface{}{"user_id": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(r, http.MethodPost, "/api/v1/posts", map[string]interface{}{"user_id": 5, "content": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	users.unavailable = true
	w, resp := do(r, http.MethodPost, "/api/v1/posts", map[string]interface{}{"user_id": 1, "content": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)
	users.unavailable = false

	w, _ = do(r, http.MethodGet, "/api/v1/posts/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"content":"hello"`)

	w, _ = do(r, http.MethodGet, "/api/v1/posts/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = do(r, http.MethodGet, "/api/v1/posts/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(r, http.MethodGet, "/api/v1/posts?page=1&page_size=10", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w, _ = do(r, http.MethodGet, "/api/v1/posts/user/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(r, http.MethodGet, "/api/v1/posts/user/3", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(r, http.MethodPut, "/api/v1/posts/1", map[string]string{"content": "edited"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"content":"edited"`)

	w, _ = do(r, http.MethodDelete, "/api/v1/posts/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, bus.Events(pubsub.TopicPostDeleted), 1)

	w, _ = do(r, http.MethodDelete, "/api/v1/posts/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImageUploadRoundTrip(t *testing.T) {
	r, _, _ := newRouter(t)

	w, resp := do(r, http.MethodPost, "/api/v1/posts/images/presign", map[string]interface{}{
		"user_id": 1, "content_type": "image/png",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, resp.Success)

	var presign domain.PresignImageResponse
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &presign))

	req := httptest.NewRequest(http.MethodPut, "/uploads/"+presign.Key, strings.NewReader("fake-png"))
	req.Header.Set("Content-Type", "image/png")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/"+presign.Key, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fake-png", w.Body.String())

	w, _ = do(r, http.MethodPost, "/api/v1/posts/images/presign", map[string]interface{}{
		"user_id": 1, "content_type": "application/pdf",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
