package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"dealroom/internal/user/service"
	"dealroom/internal/user/store"
	id "dealroom/pkg/domain"
	"dealroom/pkg/testutil"
)

func TestUserRoutes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(service.New(store.NewInMemory()), logger).Register(r)
	userID := id.UserID(uuid.New())

	t.Run("get before save is not found", func(t *testing.T) {
		req := testutil.WithUser(testutil.NewRequest(t, http.MethodGet, "/users/me"), userID, id.RoleSeller)
		rr := testutil.DoRequest(r, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("save then get", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/users/me", map[string]string{"name": "Sven", "email": "sven@example.com"})
		rr := testutil.DoRequest(r, testutil.WithUser(req, userID, id.RoleSeller))
		assert.Equal(t, http.StatusOK, rr.Code)

		rr = testutil.DoRequest(r, testutil.WithUser(testutil.NewRequest(t, http.MethodGet, "/users/me"), userID, id.RoleSeller))
		resp := testutil.UnmarshalResponse[UserResponse](t, rr)
		assert.Equal(t, "Sven", resp.Name)
		assert.Equal(t, "seller", resp.Role)
	})

	t.Run("email is required", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/users/me", map[string]string{"name": "Sven"})
		rr := testutil.DoRequest(r, testutil.WithUser(req, userID, id.RoleSeller))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/users/me", map[string]string{"name": "S", "email": "s@example.com", "role": "admin"})
		rr := testutil.DoRequest(r, testutil.WithUser(req, userID, id.RoleSeller))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
