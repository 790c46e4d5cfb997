package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"dealroom/internal/user/models"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
	"dealroom/pkg/platform/httputil"
	"dealroom/pkg/requestcontext"
)

type Service interface {
	UpsertSelf(ctx context.Context, userID id.UserID, role id.Role, name, email string) (*models.User, error)
	Get(ctx context.Context, userID id.UserID) (*models.User, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the user routes. The caller must be authenticated.
func (h *Handler) Register(r chi.Router) {
	r.Put("/users/me", h.HandleUpsertMe)
	r.Get("/users/me", h.HandleGetMe)
}

type UpsertMeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r *UpsertMeRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	return nil
}

type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func (h *Handler) HandleUpsertMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[UpsertMeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	u, err := h.svc.UpsertSelf(ctx, requestcontext.UserID(ctx), requestcontext.Role(ctx), req.Name, req.Email)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to save user",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(u))
}

func (h *Handler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, err := h.svc.Get(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(u))
}
