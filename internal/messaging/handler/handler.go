package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"dealroom/internal/messaging/models"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
	"dealroom/pkg/platform/httputil"
	"dealroom/pkg/requestcontext"
)

type Service interface {
	Send(ctx context.Context, listingID id.ListingID, senderID, recipientID id.UserID, body string) (*models.Message, error)
	ListForUser(ctx context.Context, listingID id.ListingID, userID id.UserID) ([]*models.Message, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/listings/{id}/messages", h.HandleList)
	r.Post("/listings/{id}/messages", h.HandleSend)
}

type SendRequest struct {
	RecipientID string `json:"recipient_id"`
	Body        string `json:"body"`

	recipient id.UserID
}

func (r *SendRequest) Validate() error {
	recipient, err := id.ParseUserID(r.RecipientID)
	if err != nil {
		return err
	}
	r.recipient = recipient
	r.Body = strings.TrimSpace(r.Body)
	if r.Body == "" {
		return dErrors.New(dErrors.CodeValidation, "body is required")
	}
	return nil
}

type MessageResponse struct {
	ID          string    `json:"id"`
	ListingID   string    `json:"listing_id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

func toResponse(m *models.Message) MessageResponse {
	return MessageResponse{
		ID:          m.ID.String(),
		ListingID:   m.ListingID.String(),
		SenderID:    m.SenderID.String(),
		RecipientID: m.RecipientID.String(),
		Body:        m.Body,
		CreatedAt:   m.CreatedAt,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listingID, err := id.ParseListingID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	msgs, err := h.svc.ListForUser(ctx, listingID, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list messages",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toResponse(m))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	listingID, err := id.ParseListingID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SendRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	m, err := h.svc.Send(ctx, listingID, requestcontext.UserID(ctx), req.recipient, req.Body)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(m))
}
