package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"dealroom/internal/nda/models"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
	"dealroom/pkg/platform/httputil"
	"dealroom/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type Service interface {
	Create(ctx context.Context, listingID id.ListingID, buyerID id.UserID, message string) (*models.Request, error)
	Transition(ctx context.Context, requestID id.NDARequestID, target models.Status, actor id.UserID, rejectionReason string) (*models.Request, error)
	Withdraw(ctx context.Context, requestID id.NDARequestID, actor id.UserID) error
	Get(ctx context.Context, requestID id.NDARequestID, actor id.UserID, role id.Role) (*models.Request, error)
	ListForBuyer(ctx context.Context, buyerID id.UserID) ([]*models.Request, error)
	ListForSeller(ctx context.Context, sellerID id.UserID) ([]*models.Request, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the NDA routes. The caller must be authenticated.
func (h *Handler) Register(r chi.Router) {
	r.Post("/listings/{id}/nda-requests", h.HandleCreate)
	r.Get("/nda-requests", h.HandleList)
	r.Get("/nda-requests/{id}", h.HandleGet)
	r.Post("/nda-requests/{id}/transition", h.HandleTransition)
	r.Delete("/nda-requests/{id}", h.HandleWithdraw)
}

type CreateRequest struct {
	Message string `json:"message"`
}

func (r *CreateRequest) Validate() error {
	r.Message = strings.TrimSpace(r.Message)
	if len(r.Message) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "message must be at most 2000 characters")
	}
	return nil
}

type TransitionRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason"`

	target models.Status
}

func (r *TransitionRequest) Validate() error {
	target, err := models.ParseStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}
	if target != models.StatusRejected && strings.TrimSpace(r.RejectionReason) != "" {
		return dErrors.New(dErrors.CodeValidation, "rejection_reason is only allowed when rejecting")
	}
	r.target = target
	return nil
}

type RequestResponse struct {
	ID              string     `json:"id"`
	ListingID       string     `json:"listing_id"`
	BuyerID         string     `json:"buyer_id"`
	SellerID        string     `json:"seller_id"`
	Status          string     `json:"status"`
	Message         string     `json:"message,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ViewedAt        *time.Time `json:"viewed_at,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	SignedAt        *time.Time `json:"signed_at,omitempty"`
}

// ConflictResponse carries the request that already occupies the slot.
type ConflictResponse struct {
	Error    string          `json:"error"`
	Existing RequestResponse `json:"existing"`
}

func toResponse(r *models.Request) RequestResponse {
	return RequestResponse{
		ID:              r.ID.String(),
		ListingID:       r.ListingID.String(),
		BuyerID:         r.BuyerID.String(),
		SellerID:        r.SellerID.String(),
		Status:          string(r.Status),
		Message:         r.Message,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
		ViewedAt:        r.ViewedAt,
		ApprovedAt:      r.ApprovedAt,
		RejectedAt:      r.RejectedAt,
		SignedAt:        r.SignedAt,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	listingID, err := id.ParseListingID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeOptionalAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.svc.Create(ctx, listingID, requestcontext.UserID(ctx), req.Message)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeAlreadyExists) && created != nil {
			httputil.WriteJSON(w, http.StatusConflict, ConflictResponse{
				Error:    string(dErrors.CodeAlreadyExists),
				Existing: toResponse(created),
			})
			return
		}
		h.logger.WarnContext(ctx, "failed to create nda request",
			"request_id", requestID,
			"listing_id", listingID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(created))
}

// HandleList returns the caller's requests; ?side=seller lists incoming ones.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	var (
		reqs []*models.Request
		err  error
	)
	switch side := r.URL.Query().Get("side"); side {
	case "", "buyer":
		reqs, err = h.svc.ListForBuyer(ctx, userID)
	case "seller":
		reqs, err = h.svc.ListForSeller(ctx, userID)
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "side must be buyer or seller"))
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list nda requests",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	out := make([]RequestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toResponse(req))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseNDARequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := h.svc.Get(ctx, requestID, requestcontext.UserID(ctx), requestcontext.Role(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(req))
}

func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := requestcontext.RequestID(ctx)

	ndaID, err := id.ParseNDARequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, reqID)
	if !ok {
		return
	}

	updated, err := h.svc.Transition(ctx, ndaID, req.target, requestcontext.UserID(ctx), req.RejectionReason)
	if err != nil {
		h.logger.WarnContext(ctx, "nda transition refused",
			"request_id", reqID,
			"nda_request_id", ndaID,
			"target", req.target,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ndaID, err := id.ParseNDARequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.Withdraw(ctx, ndaID, requestcontext.UserID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
