package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dealroom/internal/access"
	"dealroom/internal/listing/models"
	"dealroom/internal/listing/service"
	id "dealroom/pkg/domain"
	"dealroom/pkg/platform/httputil"
	"dealroom/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type Service interface {
	GetListing(ctx context.Context, listingID id.ListingID, viewer access.Viewer, userAgent string) (*models.MaskedListing, error)
	CreateListing(ctx context.Context, owner id.UserID, role id.Role, in service.CreateListingInput) (*models.Listing, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterPublic mounts the listing read. Authentication is optional.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/listings/{id}", h.HandleGet)
}

// Register mounts routes that need an authenticated caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/listings", h.HandleCreate)
}

type CreateRequest struct {
	Title              string   `json:"title"`
	Category           string   `json:"category"`
	Region             string   `json:"region"`
	PriceMin           *int64   `json:"price_min"`
	PriceMax           *int64   `json:"price_max"`
	Draft              bool     `json:"draft"`
	LegalName          string   `json:"legal_name"`
	RegistrationNumber string   `json:"registration_number"`
	Address            string   `json:"address"`
	Revenue            *int64   `json:"revenue"`
	EBITDA             *int64   `json:"ebitda"`
	Profit             *int64   `json:"profit"`
	Employees          *int     `json:"employees"`
	KeyCustomers       []string `json:"key_customers"`
	RiskNarrative      string   `json:"risk_narrative"`
	Description        string   `json:"description"`

	input service.CreateListingInput
}

func (r *CreateRequest) Validate() error {
	r.input = service.CreateListingInput{
		Title:              r.Title,
		Category:           r.Category,
		Region:             r.Region,
		PriceMin:           r.PriceMin,
		PriceMax:           r.PriceMax,
		Draft:              r.Draft,
		LegalName:          r.LegalName,
		RegistrationNumber: r.RegistrationNumber,
		Address:            r.Address,
		Revenue:            r.Revenue,
		EBITDA:             r.EBITDA,
		Profit:             r.Profit,
		Employees:          r.Employees,
		KeyCustomers:       r.KeyCustomers,
		RiskNarrative:      r.RiskNarrative,
		Description:        r.Description,
	}
	return r.input.Validate()
}

type CreateResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleGet serves the listing masked for the caller. Anonymous callers get
// the public fields only.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listingID, err := id.ParseListingID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	viewer := access.Viewer{
		UserID: requestcontext.UserID(ctx),
		Role:   requestcontext.Role(ctx),
	}
	listing, err := h.svc.GetListing(ctx, listingID, viewer, r.UserAgent())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listing)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	l, err := h.svc.CreateListing(ctx, requestcontext.UserID(ctx), requestcontext.Role(ctx), req.input)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to create listing",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreateResponse{
		ID:        l.ID.String(),
		OwnerID:   l.OwnerID.String(),
		Title:     l.Title,
		Status:    string(l.Status),
		CreatedAt: l.CreatedAt,
	})
}
