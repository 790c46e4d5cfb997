package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dealroom/internal/matching/models"
	id "dealroom/pkg/domain"
	"dealroom/pkg/platform/httputil"
	"dealroom/pkg/requestcontext"
)

type Service interface {
	BuyerMatches(ctx context.Context, buyerID id.UserID) ([]models.BuyerMatch, error)
	SellerMatches(ctx context.Context, sellerID id.UserID) ([]models.SellerMatch, error)
	SaveProfile(ctx context.Context, buyerID id.UserID, profile models.BuyerProfile) (*models.BuyerProfile, error)
	GetProfile(ctx context.Context, buyerID id.UserID) (*models.BuyerProfile, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts profile and match routes. The caller must be authenticated.
func (h *Handler) Register(r chi.Router) {
	r.Put("/buyer-profile", h.HandleSaveProfile)
	r.Get("/buyer-profile", h.HandleGetProfile)
	r.Get("/matches/buyer", h.HandleBuyerMatches)
	r.Get("/matches/seller", h.HandleSellerMatches)
}

type ProfileRequest struct {
	Regions      []string `json:"regions"`
	Industries   []string `json:"industries"`
	RevenueMin   *int64   `json:"revenue_min"`
	RevenueMax   *int64   `json:"revenue_max"`
	PriceMin     *int64   `json:"price_min"`
	PriceMax     *int64   `json:"price_max"`
	EBITDAMin    *int64   `json:"ebitda_min"`
	EBITDAMax    *int64   `json:"ebitda_max"`
	EmployeesMin *int     `json:"employees_min"`
	EmployeesMax *int     `json:"employees_max"`

	profile models.BuyerProfile
}

func (r *ProfileRequest) Validate() error {
	r.profile = models.BuyerProfile{
		Regions:      r.Regions,
		Industries:   r.Industries,
		RevenueMin:   r.RevenueMin,
		RevenueMax:   r.RevenueMax,
		PriceMin:     r.PriceMin,
		PriceMax:     r.PriceMax,
		EBITDAMin:    r.EBITDAMin,
		EBITDAMax:    r.EBITDAMax,
		EmployeesMin: r.EmployeesMin,
		EmployeesMax: r.EmployeesMax,
	}
	return r.profile.Validate()
}

type ProfileResponse struct {
	UserID       string    `json:"user_id"`
	Regions      []string  `json:"regions"`
	Industries   []string  `json:"industries"`
	RevenueMin   *int64    `json:"revenue_min"`
	RevenueMax   *int64    `json:"revenue_max"`
	PriceMin     *int64    `json:"price_min"`
	PriceMax     *int64    `json:"price_max"`
	EBITDAMin    *int64    `json:"ebitda_min"`
	EBITDAMax    *int64    `json:"ebitda_max"`
	EmployeesMin *int      `json:"employees_min"`
	EmployeesMax *int      `json:"employees_max"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toProfileResponse(p *models.BuyerProfile) ProfileResponse {
	resp := ProfileResponse{
		UserID:       p.UserID.String(),
		Regions:      p.Regions,
		Industries:   p.Industries,
		RevenueMin:   p.RevenueMin,
		RevenueMax:   p.RevenueMax,
		PriceMin:     p.PriceMin,
		PriceMax:     p.PriceMax,
		EBITDAMin:    p.EBITDAMin,
		EBITDAMax:    p.EBITDAMax,
		EmployeesMin: p.EmployeesMin,
		EmployeesMax: p.EmployeesMax,
		UpdatedAt:    p.UpdatedAt,
	}
	if resp.Regions == nil {
		resp.Regions = []string{}
	}
	if resp.Industries == nil {
		resp.Industries = []string{}
	}
	return resp
}

type BuyerMatchResponse struct {
	ListingID    string   `json:"listing_id"`
	Title        string   `json:"title"`
	Category     string   `json:"category"`
	Region       string   `json:"region"`
	PriceMin     *int64   `json:"price_min"`
	PriceMax     *int64   `json:"price_max"`
	MatchScore   int      `json:"match_score"`
	MatchReasons []string `json:"match_reasons"`
}

type SellerMatchResponse struct {
	ListingID    string   `json:"listing_id"`
	BuyerID      string   `json:"buyer_id"`
	MatchScore   int      `json:"match_score"`
	MatchReasons []string `json:"match_reasons"`
}

func (h *Handler) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ProfileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	saved, err := h.svc.SaveProfile(ctx, requestcontext.UserID(ctx), req.profile)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to save buyer profile",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(saved))
}

func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.svc.GetProfile(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *Handler) HandleBuyerMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	matches, err := h.svc.BuyerMatches(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to compute buyer matches",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	out := make([]BuyerMatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, BuyerMatchResponse{
			ListingID:    m.ListingID.String(),
			Title:        m.Title,
			Category:     m.Category,
			Region:       m.Region,
			PriceMin:     m.PriceMin,
			PriceMax:     m.PriceMax,
			MatchScore:   m.Score,
			MatchReasons: m.Reasons,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleSellerMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	matches, err := h.svc.SellerMatches(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to compute seller matches",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	out := make([]SellerMatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, SellerMatchResponse{
			ListingID:    m.ListingID.String(),
			BuyerID:      m.BuyerID.String(),
			MatchScore:   m.Score,
			MatchReasons: m.Reasons,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
