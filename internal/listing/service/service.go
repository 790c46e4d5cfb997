package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"dealroom/internal/access"
	"dealroom/internal/listing/metrics"
	"dealroom/internal/listing/models"
	"dealroom/internal/matching"
	matchmodels "dealroom/internal/matching/models"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
	"dealroom/pkg/platform/sentinel"
	dstrings "dealroom/pkg/platform/strings"
	"dealroom/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks NDAChecker

const defaultViewTimeout = 2 * time.Second

var tracer = otel.Tracer("dealroom/internal/listing")

type Store interface {
	Create(ctx context.Context, l *models.Listing) error
	FindByID(ctx context.Context, listingID id.ListingID) (*models.Listing, error)
}

// ViewCounter is a best-effort counter; a failure never fails a read.
type ViewCounter interface {
	Increment(ctx context.Context, listingID id.ListingID) error
	Count(ctx context.Context, listingID id.ListingID) (int64, error)
}

// NDAChecker reports whether viewerID holds an approved or signed NDA on the
// listing.
type NDAChecker interface {
	HasVisibility(ctx context.Context, listingID id.ListingID, viewerID id.UserID) (bool, error)
}

type ProfileReader interface {
	Get(ctx context.Context, userID id.UserID) (*matchmodels.BuyerProfile, error)
}

// Service serves listings through the disclosure gate.
type Service struct {
	store       Store
	views       ViewCounter
	ndas        NDAChecker
	profiles    ProfileReader
	metrics     *metrics.Metrics
	logger      *slog.Logger
	viewTimeout time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithViewTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.viewTimeout = d
		}
	}
}

func New(store Store, views ViewCounter, ndas NDAChecker, profiles ProfileReader, opts ...Option) *Service {
	s := &Service{
		store:       store,
		views:       views,
		ndas:        ndas,
		profiles:    profiles,
		logger:      slog.Default(),
		viewTimeout: defaultViewTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetListing returns the listing masked for viewer. Lack of access never
// produces an error: the sensitive block is withheld instead. When the NDA
// status cannot be read the listing is served masked.
func (s *Service) GetListing(ctx context.Context, listingID id.ListingID, viewer access.Viewer, userAgent string) (*models.MaskedListing, error) {
	ctx, span := tracer.Start(ctx, "listing.GetListing")
	defer span.End()
	span.SetAttributes(attribute.String("listing_id", listingID.String()))

	listing, err := s.store.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "listing not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load listing")
	}
	isOwner := !viewer.IsAnonymous() && viewer.UserID == listing.OwnerID
	if listing.Status == models.StatusDraft && !isOwner && !viewer.Role.IsPrivileged() {
		return nil, dErrors.New(dErrors.CodeNotFound, "listing not found")
	}

	var (
		hasNDA  bool
		profile *matchmodels.BuyerProfile
		views   = listing.ViewCount
	)
	g, gctx := errgroup.WithContext(ctx)
	if !viewer.IsAnonymous() && !isOwner {
		g.Go(func() error {
			ok, err := s.ndas.HasVisibility(gctx, listing.ID, viewer.UserID)
			if err != nil {
				s.metrics.IncrementNDALookupFailure()
				s.logger.WarnContext(ctx, "nda lookup failed, serving masked listing",
					"request_id", requestcontext.RequestID(ctx),
					"listing_id", listing.ID,
					"error", err,
				)
				return nil
			}
			hasNDA = ok
			return nil
		})
		g.Go(func() error {
			p, err := s.profiles.Get(gctx, viewer.UserID)
			if err != nil {
				if !errors.Is(err, sentinel.ErrNotFound) {
					s.logger.WarnContext(ctx, "buyer profile lookup failed, omitting match score",
						"request_id", requestcontext.RequestID(ctx),
						"error", err,
					)
				}
				return nil
			}
			profile = p
			return nil
		})
	}
	g.Go(func() error {
		n, err := s.views.Count(gctx, listing.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "view count unavailable",
				"listing_id", listing.ID,
				"error", err,
			)
			return nil
		}
		views = n
		return nil
	})
	_ = g.Wait()

	decision := access.Decide(viewer, listing.OwnerID, hasNDA)
	s.metrics.IncrementDecision(string(decision.Rule))
	span.SetAttributes(attribute.String("access_rule", string(decision.Rule)))

	listing.ViewCount = views
	out := access.MaskListing(listing, decision.Allowed)
	if profile != nil {
		res := matching.Score(listing, profile)
		out.MatchScore = &res.Score
		out.MatchReasons = res.Reasons
	}

	s.recordView(ctx, listing.ID, isOwner, userAgent)
	return &out, nil
}

// recordView increments the counter off the request path. Owners and bots are
// not counted.
func (s *Service) recordView(ctx context.Context, listingID id.ListingID, isOwner bool, userAgent string) {
	if isOwner {
		s.metrics.IncrementView("owner")
		return
	}
	if userAgent != "" && useragent.New(userAgent).Bot() {
		s.metrics.IncrementView("bot")
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.viewTimeout)
	go func() {
		defer cancel()
		if err := s.views.Increment(ctx, listingID); err != nil {
			s.metrics.IncrementView("failed")
			s.logger.WarnContext(ctx, "view count increment failed",
				"listing_id", listingID,
				"error", err,
			)
			return
		}
		s.metrics.IncrementView("counted")
	}()
}

// CreateListingInput is a new listing as submitted by its owner.
type CreateListingInput struct {
	Title              string
	Category           string
	Region             string
	PriceMin           *int64
	PriceMax           *int64
	Draft              bool
	LegalName          string
	RegistrationNumber string
	Address            string
	Revenue            *int64
	EBITDA             *int64
	Profit             *int64
	Employees          *int
	KeyCustomers       []string
	RiskNarrative      string
	Description        string
}

// Validate checks the public attributes and price range.
func (in CreateListingInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(in.Region) == "" {
		return dErrors.New(dErrors.CodeValidation, "region is required")
	}
	if (in.PriceMin != nil && *in.PriceMin < 0) || (in.PriceMax != nil && *in.PriceMax < 0) {
		return dErrors.New(dErrors.CodeValidation, "prices must not be negative")
	}
	if in.PriceMin != nil && in.PriceMax != nil && *in.PriceMin > *in.PriceMax {
		return dErrors.New(dErrors.CodeValidation, "price_min must not exceed price_max")
	}
	if in.Employees != nil && *in.Employees < 0 {
		return dErrors.New(dErrors.CodeValidation, "employees must not be negative")
	}
	return nil
}

// CreateListing stores a listing owned by the caller. Sellers, brokers and
// admins may list.
func (s *Service) CreateListing(ctx context.Context, owner id.UserID, role id.Role, in CreateListingInput) (*models.Listing, error) {
	switch role {
	case id.RoleSeller, id.RoleBroker, id.RoleAdmin:
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "only sellers may create listings")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	status := models.StatusActive
	if in.Draft {
		status = models.StatusDraft
	}
	l := &models.Listing{
		ID:                 id.ListingID(uuid.New()),
		OwnerID:            owner,
		Title:              strings.TrimSpace(in.Title),
		Category:           strings.TrimSpace(in.Category),
		Region:             strings.TrimSpace(in.Region),
		PriceMin:           in.PriceMin,
		PriceMax:           in.PriceMax,
		Status:             status,
		CreatedAt:          requestcontext.Now(ctx),
		LegalName:          strings.TrimSpace(in.LegalName),
		RegistrationNumber: strings.TrimSpace(in.RegistrationNumber),
		Address:            strings.TrimSpace(in.Address),
		Revenue:            in.Revenue,
		EBITDA:             in.EBITDA,
		Profit:             in.Profit,
		Employees:          in.Employees,
		KeyCustomers:       dstrings.Normalize(in.KeyCustomers),
		RiskNarrative:      in.RiskNarrative,
		Description:        in.Description,
	}
	if l.KeyCustomers == nil {
		l.KeyCustomers = []string{}
	}
	if err := s.store.Create(ctx, l); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create listing")
	}
	s.metrics.IncrementCreated()
	s.logger.InfoContext(ctx, "listing created",
		"listing_id", l.ID,
		"owner_id", owner,
		"status", status,
	)
	return l, nil
}
