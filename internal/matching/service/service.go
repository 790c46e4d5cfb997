package service

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	listingmodels "dealroom/internal/listing/models"
	"dealroom/internal/matching"
	"dealroom/internal/matching/models"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
	"dealroom/pkg/platform/sentinel"
	dstrings "dealroom/pkg/platform/strings"
	"dealroom/pkg/requestcontext"
)

// DefaultThreshold is the score a pair must exceed to be suggested.
const DefaultThreshold = 50

type ListingReader interface {
	ListActive(ctx context.Context) ([]*listingmodels.Listing, error)
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]*listingmodels.Listing, error)
}

type ProfileStore interface {
	Get(ctx context.Context, userID id.UserID) (*models.BuyerProfile, error)
	Upsert(ctx context.Context, profile *models.BuyerProfile) error
	List(ctx context.Context) ([]*models.BuyerProfile, error)
}

// Service builds ranked match feeds and owns buyer profile writes.
type Service struct {
	listings  ListingReader
	profiles  ProfileStore
	threshold int
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithThreshold(threshold int) Option {
	return func(s *Service) {
		s.threshold = threshold
	}
}

func New(listings ListingReader, profiles ProfileStore, opts ...Option) *Service {
	s := &Service{
		listings:  listings,
		profiles:  profiles,
		threshold: DefaultThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuyerMatches ranks active listings against the buyer's profile. A buyer
// without a profile has no matches. The buyer's own listings are excluded.
func (s *Service) BuyerMatches(ctx context.Context, buyerID id.UserID) ([]models.BuyerMatch, error) {
	var (
		profile  *models.BuyerProfile
		listings []*listingmodels.Listing
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profiles.Get(gctx, buyerID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		ls, err := s.listings.ListActive(gctx)
		listings = ls
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load match candidates")
	}

	matches := []models.BuyerMatch{}
	if profile == nil {
		return matches, nil
	}
	for _, l := range listings {
		if l.OwnerID == buyerID {
			continue
		}
		result := matching.Score(l, profile)
		if result.Score <= s.threshold {
			continue
		}
		matches = append(matches, models.BuyerMatch{
			ListingID: l.ID,
			Title:     l.Title,
			Category:  l.Category,
			Region:    l.Region,
			PriceMin:  l.PriceMin,
			PriceMax:  l.PriceMax,
			Result:    result,
		})
	}
	slices.SortFunc(matches, func(a, b models.BuyerMatch) int {
		return cmp.Or(
			cmp.Compare(b.Score, a.Score),
			cmp.Compare(a.ListingID.String(), b.ListingID.String()),
		)
	})
	return matches, nil
}

// SellerMatches ranks every buyer profile against each of the seller's
// active listings.
func (s *Service) SellerMatches(ctx context.Context, sellerID id.UserID) ([]models.SellerMatch, error) {
	var (
		owned    []*listingmodels.Listing
		profiles []*models.BuyerProfile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ls, err := s.listings.ListByOwner(gctx, sellerID)
		owned = ls
		return err
	})
	g.Go(func() error {
		ps, err := s.profiles.List(gctx)
		profiles = ps
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load match candidates")
	}

	matches := []models.SellerMatch{}
	for _, l := range owned {
		if !l.IsActive() {
			continue
		}
		for _, p := range profiles {
			if p.UserID == sellerID {
				continue
			}
			result := matching.Score(l, p)
			if result.Score <= s.threshold {
				continue
			}
			matches = append(matches, models.SellerMatch{ListingID: l.ID, BuyerID: p.UserID, Result: result})
		}
	}
	slices.SortFunc(matches, func(a, b models.SellerMatch) int {
		return cmp.Or(
			cmp.Compare(b.Score, a.Score),
			cmp.Compare(a.ListingID.String(), b.ListingID.String()),
			cmp.Compare(a.BuyerID.String(), b.BuyerID.String()),
		)
	})
	return matches, nil
}

// SaveProfile replaces the caller's buyer profile.
func (s *Service) SaveProfile(ctx context.Context, buyerID id.UserID, profile models.BuyerProfile) (*models.BuyerProfile, error) {
	profile.UserID = buyerID
	profile.Regions = dstrings.Normalize(profile.Regions)
	profile.Industries = dstrings.Normalize(profile.Industries)
	profile.UpdatedAt = requestcontext.Now(ctx)
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := s.profiles.Upsert(ctx, &profile); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save buyer profile")
	}
	s.logger.InfoContext(ctx, "buyer profile saved",
		"user_id", buyerID,
		"regions", len(profile.Regions),
		"industries", len(profile.Industries),
	)
	return &profile, nil
}

func (s *Service) GetProfile(ctx context.Context, buyerID id.UserID) (*models.BuyerProfile, error) {
	p, err := s.profiles.Get(ctx, buyerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "buyer profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load buyer profile")
	}
	return p, nil
}
