package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dealroom/internal/access"
	"dealroom/internal/listing/models"
	"dealroom/internal/listing/service/mocks"
	"dealroom/internal/listing/store"
	matchmodels "dealroom/internal/matching/models"
	matchstore "dealroom/internal/matching/store"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
	"dealroom/pkg/requestcontext"
)

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

func ptr[T any](v T) *T { return &v }

type ListingServiceSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	store    *store.InMemory
	views    *store.InMemoryViewCounter
	ndas     *mocks.MockNDAChecker
	profiles *matchstore.InMemory
	svc      *Service

	seller  id.UserID
	buyer   id.UserID
	listing *models.Listing
}

func TestListingServiceSuite(t *testing.T) {
	suite.Run(t, new(ListingServiceSuite))
}

func (s *ListingServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	s.ctrl = gomock.NewController(s.T())
	s.store = store.NewInMemory()
	s.views = store.NewInMemoryViewCounter()
	s.ndas = mocks.NewMockNDAChecker(s.ctrl)
	s.profiles = matchstore.NewInMemory()
	s.svc = New(s.store, s.views, s.ndas, s.profiles,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	s.seller = id.UserID(uuid.New())
	s.buyer = id.UserID(uuid.New())
	s.listing = &models.Listing{
		ID:                 id.ListingID(uuid.New()),
		OwnerID:            s.seller,
		Title:              "Stockholm bistro",
		Category:           "restaurants",
		Region:             "Stockholm",
		PriceMin:           ptr[int64](6_000_000),
		PriceMax:           ptr[int64](8_000_000),
		Status:             models.StatusActive,
		LegalName:          "Bistro Sodermalm AB",
		RegistrationNumber: "556677-8899",
		Revenue:            ptr[int64](20_000_000),
		KeyCustomers:       []string{"Hotel Rival"},
		Description:        "Forty covers, full liquor licence.",
	}
	s.Require().NoError(s.store.Create(s.ctx, s.listing))
}

func (s *ListingServiceSuite) viewer(userID id.UserID, role id.Role) access.Viewer {
	return access.Viewer{UserID: userID, Role: role}
}

func (s *ListingServiceSuite) eventuallyViews(want int64) {
	s.Eventually(func() bool {
		n, err := s.views.Count(context.Background(), s.listing.ID)
		return err == nil && n == want
	}, time.Second, 5*time.Millisecond)
}

func (s *ListingServiceSuite) TestGetListing() {
	s.Run("anonymous viewers get the masked shape", func() {
		got, err := s.svc.GetListing(s.ctx, s.listing.ID, access.Viewer{}, browserUA)
		s.Require().NoError(err)
		s.True(got.Masked)
		s.Empty(got.LegalName)
		s.Nil(got.Revenue)
		s.Equal([]string{}, got.KeyCustomers)
		s.Equal(access.MaskedDescription, got.Description)
		s.Equal("Stockholm bistro", got.Title)
		s.Nil(got.MatchScore)
	})

	s.Run("approved NDA unmasks", func() {
		s.ndas.EXPECT().HasVisibility(gomock.Any(), s.listing.ID, s.buyer).Return(true, nil)

		got, err := s.svc.GetListing(s.ctx, s.listing.ID, s.viewer(s.buyer, id.RoleBuyer), browserUA)
		s.Require().NoError(err)
		s.False(got.Masked)
		s.Equal("Bistro Sodermalm AB", got.LegalName)
		s.Equal([]string{"Hotel Rival"}, got.KeyCustomers)
	})

	s.Run("no NDA keeps it masked", func() {
		s.ndas.EXPECT().HasVisibility(gomock.Any(), s.listing.ID, s.buyer).Return(false, nil)

		got, err := s.svc.GetListing(s.ctx, s.listing.ID, s.viewer(s.buyer, id.RoleBuyer), browserUA)
		s.Require().NoError(err)
		s.True(got.Masked)
	})

	s.Run("NDA lookup failure fails closed", func() {
		s.ndas.EXPECT().HasVisibility(gomock.Any(), s.listing.ID, s.buyer).
			Return(false, dErrors.Wrap(errors.New("connection reset"), dErrors.CodeDependencyFailure, "nda"))

		got, err := s.svc.GetListing(s.ctx, s.listing.ID, s.viewer(s.buyer, id.RoleBuyer), browserUA)
		s.Require().NoError(err)
		s.True(got.Masked)
		s.Empty(got.RegistrationNumber)
	})

	s.Run("owner and brokers see everything", func() {
		got, err := s.svc.GetListing(s.ctx, s.listing.ID, s.viewer(s.seller, id.RoleSeller), browserUA)
		s.Require().NoError(err)
		s.False(got.Masked)

		broker := id.UserID(uuid.New())
		s.ndas.EXPECT().HasVisibility(gomock.Any(), s.listing.ID, broker).Return(false, nil)
		got, err = s.svc.GetListing(s.ctx, s.listing.ID, s.viewer(broker, id.RoleBroker), browserUA)
		s.Require().NoError(err)
		s.False(got.Masked)
	})

	s.Run("unknown listing", func() {
		_, err := s.svc.GetListing(s.ctx, id.ListingID(uuid.New()), access.Viewer{}, browserUA)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ListingServiceSuite) TestMatchScoreNeedsAProfile() {
	s.ndas.EXPECT().HasVisibility(gomock.Any(), s.listing.ID, s.buyer).Return(false, nil).Times(2)

	got, err := s.svc.GetListing(s.ctx, s.listing.ID, s.viewer(s.buyer, id.RoleBuyer), browserUA)
	s.Require().NoError(err)
	s.Nil(got.MatchScore)

	s.Require().NoError(s.profiles.Upsert(s.ctx, &matchmodels.BuyerProfile{
		UserID:     s.buyer,
		Regions:    []string{"Stockholm"},
		Industries: []string{"software"},
		PriceMin:   ptr[int64](5_000_000),
		PriceMax:   ptr[int64](10_000_000),
	}))
	got, err = s.svc.GetListing(s.ctx, s.listing.ID, s.viewer(s.buyer, id.RoleBuyer), browserUA)
	s.Require().NoError(err)
	s.Require().NotNil(got.MatchScore)
	s.Equal(50, *got.MatchScore)
	s.Len(got.MatchReasons, 2)
	s.True(got.Masked, "a match score does not unmask")
}

func (s *ListingServiceSuite) TestViewCounting() {
	s.Run("counts people", func() {
		_, err := s.svc.GetListing(s.ctx, s.listing.ID, access.Viewer{}, browserUA)
		s.Require().NoError(err)
		s.eventuallyViews(1)
	})

	s.Run("skips bots and the owner", func() {
		_, err := s.svc.GetListing(s.ctx, s.listing.ID, access.Viewer{}, "Googlebot/2.1 (+http://www.google.com/bot.html)")
		s.Require().NoError(err)
		_, err = s.svc.GetListing(s.ctx, s.listing.ID, s.viewer(s.seller, id.RoleSeller), browserUA)
		s.Require().NoError(err)

		got, err := s.svc.GetListing(s.ctx, s.listing.ID, s.viewer(s.seller, id.RoleSeller), browserUA)
		s.Require().NoError(err)
		s.Equal(int64(1), got.ViewCount)
	})
}

func (s *ListingServiceSuite) TestDraftsAreHiddenFromOthers() {
	draft, err := s.svc.CreateListing(s.ctx, s.seller, id.RoleSeller, CreateListingInput{
		Title:  "Unannounced",
		Region: "Malmo",
		Draft:  true,
	})
	s.Require().NoError(err)
	s.Equal(models.StatusDraft, draft.Status)

	_, err = s.svc.GetListing(s.ctx, draft.ID, access.Viewer{}, browserUA)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	got, err := s.svc.GetListing(s.ctx, draft.ID, s.viewer(s.seller, id.RoleSeller), browserUA)
	s.Require().NoError(err)
	s.Equal("Unannounced", got.Title)
}

func (s *ListingServiceSuite) TestCreateListing() {
	s.Run("buyers cannot list", func() {
		_, err := s.svc.CreateListing(s.ctx, s.buyer, id.RoleBuyer, CreateListingInput{Title: "x", Region: "y"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("inverted price range", func() {
		_, err := s.svc.CreateListing(s.ctx, s.seller, id.RoleSeller, CreateListingInput{
			Title: "Gym", Region: "Uppsala", PriceMin: ptr[int64](10), PriceMax: ptr[int64](5),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("key customers are trimmed and deduplicated", func() {
		l, err := s.svc.CreateListing(s.ctx, s.seller, id.RoleSeller, CreateListingInput{
			Title:        " Gym ",
			Region:       "Uppsala",
			KeyCustomers: []string{" Acme ", "Acme", "", "Globex"},
		})
		s.Require().NoError(err)
		s.Equal("Gym", l.Title)
		s.Equal(models.StatusActive, l.Status)
		s.Equal([]string{"Acme", "Globex"}, l.KeyCustomers)

		stored, err := s.store.FindByID(s.ctx, l.ID)
		s.Require().NoError(err)
		s.Equal(s.seller, stored.OwnerID)
	})
}
