package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dealroom/internal/access"
	"dealroom/internal/listing/handler/mocks"
	"dealroom/internal/listing/models"
	"dealroom/internal/listing/service"
	id "dealroom/pkg/domain"
	"dealroom/pkg/testutil"
)

type ListingHandlerSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	svc    *mocks.MockService
	router chi.Router
}

func TestListingHandlerSuite(t *testing.T) {
	suite.Run(t, new(ListingHandlerSuite))
}

func (s *ListingHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.svc = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	h := New(s.svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.RegisterPublic(s.router)
	h.Register(s.router)
}

func (s *ListingHandlerSuite) TestGetPassesViewerAndUserAgent() {
	listingID := id.ListingID(uuid.New())
	buyer := id.UserID(uuid.New())
	score := 80
	s.svc.EXPECT().GetListing(gomock.Any(), listingID, access.Viewer{UserID: buyer, Role: id.RoleBuyer}, "test-agent").
		Return(&models.MaskedListing{ID: listingID.String(), KeyCustomers: []string{}, Masked: true, MatchScore: &score}, nil)

	req := testutil.WithUser(testutil.NewRequest(s.T(), http.MethodGet, "/listings/"+listingID.String()), buyer, id.RoleBuyer)
	req.Header.Set("User-Agent", "test-agent")
	rr := testutil.DoRequest(s.router, req)
	s.Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[models.MaskedListing](s.T(), rr)
	s.True(resp.Masked)
	s.Require().NotNil(resp.MatchScore)
	s.Equal(80, *resp.MatchScore)
}

func (s *ListingHandlerSuite) TestGetAnonymous() {
	listingID := id.ListingID(uuid.New())
	s.svc.EXPECT().GetListing(gomock.Any(), listingID, access.Viewer{}, gomock.Any()).
		Return(&models.MaskedListing{ID: listingID.String(), KeyCustomers: []string{}, Masked: true}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/listings/"+listingID.String()))
	s.Equal(http.StatusOK, rr.Code)
}

func (s *ListingHandlerSuite) TestGetRejectsMalformedID() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/listings/not-a-uuid"))
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *ListingHandlerSuite) TestCreate() {
	seller := id.UserID(uuid.New())
	s.svc.EXPECT().CreateListing(gomock.Any(), seller, id.RoleSeller, gomock.Any()).
		DoAndReturn(func(_ any, owner id.UserID, _ id.Role, in service.CreateListingInput) (*models.Listing, error) {
			s.Equal("Bakery", in.Title)
			return &models.Listing{ID: id.ListingID(uuid.New()), OwnerID: owner, Title: in.Title, Status: models.StatusActive}, nil
		})

	req := testutil.WithUser(testutil.NewJSONRequest(s.T(), http.MethodPost, "/listings", map[string]any{
		"title":  "Bakery",
		"region": "Lund",
	}), seller, id.RoleSeller)
	rr := testutil.DoRequest(s.router, req)
	s.Equal(http.StatusCreated, rr.Code)

	req = testutil.WithUser(testutil.NewJSONRequest(s.T(), http.MethodPost, "/listings", map[string]any{
		"title": "No region",
	}), seller, id.RoleSeller)
	rr = testutil.DoRequest(s.router, req)
	s.Equal(http.StatusBadRequest, rr.Code)
}
