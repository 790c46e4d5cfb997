package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"dealroom/internal/messaging/service"
	"dealroom/internal/messaging/store"
	id "dealroom/pkg/domain"
	"dealroom/pkg/testutil"
)

type MessagingHandlerSuite struct {
	suite.Suite
	router  chi.Router
	listing id.ListingID
	seller  id.UserID
	buyer   id.UserID
}

func TestMessagingHandlerSuite(t *testing.T) {
	suite.Run(t, new(MessagingHandlerSuite))
}

func (s *MessagingHandlerSuite) SetupTest() {
	s.router = chi.NewRouter()
	New(service.New(store.NewInMemory()), slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
	s.listing = id.ListingID(uuid.New())
	s.seller = id.UserID(uuid.New())
	s.buyer = id.UserID(uuid.New())
}

func (s *MessagingHandlerSuite) path() string {
	return "/listings/" + s.listing.String() + "/messages"
}

func (s *MessagingHandlerSuite) TestSendThenList() {
	req := testutil.WithUser(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path(), map[string]string{
		"recipient_id": s.buyer.String(),
		"body":         "  Happy to share the accounts.  ",
	}), s.seller, id.RoleSeller)
	rr := testutil.DoRequest(s.router, req)
	s.Require().Equal(http.StatusCreated, rr.Code)
	sent := testutil.UnmarshalResponse[MessageResponse](s.T(), rr)
	s.Equal("Happy to share the accounts.", sent.Body)

	for _, viewer := range []id.UserID{s.buyer, s.seller} {
		rr = testutil.DoRequest(s.router, testutil.WithUser(testutil.NewRequest(s.T(), http.MethodGet, s.path()), viewer, id.RoleBuyer))
		s.Require().Equal(http.StatusOK, rr.Code)
		msgs := testutil.UnmarshalResponse[[]MessageResponse](s.T(), rr)
		s.Len(*msgs, 1)
	}

	rr = testutil.DoRequest(s.router, testutil.WithUser(testutil.NewRequest(s.T(), http.MethodGet, s.path()), id.UserID(uuid.New()), id.RoleBuyer))
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Empty(*testutil.UnmarshalResponse[[]MessageResponse](s.T(), rr))
}

func (s *MessagingHandlerSuite) TestSendValidation() {
	s.Run("empty body", func() {
		req := testutil.WithUser(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path(), map[string]string{
			"recipient_id": s.buyer.String(),
			"body":         " ",
		}), s.seller, id.RoleSeller)
		s.Equal(http.StatusBadRequest, testutil.DoRequest(s.router, req).Code)
	})

	s.Run("messaging yourself", func() {
		req := testutil.WithUser(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path(), map[string]string{
			"recipient_id": s.seller.String(),
			"body":         "note to self",
		}), s.seller, id.RoleSeller)
		s.Equal(http.StatusBadRequest, testutil.DoRequest(s.router, req).Code)
	})

	s.Run("bad recipient id", func() {
		req := testutil.WithUser(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path(), map[string]string{
			"recipient_id": "nope",
			"body":         "hi",
		}), s.seller, id.RoleSeller)
		s.Equal(http.StatusBadRequest, testutil.DoRequest(s.router, req).Code)
	})
}
