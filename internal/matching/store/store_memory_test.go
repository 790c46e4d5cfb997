package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"dealroom/internal/matching/models"
	id "dealroom/pkg/domain"
	"dealroom/pkg/platform/sentinel"
)

type ProfileStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestProfileStoreSuite(t *testing.T) {
	suite.Run(t, new(ProfileStoreSuite))
}

func (s *ProfileStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *ProfileStoreSuite) TestUpsertAndGet() {
	userID := id.UserID(uuid.New())
	p := &models.BuyerProfile{UserID: userID, Regions: []string{"Stockholm"}, UpdatedAt: time.Now()}
	s.Require().NoError(s.store.Upsert(s.ctx, p))

	p.Regions[0] = "mutated"
	got, err := s.store.Get(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal([]string{"Stockholm"}, got.Regions, "store keeps its own copy")

	p.Regions = []string{"Malmö"}
	s.Require().NoError(s.store.Upsert(s.ctx, p))
	got, err = s.store.Get(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal([]string{"Malmö"}, got.Regions)
}

func (s *ProfileStoreSuite) TestGetMissing() {
	_, err := s.store.Get(s.ctx, id.UserID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ProfileStoreSuite) TestListIsOrdered() {
	for range 5 {
		s.Require().NoError(s.store.Upsert(s.ctx, &models.BuyerProfile{UserID: id.UserID(uuid.New())}))
	}
	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 5)
	for i := 1; i < len(all); i++ {
		s.Less(all[i-1].UserID.String(), all[i].UserID.String())
	}
}
