package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dealroom/internal/deal/models"
	"dealroom/internal/deal/service/mocks"
	"dealroom/internal/deal/store"
	listingmodels "dealroom/internal/listing/models"
	listingstore "dealroom/internal/listing/store"
	notificationmodels "dealroom/internal/notification/models"
	userservice "dealroom/internal/user/service"
	userstore "dealroom/internal/user/store"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
	"dealroom/pkg/platform/tx"
	"dealroom/pkg/requestcontext"
)

type DealServiceSuite struct {
	suite.Suite
	ctx        context.Context
	now        time.Time
	ctrl       *gomock.Controller
	store      *store.InMemory
	activities *store.InMemoryActivityLog
	listings   *listingstore.InMemory
	users      *userservice.Service
	svc        *Service

	seller  id.UserID
	buyer   id.UserID
	listing *listingmodels.Listing
}

func TestDealServiceSuite(t *testing.T) {
	suite.Run(t, new(DealServiceSuite))
}

func (s *DealServiceSuite) SetupTest() {
	s.now = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctrl = gomock.NewController(s.T())
	s.store = store.NewInMemory()
	s.activities = store.NewInMemoryActivityLog()
	s.listings = listingstore.NewInMemory()
	s.users = userservice.New(userstore.NewInMemory())
	s.svc = s.newService()

	s.seller = id.UserID(uuid.New())
	s.buyer = id.UserID(uuid.New())
	_, err := s.users.UpsertSelf(s.ctx, s.buyer, id.RoleBuyer, "Anna Berg", "anna@example.com")
	s.Require().NoError(err)
	_, err = s.users.UpsertSelf(s.ctx, s.seller, id.RoleSeller, "Erik Lund", "erik@example.com")
	s.Require().NoError(err)

	s.listing = &listingmodels.Listing{
		ID:      id.ListingID(uuid.New()),
		OwnerID: s.seller,
		Title:   "Harbour cafe",
		Status:  listingmodels.StatusActive,
	}
	s.Require().NoError(s.listings.Create(s.ctx, s.listing))
}

func (s *DealServiceSuite) newService(opts ...Option) *Service {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(s.store, s.activities, tx.NoopRunner{}, s.listings, s.users, opts...)
}

// seed stores a transaction at stage with its milestones, bypassing the service.
func (s *DealServiceSuite) seed(stage models.Stage) *models.Transaction {
	t := &models.Transaction{
		ID:          id.TransactionID(uuid.New()),
		ListingID:   s.listing.ID,
		BuyerID:     s.buyer,
		SellerID:    s.seller,
		Stage:       stage,
		AgreedPrice: decimal.RequireFromString("2500000.00"),
		CreatedAt:   s.now,
		UpdatedAt:   s.now,
	}
	ms := models.NewMilestones(t.ID, s.buyer, s.now, func() id.MilestoneID { return id.MilestoneID(uuid.New()) })
	s.Require().NoError(s.store.CreateTransaction(s.ctx, t, ms))
	return t
}

func (s *DealServiceSuite) stageOf(transactionID id.TransactionID) models.Stage {
	t, err := s.store.FindTransaction(s.ctx, transactionID)
	s.Require().NoError(err)
	return t.Stage
}

func (s *DealServiceSuite) activityTypes(transactionID id.TransactionID) []models.ActivityType {
	as, err := s.activities.List(s.ctx, transactionID)
	s.Require().NoError(err)
	out := make([]models.ActivityType, 0, len(as))
	for _, a := range as {
		out = append(out, a.Type)
	}
	return out
}

func (s *DealServiceSuite) TestCreateDDFromTransaction() {
	s.Run("advances from LOI signed and records who did it", func() {
		t := s.seed(models.StageLOISigned)

		res, err := s.svc.CreateDDFromTransaction(s.ctx, t.ID, s.buyer, 30)
		s.Require().NoError(err)
		s.True(res.Advanced)
		s.Equal(t.ID, res.Project.TransactionID)
		s.Len(res.Tasks, models.ChecklistSize())
		s.Equal(s.now.AddDate(0, 0, 30), res.Project.TargetCompleteDate)
		s.Equal(models.StageDDInProgress, s.stageOf(t.ID))

		ms, err := s.store.ListMilestones(s.ctx, t.ID)
		s.Require().NoError(err)
		s.True(ms[1].Completed)
		s.Equal(models.StageDDInProgress.MilestoneTitle(), ms[1].Title)
		s.Require().NotNil(ms[1].CompletedBy)
		s.Equal(s.buyer, *ms[1].CompletedBy)
		s.False(ms[2].Completed)

		as, err := s.activities.List(s.ctx, t.ID)
		s.Require().NoError(err)
		s.Require().Len(as, 2)
		s.Equal(models.ActivityMilestoneCompleted, as[0].Type)
		s.Equal(models.ActivityStageChanged, as[1].Type)
		for _, a := range as {
			s.Equal("Anna Berg", a.ActorName)
			s.Equal("buyer", a.ActorRole)
		}
		s.Equal(string(models.StageLOISigned), as[1].Metadata["from"])
		s.Equal(string(models.StageDDInProgress), as[1].Metadata["to"])
	})

	s.Run("second call returns the existing project without side effects", func() {
		t := s.seed(models.StageLOISigned)
		first, err := s.svc.CreateDDFromTransaction(s.ctx, t.ID, s.buyer, 30)
		s.Require().NoError(err)

		again, err := s.svc.CreateDDFromTransaction(s.ctx, t.ID, s.seller, 10)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))
		s.Require().NotNil(again)
		s.Equal(first.Project.ID, again.Project.ID)
		s.Len(again.Tasks, models.ChecklistSize())
		s.False(again.Advanced)
		s.Len(s.activityTypes(t.ID), 2)
	})

	s.Run("leaves later stages untouched", func() {
		t := s.seed(models.StageSPANegotiation)

		res, err := s.svc.CreateDDFromTransaction(s.ctx, t.ID, s.seller, 0)
		s.Require().NoError(err)
		s.False(res.Advanced)
		s.Equal(s.now.AddDate(0, 0, DefaultTargetCompleteDays), res.Project.TargetCompleteDate)
		s.Equal(models.StageSPANegotiation, s.stageOf(t.ID))
		s.Empty(s.activityTypes(t.ID))
	})

	s.Run("task due dates never pass the target date", func() {
		t := s.seed(models.StageLOISigned)

		res, err := s.svc.CreateDDFromTransaction(s.ctx, t.ID, s.buyer, 5)
		s.Require().NoError(err)
		for _, task := range res.Tasks {
			s.False(task.DueDate.After(res.Project.TargetCompleteDate), task.Title)
		}
	})

	s.Run("rejects strangers, unknown transactions and bad targets", func() {
		t := s.seed(models.StageLOISigned)

		_, err := s.svc.CreateDDFromTransaction(s.ctx, t.ID, id.UserID(uuid.New()), 30)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		_, err = s.svc.CreateDDFromTransaction(s.ctx, id.TransactionID(uuid.New()), s.buyer, 30)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.svc.CreateDDFromTransaction(s.ctx, t.ID, s.buyer, MaxTargetCompleteDays+1)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, _, err = s.store.FindDDProject(s.ctx, t.ID)
		s.Error(err, "no project may exist after a refused call")
		s.Equal(models.StageLOISigned, s.stageOf(t.ID))
	})

	s.Run("refuses cancelled transactions", func() {
		t := s.seed(models.StageLOISigned)
		_, err := s.svc.Cancel(s.ctx, t.ID, "buyer withdrew", s.buyer, id.RoleBuyer)
		s.Require().NoError(err)

		_, err = s.svc.CreateDDFromTransaction(s.ctx, t.ID, s.buyer, 30)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *DealServiceSuite) TestCreateDDFromTransactionConcurrently() {
	publisher := mocks.NewMockPublisher(s.ctrl)
	notifier := mocks.NewMockNotificationSender(s.ctrl)
	svc := s.newService(WithPublisher(publisher), WithNotifier(notifier))
	t := s.seed(models.StageLOISigned)

	publisher.EXPECT().Publish(gomock.Any(), []byte(t.ID.String()), gomock.Any()).Return(nil).Times(2)
	notifier.EXPECT().Send(gomock.Any(), notificationmodels.KindDeal, s.seller, gomock.Any()).Return(nil).Times(1)

	const callers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		existing int
		projects = map[id.DDProjectID]bool{}
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.CreateDDFromTransaction(s.ctx, t.ID, s.buyer, 30)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case dErrors.HasCode(err, dErrors.CodeAlreadyExists):
				existing++
			default:
				assert.NoError(s.T(), err)
				return
			}
			if assert.NotNil(s.T(), res) {
				projects[res.Project.ID] = true
			}
		}()
	}
	wg.Wait()

	s.Equal(1, created)
	s.Equal(callers-1, existing)
	s.Len(projects, 1)
	s.Equal(models.StageDDInProgress, s.stageOf(t.ID))
	s.Equal([]models.ActivityType{models.ActivityMilestoneCompleted, models.ActivityStageChanged}, s.activityTypes(t.ID))
}

func (s *DealServiceSuite) TestFanOutFailuresDoNotUndoChanges() {
	publisher := mocks.NewMockPublisher(s.ctrl)
	notifier := mocks.NewMockNotificationSender(s.ctrl)
	svc := s.newService(WithPublisher(publisher), WithNotifier(notifier))
	t := s.seed(models.StageLOISigned)

	publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("broker down")).Times(2)
	notifier.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("store down"))

	res, err := svc.CreateDDFromTransaction(s.ctx, t.ID, s.seller, 30)
	s.Require().NoError(err)
	s.True(res.Advanced)
	s.Equal(models.StageDDInProgress, s.stageOf(t.ID))
}

// stageFailingStore lets the DD insert succeed and fails the stage update.
type stageFailingStore struct {
	Store
}

func (stageFailingStore) UpdateStageIfCurrent(context.Context, id.TransactionID, models.Stage, models.Stage, time.Time) error {
	return errors.New("connection reset")
}

func (s *DealServiceSuite) TestCreateDDKeepsProjectWhenAdvanceFails() {
	svc := New(stageFailingStore{Store: s.store}, s.activities, tx.NoopRunner{}, s.listings, s.users,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t := s.seed(models.StageLOISigned)

	res, err := svc.CreateDDFromTransaction(s.ctx, t.ID, s.buyer, 30)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Require().NotNil(res)
	s.False(res.Advanced)
	s.Equal(models.StageLOISigned, s.stageOf(t.ID))

	project, _, err := s.store.FindDDProject(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(res.Project.ID, project.ID)

	// a retry finds the project instead of creating another
	_, err = svc.CreateDDFromTransaction(s.ctx, t.ID, s.buyer, 30)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))
}

func (s *DealServiceSuite) TestAdvanceStage() {
	s.Run("walks forward one stage at a time until completed", func() {
		t := s.seed(models.StageLOISigned)
		for _, next := range models.Stages[1:] {
			got, err := s.svc.AdvanceStage(s.ctx, t.ID, next, s.seller)
			s.Require().NoError(err, next)
			s.Equal(next, got.Stage)
		}
		s.Equal(models.StageCompleted, s.stageOf(t.ID))

		_, err := s.svc.AdvanceStage(s.ctx, t.ID, models.StageClosing, s.seller)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		ms, err := s.store.ListMilestones(s.ctx, t.ID)
		s.Require().NoError(err)
		for _, m := range ms {
			s.True(m.Completed, m.Title)
		}
	})

	s.Run("refuses to skip or go back", func() {
		t := s.seed(models.StageDDInProgress)

		_, err := s.svc.AdvanceStage(s.ctx, t.ID, models.StageSPASigned, s.buyer)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		_, err = s.svc.AdvanceStage(s.ctx, t.ID, models.StageLOISigned, s.buyer)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		_, err = s.svc.AdvanceStage(s.ctx, t.ID, models.StageDDInProgress, s.buyer)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		s.Equal(models.StageDDInProgress, s.stageOf(t.ID))
		s.Empty(s.activityTypes(t.ID))
	})

	s.Run("only parties may advance", func() {
		t := s.seed(models.StageLOISigned)

		_, err := s.svc.AdvanceStage(s.ctx, t.ID, models.StageDDInProgress, id.UserID(uuid.New()))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown stage is a validation error", func() {
		t := s.seed(models.StageLOISigned)

		_, err := s.svc.AdvanceStage(s.ctx, t.ID, models.StageCancelled, s.buyer)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("one of two concurrent advances wins", func() {
		t := s.seed(models.StageLOISigned)
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			oks int
		)
		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.svc.AdvanceStage(s.ctx, t.ID, models.StageDDInProgress, s.buyer)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					oks++
					return
				}
				assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidTransition), err)
			}()
		}
		wg.Wait()
		s.Equal(1, oks)
		s.Equal(models.StageDDInProgress, s.stageOf(t.ID))
	})
}

func (s *DealServiceSuite) TestCorrectStage() {
	s.Run("admin may move a stage back with a reason", func() {
		t := s.seed(models.StageSPASigned)
		admin := id.UserID(uuid.New())

		got, err := s.svc.CorrectStage(s.ctx, t.ID, models.StageSPANegotiation, "SPA signature was rescinded", admin, id.RoleAdmin)
		s.Require().NoError(err)
		s.Equal(models.StageSPANegotiation, got.Stage)

		as, err := s.activities.List(s.ctx, t.ID)
		s.Require().NoError(err)
		s.Require().Len(as, 1)
		s.Equal(models.ActivityStageCorrected, as[0].Type)
		s.Equal("admin", as[0].ActorRole)
		s.Equal("SPA signature was rescinded", as[0].Metadata["reason"])
		s.Equal(string(models.StageSPASigned), as[0].Metadata["from"])
	})

	s.Run("parties and brokers cannot correct", func() {
		t := s.seed(models.StageSPASigned)

		_, err := s.svc.CorrectStage(s.ctx, t.ID, models.StageLOISigned, "oops", s.seller, id.RoleSeller)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		_, err = s.svc.CorrectStage(s.ctx, t.ID, models.StageLOISigned, "oops", id.UserID(uuid.New()), id.RoleBroker)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(models.StageSPASigned, s.stageOf(t.ID))
	})

	s.Run("reason is required and target must differ", func() {
		t := s.seed(models.StageClosing)
		admin := id.UserID(uuid.New())

		_, err := s.svc.CorrectStage(s.ctx, t.ID, models.StageSPASigned, "  ", admin, id.RoleAdmin)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = s.svc.CorrectStage(s.ctx, t.ID, models.StageClosing, "no-op", admin, id.RoleAdmin)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *DealServiceSuite) TestCancel() {
	s.Run("cancels and freezes the stage", func() {
		t := s.seed(models.StageDDInProgress)

		got, err := s.svc.Cancel(s.ctx, t.ID, "financing fell through", s.buyer, id.RoleBuyer)
		s.Require().NoError(err)
		s.Equal(models.StageCancelled, got.EffectiveStage())
		s.Equal(models.StageDDInProgress, got.Stage)

		_, err = s.svc.AdvanceStage(s.ctx, t.ID, models.StageDDCompleted, s.buyer)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		_, err = s.svc.Cancel(s.ctx, t.ID, "again", s.seller, id.RoleSeller)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		s.Equal([]models.ActivityType{models.ActivityTransactionCancelled}, s.activityTypes(t.ID))
	})

	s.Run("admins may cancel and strangers may not", func() {
		t := s.seed(models.StageLOISigned)

		_, err := s.svc.Cancel(s.ctx, t.ID, "", id.UserID(uuid.New()), id.RoleBroker)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		_, err = s.svc.Cancel(s.ctx, t.ID, "fraud review", id.UserID(uuid.New()), id.RoleAdmin)
		s.NoError(err)
	})

	s.Run("completed deals stay completed", func() {
		t := s.seed(models.StageCompleted)

		_, err := s.svc.Cancel(s.ctx, t.ID, "", s.buyer, id.RoleBuyer)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *DealServiceSuite) TestCompleteMilestone() {
	t := s.seed(models.StageDDInProgress)
	ms, err := s.store.ListMilestones(s.ctx, t.ID)
	s.Require().NoError(err)
	target := ms[2]

	got, err := s.svc.CompleteMilestone(s.ctx, t.ID, target.ID, s.seller)
	s.Require().NoError(err)
	s.True(got.Completed)
	s.Require().NotNil(got.CompletedBy)
	s.Equal(s.seller, *got.CompletedBy)

	_, err = s.svc.CompleteMilestone(s.ctx, t.ID, target.ID, s.seller)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	_, err = s.svc.CompleteMilestone(s.ctx, t.ID, id.MilestoneID(uuid.New()), s.seller)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.svc.CompleteMilestone(s.ctx, t.ID, ms[3].ID, id.UserID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	s.Equal([]models.ActivityType{models.ActivityMilestoneCompleted}, s.activityTypes(t.ID))
}

func (s *DealServiceSuite) TestCreateTransaction() {
	price := decimal.RequireFromString("1850000.50")

	s.Run("buyer opens a transaction without any NDA on file", func() {
		got, err := s.svc.CreateTransaction(s.ctx, CreateTransactionInput{
			ListingID:   s.listing.ID,
			BuyerID:     s.buyer,
			AgreedPrice: price,
		}, s.buyer, id.RoleBuyer)
		s.Require().NoError(err)
		s.Equal(models.StageLOISigned, got.Stage)
		s.Equal(s.seller, got.SellerID)
		s.True(price.Equal(got.AgreedPrice))

		ms, err := s.store.ListMilestones(s.ctx, got.ID)
		s.Require().NoError(err)
		s.Require().Len(ms, len(models.Stages))
		s.True(ms[0].Completed)
		s.False(ms[1].Completed)

		as, err := s.activities.List(s.ctx, got.ID)
		s.Require().NoError(err)
		s.Require().Len(as, 1)
		s.Equal(models.ActivityTransactionCreated, as[0].Type)
		s.Equal("1850000.50", as[0].Metadata["agreed_price"])
	})

	s.Run("brokers may open one, strangers may not", func() {
		in := CreateTransactionInput{ListingID: s.listing.ID, BuyerID: s.buyer, AgreedPrice: price}

		_, err := s.svc.CreateTransaction(s.ctx, in, id.UserID(uuid.New()), id.RoleBuyer)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		_, err = s.svc.CreateTransaction(s.ctx, in, id.UserID(uuid.New()), id.RoleBroker)
		s.NoError(err)
	})

	s.Run("validates price, listing and buyer", func() {
		_, err := s.svc.CreateTransaction(s.ctx, CreateTransactionInput{
			ListingID: s.listing.ID, BuyerID: s.buyer, AgreedPrice: decimal.Zero,
		}, s.buyer, id.RoleBuyer)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.svc.CreateTransaction(s.ctx, CreateTransactionInput{
			ListingID: id.ListingID(uuid.New()), BuyerID: s.buyer, AgreedPrice: price,
		}, s.buyer, id.RoleBuyer)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.svc.CreateTransaction(s.ctx, CreateTransactionInput{
			ListingID: s.listing.ID, BuyerID: s.seller, AgreedPrice: price,
		}, s.seller, id.RoleSeller)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *DealServiceSuite) TestReads() {
	t := s.seed(models.StageLOISigned)
	_, err := s.svc.CreateDDFromTransaction(s.ctx, t.ID, s.buyer, 30)
	s.Require().NoError(err)
	stranger := id.UserID(uuid.New())

	_, err = s.svc.GetTransaction(s.ctx, t.ID, stranger, id.RoleBuyer)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	_, err = s.svc.ListActivities(s.ctx, t.ID, stranger, id.RoleSeller)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	_, _, err = s.svc.GetDDProject(s.ctx, t.ID, stranger, "")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	as, err := s.svc.ListActivities(s.ctx, t.ID, stranger, id.RoleBroker)
	s.Require().NoError(err)
	s.Len(as, 2)

	p, tasks, err := s.svc.GetDDProject(s.ctx, t.ID, s.seller, id.RoleSeller)
	s.Require().NoError(err)
	s.Equal(t.ID, p.TransactionID)
	s.Len(tasks, models.ChecklistSize())

	ms, err := s.svc.ListMilestones(s.ctx, t.ID, s.seller, id.RoleSeller)
	s.Require().NoError(err)
	s.Len(ms, len(models.Stages))

	ts, err := s.svc.ListTransactions(s.ctx, s.buyer)
	s.Require().NoError(err)
	s.Len(ts, 1)
}
