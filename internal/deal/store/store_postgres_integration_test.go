//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealroom/internal/deal/models"
	"dealroom/internal/deal/store"
	listingmodels "dealroom/internal/listing/models"
	listingstore "dealroom/internal/listing/store"
	id "dealroom/pkg/domain"
	"dealroom/pkg/platform/sentinel"
	"dealroom/pkg/platform/tx"
	"dealroom/pkg/testutil/containers"
)

func seedTransaction(t *testing.T, ctx context.Context, s *store.PostgresStore, listingID id.ListingID, seller id.UserID) *models.Transaction {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	loi := id.LOIID(uuid.New())
	txn := &models.Transaction{
		ID:          id.TransactionID(uuid.New()),
		ListingID:   listingID,
		BuyerID:     id.UserID(uuid.New()),
		SellerID:    seller,
		LOIID:       &loi,
		Stage:       models.StageLOISigned,
		AgreedPrice: decimal.RequireFromString("1250000.75"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ms := models.NewMilestones(txn.ID, txn.BuyerID, now, func() id.MilestoneID { return id.MilestoneID(uuid.New()) })
	require.NoError(t, s.CreateTransaction(ctx, txn, ms))
	return txn
}

func TestPostgresDealStore(t *testing.T) {
	pg := containers.GetManager().GetPostgres(t)
	ctx := context.Background()
	require.NoError(t, pg.TruncateTables(ctx, "dd_tasks", "dd_projects", "activities", "milestones", "transactions", "listings"))

	seller := id.UserID(uuid.New())
	listing := &listingmodels.Listing{
		ID:        id.ListingID(uuid.New()),
		OwnerID:   seller,
		Title:     "Bakery",
		Status:    listingmodels.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, listingstore.NewPostgres(pg.DB).Create(ctx, listing))
	s := store.NewPostgres(pg.DB)

	t.Run("round trips transactions", func(t *testing.T) {
		txn := seedTransaction(t, ctx, s, listing.ID, seller)

		got, err := s.FindTransaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StageLOISigned, got.Stage)
		assert.True(t, txn.AgreedPrice.Equal(got.AgreedPrice))
		require.NotNil(t, got.LOIID)
		assert.Equal(t, *txn.LOIID, *got.LOIID)

		ms, err := s.ListMilestones(ctx, txn.ID)
		require.NoError(t, err)
		require.Len(t, ms, len(models.Stages))
		assert.True(t, ms[0].Completed)
	})

	t.Run("only one concurrent stage update wins", func(t *testing.T) {
		txn := seedTransaction(t, ctx, s, listing.ID, seller)
		var (
			wg        sync.WaitGroup
			successes atomic.Int32
		)
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.UpdateStageIfCurrent(ctx, txn.ID, models.StageLOISigned, models.StageDDInProgress, time.Now().UTC())
				if err == nil {
					successes.Add(1)
					return
				}
				assert.ErrorIs(t, err, sentinel.ErrStaleState)
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), successes.Load())

		err := s.UpdateStageIfCurrent(ctx, id.TransactionID(uuid.New()), models.StageLOISigned, models.StageDDInProgress, time.Now().UTC())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("dd project insert is unique per transaction", func(t *testing.T) {
		txn := seedTransaction(t, ctx, s, listing.ID, seller)
		runner := tx.NewRunner(pg.DB)
		var (
			wg      sync.WaitGroup
			created atomic.Int32
		)
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				now := time.Now().UTC()
				p := &models.DDProject{
					ID:                 id.DDProjectID(uuid.New()),
					TransactionID:      txn.ID,
					Name:               "Due diligence",
					TargetCompleteDate: now.AddDate(0, 0, 30),
					CreatedBy:          txn.BuyerID,
					CreatedAt:          now,
				}
				tasks := models.NewDDTasks(p.ID, now, 30, func() id.DDTaskID { return id.DDTaskID(uuid.New()) })
				err := runner.RunInTx(ctx, func(ctx context.Context) error {
					return s.CreateDDProject(ctx, p, tasks)
				})
				if err == nil {
					created.Add(1)
					return
				}
				assert.ErrorIs(t, err, sentinel.ErrAlreadyExists)
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), created.Load())

		_, tasks, err := s.FindDDProject(ctx, txn.ID)
		require.NoError(t, err)
		assert.Len(t, tasks, models.ChecklistSize())
	})

	t.Run("activity log lists in append order", func(t *testing.T) {
		txn := seedTransaction(t, ctx, s, listing.ID, seller)
		log := store.NewPostgresActivityLog(pg.DB)
		now := time.Now().UTC()
		types := []models.ActivityType{models.ActivityMilestoneCompleted, models.ActivityStageChanged}
		for _, typ := range types {
			require.NoError(t, log.Append(ctx, &models.Activity{
				ID:            id.ActivityID(uuid.New()),
				TransactionID: txn.ID,
				Type:          typ,
				Title:         string(typ),
				ActorID:       txn.BuyerID,
				ActorName:     "Anna Berg",
				ActorRole:     "buyer",
				Metadata:      map[string]string{"to": string(models.StageDDInProgress)},
				CreatedAt:     now,
			}))
		}

		got, err := log.List(ctx, txn.ID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, types[0], got[0].Type)
		assert.Equal(t, types[1], got[1].Type)
		assert.Equal(t, "Anna Berg", got[1].ActorName)
		assert.Equal(t, string(models.StageDDInProgress), got[1].Metadata["to"])

		_, err = pg.DB.ExecContext(ctx, `UPDATE activities SET title = 'edited' WHERE transaction_id = $1`, uuid.UUID(txn.ID))
		assert.ErrorContains(t, err, "append-only")
		_, err = pg.DB.ExecContext(ctx, `DELETE FROM activities WHERE transaction_id = $1`, uuid.UUID(txn.ID))
		assert.ErrorContains(t, err, "append-only")

		got, err = log.List(ctx, txn.ID)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}
