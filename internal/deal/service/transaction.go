package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"dealroom/internal/deal/models"
	notificationmodels "dealroom/internal/notification/models"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
	"dealroom/pkg/platform/sentinel"
)

// CreateTransactionInput describes an accepted letter of intent.
type CreateTransactionInput struct {
	ListingID   id.ListingID
	BuyerID     id.UserID
	LOIID       *id.LOIID
	AgreedPrice decimal.Decimal
}

// CreateTransaction opens a transaction at LOI_SIGNED between the listing's
// owner and the buyer. The buyer, the seller or a privileged role may do it.
// No signed NDA is required.
func (s *Service) CreateTransaction(ctx context.Context, in CreateTransactionInput, actor id.UserID, role id.Role) (*models.Transaction, error) {
	ctx, span := tracer.Start(ctx, "deal.CreateTransaction")
	defer span.End()

	if !in.AgreedPrice.IsPositive() {
		return nil, dErrors.New(dErrors.CodeValidation, "agreed_price must be positive")
	}
	listing, err := s.listings.FindByID(ctx, in.ListingID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "listing not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load listing")
	}
	if listing.OwnerID == in.BuyerID {
		return nil, dErrors.New(dErrors.CodeValidation, "buyer cannot be the listing owner")
	}

	at := now(ctx)
	t := &models.Transaction{
		ID:          id.TransactionID(uuid.New()),
		ListingID:   listing.ID,
		BuyerID:     in.BuyerID,
		SellerID:    listing.OwnerID,
		LOIID:       in.LOIID,
		Stage:       models.StageLOISigned,
		AgreedPrice: in.AgreedPrice,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	if !t.IsParty(actor) && !role.IsPrivileged() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the buyer, the seller or a broker may open a transaction")
	}
	span.SetAttributes(attribute.String("transaction_id", t.ID.String()))

	milestones := models.NewMilestones(t.ID, actor, at, func() id.MilestoneID { return id.MilestoneID(uuid.New()) })
	rec := s.newRecorder(t, s.resolveActor(ctx, t, actor, role), at)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateTransaction(ctx, t, milestones); err != nil {
			return err
		}
		return rec.append(ctx, models.ActivityTransactionCreated,
			"Transaction created",
			rec.actor.name+" opened the transaction at "+t.AgreedPrice.StringFixed(2),
			map[string]string{"listing_id": t.ListingID.String(), "agreed_price": t.AgreedPrice.StringFixed(2)},
		)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create transaction failed")
		return nil, internalUnlessCoded(err, "failed to create transaction")
	}

	s.logger.InfoContext(ctx, "transaction created",
		"transaction_id", t.ID,
		"listing_id", t.ListingID,
	)
	s.afterCommit(ctx, t, actor, rec.written, &notificationmodels.Payload{
		Title: "Transaction opened",
		Body:  "A transaction was opened for " + listing.Title + ".",
		Link:  "/transactions/" + t.ID.String(),
	})
	return t, nil
}

// AdvanceStage moves the transaction one step forward. target must be the
// immediate successor of the current stage.
func (s *Service) AdvanceStage(ctx context.Context, transactionID id.TransactionID, target models.Stage, actor id.UserID) (*models.Transaction, error) {
	ctx, span := tracer.Start(ctx, "deal.AdvanceStage")
	defer span.End()
	span.SetAttributes(
		attribute.String("transaction_id", transactionID.String()),
		attribute.String("target", string(target)),
	)

	if target.Index() < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown stage: "+string(target))
	}
	t, err := s.loadTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeParty(t, actor); err != nil {
		return nil, err
	}
	if t.IsCancelled() {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "transaction is cancelled")
	}
	next, ok := t.Stage.Next()
	if !ok || target != next {
		return nil, dErrors.New(dErrors.CodeInvalidTransition,
			"cannot move from "+string(t.Stage)+" to "+string(target))
	}

	from := t.Stage
	rec := s.newRecorder(t, s.resolveActor(ctx, t, actor, ""), now(ctx))
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.advance(ctx, rec, from, target)
	})
	if errors.Is(err, sentinel.ErrStaleState) {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "transaction stage changed concurrently")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "advance stage failed")
		return nil, internalUnlessCoded(err, "failed to advance stage")
	}

	s.metrics.IncrementStageTransition(string(target), "advance")
	s.logger.InfoContext(ctx, "transaction stage advanced",
		"transaction_id", t.ID,
		"from", from,
		"to", target,
	)
	s.afterCommit(ctx, t, actor, rec.written, &notificationmodels.Payload{
		Title: "Deal moved to " + string(target),
		Link:  "/transactions/" + t.ID.String(),
	})
	return t, nil
}

// CorrectStage sets any other ordered stage, including an earlier one. Only
// admins may do it and a reason is recorded.
func (s *Service) CorrectStage(ctx context.Context, transactionID id.TransactionID, target models.Stage, reason string, actor id.UserID, role id.Role) (*models.Transaction, error) {
	ctx, span := tracer.Start(ctx, "deal.CorrectStage")
	defer span.End()

	if role != id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only admins may correct a stage")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if target.Index() < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown stage: "+string(target))
	}
	t, err := s.loadTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if t.IsCancelled() {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "transaction is cancelled")
	}
	if t.Stage == target {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "transaction is already at "+string(target))
	}

	from := t.Stage
	at := now(ctx)
	rec := s.newRecorder(t, s.resolveActor(ctx, t, actor, role), at)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateStageIfCurrent(ctx, t.ID, from, target, at); err != nil {
			return err
		}
		return rec.append(ctx, models.ActivityStageCorrected,
			"Stage corrected to "+string(target),
			reason,
			map[string]string{"from": string(from), "to": string(target), "reason": reason},
		)
	})
	if errors.Is(err, sentinel.ErrStaleState) {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "transaction stage changed concurrently")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "correct stage failed")
		return nil, internalUnlessCoded(err, "failed to correct stage")
	}
	t.Stage = target
	t.UpdatedAt = at

	s.metrics.IncrementStageTransition(string(target), "correction")
	s.logger.WarnContext(ctx, "transaction stage corrected",
		"transaction_id", t.ID,
		"from", from,
		"to", target,
		"actor_id", actor,
	)
	s.afterCommit(ctx, t, actor, rec.written, nil)
	return t, nil
}

// Cancel soft-cancels an active transaction. Parties and admins may cancel.
func (s *Service) Cancel(ctx context.Context, transactionID id.TransactionID, reason string, actor id.UserID, role id.Role) (*models.Transaction, error) {
	ctx, span := tracer.Start(ctx, "deal.Cancel")
	defer span.End()

	t, err := s.loadTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !t.IsParty(actor) && role != id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the buyer, the seller or an admin may cancel")
	}
	if t.IsCancelled() {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "transaction is already cancelled")
	}
	if t.Stage == models.StageCompleted {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "completed transactions cannot be cancelled")
	}

	reason = strings.TrimSpace(reason)
	at := now(ctx)
	rec := s.newRecorder(t, s.resolveActor(ctx, t, actor, role), at)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.CancelIfActive(ctx, t.ID, reason, at); err != nil {
			return err
		}
		return rec.append(ctx, models.ActivityTransactionCancelled,
			"Transaction cancelled",
			reason,
			map[string]string{"stage": string(t.Stage), "reason": reason},
		)
	})
	if errors.Is(err, sentinel.ErrStaleState) {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "transaction is already cancelled")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancel failed")
		return nil, internalUnlessCoded(err, "failed to cancel transaction")
	}
	t.CancelledAt = &at
	t.CancelReason = reason
	t.UpdatedAt = at

	s.metrics.IncrementStageTransition(string(models.StageCancelled), "cancel")
	s.logger.InfoContext(ctx, "transaction cancelled", "transaction_id", t.ID)
	s.afterCommit(ctx, t, actor, rec.written, &notificationmodels.Payload{
		Title: "Deal cancelled",
		Body:  reason,
		Link:  "/transactions/" + t.ID.String(),
	})
	return t, nil
}

// CompleteMilestone marks one open milestone done. Completing it twice is an
// invalid transition.
func (s *Service) CompleteMilestone(ctx context.Context, transactionID id.TransactionID, milestoneID id.MilestoneID, actor id.UserID) (*models.Milestone, error) {
	t, err := s.loadTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeParty(t, actor); err != nil {
		return nil, err
	}
	if t.IsCancelled() {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "transaction is cancelled")
	}

	var m *models.Milestone
	rec := s.newRecorder(t, s.resolveActor(ctx, t, actor, ""), now(ctx))
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		m, err = s.store.CompleteMilestoneIfOpen(ctx, t.ID, milestoneID, actor, rec.at)
		if err != nil {
			return err
		}
		return rec.append(ctx, models.ActivityMilestoneCompleted,
			"Milestone completed: "+m.Title,
			rec.actor.name+" completed \""+m.Title+"\"",
			map[string]string{"milestone_id": m.ID.String(), "stage": string(m.Stage)},
		)
	})
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.New(dErrors.CodeNotFound, "milestone not found")
	case errors.Is(err, sentinel.ErrStaleState):
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "milestone is already completed")
	case err != nil:
		return nil, internalUnlessCoded(err, "failed to complete milestone")
	}

	s.afterCommit(ctx, t, actor, rec.written, nil)
	return m, nil
}
