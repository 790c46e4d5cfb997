package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"dealroom/internal/deal/models"
	notificationmodels "dealroom/internal/notification/models"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
	"dealroom/pkg/platform/sentinel"
)

const (
	DefaultTargetCompleteDays = 30
	MaxTargetCompleteDays     = 365
)

// DDResult is the outcome of CreateDDFromTransaction. Advanced reports whether
// this call moved the transaction into due diligence.
type DDResult struct {
	Project  *models.DDProject
	Tasks    []*models.DDTask
	Advanced bool
}

// CreateDDFromTransaction opens the due diligence project of a transaction.
//
// A second call returns the existing project with CodeAlreadyExists. The
// project and its checklist are committed first; when the transaction is still
// at LOI_SIGNED it then moves to DD_IN_PROGRESS, completing the matching
// milestone and logging both changes. A failure in that second step leaves the
// project in place and is returned to the caller.
func (s *Service) CreateDDFromTransaction(ctx context.Context, transactionID id.TransactionID, actor id.UserID, targetCompleteDays int) (*DDResult, error) {
	ctx, span := tracer.Start(ctx, "deal.CreateDDFromTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction_id", transactionID.String()))

	result, err := s.createDD(ctx, transactionID, actor, targetCompleteDays)
	switch {
	case err == nil:
		s.metrics.IncrementDDProject("created")
	case dErrors.HasCode(err, dErrors.CodeAlreadyExists):
		s.metrics.IncrementDDProject("existing")
	default:
		s.metrics.IncrementDDProject("failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "create dd project failed")
	}
	return result, err
}

func (s *Service) createDD(ctx context.Context, transactionID id.TransactionID, actor id.UserID, targetDays int) (*DDResult, error) {
	if targetDays == 0 {
		targetDays = DefaultTargetCompleteDays
	}
	if targetDays < 1 || targetDays > MaxTargetCompleteDays {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("target_complete_days must be between 1 and %d", MaxTargetCompleteDays))
	}

	t, err := s.loadTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeParty(t, actor); err != nil {
		return nil, err
	}
	if existing, err := s.existingDD(ctx, transactionID); existing != nil || err != nil {
		return existing, err
	}
	if t.IsCancelled() {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "transaction is cancelled")
	}

	at := now(ctx)
	project := &models.DDProject{
		ID:                 id.DDProjectID(uuid.New()),
		TransactionID:      t.ID,
		Name:               "Due diligence",
		TargetCompleteDate: at.UTC().AddDate(0, 0, targetDays),
		CreatedBy:          actor,
		CreatedAt:          at,
	}
	tasks := models.NewDDTasks(project.ID, at, targetDays, func() id.DDTaskID { return id.DDTaskID(uuid.New()) })

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.store.CreateDDProject(ctx, project, tasks)
	})
	if errors.Is(err, sentinel.ErrAlreadyExists) {
		// Lost the race to a concurrent call.
		return s.existingDD(ctx, transactionID)
	}
	if err != nil {
		return nil, internalUnlessCoded(err, "failed to create dd project")
	}

	s.logger.InfoContext(ctx, "dd project created",
		"transaction_id", t.ID,
		"project_id", project.ID,
		"tasks", len(tasks),
	)
	result := &DDResult{Project: project, Tasks: tasks}
	if t.Stage != models.StageLOISigned {
		return result, nil
	}

	rec := s.newRecorder(t, s.resolveActor(ctx, t, actor, ""), at)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.advance(ctx, rec, models.StageLOISigned, models.StageDDInProgress)
	})
	switch {
	case errors.Is(err, sentinel.ErrStaleState):
		// The stage moved on concurrently; it is left as is.
		return result, nil
	case err != nil:
		return result, internalUnlessCoded(err, "dd project created but stage advance failed")
	}

	result.Advanced = true
	s.metrics.IncrementStageTransition(string(models.StageDDInProgress), "dd_project")
	s.afterCommit(ctx, t, actor, rec.written, &notificationmodels.Payload{
		Title: "Due diligence started",
		Body:  "A due diligence project was opened with " + strconv.Itoa(len(tasks)) + " tasks.",
		Link:  "/transactions/" + t.ID.String() + "/dd-project",
	})
	return result, nil
}

// existingDD returns the current project with CodeAlreadyExists, or nil, nil
// when the transaction has none.
func (s *Service) existingDD(ctx context.Context, transactionID id.TransactionID) (*DDResult, error) {
	p, tasks, err := s.store.FindDDProject(ctx, transactionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dd project")
	}
	return &DDResult{Project: p, Tasks: tasks},
		dErrors.New(dErrors.CodeAlreadyExists, "dd project already exists for this transaction")
}

// advance moves the transaction from one stage to the next, completes the open
// milestone named for the new stage and records both. It returns
// sentinel.ErrStaleState when the transaction is no longer at from.
func (s *Service) advance(ctx context.Context, rec *recorder, from, to models.Stage) error {
	t := rec.tx
	if err := s.store.UpdateStageIfCurrent(ctx, t.ID, from, to, rec.at); err != nil {
		return err
	}

	m, err := s.store.CompleteOpenMilestoneByTitle(ctx, t.ID, to.MilestoneTitle(), rec.actor.id, rec.at)
	switch {
	case err == nil:
		err = rec.append(ctx, models.ActivityMilestoneCompleted,
			"Milestone completed: "+m.Title,
			rec.actor.name+" completed \""+m.Title+"\"",
			map[string]string{"milestone_id": m.ID.String(), "stage": string(to)},
		)
		if err != nil {
			return err
		}
	case !errors.Is(err, sentinel.ErrNotFound):
		return err
	}

	if err := rec.append(ctx, models.ActivityStageChanged,
		"Stage changed to "+string(to),
		rec.actor.name+" moved the deal from "+string(from)+" to "+string(to),
		map[string]string{"from": string(from), "to": string(to)},
	); err != nil {
		return err
	}

	t.Stage = to
	t.UpdatedAt = rec.at
	return nil
}
