package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"dealroom/internal/deal/metrics"
	"dealroom/internal/deal/models"
	listingmodels "dealroom/internal/listing/models"
	notificationmodels "dealroom/internal/notification/models"
	usermodels "dealroom/internal/user/models"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
	"dealroom/pkg/platform/sentinel"
	"dealroom/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Publisher,NotificationSender

const defaultSideEffectTimeout = 10 * time.Second

var tracer = otel.Tracer("dealroom/internal/deal")

// Store persists transactions, their milestones and DD projects.
type Store interface {
	CreateTransaction(ctx context.Context, t *models.Transaction, milestones []*models.Milestone) error
	FindTransaction(ctx context.Context, transactionID id.TransactionID) (*models.Transaction, error)
	ListTransactionsForUser(ctx context.Context, userID id.UserID) ([]*models.Transaction, error)
	UpdateStageIfCurrent(ctx context.Context, transactionID id.TransactionID, expected, next models.Stage, at time.Time) error
	CancelIfActive(ctx context.Context, transactionID id.TransactionID, reason string, at time.Time) error
	ListMilestones(ctx context.Context, transactionID id.TransactionID) ([]*models.Milestone, error)
	CompleteMilestoneIfOpen(ctx context.Context, transactionID id.TransactionID, milestoneID id.MilestoneID, by id.UserID, at time.Time) (*models.Milestone, error)
	CompleteOpenMilestoneByTitle(ctx context.Context, transactionID id.TransactionID, title string, by id.UserID, at time.Time) (*models.Milestone, error)
	CreateDDProject(ctx context.Context, p *models.DDProject, tasks []*models.DDTask) error
	FindDDProject(ctx context.Context, transactionID id.TransactionID) (*models.DDProject, []*models.DDTask, error)
}

// ActivityLog is append-only: entries can be added and read, never changed.
type ActivityLog interface {
	Append(ctx context.Context, a *models.Activity) error
	List(ctx context.Context, transactionID id.TransactionID) ([]*models.Activity, error)
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ListingReader interface {
	FindByID(ctx context.Context, listingID id.ListingID) (*listingmodels.Listing, error)
}

// Directory resolves actors to display names for the activity log.
type Directory interface {
	Resolve(ctx context.Context, userID id.UserID) *usermodels.User
}

// Publisher fans committed activities out to an event stream.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

type NotificationSender interface {
	Send(ctx context.Context, kind notificationmodels.Kind, recipient id.UserID, payload notificationmodels.Payload) error
}

// Service is the deal stage engine.
type Service struct {
	store             Store
	activities        ActivityLog
	tx                TxRunner
	listings          ListingReader
	directory         Directory
	publisher         Publisher
	notifier          NotificationSender
	metrics           *metrics.Metrics
	logger            *slog.Logger
	sideEffectTimeout time.Duration
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

// WithPublisher enables activity fan-out.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithNotifier enables in-app notices to the counterparty on stage changes.
func WithNotifier(n NotificationSender) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithSideEffectTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sideEffectTimeout = d
		}
	}
}

func New(store Store, activities ActivityLog, runner TxRunner, listings ListingReader, directory Directory, opts ...Option) *Service {
	s := &Service{
		store:             store,
		activities:        activities,
		tx:                runner,
		listings:          listings,
		directory:         directory,
		logger:            slog.Default(),
		sideEffectTimeout: defaultSideEffectTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetTransaction returns a transaction to one of its parties or a privileged role.
func (s *Service) GetTransaction(ctx context.Context, transactionID id.TransactionID, actor id.UserID, role id.Role) (*models.Transaction, error) {
	t, err := s.loadTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(t, actor, role); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) ListTransactions(ctx context.Context, userID id.UserID) ([]*models.Transaction, error) {
	ts, err := s.store.ListTransactionsForUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list transactions")
	}
	return ts, nil
}

func (s *Service) ListMilestones(ctx context.Context, transactionID id.TransactionID, actor id.UserID, role id.Role) ([]*models.Milestone, error) {
	if _, err := s.GetTransaction(ctx, transactionID, actor, role); err != nil {
		return nil, err
	}
	ms, err := s.store.ListMilestones(ctx, transactionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list milestones")
	}
	return ms, nil
}

func (s *Service) ListActivities(ctx context.Context, transactionID id.TransactionID, actor id.UserID, role id.Role) ([]*models.Activity, error) {
	if _, err := s.GetTransaction(ctx, transactionID, actor, role); err != nil {
		return nil, err
	}
	as, err := s.activities.List(ctx, transactionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list activities")
	}
	return as, nil
}

func (s *Service) GetDDProject(ctx context.Context, transactionID id.TransactionID, actor id.UserID, role id.Role) (*models.DDProject, []*models.DDTask, error) {
	if _, err := s.GetTransaction(ctx, transactionID, actor, role); err != nil {
		return nil, nil, err
	}
	p, tasks, err := s.store.FindDDProject(ctx, transactionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "dd project not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dd project")
	}
	return p, tasks, nil
}

func (s *Service) loadTransaction(ctx context.Context, transactionID id.TransactionID) (*models.Transaction, error) {
	t, err := s.store.FindTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "transaction not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transaction")
	}
	return t, nil
}

func authorizeRead(t *models.Transaction, actor id.UserID, role id.Role) error {
	if t.IsParty(actor) || role.IsPrivileged() {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "not a party to this transaction")
}

func authorizeParty(t *models.Transaction, actor id.UserID) error {
	if !t.IsParty(actor) {
		return dErrors.New(dErrors.CodeForbidden, "only the buyer or seller may do this")
	}
	return nil
}

// internalUnlessCoded passes coded errors through and wraps the rest.
func internalUnlessCoded(err error, msg string) error {
	if _, ok := dErrors.From(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// afterCommit fans out activities and notifies the counterparty. Neither
// can undo the committed change.
func (s *Service) afterCommit(ctx context.Context, t *models.Transaction, actor id.UserID, written []*models.Activity, notice *notificationmodels.Payload) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sideEffectTimeout)
	defer cancel()

	for _, a := range written {
		s.metrics.IncrementActivity(string(a.Type))
	}
	if s.publisher != nil {
		for _, a := range written {
			payload, err := json.Marshal(a)
			if err == nil {
				err = s.publisher.Publish(ctx, []byte(a.TransactionID.String()), payload)
			}
			if err != nil {
				s.metrics.IncrementPublishFailure()
				s.logger.WarnContext(ctx, "activity fan-out failed",
					"transaction_id", a.TransactionID,
					"activity_id", a.ID,
					"error", err,
				)
			}
		}
	}
	if s.notifier != nil && notice != nil {
		if err := s.notifier.Send(ctx, notificationmodels.KindDeal, t.Counterparty(actor), *notice); err != nil {
			s.logger.WarnContext(ctx, "deal notification failed",
				"transaction_id", t.ID,
				"error", err,
			)
		}
	}
}

func now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx)
}
