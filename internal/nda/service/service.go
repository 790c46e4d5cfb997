package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	listingmodels "dealroom/internal/listing/models"
	messagingmodels "dealroom/internal/messaging/models"
	"dealroom/internal/nda/metrics"
	"dealroom/internal/nda/models"
	notificationmodels "dealroom/internal/notification/models"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
	"dealroom/pkg/platform/sentinel"
	"dealroom/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks MessageSeeder,NotificationSender

const (
	defaultSideEffectTimeout = 10 * time.Second
	maxMessageLength         = 2000
)

var tracer = otel.Tracer("dealroom/internal/nda")

type Store interface {
	Create(ctx context.Context, req *models.Request) error
	FindByID(ctx context.Context, requestID id.NDARequestID) (*models.Request, error)
	FindActive(ctx context.Context, listingID id.ListingID, buyerID id.UserID) (*models.Request, error)
	UpdateIfStatus(ctx context.Context, req *models.Request, expected models.Status) error
	DeleteIfStatusIn(ctx context.Context, requestID id.NDARequestID, buyerID id.UserID, statuses []models.Status) error
	ListByBuyer(ctx context.Context, buyerID id.UserID) ([]*models.Request, error)
	ListBySeller(ctx context.Context, sellerID id.UserID) ([]*models.Request, error)
	HasVisibility(ctx context.Context, listingID id.ListingID, buyerID id.UserID) (bool, error)
}

type ListingReader interface {
	FindByID(ctx context.Context, listingID id.ListingID) (*listingmodels.Listing, error)
}

// MessageSeeder opens the seller→buyer conversation once access is granted.
type MessageSeeder interface {
	Seed(ctx context.Context, listingID id.ListingID, senderID, recipientID id.UserID, body string) (*messagingmodels.Message, error)
}

type NotificationSender interface {
	Send(ctx context.Context, kind notificationmodels.Kind, recipient id.UserID, payload notificationmodels.Payload) error
}

// Service runs the NDA request lifecycle. State changes commit first; the
// message seed and notifications that follow are best-effort and never undo
// a committed transition.
type Service struct {
	store             Store
	listings          ListingReader
	messages          MessageSeeder
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

func WithSideEffectTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sideEffectTimeout = d
		}
	}
}

func New(store Store, listings ListingReader, messages MessageSeeder, notifier NotificationSender, opts ...Option) *Service {
	s := &Service{
		store:             store,
		listings:          listings,
		messages:          messages,
		notifier:          notifier,
		logger:            slog.Default(),
		sideEffectTimeout: defaultSideEffectTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a pending request from buyerID for listingID. When the buyer
// already holds an active request, that request is returned together with an
// AlreadyExists error.
func (s *Service) Create(ctx context.Context, listingID id.ListingID, buyerID id.UserID, message string) (*models.Request, error) {
	message = strings.TrimSpace(message)
	if len(message) > maxMessageLength {
		return nil, dErrors.New(dErrors.CodeValidation, "message is too long")
	}

	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "listing not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load listing")
	}
	if listing.OwnerID == buyerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot request an nda for your own listing")
	}
	if !listing.IsActive() {
		return nil, dErrors.New(dErrors.CodeConflict, "listing is not accepting nda requests")
	}

	existing, err := s.store.FindActive(ctx, listingID, buyerID)
	switch {
	case err == nil:
		return existing, dErrors.New(dErrors.CodeAlreadyExists, "an nda request for this listing is already open")
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing nda requests")
	}

	req := &models.Request{
		ID:        id.NDARequestID(uuid.New()),
		ListingID: listingID,
		BuyerID:   buyerID,
		SellerID:  listing.OwnerID,
		Status:    models.StatusPending,
		Message:   message,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, req); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			// Lost a race with a concurrent request from the same buyer.
			winner, findErr := s.store.FindActive(ctx, listingID, buyerID)
			if findErr != nil {
				s.logger.WarnContext(ctx, "failed to load the concurrent nda request",
					"listing_id", listingID,
					"buyer_id", buyerID,
					"error", findErr,
				)
				winner = nil
			}
			return winner, dErrors.New(dErrors.CodeAlreadyExists, "an nda request for this listing is already open")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create nda request")
	}

	s.metrics.IncrementCreated()
	s.logger.InfoContext(ctx, "nda request created",
		"nda_request_id", req.ID,
		"listing_id", listingID,
		"buyer_id", buyerID,
	)

	s.runSideEffects(ctx, func(ctx context.Context) {
		s.notify(ctx, req, req.SellerID, notificationmodels.Payload{
			Title: "New NDA request",
			Body:  fmt.Sprintf("A buyer has asked to see the confidential details of %q.", listing.Title),
			Link:  "/nda-requests/" + req.ID.String(),
		})
	})
	return req, nil
}

// Transition moves a request to target on behalf of actor. Authority is
// checked first, then the store applies the change only if the request is
// still in the state that was authorized.
func (s *Service) Transition(ctx context.Context, requestID id.NDARequestID, target models.Status, actor id.UserID, rejectionReason string) (*models.Request, error) {
	ctx, span := tracer.Start(ctx, "nda.Transition", trace.WithAttributes(
		attribute.String("nda.request_id", requestID.String()),
		attribute.String("nda.target", string(target)),
	))
	defer span.End()

	updated, err := s.transition(ctx, requestID, target, actor, rejectionReason)
	s.metrics.IncrementTransition(string(target), outcomeOf(err))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}

	s.logger.InfoContext(ctx, "nda request transitioned",
		"nda_request_id", updated.ID,
		"status", updated.Status,
		"actor_id", actor,
	)
	s.runSideEffects(ctx, s.afterTransition(updated))
	return updated, nil
}

func (s *Service) transition(ctx context.Context, requestID id.NDARequestID, target models.Status, actor id.UserID, rejectionReason string) (*models.Request, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := req.CanTransition(target, actor); err != nil {
		return nil, err
	}

	if target != models.StatusRejected {
		rejectionReason = ""
	}
	updated := req.ApplyTransition(target, requestcontext.Now(ctx), strings.TrimSpace(rejectionReason))
	if err := s.store.UpdateIfStatus(ctx, updated, req.Status); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrStaleState):
			return nil, dErrors.New(dErrors.CodeInvalidTransition, "nda request is no longer "+string(req.Status))
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "nda request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update nda request")
	}
	return updated, nil
}

// Withdraw deletes a pending or approved request on the buyer's behalf.
func (s *Service) Withdraw(ctx context.Context, requestID id.NDARequestID, actor id.UserID) error {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return err
	}
	if err := req.CanWithdraw(actor); err != nil {
		return err
	}
	if err := s.store.DeleteIfStatusIn(ctx, requestID, actor, models.WithdrawableStatuses); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrStaleState):
			return dErrors.New(dErrors.CodeInvalidTransition, "nda request can no longer be withdrawn")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "nda request not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to withdraw nda request")
	}
	s.logger.InfoContext(ctx, "nda request withdrawn",
		"nda_request_id", requestID,
		"buyer_id", actor,
	)
	return nil
}

// Get returns a request to one of its parties or a privileged role.
func (s *Service) Get(ctx context.Context, requestID id.NDARequestID, actor id.UserID, role id.Role) (*models.Request, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if _, ok := req.PartyOf(actor); !ok && !role.IsPrivileged() {
		return nil, dErrors.New(dErrors.CodeForbidden, "not a party to this nda request")
	}
	return req, nil
}

func (s *Service) ListForBuyer(ctx context.Context, buyerID id.UserID) ([]*models.Request, error) {
	reqs, err := s.store.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list nda requests")
	}
	return reqs, nil
}

func (s *Service) ListForSeller(ctx context.Context, sellerID id.UserID) ([]*models.Request, error) {
	reqs, err := s.store.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list nda requests")
	}
	return reqs, nil
}

// HasVisibility reports whether viewerID holds an approved or signed request
// for listingID. It reads the store on every call.
func (s *Service) HasVisibility(ctx context.Context, listingID id.ListingID, viewerID id.UserID) (bool, error) {
	if viewerID.IsNil() {
		return false, nil
	}
	ok, err := s.store.HasVisibility(ctx, listingID, viewerID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeDependencyFailure, "failed to read nda status")
	}
	return ok, nil
}

func (s *Service) load(ctx context.Context, requestID id.NDARequestID) (*models.Request, error) {
	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "nda request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load nda request")
	}
	return req, nil
}

func (s *Service) afterTransition(req *models.Request) func(ctx context.Context) {
	return func(ctx context.Context) {
		title := s.listingTitle(ctx, req.ListingID)
		link := "/listings/" + req.ListingID.String()

		switch req.Status {
		case models.StatusApproved:
			body := fmt.Sprintf("Thanks for your interest in %q. Your NDA request is approved; ask me anything here.", title)
			if _, err := s.messages.Seed(ctx, req.ListingID, req.SellerID, req.BuyerID, body); err != nil {
				s.sideEffectFailed(ctx, req, "message", err)
			}
			s.notify(ctx, req, req.BuyerID, notificationmodels.Payload{
				Title: "NDA request approved",
				Body:  fmt.Sprintf("You can now see the confidential details of %q.", title),
				Link:  link,
				Email: true,
			})
		case models.StatusRejected:
			body := fmt.Sprintf("Your NDA request for %q was declined.", title)
			if req.RejectionReason != "" {
				body += " Reason: " + req.RejectionReason
			}
			s.notify(ctx, req, req.BuyerID, notificationmodels.Payload{
				Title: "NDA request declined",
				Body:  body,
				Link:  link,
				Email: true,
			})
		case models.StatusSigned:
			s.notify(ctx, req, req.SellerID, notificationmodels.Payload{
				Title: "NDA signed",
				Body:  fmt.Sprintf("The buyer has signed the NDA for %q.", title),
				Link:  "/nda-requests/" + req.ID.String(),
			})
		}
	}
}

// runSideEffects runs fn after commit on a context that survives the
// caller's cancellation but is bounded by the side effect timeout.
func (s *Service) runSideEffects(ctx context.Context, fn func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sideEffectTimeout)
	defer cancel()
	fn(ctx)
}

func (s *Service) notify(ctx context.Context, req *models.Request, recipient id.UserID, payload notificationmodels.Payload) {
	if err := s.notifier.Send(ctx, notificationmodels.KindNDA, recipient, payload); err != nil {
		s.sideEffectFailed(ctx, req, "notification", err)
	}
}

func (s *Service) sideEffectFailed(ctx context.Context, req *models.Request, effect string, err error) {
	s.metrics.IncrementSideEffectFailure(effect)
	s.logger.WarnContext(ctx, "nda side effect failed",
		"effect", effect,
		"nda_request_id", req.ID,
		"status", req.Status,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

func (s *Service) listingTitle(ctx context.Context, listingID id.ListingID) string {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil || listing.Title == "" {
		return "your listing"
	}
	return listing.Title
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeForbidden:
		return "forbidden"
	case dErrors.CodeInvalidTransition:
		return "invalid"
	case dErrors.CodeNotFound:
		return "not_found"
	}
	return "error"
}
