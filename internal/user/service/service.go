package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"dealroom/internal/user/models"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
	emailutil "dealroom/pkg/email"
	"dealroom/pkg/platform/sentinel"
	"dealroom/pkg/requestcontext"
)

type Store interface {
	Upsert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
}

// Service maintains the user directory.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpsertSelf records the caller's display name and email. A blank name is
// derived from the email. The role always comes from the caller's token,
// never from the request body.
func (s *Service) UpsertSelf(ctx context.Context, userID id.UserID, role id.Role, name, email string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	if name == "" {
		name = emailutil.DisplayNameFromEmail(email)
	}

	u := &models.User{
		ID:        userID,
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Upsert(ctx, u); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save user")
	}
	s.logger.InfoContext(ctx, "user profile saved",
		"user_id", userID,
		"role", role,
	)
	return u, nil
}

func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.User, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}

// Resolve returns the directory entry for userID, or a placeholder carrying
// only the id when the user is unknown. Callers use it for display only.
func (s *Service) Resolve(ctx context.Context, userID id.UserID) *models.User {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "user directory lookup failed",
				"user_id", userID,
				"error", err,
			)
		}
		return &models.User{ID: userID}
	}
	return u
}
