package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealroom/internal/user/store"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
	"dealroom/pkg/requestcontext"
)

func TestUpsertSelf(t *testing.T) {
	svc := New(store.NewInMemory())
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	userID := id.UserID(uuid.New())

	t.Run("saves and reads back", func(t *testing.T) {
		u, err := svc.UpsertSelf(ctx, userID, id.RoleBuyer, " Anna Berg ", "anna@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Anna Berg", u.Name)

		got, err := svc.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, id.RoleBuyer, got.Role)
		assert.Equal(t, now, got.CreatedAt)
	})

	t.Run("rejects an invalid email", func(t *testing.T) {
		_, err := svc.UpsertSelf(ctx, userID, id.RoleBuyer, "Anna", "not-an-email")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("blank name is derived from the email", func(t *testing.T) {
		u, err := svc.UpsertSelf(ctx, id.UserID(uuid.New()), id.RoleSeller, "  ", "erik.lund@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Erik Lund", u.Name)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Get(ctx, id.UserID(uuid.New()))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

		u := svc.Resolve(ctx, userID)
		assert.Equal(t, "Anna Berg", u.DisplayName())
		stranger := id.UserID(uuid.New())
		assert.Equal(t, stranger, svc.Resolve(ctx, stranger).ID)
	})
}
