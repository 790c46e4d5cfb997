package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dealroom/internal/deal/models"
	id "dealroom/pkg/domain"
)

type actorInfo struct {
	id   id.UserID
	name string
	role string
}

// resolveActor snapshots who is acting. Parties are labelled by their side of
// the deal; anyone else by their platform role.
func (s *Service) resolveActor(ctx context.Context, t *models.Transaction, actor id.UserID, role id.Role) actorInfo {
	info := actorInfo{id: actor, role: t.PartyRole(actor)}
	u := s.directory.Resolve(ctx, actor)
	info.name = u.DisplayName()
	if info.role == "" {
		info.role = string(role)
	}
	if info.role == "" {
		info.role = string(u.Role)
	}
	return info
}

// recorder appends activities within a unit of work and keeps them for
// fan-out once it commits.
type recorder struct {
	log     ActivityLog
	tx      *models.Transaction
	actor   actorInfo
	at      time.Time
	written []*models.Activity
}

func (s *Service) newRecorder(t *models.Transaction, actor actorInfo, at time.Time) *recorder {
	return &recorder{log: s.activities, tx: t, actor: actor, at: at}
}

func (r *recorder) append(ctx context.Context, typ models.ActivityType, title, description string, metadata map[string]string) error {
	if metadata == nil {
		metadata = map[string]string{}
	}
	a := &models.Activity{
		ID:            id.ActivityID(uuid.New()),
		TransactionID: r.tx.ID,
		Type:          typ,
		Title:         title,
		Description:   description,
		ActorID:       r.actor.id,
		ActorName:     r.actor.name,
		ActorRole:     r.actor.role,
		Metadata:      metadata,
		CreatedAt:     r.at,
	}
	if err := r.log.Append(ctx, a); err != nil {
		return err
	}
	r.written = append(r.written, a)
	return nil
}
