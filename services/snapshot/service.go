package snapshot

import (
	"context"

	"invitebounty/services/gateway"

	"go.uber.org/zap"
)

// Service refreshes a guild's snapshot from the live invite list.
type Service struct {
	gw    gateway.Gateway
	store Store
}

func NewService(gw gateway.Gateway, store Store) *Service {
	return &Service{gw: gw, store: store}
}

func (s *Service) Refresh(ctx context.Context, guildID string) error {
	invites, err := s.gw.ListInvites(ctx, guildID)
	if err != nil {
		return err
	}

	uses := make(map[string]int, len(invites))
	for _, inv := range invites {
		uses[inv.Code] = inv.Uses
	}

	if err := s.store.Replace(ctx, guildID, uses); err != nil {
		return err
	}

	zap.L().Debug("invite snapshot refreshed",
		zap.String("guild_id", guildID),
		zap.Int("invites", len(uses)),
	)
	return nil
}
