package attribution

import (
	"context"
	"encoding/json"
	"time"

	"invitebounty/pkg/task"
	"invitebounty/services/gateway"
	"invitebounty/services/ledger"
	"invitebounty/services/notify"
	"invitebounty/services/snapshot"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Service decides which invite caused a join by diffing the live invite list
// against the last snapshot, then records the join as a pending reward.
type Service struct {
	gw     gateway.Gateway
	store  snapshot.Store
	ledger *ledger.Service
	enq    task.Enqueuer
}

type ServiceParams struct {
	fx.In
	Gateway  gateway.Gateway
	Store    snapshot.Store
	Ledger   *ledger.Service
	Enqueuer task.Enqueuer
}

func NewService(p ServiceParams) *Service {
	return &Service{
		gw:     p.Gateway,
		store:  p.Store,
		ledger: p.Ledger,
		enq:    p.Enqueuer,
	}
}

type attributionMeta struct {
	PriorUses    int `json:"prior_uses"`
	ObservedUses int `json:"observed_uses"`
}

// HandleJoin runs the attribution algorithm for one join notification.
//
// The live invite list is authoritative at this instant; the first invite in
// platform order whose use count exceeds the snapshot is declared used. Under
// concurrent joins through different invites this first-match pick can be
// wrong; that ambiguity is inherent in the source signal and not guessed
// around here.
func (s *Service) HandleJoin(ctx context.Context, guildID, memberID string) error {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("guild_id", guildID),
		zap.String("joined_id", memberID),
	)

	invites, err := s.gw.ListInvites(ctx, guildID)
	if err != nil {
		zapLog.Error("failed to fetch live invites", zap.Error(err))
		return err
	}

	oldUses, err := s.store.Snapshot(ctx, guildID)
	if err != nil {
		zapLog.Warn("failed to read invite snapshot, assuming empty", zap.Error(err))
		oldUses = map[string]int{}
	}

	newUses := make(map[string]int, len(invites))
	var used *gateway.Invite
	for i := range invites {
		inv := invites[i]
		newUses[inv.Code] = inv.Uses
		if used == nil && inv.Uses > oldUses[inv.Code] {
			used = &invites[i]
		}
	}

	if err := s.store.Replace(ctx, guildID, newUses); err != nil {
		zapLog.Warn("failed to replace invite snapshot", zap.Error(err))
	}

	if used == nil {
		zapLog.Warn("attribution miss: no invite shows increased use")
		return nil
	}

	meta, _ := json.Marshal(attributionMeta{
		PriorUses:    oldUses[used.Code],
		ObservedUses: used.Uses,
	})

	inserted, err := s.ledger.InsertPending(ctx, &ledger.InviteReward{
		GuildID:    guildID,
		InviteCode: used.Code,
		InviterID:  used.InviterID,
		JoinedID:   memberID,
		JoinedAt:   time.Now().UTC(),
		Metadata:   meta,
	})
	if err != nil {
		return err
	}
	if !inserted {
		zapLog.Info("duplicate join notification, reward already tracked")
		return nil
	}

	zapLog.Info("join attributed",
		zap.String("invite_code", used.Code),
		zap.String("inviter_id", used.InviterID),
	)

	// Best-effort: a failed notification never rolls back the ledger insert.
	if _, err := s.enq.Enqueue(notify.NewJoinTask(notify.JoinPayload{
		GuildID:    guildID,
		InviteCode: used.Code,
		InviterID:  used.InviterID,
		JoinedID:   memberID,
	})); err != nil {
		zapLog.Warn("failed to enqueue join notification", zap.Error(err))
	}

	return nil
}
