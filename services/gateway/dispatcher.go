package gateway

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// JoinHandler attributes a join notification to an invite.
type JoinHandler interface {
	HandleJoin(ctx context.Context, guildID, memberID string) error
}

// SnapshotPatcher applies incremental invite create/delete notifications.
type SnapshotPatcher interface {
	Patch(ctx context.Context, guildID, code string, uses int) error
	Remove(ctx context.Context, guildID, code string) error
}

// Refresher rebuilds the invite snapshot for one guild from live state.
type Refresher interface {
	Refresh(ctx context.Context, guildID string) error
}

// PendingGuilds lists guilds that still hold unpaid reward records.
type PendingGuilds interface {
	GuildIDs(ctx context.Context) ([]string, error)
}

// Dispatcher receives gateway events from the platform adapter and routes
// them into the core. Events are expected at-least-once per guild; duplicate
// joins are absorbed by the idempotent ledger insert.
type Dispatcher struct {
	joins     JoinHandler
	snapshots SnapshotPatcher
	refresher Refresher
	pending   PendingGuilds
}

func NewDispatcher(joins JoinHandler, snapshots SnapshotPatcher, refresher Refresher, pending PendingGuilds) *Dispatcher {
	return &Dispatcher{
		joins:     joins,
		snapshots: snapshots,
		refresher: refresher,
		pending:   pending,
	}
}

// HandleReady seeds snapshots for every guild the platform reports plus any
// guild that still has pending rewards from a previous run.
func (d *Dispatcher) HandleReady(ctx context.Context, guildIDs []string) error {
	seen := make(map[string]struct{}, len(guildIDs))
	all := make([]string, 0, len(guildIDs))
	for _, id := range guildIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		all = append(all, id)
	}

	if d.pending != nil {
		ids, err := d.pending.GuildIDs(ctx)
		if err != nil {
			zap.L().Warn("failed to list guilds with pending rewards", zap.Error(err))
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			all = append(all, id)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range all {
		guildID := id
		g.Go(func() error {
			if err := d.refresher.Refresh(ctx, guildID); err != nil {
				// A missed snapshot only loses one attribution window.
				zap.L().Warn("failed to refresh invite snapshot", zap.String("guild_id", guildID), zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

func (d *Dispatcher) HandleMemberJoin(ctx context.Context, guildID, memberID string) error {
	return d.joins.HandleJoin(ctx, guildID, memberID)
}

func (d *Dispatcher) HandleInviteCreate(ctx context.Context, guildID, code string, uses int) error {
	return d.snapshots.Patch(ctx, guildID, code, uses)
}

func (d *Dispatcher) HandleInviteDelete(ctx context.Context, guildID, code string) error {
	return d.snapshots.Remove(ctx, guildID, code)
}
