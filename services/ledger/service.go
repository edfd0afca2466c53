package ledger

import (
	"context"
	"time"

	"invitebounty/pkg/db/option"
	"invitebounty/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node

	rewards repository.Repository[InviteReward]
	configs repository.Repository[GuildConfig]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,

		rewards: repository.ProvideStore[InviteReward](p.DB),
		configs: repository.ProvideStore[GuildConfig](p.DB),
	}
}

// Migrate creates the ledger tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&InviteReward{}, &GuildConfig{})
}

// InsertPending records a freshly attributed join. The insert is idempotent
// on joined_id: a duplicate notification is a no-op and returns false.
func (s *Service) InsertPending(ctx context.Context, rec *InviteReward) (bool, error) {
	span := trace.SpanFromContext(ctx)
	traceID := span.SpanContext().TraceID().String()

	if rec.ID == 0 {
		rec.ID = s.node.Generate()
	}
	if rec.JoinedAt.IsZero() {
		rec.JoinedAt = time.Now().UTC()
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "joined_id"}},
			DoNothing: true,
		}).
		Create(rec)
	if res.Error != nil {
		zap.L().Error("failed to insert pending reward",
			zap.String("trace_id", traceID),
			zap.String("guild_id", rec.GuildID),
			zap.String("joined_id", rec.JoinedID),
			zap.Error(res.Error),
		)
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

// MarkPaid advances a pending record to paid. The transition is
// one-directional: an already-paid or absent record yields
// gorm.ErrRecordNotFound and nothing is written.
func (s *Service) MarkPaid(ctx context.Context, joinedID, txID string) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"paid":       true,
		"paid_at":    now,
		"updated_at": now,
	}
	if txID != "" {
		updates["payment_tx"] = txID
	}

	res := s.db.WithContext(ctx).
		Model(&InviteReward{}).
		Where("joined_id = ? AND paid = ?", joinedID, false).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Forfeit deletes a record whose member or guild became unreachable before
// payment. Terminal; a later rejoin produces a brand new record.
func (s *Service) Forfeit(ctx context.Context, joinedID string) error {
	return s.db.WithContext(ctx).
		Where("joined_id = ?", joinedID).
		Delete(&InviteReward{}).Error
}

// ListUnpaid returns up to limit pending records, oldest join first.
func (s *Service) ListUnpaid(ctx context.Context, limit int) ([]*InviteReward, error) {
	var records []*InviteReward
	tx := s.db.WithContext(ctx).
		Where("paid = ?", false).
		Order("joined_at ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ByJoinedID returns the record for a joined member, or nil when absent.
func (s *Service) ByJoinedID(ctx context.Context, joinedID string) (*InviteReward, error) {
	return s.rewards.FindOne(ctx, &InviteReward{JoinedID: joinedID})
}

// StatsByInviter aggregates joined/paid counts per invite code.
func (s *Service) StatsByInviter(ctx context.Context, guildID, inviterID string) ([]InviteStat, error) {
	var stats []InviteStat
	err := s.db.WithContext(ctx).
		Model(&InviteReward{}).
		Select("invite_code, COUNT(*) AS joined, SUM(CASE WHEN paid THEN 1 ELSE 0 END) AS paid").
		Where("guild_id = ? AND inviter_id = ?", guildID, inviterID).
		Group("invite_code").
		Order("invite_code ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// HistoryByInviter returns an inviter's joins ordered by join time.
func (s *Service) HistoryByInviter(ctx context.Context, guildID, inviterID string) ([]*InviteReward, error) {
	return s.rewards.Find(ctx,
		&InviteReward{GuildID: guildID, InviterID: inviterID},
		option.WithSortBy(option.QuerySortBy{Field: "joined_at", OrderBy: "ASC"}),
	)
}

func (s *Service) CountPaidByInviter(ctx context.Context, guildID, inviterID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&InviteReward{}).
		Where("guild_id = ? AND inviter_id = ? AND paid = ?", guildID, inviterID, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GuildIDs lists distinct guilds that still hold pending records or carry a
// guild config, used to seed snapshot refreshes after a reconnect.
func (s *Service) GuildIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&InviteReward{}).
		Where("paid = ?", false).
		Distinct().
		Pluck("guild_id", &ids).Error
	if err != nil {
		return nil, err
	}

	var configured []string
	if err := s.db.WithContext(ctx).
		Model(&GuildConfig{}).
		Pluck("guild_id", &configured).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	for _, id := range configured {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// SetLogChannel upserts the per-guild log destination.
func (s *Service) SetLogChannel(ctx context.Context, guildID, channelID string) error {
	cfg := &GuildConfig{GuildID: guildID, LogChannelID: &channelID}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guild_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"log_channel_id", "updated_at"}),
		}).
		Create(cfg).Error
}

func (s *Service) ClearLogChannel(ctx context.Context, guildID string) error {
	return s.db.WithContext(ctx).
		Model(&GuildConfig{}).
		Where("guild_id = ?", guildID).
		Update("log_channel_id", nil).Error
}

// LogChannel returns the configured log channel id, or "" when unset.
func (s *Service) LogChannel(ctx context.Context, guildID string) (string, error) {
	cfg, err := s.configs.FindOne(ctx, &GuildConfig{GuildID: guildID})
	if err != nil {
		return "", err
	}
	if cfg == nil || cfg.LogChannelID == nil {
		return "", nil
	}
	return *cfg.LogChannelID, nil
}
