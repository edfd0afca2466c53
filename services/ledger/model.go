package ledger

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InviteReward is one pending-or-paid reward per (guild, joined member).
// joined_id is unique system-wide so a member is rewarded-for at most once
// even across reconnects. A row only ever moves pending -> paid, or is
// deleted outright when the reward is forfeited.
type InviteReward struct {
	ID         snowflake.ID   `gorm:"column:id;primaryKey"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at"`
	GuildID    string         `gorm:"column:guild_id;index;not null"`
	InviteCode string         `gorm:"column:invite_code;index"`
	InviterID  string         `gorm:"column:inviter_id;index;not null"`
	JoinedID   string         `gorm:"column:joined_id;uniqueIndex;not null"`
	JoinedAt   time.Time      `gorm:"column:joined_at;not null"`
	Paid       bool           `gorm:"column:paid;not null;default:false;index"`
	PaidAt     *time.Time     `gorm:"column:paid_at"`
	PaymentTx  *string        `gorm:"column:payment_tx"`
	Metadata   datatypes.JSON `gorm:"column:metadata"`
}

func (InviteReward) TableName() string {
	return "invite_rewards"
}

// GuildConfig holds the per-guild log destination. Written by the command
// surface, read-only to the core.
type GuildConfig struct {
	GuildID      string    `gorm:"column:guild_id;primaryKey"`
	LogChannelID *string   `gorm:"column:log_channel_id"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (GuildConfig) TableName() string {
	return "guild_configs"
}

// InviteStat aggregates joined and paid counts for one invite code.
type InviteStat struct {
	InviteCode string `json:"invite_code" gorm:"column:invite_code"`
	Joined     int64  `json:"joined" gorm:"column:joined"`
	Paid       int64  `json:"paid" gorm:"column:paid"`
}

// TotalReward computes paid * amount truncated (not rounded) to 8 decimals.
func TotalReward(amount decimal.Decimal, paidCount int64) string {
	return amount.Mul(decimal.NewFromInt(paidCount)).Truncate(8).StringFixed(8)
}
