package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"invitebounty/services/gateway"
	"invitebounty/services/ledger"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// LogChannels resolves the per-guild log destination.
type LogChannels interface {
	LogChannel(ctx context.Context, guildID string) (string, error)
}

type Handler struct {
	gw       gateway.Gateway
	channels LogChannels
}

func NewHandler(gw gateway.Gateway, ledger *ledger.Service) *Handler {
	return &Handler{gw: gw, channels: ledger}
}

func (h *Handler) HandleJoinAttributed(ctx context.Context, t *asynq.Task) error {
	var p JoinPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	msg := fmt.Sprintf("<@%s> joined via invite `%s` from <@%s>; reward pending verification.",
		p.JoinedID, p.InviteCode, p.InviterID)
	return h.send(ctx, p.GuildID, msg)
}

func (h *Handler) HandleRewardPaid(ctx context.Context, t *asynq.Task) error {
	var p PaidPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	msg := fmt.Sprintf("paid %s to <@%s> for inviting <@%s>", p.Amount, p.InviterID, p.JoinedID)
	if p.TxID != "" {
		msg += fmt.Sprintf(" (tx %s)", p.TxID)
	}
	return h.send(ctx, p.GuildID, msg)
}

func (h *Handler) send(ctx context.Context, guildID, msg string) error {
	channelID, err := h.channels.LogChannel(ctx, guildID)
	if err != nil {
		return err
	}
	if channelID == "" {
		return nil
	}

	if err := h.gw.SendMessage(ctx, channelID, msg); err != nil {
		zap.L().Warn("failed to deliver log notification",
			zap.String("guild_id", guildID),
			zap.String("channel_id", channelID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func RegisterHandlers(mux *asynq.ServeMux, h *Handler) {
	mux.HandleFunc(TaskJoinAttributed, h.HandleJoinAttributed)
	mux.HandleFunc(TaskRewardPaid, h.HandleRewardPaid)
}
