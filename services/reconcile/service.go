package reconcile

import (
	"context"
	"errors"

	"invitebounty/pkg/config"
	"invitebounty/pkg/task"
	"invitebounty/services/gateway"
	"invitebounty/services/ledger"
	"invitebounty/services/notify"
	"invitebounty/services/payment"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Service runs one reconciliation pass: verify each pending reward's member
// is still present, pay the inviter, and advance the ledger record.
type Service struct {
	gw        gateway.Gateway
	ledger    *ledger.Service
	payer     payment.Payer
	enq       task.Enqueuer
	amount    string
	batchSize int
}

type ServiceParams struct {
	fx.In
	Config   *config.Config
	Gateway  gateway.Gateway
	Ledger   *ledger.Service
	Payer    payment.Payer
	Enqueuer task.Enqueuer
}

func NewService(p ServiceParams) *Service {
	return &Service{
		gw:        p.Gateway,
		ledger:    p.Ledger,
		payer:     p.Payer,
		enq:       p.Enqueuer,
		amount:    p.Config.Reward.Amount,
		batchSize: p.Config.Reward.BatchSize,
	}
}

// RunPass processes one bounded batch of pending records sequentially. No
// single record's failure aborts the batch; transient failures simply leave
// the record for the next pass.
func (s *Service) RunPass(ctx context.Context) {
	records, err := s.ledger.ListUnpaid(ctx, s.batchSize)
	if err != nil {
		zap.L().Error("failed to load pending rewards", zap.Error(err))
		return
	}
	if len(records) == 0 {
		return
	}

	zap.L().Info("reconciliation pass started", zap.Int("pending", len(records)))

	var paid, forfeited int
	for _, rec := range records {
		if ctx.Err() != nil {
			// Records not reached stay pending and ride the next pass.
			return
		}
		switch s.processRecord(ctx, rec) {
		case outcomePaid:
			paid++
		case outcomeForfeited:
			forfeited++
		}
	}

	zap.L().Info("reconciliation pass finished",
		zap.Int("paid", paid),
		zap.Int("forfeited", forfeited),
		zap.Int("pending", len(records)-paid-forfeited),
	)
}

type outcome int

const (
	outcomePending outcome = iota
	outcomePaid
	outcomeForfeited
)

func (s *Service) processRecord(ctx context.Context, rec *ledger.InviteReward) outcome {
	zapLog := zap.L().With(
		zap.String("guild_id", rec.GuildID),
		zap.String("joined_id", rec.JoinedID),
		zap.String("inviter_id", rec.InviterID),
	)

	if _, err := s.gw.Guild(ctx, rec.GuildID); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return s.forfeit(ctx, rec, "guild unreachable", zapLog)
		}
		zapLog.Warn("guild lookup failed, will retry next pass", zap.Error(err))
		return outcomePending
	}

	if _, err := s.gw.Member(ctx, rec.GuildID, rec.JoinedID); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return s.forfeit(ctx, rec, "member left before verification", zapLog)
		}
		zapLog.Warn("member lookup failed, will retry next pass", zap.Error(err))
		return outcomePending
	}

	res, err := s.payer.Pay(ctx, rec.InviterID)
	if err != nil {
		zapLog.Warn("payment failed, record stays pending", zap.Error(err))
		return outcomePending
	}

	if err := s.ledger.MarkPaid(ctx, rec.JoinedID, res.TxID); err != nil {
		zapLog.Error("failed to mark reward paid", zap.String("tx_id", res.TxID), zap.Error(err))
		return outcomePending
	}

	zapLog.Info("reward paid", zap.String("tx_id", res.TxID))

	if _, err := s.enq.Enqueue(notify.NewPaidTask(notify.PaidPayload{
		GuildID:   rec.GuildID,
		InviterID: rec.InviterID,
		JoinedID:  rec.JoinedID,
		TxID:      res.TxID,
		Amount:    s.amount,
	})); err != nil {
		zapLog.Warn("failed to enqueue paid notification", zap.Error(err))
	}

	return outcomePaid
}

func (s *Service) forfeit(ctx context.Context, rec *ledger.InviteReward, reason string, zapLog *zap.Logger) outcome {
	if err := s.ledger.Forfeit(ctx, rec.JoinedID); err != nil {
		zapLog.Error("failed to forfeit reward", zap.Error(err))
		return outcomePending
	}
	zapLog.Info("reward forfeited", zap.String("reason", reason))
	return outcomeForfeited
}
