package notify

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskJoinAttributed = "notify:join"
	TaskRewardPaid     = "notify:paid"
)

type JoinPayload struct {
	GuildID    string `json:"guild_id"`
	InviteCode string `json:"invite_code"`
	InviterID  string `json:"inviter_id"`
	JoinedID   string `json:"joined_id"`
}

type PaidPayload struct {
	GuildID   string `json:"guild_id"`
	InviterID string `json:"inviter_id"`
	JoinedID  string `json:"joined_id"`
	TxID      string `json:"tx_id"`
	Amount    string `json:"amount"`
}

// Notifications are best-effort: a couple of retries, then drop.
func NewJoinTask(p JoinPayload) *asynq.Task {
	payload, _ := json.Marshal(p)
	return asynq.NewTask(TaskJoinAttributed, payload,
		asynq.MaxRetry(2),
		asynq.Timeout(30*time.Second),
		asynq.Queue("low"))
}

func NewPaidTask(p PaidPayload) *asynq.Task {
	payload, _ := json.Marshal(p)
	return asynq.NewTask(TaskRewardPaid, payload,
		asynq.MaxRetry(2),
		asynq.Timeout(30*time.Second),
		asynq.Queue("low"))
}
