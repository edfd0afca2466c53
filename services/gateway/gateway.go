package gateway

import (
	"context"
	"errors"
)

// ErrNotFound reports that a guild, member or channel is no longer reachable
// on the chat platform. Callers treat it as permanent absence; every other
// error is transient.
var ErrNotFound = errors.New("gateway: not found")

// Invite is a shareable code with a cumulative use counter, owned by the
// inviting account. Order of invites as returned by the platform matters to
// attribution and must be preserved.
type Invite struct {
	Code      string `json:"code"`
	Uses      int    `json:"uses"`
	InviterID string `json:"inviter_id"`
}

type Guild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Gateway is the chat-platform collaborator consumed by the core.
type Gateway interface {
	ListInvites(ctx context.Context, guildID string) ([]Invite, error)
	Guild(ctx context.Context, guildID string) (*Guild, error)
	Member(ctx context.Context, guildID, userID string) (*Member, error)
	SendMessage(ctx context.Context, channelID, content string) error
}
