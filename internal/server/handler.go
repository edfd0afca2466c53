package server

import (
	"fmt"
	"net/http"
	"time"

	"invitebounty/pkg/config"
	"invitebounty/pkg/errutil"
	"invitebounty/services/gateway"
	"invitebounty/services/ledger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Handler serves the read-mostly command surface over the ledger plus the
// event webhooks the platform adapter pushes gateway notifications to.
type Handler struct {
	ledger     *ledger.Service
	dispatcher *gateway.Dispatcher
	amount     decimal.Decimal
	interval   time.Duration
	now        func() time.Time
}

type HandlerParams struct {
	fx.In
	Config     *config.Config
	Ledger     *ledger.Service
	Dispatcher *gateway.Dispatcher
}

func NewHandler(p HandlerParams) (*Handler, error) {
	amount, err := p.Config.RewardAmount()
	if err != nil {
		return nil, err
	}

	return &Handler{
		ledger:     p.Ledger,
		dispatcher: p.Dispatcher,
		amount:     amount,
		interval:   p.Config.Reward.PassInterval,
		now:        time.Now,
	}, nil
}

type statsResponse struct {
	GuildID     string              `json:"guild_id"`
	InviterID   string              `json:"inviter_id"`
	Invites     []ledger.InviteStat `json:"invites"`
	PaidCount   int64               `json:"paid_count"`
	RewardTotal string              `json:"reward_total"`
}

func (h *Handler) Stats(c *gin.Context) {
	guildID := c.Param("guild_id")
	inviterID := c.Param("inviter_id")

	stats, err := h.ledger.StatsByInviter(c.Request.Context(), guildID, inviterID)
	if err != nil {
		h.abort(c, err)
		return
	}

	paid, err := h.ledger.CountPaidByInviter(c.Request.Context(), guildID, inviterID)
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, statsResponse{
		GuildID:     guildID,
		InviterID:   inviterID,
		Invites:     stats,
		PaidCount:   paid,
		RewardTotal: ledger.TotalReward(h.amount, paid),
	})
}

type historyEntry struct {
	JoinedID   string    `json:"joined_id"`
	InviteCode string    `json:"invite_code"`
	JoinedAt   time.Time `json:"joined_at"`
	Status     string    `json:"status"`
}

func (h *Handler) History(c *gin.Context) {
	guildID := c.Param("guild_id")
	inviterID := c.Param("inviter_id")

	records, err := h.ledger.HistoryByInviter(c.Request.Context(), guildID, inviterID)
	if err != nil {
		h.abort(c, err)
		return
	}

	entries := make([]historyEntry, 0, len(records))
	for _, rec := range records {
		status := "paid"
		if !rec.Paid {
			status = FormatRemaining(h.interval - h.now().Sub(rec.JoinedAt))
		}
		entries = append(entries, historyEntry{
			JoinedID:   rec.JoinedID,
			InviteCode: rec.InviteCode,
			JoinedAt:   rec.JoinedAt,
			Status:     status,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"guild_id":   guildID,
		"inviter_id": inviterID,
		"history":    entries,
	})
}

// FormatRemaining renders the time left until the next pass can verify a
// join, e.g. "6:40m". Joins older than the interval report "awaiting
// verification" because they will be handled on the very next pass.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "awaiting verification"
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02dm", secs/60, secs%60)
}

type logChannelRequest struct {
	ChannelID string `json:"channel_id" binding:"required"`
}

func (h *Handler) SetLogChannel(c *gin.Context) {
	var req logChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abort(c, errutil.BadRequest("channel_id is required", errutil.WithErr(err)))
		return
	}

	if err := h.ledger.SetLogChannel(c.Request.Context(), c.Param("guild_id"), req.ChannelID); err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"guild_id": c.Param("guild_id"), "log_channel_id": req.ChannelID})
}

func (h *Handler) ClearLogChannel(c *gin.Context) {
	if err := h.ledger.ClearLogChannel(c.Request.Context(), c.Param("guild_id")); err != nil {
		h.abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type readyEvent struct {
	GuildIDs []string `json:"guild_ids"`
}

func (h *Handler) Ready(c *gin.Context) {
	var ev readyEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		h.abort(c, errutil.BadRequest("invalid ready event", errutil.WithErr(err)))
		return
	}

	if err := h.dispatcher.HandleReady(c.Request.Context(), ev.GuildIDs); err != nil {
		h.abort(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}

type memberJoinEvent struct {
	GuildID  string `json:"guild_id" binding:"required"`
	MemberID string `json:"member_id" binding:"required"`
}

func (h *Handler) MemberJoin(c *gin.Context) {
	var ev memberJoinEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		h.abort(c, errutil.BadRequest("invalid join event", errutil.WithErr(err)))
		return
	}

	if err := h.dispatcher.HandleMemberJoin(c.Request.Context(), ev.GuildID, ev.MemberID); err != nil {
		h.abort(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}

type inviteCreateEvent struct {
	GuildID string `json:"guild_id" binding:"required"`
	Code    string `json:"code" binding:"required"`
	Uses    int    `json:"uses"`
}

func (h *Handler) InviteCreate(c *gin.Context) {
	var ev inviteCreateEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		h.abort(c, errutil.BadRequest("invalid invite-create event", errutil.WithErr(err)))
		return
	}

	if err := h.dispatcher.HandleInviteCreate(c.Request.Context(), ev.GuildID, ev.Code, ev.Uses); err != nil {
		h.abort(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}

type inviteDeleteEvent struct {
	GuildID string `json:"guild_id" binding:"required"`
	Code    string `json:"code" binding:"required"`
}

func (h *Handler) InviteDelete(c *gin.Context) {
	var ev inviteDeleteEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		h.abort(c, errutil.BadRequest("invalid invite-delete event", errutil.WithErr(err)))
		return
	}

	if err := h.dispatcher.HandleInviteDelete(c.Request.Context(), ev.GuildID, ev.Code); err != nil {
		h.abort(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}

func (h *Handler) abort(c *gin.Context, err error) {
	zap.L().Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)

	var be errutil.BaseError
	if e, ok := err.(errutil.BaseError); ok {
		be = e
	} else {
		be = errutil.BaseError{Code: errutil.StatusInternal, Message: "internal error"}
	}
	c.AbortWithStatusJSON(errutil.HTTPStatus(be), be.JSON())
}
