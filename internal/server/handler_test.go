package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"invitebounty/pkg/config"
	"invitebounty/pkg/health"
	"invitebounty/services/gateway"
	"invitebounty/services/ledger"
	"invitebounty/services/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
	zap.ReplaceGlobals(zap.NewNop())
}

type noopJoinHandler struct{}

func (noopJoinHandler) HandleJoin(ctx context.Context, guildID, memberID string) error { return nil }

type recordingPatcher struct {
	patched map[string]int
	removed []string
}

func (p *recordingPatcher) Patch(ctx context.Context, guildID, code string, uses int) error {
	if p.patched == nil {
		p.patched = map[string]int{}
	}
	p.patched[guildID+"/"+code] = uses
	return nil
}

func (p *recordingPatcher) Remove(ctx context.Context, guildID, code string) error {
	p.removed = append(p.removed, guildID+"/"+code)
	return nil
}

type recordingRefresher struct {
	refreshed []string
}

func (r *recordingRefresher) Refresh(ctx context.Context, guildID string) error {
	r.refreshed = append(r.refreshed, guildID)
	return nil
}

type emptyPending struct{}

func (emptyPending) GuildIDs(ctx context.Context) ([]string, error) { return nil, nil }

type fixture struct {
	router  *gin.Engine
	handler *Handler
	ledger  *ledger.Service
	patcher *recordingPatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t, &ledger.InviteReward{}, &ledger.GuildConfig{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	led := ledger.NewService(ledger.ServiceParams{DB: db, Node: node})

	cfg := &config.Config{}
	cfg.Reward.Amount = "0.00001000"
	cfg.Reward.PassInterval = 10 * time.Minute

	patcher := &recordingPatcher{}
	dispatcher := gateway.NewDispatcher(noopJoinHandler{}, patcher, &recordingRefresher{}, emptyPending{})

	h, err := NewHandler(HandlerParams{Config: cfg, Ledger: led, Dispatcher: dispatcher})
	require.NoError(t, err)

	router := ProvideRouter(cfg, h, health.ProvideHealth(health.Params{}))

	return &fixture{router: router, handler: h, ledger: led, patcher: patcher}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestFormatRemaining(t *testing.T) {
	require.Equal(t, "6:40m", FormatRemaining(400000*time.Millisecond))
	require.Equal(t, "0:59m", FormatRemaining(59*time.Second))
	require.Equal(t, "10:00m", FormatRemaining(10*time.Minute))
	require.Equal(t, "awaiting verification", FormatRemaining(0))
	require.Equal(t, "awaiting verification", FormatRemaining(-50000*time.Millisecond))
}

func TestStatsEndpoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, joined := range []string{"m1", "m2", "m3"} {
		_, err := f.ledger.InsertPending(ctx, &ledger.InviteReward{
			GuildID: "g1", InviteCode: "abc", InviterID: "inviter-1", JoinedID: joined, JoinedAt: now,
		})
		require.NoError(t, err)
	}
	require.NoError(t, f.ledger.MarkPaid(ctx, "m1", "tx-1"))
	require.NoError(t, f.ledger.MarkPaid(ctx, "m2", "tx-2"))

	w := f.do(t, http.MethodGet, "/v1/guilds/g1/inviters/inviter-1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp statsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "g1", resp.GuildID)
	require.Equal(t, int64(2), resp.PaidCount)
	require.Equal(t, "0.00002000", resp.RewardTotal)
	require.Len(t, resp.Invites, 1)
	require.Equal(t, ledger.InviteStat{InviteCode: "abc", Joined: 3, Paid: 2}, resp.Invites[0])
}

func TestHistoryEndpointStatuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.handler.now = func() time.Time { return fixed }

	// Joined 200s ago with a 600s interval: 400s remain.
	_, err := f.ledger.InsertPending(ctx, &ledger.InviteReward{
		GuildID: "g1", InviteCode: "abc", InviterID: "inviter-1",
		JoinedID: "waiting", JoinedAt: fixed.Add(-200 * time.Second),
	})
	require.NoError(t, err)

	// Joined 650s ago: past the interval, verified on the next pass.
	_, err = f.ledger.InsertPending(ctx, &ledger.InviteReward{
		GuildID: "g1", InviteCode: "abc", InviterID: "inviter-1",
		JoinedID: "overdue", JoinedAt: fixed.Add(-650 * time.Second),
	})
	require.NoError(t, err)

	_, err = f.ledger.InsertPending(ctx, &ledger.InviteReward{
		GuildID: "g1", InviteCode: "abc", InviterID: "inviter-1",
		JoinedID: "done", JoinedAt: fixed.Add(-2 * time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, f.ledger.MarkPaid(ctx, "done", "tx-1"))

	w := f.do(t, http.MethodGet, "/v1/guilds/g1/inviters/inviter-1/history", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		History []historyEntry `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.History, 3)

	byID := map[string]string{}
	for _, e := range resp.History {
		byID[e.JoinedID] = e.Status
	}
	require.Equal(t, "paid", byID["done"])
	require.Equal(t, "6:40m", byID["waiting"])
	require.Equal(t, "awaiting verification", byID["overdue"])
}

func TestLogChannelEndpoints(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPut, "/v1/guilds/g1/config/log-channel", `{"channel_id":"chan-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	channel, err := f.ledger.LogChannel(context.Background(), "g1")
	require.NoError(t, err)
	require.Equal(t, "chan-1", channel)

	w = f.do(t, http.MethodPut, "/v1/guilds/g1/config/log-channel", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodDelete, "/v1/guilds/g1/config/log-channel", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	channel, err = f.ledger.LogChannel(context.Background(), "g1")
	require.NoError(t, err)
	require.Empty(t, channel)
}

func TestEventEndpoints(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/v1/events/invite-create", `{"guild_id":"g1","code":"abc","uses":0}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, map[string]int{"g1/abc": 0}, f.patcher.patched)

	w = f.do(t, http.MethodPost, "/v1/events/invite-delete", `{"guild_id":"g1","code":"abc"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, []string{"g1/abc"}, f.patcher.removed)

	w = f.do(t, http.MethodPost, "/v1/events/member-join", `{"guild_id":"g1","member_id":"m1"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = f.do(t, http.MethodPost, "/v1/events/member-join", `{"guild_id":"g1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/v1/events/ready", `{"guild_ids":["g1","g2"]}`)
	require.Equal(t, http.StatusAccepted, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, w.Code)
}
