package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"invitebounty/pkg/config"
)

func newTestAdapter(url string) *RESTAdapter {
	cfg := &config.Config{}
	cfg.Platform.BaseURL = url
	cfg.Platform.Token = "secret-token"
	cfg.Platform.Timeout = 5 * time.Second
	return NewRESTAdapter(cfg)
}

func TestListInvitesPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/guilds/g1/invites", r.URL.Path)
		require.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode([]Invite{
			{Code: "bbb", Uses: 2, InviterID: "inviter-b"},
			{Code: "aaa", Uses: 5, InviterID: "inviter-a"},
		})
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv.URL)

	invites, err := adapter.ListInvites(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, invites, 2)
	require.Equal(t, "bbb", invites[0].Code)
	require.Equal(t, "aaa", invites[1].Code)
}

func TestMemberNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv.URL)

	_, err := adapter.Member(context.Background(), "g1", "member-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestForbiddenGuildTreatedAsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv.URL)

	_, err := adapter.Guild(context.Background(), "g1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUnexpectedStatusIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv.URL)

	_, err := adapter.Guild(context.Background(), "g1")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestSendMessagePostsContent(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/channels/chan-1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv.URL)

	require.NoError(t, adapter.SendMessage(context.Background(), "chan-1", "hello"))
	require.Equal(t, "hello", got["content"])
}
