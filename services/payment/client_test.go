package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"invitebounty/pkg/config"
	"invitebounty/pkg/errutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()

	cfg := &config.Config{}
	cfg.Reward.Amount = "0.00001000"
	cfg.Reward.CardCode = "card-123"
	cfg.Reward.PaymentURL = url
	cfg.Reward.PaymentTimeout = 15 * time.Second

	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client
}

func TestPaySuccess(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "txId": "tx-99"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	res, err := client.Pay(context.Background(), "inviter-1")
	require.NoError(t, err)
	require.Equal(t, "tx-99", res.TxID)

	require.Equal(t, "card-123", got.CardCode)
	require.Equal(t, "inviter-1", got.ToID)
	require.Equal(t, "0.00001000", got.Amount)
}

func TestPayDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.Pay(context.Background(), "inviter-1")
	require.Error(t, err)
	require.Equal(t, errutil.StatusInternal, err.(errutil.BaseError).Code)
}

func TestPayServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.Pay(context.Background(), "inviter-1")
	require.Error(t, err)
	require.Equal(t, errutil.StatusUnavailable, err.(errutil.BaseError).Code)
}

func TestPayUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.Pay(context.Background(), "inviter-1")
	require.Error(t, err)
	require.Equal(t, errutil.StatusUnavailable, err.(errutil.BaseError).Code)
}

func TestPayAmbiguousBodyCountsAsPaid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	res, err := client.Pay(context.Background(), "inviter-1")
	require.NoError(t, err)
	require.Empty(t, res.TxID)
}

func TestPayMissingSuccessFlagCountsAsPaid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"txId": "tx-7"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	res, err := client.Pay(context.Background(), "inviter-1")
	require.NoError(t, err)
	require.Empty(t, res.TxID)
}

func TestNewClientRejectsBadAmount(t *testing.T) {
	cfg := &config.Config{}
	cfg.Reward.Amount = "not-a-number"

	_, err := NewClient(cfg)
	require.Error(t, err)
}
