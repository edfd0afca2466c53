package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"invitebounty/pkg/config"
	"invitebounty/pkg/errutil"

	"github.com/shopspring/decimal"
)

// Result carries the transaction identifier returned by the payment
// collaborator. TxID is empty when the gateway confirmed nothing beyond a
// 2xx status.
type Result struct {
	TxID string
}

// Payer transfers the fixed reward from the configured source account to an
// inviter.
type Payer interface {
	Pay(ctx context.Context, toID string) (*Result, error)
}

type request struct {
	CardCode string `json:"cardCode"`
	ToID     string `json:"toId"`
	Amount   string `json:"amount"`
}

type response struct {
	Success *bool  `json:"success"`
	TxID    string `json:"txId"`
}

type Client struct {
	http     *http.Client
	url      string
	cardCode string
	amount   decimal.Decimal
}

func NewClient(cfg *config.Config) (*Client, error) {
	amount, err := cfg.RewardAmount()
	if err != nil {
		return nil, fmt.Errorf("payment: invalid reward amount: %w", err)
	}

	return &Client{
		http:     &http.Client{Timeout: cfg.Reward.PaymentTimeout},
		url:      cfg.Reward.PaymentURL,
		cardCode: cfg.Reward.CardCode,
		amount:   amount,
	}, nil
}

// Amount returns the fixed per-reward amount.
func (c *Client) Amount() decimal.Decimal {
	return c.amount
}

// Pay posts one transfer. A transport error or non-2xx status is a failure
// and the caller leaves the record pending. A 2xx response whose body cannot
// be decoded, or that omits the success flag, is treated as success with an
// unknown transaction id: the bias is to never risk paying twice.
func (c *Client) Pay(ctx context.Context, toID string) (*Result, error) {
	body, err := json.Marshal(request{
		CardCode: c.cardCode,
		ToID:     toID,
		Amount:   c.amount.StringFixed(8),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errutil.Unavailable("payment gateway unreachable", errutil.WithErr(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errutil.Unavailable(fmt.Sprintf("payment gateway returned status %d", resp.StatusCode))
	}

	var pr response
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil || pr.Success == nil {
		return &Result{}, nil
	}
	if !*pr.Success {
		return nil, errutil.Internal("payment declined")
	}

	return &Result{TxID: pr.TxID}, nil
}
