package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"invitebounty/pkg/config"
)

// RESTAdapter talks to the platform's HTTP API. The realtime event stream is
// owned by the embedding process; this adapter only covers the pull side of
// the contract plus message delivery.
type RESTAdapter struct {
	http    *http.Client
	baseURL string
	token   string
}

func NewRESTAdapter(cfg *config.Config) *RESTAdapter {
	return &RESTAdapter{
		http:    &http.Client{Timeout: cfg.Platform.Timeout},
		baseURL: cfg.Platform.BaseURL,
		token:   cfg.Platform.Token,
	}
}

func (a *RESTAdapter) ListInvites(ctx context.Context, guildID string) ([]Invite, error) {
	var invites []Invite
	err := a.get(ctx, fmt.Sprintf("/guilds/%s/invites", url.PathEscape(guildID)), &invites)
	if err != nil {
		return nil, err
	}
	return invites, nil
}

func (a *RESTAdapter) Guild(ctx context.Context, guildID string) (*Guild, error) {
	var guild Guild
	if err := a.get(ctx, fmt.Sprintf("/guilds/%s", url.PathEscape(guildID)), &guild); err != nil {
		return nil, err
	}
	return &guild, nil
}

func (a *RESTAdapter) Member(ctx context.Context, guildID, userID string) (*Member, error) {
	var member Member
	path := fmt.Sprintf("/guilds/%s/members/%s", url.PathEscape(guildID), url.PathEscape(userID))
	if err := a.get(ctx, path, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

func (a *RESTAdapter) SendMessage(ctx context.Context, channelID, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/channels/%s/messages", url.PathEscape(channelID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	a.authorize(req)

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return a.checkStatus(resp)
}

func (a *RESTAdapter) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return err
	}
	a.authorize(req)

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := a.checkStatus(resp); err != nil {
		return err
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (a *RESTAdapter) authorize(req *http.Request) {
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
}

func (a *RESTAdapter) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("gateway: unexpected status %d", resp.StatusCode)
	}
	return nil
}
