package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Dashboard reads are deliberately thin proxies: the backend computes wallet
// balances, referral trees and signal statistics; the gateway forwards the
// payload unchanged.

func (c *Client) proxyGet(ctx context.Context, op, path, token string) (Raw, error) {
	status, body, err := c.getAuthed(ctx, op, path, token)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		p := parsePayload(body)
		msg := p.message()
		if !looksUserSafe(msg) {
			msg = statusFallback(status)
		}
		return nil, &ServerError{StatusCode: status, Message: msg}
	}
	if !json.Valid(body) {
		return nil, &ServerError{StatusCode: status, Message: MsgUnexpectedResponse}
	}
	return Raw(body), nil
}

// Wallet fetches the caller's wallet summary.
func (c *Client) Wallet(ctx context.Context, token string) (Raw, error) {
	return c.proxyGet(ctx, "wallet", "/api/v1/wallet", token)
}

// Team fetches the caller's referral team tree.
func (c *Client) Team(ctx context.Context, token string) (Raw, error) {
	return c.proxyGet(ctx, "team", "/api/v1/team", token)
}

// Signals fetches trading-signal history. window is an opaque backend range
// selector such as "7d" or "30d"; empty means the backend default.
func (c *Client) Signals(ctx context.Context, token, window string) (Raw, error) {
	path := "/api/v1/signals"
	if window != "" {
		path = fmt.Sprintf("%s?window=%s", path, url.QueryEscape(window))
	}
	return c.proxyGet(ctx, "signals", path, token)
}

type assistantRequest struct {
	Message string `json:"message"`
}

// AssistantMessage relays one chat message to the backend assistant and
// returns the reply text.
func (c *Client) AssistantMessage(ctx context.Context, token, text string) (string, error) {
	status, body, err := c.do(ctx, "assistant", http.MethodPost, "/api/v1/assistant/message", token, assistantRequest{Message: text})
	if err != nil {
		return "", err
	}
	p := parsePayload(body)
	if status < 200 || status >= 300 {
		msg := p.message()
		if !looksUserSafe(msg) {
			msg = statusFallback(status)
		}
		return "", &ServerError{StatusCode: status, Message: msg}
	}
	reply := p.str("reply", "response")
	if reply == "" {
		return "", &ServerError{StatusCode: status, Message: MsgUnexpectedResponse}
	}
	return reply, nil
}
