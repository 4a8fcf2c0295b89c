package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/irsalhamdi/coinspace/store"
)

const (
	DefaultURL = "http://localhost:3001"

	subscriptionsKey = "newsletter_subscriptions"
)

// emailShape is the quick check done before calling the API. The server
// applies the full rules.
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var ErrInvalidEmail = errors.New(MsgInvalidEmail)

// APIError is a rejection reported by the newsletter API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("newsletter api: %d %s", e.Status, e.Message)
}

// LocalSubscription is the client-side record of a signup.
type LocalSubscription struct {
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
	Status       string    `json:"status"`
}

type Client struct {
	baseURL string
	client  *http.Client
	store   store.Store
}

// NewClient talks to the API at baseURL. When s is not nil successful signups
// are remembered there.
func NewClient(baseURL string, hc *http.Client, s store.Store) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), client: hc, store: s}
}

func (c *Client) Subscribe(ctx context.Context, email, name string) (Subscription, error) {
	if !emailShape.MatchString(email) {
		return Subscription{}, ErrInvalidEmail
	}

	body, err := json.Marshal(SubscriptionNew{Email: email, Name: name})
	if err != nil {
		return Subscription{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/newsletter/subscribe", bytes.NewReader(body))
	if err != nil {
		return Subscription{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Subscription{}, fmt.Errorf("calling newsletter api: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Success bool         `json:"success"`
		Message string       `json:"message"`
		Data    Subscription `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Subscription{}, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		return Subscription{}, &APIError{Status: resp.StatusCode, Message: out.Message}
	}

	if c.store != nil {
		subs := store.GetJSON(ctx, c.store, subscriptionsKey, []LocalSubscription{})
		subs = append(subs, LocalSubscription{Email: out.Data.Email, SubscribedAt: out.Data.SubscribedAt, Status: "confirmed"})
		_ = store.SetJSON(ctx, c.store, subscriptionsKey, subs)
	}

	return out.Data, nil
}

// Subscriptions lists the signups remembered locally.
func (c *Client) Subscriptions(ctx context.Context) []LocalSubscription {
	if c.store == nil {
		return nil
	}
	return store.GetJSON(ctx, c.store, subscriptionsKey, []LocalSubscription{})
}
