package gcal

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Config holds the OAuth client credentials used to mint per-user calendar
// services.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (c Config) oauth() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       []string{calendar.CalendarEventsScope},
		Endpoint:     google.Endpoint,
	}
}

// AuthCodeURL returns the consent URL the client should send the user to.
func (c Config) AuthCodeURL(state string) string {
	return c.oauth().AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token to store per user.
func (c Config) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.oauth().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("gcal: code exchange failed: %w", err)
	}
	return tok, nil
}

// Client inserts events into one user's primary calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
}

// NewClient builds a calendar client from a stored user token. Expired access
// tokens are refreshed transparently by the oauth2 transport.
func NewClient(ctx context.Context, cfg Config, token *oauth2.Token) (*Client, error) {
	if token == nil {
		return nil, errors.New("gcal: no token")
	}
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(cfg.oauth().Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("gcal: build service: %w", err)
	}
	return &Client{svc: svc, calendarID: "primary"}, nil
}

// Insert creates one event. Google API errors are reduced to their code and
// message so they are safe to echo to the caller.
func (c *Client) Insert(ctx context.Context, event *calendar.Event) (*calendar.Event, error) {
	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return nil, fmt.Errorf("gcal: insert failed (%d): %s", gerr.Code, gerr.Message)
		}
		return nil, fmt.Errorf("gcal: insert failed: %w", err)
	}
	return created, nil
}
