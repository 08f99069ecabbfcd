// Package client implements the Go side of the Huddle client-server
// contract: a thin HTTP client for the huddled API, and a polling cache
// that keeps a fresh session snapshot available to the rest of the
// front-end.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Session is the wire shape returned by the huddled API when polling
// session state.
type Session struct {
	SessionID       string   `json:"sessionID"`
	Controller      string   `json:"controller"`
	IPOfVM          string   `json:"ipOfVM"`
	ListOfAttendees []string `json:"listOfAttendees"`
}

// Client issues the network requests for one attendee of one session - the
// same two values the browser pulls from its "session-id" and "name" URL
// parameters.
type Client struct {
	BaseURL    string
	SessionID  string
	ScreenName string

	HTTPClient *http.Client
}

// NewClient returns a Client for the given attendee and session.
func NewClient(baseURL, sessionID, screenName string) *Client {
	return &Client{
		BaseURL:    baseURL,
		SessionID:  sessionID,
		ScreenName: screenName,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetSession fetches the current session state. The server treats this
// request as this attendee's poll and refreshes its last-polled timestamp.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	params := url.Values{}
	params.Set("session-id", c.SessionID)
	params.Set("name", c.ScreenName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/session?%s", c.BaseURL, params.Encode()), nil)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Join registers this attendee in the session. Joining a session you're
// already in refreshes your poll timestamp.
func (c *Client) Join(ctx context.Context) (*Session, error) {
	body, _ := json.Marshal(map[string]string{
		"sessionID":  c.SessionID,
		"screenName": c.ScreenName,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/api/session/join", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var session Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ChangeControllerTo asks the server to hand control of the session to
// another attendee. Only meaningful when this attendee currently holds
// control - the server enforces that authoritatively, callers should gate
// on it for UX only.
func (c *Client) ChangeControllerTo(ctx context.Context, newController string) (*Session, error) {
	body, _ := json.Marshal(map[string]string{
		"sessionID":     c.SessionID,
		"screenName":    c.ScreenName,
		"newController": newController,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/api/session/controller", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var session Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) do(req *http.Request, v interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
