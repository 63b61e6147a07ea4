package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/vecinomarket/publicar-flow/internal/models"
)

// Client talks to the marketplace verification backend. The backend is an
// opaque collaborator: verifying a code makes it set a browser-held
// credential as a side effect, which the cookie jar carries on later calls
// without the application ever reading it.
type Client struct {
	baseURL string
	http    *http.Client
}

// CodeRequest is the success body of POST /api/otp/request.
type CodeRequest struct {
	OTPSessionID    string `json:"otpSessionId"`
	PhoneE164       string `json:"phoneE164"`
	CooldownSeconds int    `json:"cooldownSeconds"`
}

// NewClient creates a client for the backend at baseURL with a fresh cookie
// jar (the credential lives and dies with this client).
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
	}, nil
}

// RequestCode asks the backend to send a verification code over WhatsApp.
// A COOLDOWN_<n> marker in an error payload comes back as
// *CooldownActiveError; any other non-2xx as *StatusError.
func (c *Client) RequestCode(ctx context.Context, phoneE164 string) (*CodeRequest, error) {
	body := map[string]string{"phone": phoneE164, "channel": "WHATSAPP"}
	resp, err := c.post(ctx, "/api/otp/request", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if seconds, ok := parseCooldown(string(payload)); ok {
			return nil, &CooldownActiveError{Seconds: seconds}
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(payload)}
	}

	var result CodeRequest
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode code request response: %w", err)
	}
	return &result, nil
}

// VerifyCode submits the 6-digit code for an outstanding otpSessionId. On
// success the backend sets the publish-session credential as a cookie side
// effect; the body may be empty and is ignored.
func (c *Client) VerifyCode(ctx context.Context, otpSessionID, code string) error {
	body := map[string]string{"otpSessionId": otpSessionID, "code": code}
	resp, err := c.post(ctx, "/api/otp/verify", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(payload)}
	}
	return nil
}

// GetSession fetches the authoritative publish session. 204 and 401 both
// mean "no session" and return (nil, nil); any other non-2xx is an error the
// caller is expected to degrade fail-closed.
func (c *Client) GetSession(ctx context.Context) (*models.RemoteSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/publish-session", nil)
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusUnauthorized:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		payload, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(payload)}
	}

	var session models.RemoteSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", path, err)
	}
	return resp, nil
}
