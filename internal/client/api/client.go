// Package api implements the HTTP client the admin CLI uses to talk to the
// server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is a thin wrapper over the server's REST API. After a successful
// Login the bearer token is attached to every request.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	accessToken string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// LoggedIn reports whether a bearer token is held.
func (c *Client) LoggedIn() bool {
	return c.accessToken != ""
}

// Logout drops the held bearer token.
func (c *Client) Logout() {
	c.accessToken = ""
}

type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Body)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		msg := resp.Status
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &apiError{Status: resp.StatusCode, Body: msg}
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Login authenticates and stores the bearer token for later calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"username": username, "password": password}, &out)
	if err != nil {
		return err
	}
	c.accessToken = out.AccessToken
	return nil
}

// Token mirrors the server's token representation.
type Token struct {
	ID               int64      `json:"id"`
	Token            string     `json:"token"`
	MemberID         int64      `json:"member_id"`
	IsActive         bool       `json:"is_active"`
	ExpiresAt        *time.Time `json:"expires_at"`
	CreatedAt        time.Time  `json:"created_at"`
	EncryptedPayload string     `json:"encrypted_payload,omitempty"`
}

func (c *Client) GenerateToken(ctx context.Context, memberID int64, ttlDays *int) (*Token, error) {
	req := map[string]any{"member_id": memberID}
	if ttlDays != nil {
		req["ttl_days"] = *ttlDays
	}
	out := &Token{}
	if err := c.do(ctx, http.MethodPost, "/api/tokens/generate", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidationResult is the answer to a token validity check.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Token *Token `json:"token"`
}

func (c *Client) ValidateToken(ctx context.Context, token string) (*ValidationResult, error) {
	out := &ValidationResult{}
	if err := c.do(ctx, http.MethodGet, "/api/tokens/validate/"+url.PathEscape(token), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListTokens(ctx context.Context, memberID int64) ([]Token, error) {
	var out struct {
		Tokens []Token `json:"tokens"`
	}
	path := "/api/tokens/member/" + strconv.FormatInt(memberID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}

func (c *Client) RevokeToken(ctx context.Context, token string) (bool, error) {
	var out struct {
		Revoked bool `json:"revoked"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/tokens/"+url.PathEscape(token), nil, &out); err != nil {
		return false, err
	}
	return out.Revoked, nil
}

func (c *Client) CleanupTokens(ctx context.Context) (int64, error) {
	var out struct {
		Deactivated int64 `json:"deactivated"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tokens/cleanup", nil, &out); err != nil {
		return 0, err
	}
	return out.Deactivated, nil
}

// WriteResult mirrors the server's card write outcome.
type WriteResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	CardID       string `json:"card_id"`
	TokenWritten string `json:"token_written"`
}

func (c *Client) WriteCard(ctx context.Context, token string, memberID int64, timeoutSeconds int) (*WriteResult, error) {
	out := &WriteResult{}
	err := c.do(ctx, http.MethodPost, "/api/nfc/write",
		map[string]any{"token": token, "member_id": memberID, "timeout_seconds": timeoutSeconds}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReaderStatus mirrors the server's NFC reader status.
type ReaderStatus struct {
	Connected  bool   `json:"connected"`
	ReaderType string `json:"reader_type"`
	Timeout    int    `json:"timeout"`
}

func (c *Client) ReaderStatus(ctx context.Context) (*ReaderStatus, error) {
	out := &ReaderStatus{}
	if err := c.do(ctx, http.MethodGet, "/api/nfc/status", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// CertificateStatus describes one signing material file.
type CertificateStatus struct {
	Description string `json:"description"`
	Path        string `json:"path"`
	Exists      bool   `json:"exists"`
	Size        int64  `json:"size"`
}

func (c *Client) CertificateStatus(ctx context.Context) (map[string]CertificateStatus, error) {
	out := map[string]CertificateStatus{}
	if err := c.do(ctx, http.MethodGet, "/api/pass/certificates/status", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
