package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"

	"github.com/localwire/portal/internal/model"
)

const maxResponseBytes = 1 << 20

// Recorder receives the outcome of every upstream call.
type Recorder interface {
	ObserveCall(op string, status int, elapsed time.Duration)
}

// Config holds client configuration for the upstream account API.
type Config struct {
	BaseURL string
	Timeout time.Duration

	HTTPClient *http.Client
	Logger     *zap.Logger
	Recorder   Recorder
}

// Client talks to the remote account API. All authenticated calls carry
// the bearer token passed in by the caller; the client itself holds no
// session state.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
	rec        Recorder
}

func New(cfg Config) *Client {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: client,
		log:        log,
		rec:        cfg.Recorder,
	}
}

// AuthResult is the payload of a successful login or registration.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// PasswordChange is the change-password request body.
type PasswordChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

func (p PasswordChange) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Old, validation.Required),
		validation.Field(&p.New, validation.Required, validation.Length(8, 100)),
	)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Password, validation.Required),
	)
}

// envelope is the upstream response wrapper: {"data": ..., "message": ...}.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	creds := credentials{Email: email, Password: password}
	if err := creds.Validate(); err != nil {
		return nil, validationError(err)
	}

	var res AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", creds, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Register(ctx context.Context, profile map[string]any) (*AuthResult, error) {
	var res AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", profile, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Logout invalidates the token upstream. The response body is ignored.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

func (c *Client) Me(ctx context.Context, token string) (*model.User, error) {
	var res struct {
		User *model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &res); err != nil {
		return nil, err
	}
	if res.User == nil {
		return nil, &APIError{Kind: KindServer, Message: msgUnexpected}
	}
	return res.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, partial map[string]any) (*model.User, error) {
	var res struct {
		User *model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/auth/profile", token, partial, &res); err != nil {
		return nil, err
	}
	return res.User, nil
}

func (c *Client) ChangePassword(ctx context.Context, token string, change PasswordChange) error {
	if err := change.Validate(); err != nil {
		return validationError(err)
	}
	return c.do(ctx, http.MethodPut, "/auth/change-password", token, change, nil)
}

func (c *Client) RefreshToken(ctx context.Context, token string) (string, error) {
	var res struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/refresh-token", token, nil, &res); err != nil {
		return "", err
	}
	if res.Token == "" {
		return "", &APIError{Kind: KindServer, Message: msgUnexpected}
	}
	return res.Token, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return validationError(err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return networkError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(path, 0, time.Since(start))
		c.log.Debug("gateway request failed", zap.String("path", path), zap.Error(err))
		return networkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.observe(path, resp.StatusCode, time.Since(start))
	if err != nil {
		return networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		message := ""
		if jsonErr := json.Unmarshal(raw, &env); jsonErr == nil {
			message = env.Message
		}
		apiErr := classify(resp.StatusCode, message)
		c.log.Debug("gateway call rejected",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Data == nil {
		return &APIError{Kind: KindServer, Status: resp.StatusCode, Message: msgUnexpected, cause: err}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &APIError{Kind: KindServer, Status: resp.StatusCode, Message: msgUnexpected, cause: err}
	}
	return nil
}

func (c *Client) observe(op string, status int, elapsed time.Duration) {
	if c.rec != nil {
		c.rec.ObserveCall(op, status, elapsed)
	}
}
