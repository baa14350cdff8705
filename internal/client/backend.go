package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRevealPath = "/api/wallet/private-key"
	defaultAttachPath = "/api/wallet/attach"
	defaultTimeout    = 15 * time.Second
	maxErrorBody      = 4 << 10
	maxRevealBody     = 16 << 10
)

// Options configures a BackendClient
type Options struct {
	BaseURL    string
	Token      string
	RevealPath string
	AttachPath string
	Timeout    time.Duration
	Retry      RetryConfig
	Logger     *zap.Logger
}

// BackendClient talks to the platform backend that owns accounts and the
// custodial keys. It only ever sends public keys.
type BackendClient struct {
	baseURL    string
	token      string
	revealPath string
	attachPath string
	retry      RetryConfig
	hc         *http.Client
	log        *zap.Logger
}

// NewBackendClient builds a client; BaseURL is required
func NewBackendClient(opts Options) (*BackendClient, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, ErrNotConfigured
	}

	c := &BackendClient{
		baseURL:    base,
		token:      opts.Token,
		revealPath: opts.RevealPath,
		attachPath: opts.AttachPath,
		retry:      opts.Retry,
		log:        opts.Logger,
	}
	if c.revealPath == "" {
		c.revealPath = defaultRevealPath
	}
	if c.attachPath == "" {
		c.attachPath = defaultAttachPath
	}
	if c.retry.MaxAttempts == 0 {
		c.retry = DefaultRetryConfig()
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	c.hc = &http.Client{Timeout: timeout}

	return c, nil
}

// WithToken returns a copy of the client that authenticates as another account
func (c *BackendClient) WithToken(token string) *BackendClient {
	cp := *c
	cp.token = token
	return &cp
}

// RevealResponse is returned by the private-key endpoint
type RevealResponse struct {
	PrivateKey string `json:"privateKey"`
}

// AttachRequest is sent to the attach endpoint
type AttachRequest struct {
	PublicKey string `json:"publicKey"`
}

// AttachResponse is returned by the attach endpoint
type AttachResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RevealPrivateKey fetches the decrypted legacy custodial private key (base58).
// It is not retried: every call is a disclosure, and a 5xx means the backend
// could not decrypt the key.
func (c *BackendClient) RevealPrivateKey(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.revealPath, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build reveal request: %w", err)
	}
	c.authorize(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("reveal: %w: %w", ErrNetworkFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("reveal", resp)
	}

	var out RevealResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRevealBody)).Decode(&out); err != nil {
		return "", fmt.Errorf("reveal: %w: failed to decode body", ErrBadResponse)
	}
	if out.PrivateKey == "" {
		return "", fmt.Errorf("reveal: %w: empty private key", ErrBadResponse)
	}

	return out.PrivateKey, nil
}

// AttachPublicKey registers publicKey as the account's wallet of record.
// Safe to retry with the same key; retried on network and server errors.
func (c *BackendClient) AttachPublicKey(ctx context.Context, publicKey string) error {
	body, err := json.Marshal(AttachRequest{PublicKey: publicKey})
	if err != nil {
		return fmt.Errorf("failed to marshal attach request: %w", err)
	}

	_, err = WithRetry(ctx, c.retry, "attach", func(ctx context.Context) (struct{}, error) {
		err := c.attachOnce(ctx, body)
		if err != nil && Retryable(err) {
			c.log.Warn("attach attempt failed", zap.Error(err))
		}
		return struct{}{}, err
	})
	return err
}

func (c *BackendClient) attachOnce(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.attachPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build attach request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("attach: %w: %w", ErrNetworkFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return statusError("attach", resp)
	}

	var out AttachResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&out); err != nil {
		return fmt.Errorf("attach: %w: %v", ErrBadResponse, err)
	}
	if !out.Success {
		if out.Message != "" {
			return fmt.Errorf("%w: %s", ErrAttachRejected, out.Message)
		}
		return ErrAttachRejected
	}
	return nil
}

func (c *BackendClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
}

// statusError reads a short error message from a non-200 response
func statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	detail := strings.TrimSpace(string(raw))
	var msg struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &msg) == nil {
		switch {
		case msg.Error != "":
			detail = msg.Error
		case msg.Message != "":
			detail = msg.Message
		}
	}

	return &StatusError{Op: op, Status: resp.StatusCode, Detail: detail}
}
