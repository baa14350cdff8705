package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string) *BackendClient {
	t.Helper()
	c, err := NewBackendClient(Options{
		BaseURL: url,
		Token:   "tok",
		Retry:   RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, Multiplier: 1},
	})
	require.NoError(t, err)
	return c
}

func TestNewBackendClient_RequiresURL(t *testing.T) {
	_, err := NewBackendClient(Options{BaseURL: "  "})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestRevealPrivateKey_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, defaultRevealPath, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(RevealResponse{PrivateKey: "base58key"})
	}))
	defer server.Close()

	key, err := newTestClient(t, server.URL+"/").RevealPrivateKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "base58key", key)
}

func TestRevealPrivateKey_ServerFaultNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "decryption failed"})
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).RevealPrivateKey(context.Background())
	require.Error(t, err)
	assert.True(t, IsServerFault(err))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.Equal(t, "decryption failed", se.Detail)
	assert.EqualValues(t, 1, calls.Load())
}

func TestRevealPrivateKey_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"no session"}`, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ``, ErrUnauthorized},
		{"not found", http.StatusNotFound, `no custodial key`, ErrBadResponse},
		{"empty key", http.StatusOK, `{"privateKey":""}`, ErrBadResponse},
		{"garbage", http.StatusOK, `not json`, ErrBadResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL).RevealPrivateKey(context.Background())
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, IsServerFault(err))
		})
	}
}

func TestRevealPrivateKey_NetworkFailure(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.RevealPrivateKey(context.Background())
	assert.ErrorIs(t, err, ErrNetworkFailure)
}

func TestRevealPrivateKey_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := newTestClient(t, server.URL).RevealPrivateKey(ctx)
	assert.ErrorIs(t, err, ErrNetworkFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAttachPublicKey_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, defaultAttachPath, r.URL.Path)
		var req AttachRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "PubKey111", req.PublicKey)
		_ = json.NewEncoder(w).Encode(AttachResponse{Success: true})
	}))
	defer server.Close()

	require.NoError(t, newTestClient(t, server.URL).AttachPublicKey(context.Background(), "PubKey111"))
}

func TestAttachPublicKey_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(AttachResponse{Success: true})
	}))
	defer server.Close()

	require.NoError(t, newTestClient(t, server.URL).AttachPublicKey(context.Background(), "PubKey111"))
	assert.EqualValues(t, 3, calls.Load())
}

func TestAttachPublicKey_Rejected(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(AttachResponse{Success: false, Message: "migration in progress"})
	}))
	defer server.Close()

	err := newTestClient(t, server.URL).AttachPublicKey(context.Background(), "PubKey111")
	assert.ErrorIs(t, err, ErrAttachRejected)
	assert.Contains(t, err.Error(), "migration in progress")
	assert.EqualValues(t, 1, calls.Load())
}

func TestAttachPublicKey_GivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := newTestClient(t, server.URL).AttachPublicKey(context.Background(), "PubKey111")
	assert.ErrorIs(t, err, ErrServerError)
	assert.EqualValues(t, 3, calls.Load())
}

func TestWithToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer other", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(AttachResponse{Success: true})
	}))
	defer server.Close()

	base := newTestClient(t, server.URL)
	require.NoError(t, base.WithToken("other").AttachPublicKey(context.Background(), "k"))
	assert.Equal(t, "tok", base.token)
}

func TestWithRetry(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, Multiplier: 2}

	attempts := 0
	got, err := WithRetry(context.Background(), cfg, "op", func(context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", ErrNetworkFailure
		}
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", got)
	assert.Equal(t, 2, attempts)

	attempts = 0
	_, err = WithRetry(context.Background(), cfg, "op", func(context.Context) (string, error) {
		attempts++
		return "", ErrUnauthorized
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, attempts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = WithRetry(ctx, RetryConfig{MaxAttempts: 3, InitialWait: time.Second}, "op", func(context.Context) (int, error) {
		return 0, ErrServerError
	})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.True(t, Retryable(ErrNetworkFailure))
	assert.True(t, Retryable(&StatusError{Status: 503}))
	assert.False(t, Retryable(&StatusError{Status: 401}))
	assert.False(t, Retryable(ErrAttachRejected))
}
