// Package auth exchanges Gramps Web credentials for short-lived bearer tokens.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/olgasafonova/gramps-mcp-server/internal/base"
	apperrors "github.com/olgasafonova/gramps-mcp-server/internal/errors"
	"github.com/olgasafonova/gramps-mcp-server/metrics"
	"golang.org/x/sync/singleflight"
)

// DefaultTokenLifetime is assumed when the token carries no exp claim.
const DefaultTokenLifetime = 15 * time.Minute

// expirySkew refreshes slightly before the upstream rejects the token.
const expirySkew = 30 * time.Second

// TokenManager holds the current access token and refreshes it on demand.
type TokenManager struct {
	http     *base.Client
	logger   *slog.Logger
	tokenURL string
	username string
	password string

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	group singleflight.Group
	now   func() time.Time
}

// NewTokenManager creates a manager for the API rooted at apiBase (ending in /api).
func NewTokenManager(httpClient *base.Client, logger *slog.Logger, apiBase, username, password string) *TokenManager {
	return &TokenManager{
		http:     httpClient,
		logger:   logger,
		tokenURL: apiBase + "/token/",
		username: username,
		password: password,
		now:      time.Now,
	}
}

// Token returns a valid access token, logging in when needed.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	token, exp := m.token, m.expiresAt
	m.mu.RUnlock()

	if token != "" && m.now().Add(expirySkew).Before(exp) {
		return token, nil
	}

	v, err, _ := m.group.Do("token", func() (any, error) {
		return m.Authenticate(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Headers returns the headers every authenticated request carries.
func (m *TokenManager) Headers(ctx context.Context) (http.Header, error) {
	token, err := m.Token(ctx)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	h.Set("Content-Type", "application/json")
	return h, nil
}

// Invalidate drops the held token so the next call logs in again.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()
}

// ExpiresAt returns when the held token stops being valid.
func (m *TokenManager) ExpiresAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiresAt
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Authenticate performs the credential exchange unconditionally.
func (m *TokenManager) Authenticate(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": m.username,
		"password": m.password,
	})
	if err != nil {
		return "", &apperrors.AuthError{Message: "Authentication error: " + err.Error()}
	}

	resp, err := m.http.Do(ctx, base.Request{
		Method:      http.MethodPost,
		URL:         m.tokenURL,
		Endpoint:    "token/",
		Body:        payload,
		ContentType: "application/json",
	})
	if err != nil {
		metrics.AuthFailures.WithLabelValues("transport").Inc()
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		if apperrors.IsAPI(err) {
			return "", &apperrors.AuthError{Message: err.Error()}
		}
		return "", &apperrors.AuthError{Message: "Cannot connect to Gramps API: " + err.Error()}
	}

	if resp.Status < 200 || resp.Status >= 300 {
		reason := "status"
		if resp.Status == http.StatusForbidden {
			reason = "bad_credentials"
		}
		metrics.AuthFailures.WithLabelValues(reason).Inc()
		metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		return "", apperrors.NewAuthStatusError(resp.Status)
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return "", &apperrors.AuthError{Status: resp.Status, Message: "Authentication error: " + err.Error()}
	}
	if tr.AccessToken == "" {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return "", &apperrors.AuthError{Status: resp.Status, Message: "Authentication error: no access token in response"}
	}

	exp := m.expiryOf(tr.AccessToken)
	m.mu.Lock()
	m.token = tr.AccessToken
	m.expiresAt = exp
	m.mu.Unlock()

	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	m.logger.Debug("Obtained Gramps access token", "expires_at", exp.Format(time.RFC3339))
	return tr.AccessToken, nil
}

// expiryOf reads the exp claim without verifying the signature; the server
// that issued the token is the one that checks it.
func (m *TokenManager) expiryOf(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		m.logger.Debug("Token is not a readable JWT, assuming default lifetime", "error", err)
		return m.now().Add(DefaultTokenLifetime)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return m.now().Add(DefaultTokenLifetime)
	}
	return exp.Time
}

// String hides credentials if the manager is ever logged.
func (m *TokenManager) String() string {
	return fmt.Sprintf("TokenManager{user=%s}", m.username)
}
