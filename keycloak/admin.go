package keycloak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrUpstream is returned when the identity provider cannot be reached or
	// answers with an unexpected status. Surfaced as a 502, never conflated
	// with an authentication failure.
	ErrUpstream = errors.New("identity provider unavailable")

	// ErrUserNotFound is returned when the realm has no user with the
	// requested id
	ErrUserNotFound = errors.New("user not found")
)

// User is a realm user as returned by the admin API
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Enabled   bool   `json:"enabled"`
}

// tokenResponse is the raw JSON response from the token endpoint
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// AdminClient calls the realm admin API using a service token obtained via
// the client-credentials grant. It shares the HTTP timeout policy with the
// key provider but not the token-validation path.
type AdminClient struct {
	tokenURL      string
	adminUsersURL string
	clientID      string
	clientSecret  string
	httpClient    *http.Client
	logger        *zap.Logger
}

// AdminClientConfig holds configuration for AdminClient
type AdminClientConfig struct {
	TokenURL      string
	AdminUsersURL string
	ClientID      string
	ClientSecret  string
	HTTPTimeout   time.Duration
}

// NewAdminClient creates a client for the realm admin API
func NewAdminClient(cfg AdminClientConfig, logger *zap.Logger) *AdminClient {
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	return &AdminClient{
		tokenURL:      cfg.TokenURL,
		adminUsersURL: cfg.AdminUsersURL,
		clientID:      cfg.ClientID,
		clientSecret:  cfg.ClientSecret,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		logger: logger,
	}
}

// serviceToken obtains an access token via the client-credentials grant
func (c *AdminClient) serviceToken(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: token endpoint returned %d: %s", ErrUpstream, resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("%w: failed to parse token response: %v", ErrUpstream, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrUpstream)
	}

	return tok.AccessToken, nil
}

// Users lists all users of the realm
func (c *AdminClient) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.getJSON(ctx, c.adminUsersURL, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UserByID fetches a single realm user
func (c *AdminClient) UserByID(ctx context.Context, id string) (*User, error) {
	var user User
	if err := c.getJSON(ctx, c.adminUsersURL+"/"+url.PathEscape(id), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UsersSafely lists realm users, returning an empty list instead of an
// error when the provider is unreachable
func (c *AdminClient) UsersSafely(ctx context.Context) []User {
	users, err := c.Users(ctx)
	if err != nil {
		c.logger.Warn("failed to list identity provider users", zap.Error(err))
		return nil
	}
	return users
}

// UserByIDSafely fetches a realm user, falling back to a stub with the
// given username when the provider is unreachable or the user is missing
func (c *AdminClient) UserByIDSafely(ctx context.Context, id, defaultUsername string) *User {
	user, err := c.UserByID(ctx, id)
	if err != nil {
		c.logger.Warn("failed to fetch identity provider user",
			zap.String("user_id", id),
			zap.Error(err))
		return &User{Username: defaultUsername}
	}
	return user
}

func (c *AdminClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	token, err := c.serviceToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: failed to parse response: %v", ErrUpstream, err)
		}
		return nil
	case http.StatusNotFound:
		return ErrUserNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: admin API returned %d: %s", ErrUpstream, resp.StatusCode, string(body))
	}
}
