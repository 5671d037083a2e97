// Package fdm implements the authenticated HTTP session against an FDM
// device: OAuth-style token grants with refresh-and-retry on expiry, JSON
// request/response plumbing, file transfer, paginated iteration and cached
// retrieval of the device's API specification.
package fdm

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ftdconf/ftdconf/pkg/swagger"
	"github.com/ftdconf/ftdconf/pkg/util"
)

// TokenPathEnv overrides the token endpoint path when set in the
// environment.
const TokenPathEnv = "FTD_API_TOKEN_PATH"

const (
	tokenPathTemplate = "/api/fdm/%s/fdm/token"
	specPath          = "/apispec/ngfw.json"

	defaultTimeout = 30 * time.Second
)

// apiVersions are attempted in order during login. The walk only advances
// past a version when the device answers 401 Unauthorized.
var apiVersions = []string{"v2", "v1"}

// Config carries everything needed to reach a device.
type Config struct {
	// Hostname is the device address, with or without an https:// prefix.
	Hostname string

	Username string
	Password string

	// RefreshToken lets a session resume without username/password.
	RefreshToken string

	// Insecure skips TLS certificate verification. FDM devices ship with
	// self-signed certificates, so this is commonly needed.
	Insecure bool

	Timeout time.Duration

	// TokenPath overrides the token endpoint path. When set (directly or via
	// FTD_API_TOKEN_PATH) the API version walk is skipped.
	TokenPath string

	// SpecCacheDir enables the on-disk spec cache when non-empty.
	SpecCacheDir string
	SpecCacheTTL time.Duration
}

// Session is an authenticated connection to one device. A session is not
// safe for concurrent use by multiple goroutines; the mutex only serializes
// token rotation against spec fetches.
type Session struct {
	cfg     Config
	baseURL string
	client  *http.Client
	log     *logrus.Entry

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	apiVersion   string
	index        *swagger.SpecIndex
	validator    *swagger.Validator
}

// Connect builds a session for the given device. No network traffic happens
// until Login.
func Connect(cfg Config) (*Session, error) {
	if cfg.Hostname == "" {
		return nil, fmt.Errorf("%w: no hostname configured", util.ErrConnection)
	}
	base := cfg.Hostname
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	base = strings.TrimRight(base, "/")

	if cfg.TokenPath == "" {
		cfg.TokenPath = os.Getenv(TokenPathEnv)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	transport := &http.Transport{}
	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Session{
		cfg:          cfg,
		baseURL:      base,
		refreshToken: cfg.RefreshToken,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		log: util.WithHost(cfg.Hostname),
	}, nil
}

// BaseURL returns the normalized device base URL.
func (s *Session) BaseURL() string {
	return s.baseURL
}

// RefreshToken returns the current refresh token, so callers can persist it
// for later sessions.
func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken
}

// APIVersion returns the API version the login succeeded with, empty before
// login.
func (s *Session) APIVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiVersion
}

// Login obtains access and refresh tokens using the password grant when
// credentials are configured, falling back to the refresh_token grant when
// only a stored refresh token is available. API versions are walked in
// order; only a 401 advances the walk.
func (s *Session) Login(ctx context.Context) error {
	var payload map[string]interface{}
	switch {
	case s.cfg.Username != "" && s.cfg.Password != "":
		payload = map[string]interface{}{
			"grant_type": "password",
			"username":   s.cfg.Username,
			"password":   s.cfg.Password,
		}
	case s.refreshToken != "":
		payload = map[string]interface{}{
			"grant_type":    "refresh_token",
			"refresh_token": s.refreshToken,
		}
	default:
		return fmt.Errorf("%w: no credentials or refresh token configured", util.ErrConnection)
	}

	for _, version := range s.tokenVersions() {
		body, status, err := s.tokenRequest(ctx, version, payload)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			s.log.Debugf("token endpoint for API %s answered 401, trying next version", version)
			continue
		}
		if status < 200 || status >= 300 {
			return fmt.Errorf("%w: login failed with HTTP %d: %v", util.ErrConnection, status, body)
		}
		if err := s.storeTokens(body); err != nil {
			return err
		}
		s.mu.Lock()
		s.apiVersion = version
		s.mu.Unlock()
		s.log.WithField("api_version", version).Info("Logged in")
		return nil
	}
	return fmt.Errorf("%w: all API versions rejected the credentials", util.ErrConnection)
}

// Logout revokes both tokens on the device. Local token state is cleared
// unconditionally, even when the revoke call fails.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	access, refresh, version := s.accessToken, s.refreshToken, s.apiVersion
	s.accessToken = ""
	s.refreshToken = ""
	s.mu.Unlock()

	if access == "" && refresh == "" {
		return nil
	}
	if version == "" {
		version = apiVersions[0]
	}
	_, status, err := s.tokenRequest(ctx, version, map[string]interface{}{
		"grant_type":      "revoke_token",
		"access_token":    access,
		"token_to_revoke": refresh,
	})
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("%w: token revocation failed with HTTP %d", util.ErrConnection, status)
	}
	s.log.Info("Logged out")
	return nil
}

// refreshAccessToken rotates tokens after the device reported expiry.
func (s *Session) refreshAccessToken(ctx context.Context) error {
	s.mu.Lock()
	refresh := s.refreshToken
	version := s.apiVersion
	s.mu.Unlock()

	if refresh == "" {
		return fmt.Errorf("%w: access token expired and no refresh token is available", util.ErrConnection)
	}
	if version == "" {
		version = apiVersions[0]
	}
	body, status, err := s.tokenRequest(ctx, version, map[string]interface{}{
		"grant_type":    "refresh_token",
		"refresh_token": refresh,
	})
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("%w: token refresh failed with HTTP %d: %v", util.ErrConnection, status, body)
	}
	return s.storeTokens(body)
}

func (s *Session) tokenVersions() []string {
	if s.cfg.TokenPath != "" {
		// A fixed token path skips the version walk.
		return []string{""}
	}
	return apiVersions
}

func (s *Session) tokenURL(version string) string {
	if s.cfg.TokenPath != "" {
		return s.baseURL + s.cfg.TokenPath
	}
	return s.baseURL + fmt.Sprintf(tokenPathTemplate, version)
}

func (s *Session) tokenRequest(ctx context.Context, version string, payload map[string]interface{}) (map[string]interface{}, int, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL(version), bytes.NewReader(raw))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", util.ErrConnection, err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return body, resp.StatusCode, nil
}

func (s *Session) storeTokens(body map[string]interface{}) error {
	access, _ := body["access_token"].(string)
	refresh, _ := body["refresh_token"].(string)
	if access == "" {
		return fmt.Errorf("%w: token response carries no access_token", util.ErrUnexpectedResponse)
	}
	s.mu.Lock()
	s.accessToken = access
	if refresh != "" {
		s.refreshToken = refresh
	}
	s.mu.Unlock()
	return nil
}

func (s *Session) bearer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

func (s *Session) clearAccessToken() {
	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
}
