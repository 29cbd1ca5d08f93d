package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const defaultLoginFailure = "Login failed"

// AuthError is a rejected or failed login. Message is safe to show to the
// user.
type AuthError struct {
	Message string
	Status  int // 0 when no response was received
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Data    struct {
		Token string `json:"token"`
	} `json:"data"`
}

// HTTPAuthenticator posts credentials to {BaseURL}/auth/login.
type HTTPAuthenticator struct {
	HTTP    *http.Client
	BaseURL string
	Log     *zap.Logger
}

func NewHTTPAuthenticator(client *http.Client, baseURL string, log *zap.Logger) *HTTPAuthenticator {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPAuthenticator{HTTP: client, BaseURL: strings.TrimRight(baseURL, "/"), Log: log}
}

func (a *HTTPAuthenticator) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return "", &AuthError{Message: defaultLoginFailure, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", &AuthError{Message: defaultLoginFailure, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := a.HTTP.Do(req)
	if err != nil {
		a.Log.Warn("login request failed", zap.Error(err))
		return "", &AuthError{Message: defaultLoginFailure, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	var out loginResponse
	decodeErr := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&out)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg := out.Message
		if decodeErr != nil || msg == "" {
			msg = defaultLoginFailure
		}
		return "", &AuthError{Message: msg, Status: res.StatusCode, Err: fmt.Errorf("login: status %d", res.StatusCode)}
	}
	if decodeErr != nil {
		return "", &AuthError{Message: defaultLoginFailure, Status: res.StatusCode, Err: fmt.Errorf("decode login response: %w", decodeErr)}
	}
	if out.Data.Token == "" {
		return "", &AuthError{Message: defaultLoginFailure, Status: res.StatusCode, Err: fmt.Errorf("login response has no token")}
	}
	return out.Data.Token, nil
}
