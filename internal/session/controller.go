package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Paths the router is sent to.
const (
	PathHome  = "/"
	PathLogin = "/login"
)

// Router receives navigation requests.
type Router interface {
	Redirect(path string)
}

// RouterFunc adapts a function to Router.
type RouterFunc func(path string)

func (f RouterFunc) Redirect(path string) { f(path) }

// Controller owns the session. Authentication is derived from the token in
// the Store each time Initialize runs; the cached flag is never the source of
// truth.
type Controller struct {
	store     Store
	validator *Validator
	auth      Authenticator
	router    Router
	log       *zap.Logger

	mu            sync.RWMutex
	authenticated bool
	user          *Claims
}

func NewController(store Store, validator *Validator, auth Authenticator, router Router, log *zap.Logger) *Controller {
	if validator == nil {
		validator = NewValidator(nil)
	}
	if router == nil {
		router = RouterFunc(func(string) {})
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{store: store, validator: validator, auth: auth, router: router, log: log}
}

// Initialize re-derives the session from the stored token. A missing or
// expired token clears the store and redirects to the login path.
func (c *Controller) Initialize() error {
	token, err := c.store.Get(KeyToken)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if token == "" || c.validator.IsExpired(token) {
		if token != "" {
			c.log.Info("stored token expired, signing out")
		}
		return c.end()
	}

	claims, err := c.validator.Decode(token)
	if err != nil {
		return c.end()
	}
	c.mu.Lock()
	c.authenticated = true
	c.user = claims
	c.mu.Unlock()
	c.log.Debug("session restored", zap.String("user", claims.Name()))
	return nil
}

// Login exchanges credentials for a token, persists it and redirects home.
// On failure it returns *AuthError and leaves the session untouched.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	token, err := c.auth.Login(ctx, email, password)
	if err != nil {
		var ae *AuthError
		if errors.As(err, &ae) {
			return ae
		}
		return &AuthError{Message: defaultLoginFailure, Err: err}
	}
	claims, err := c.validator.Decode(token)
	if err != nil {
		return &AuthError{Message: defaultLoginFailure, Err: fmt.Errorf("decode token: %w", err)}
	}
	if c.validator.IsExpired(token) {
		return &AuthError{Message: defaultLoginFailure, Err: errors.New("login returned an expired token")}
	}

	if err := c.store.Set(KeyToken, token); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if name := claims.Name(); name != "" {
		if err := c.store.Set(KeyUsername, name); err != nil {
			c.log.Warn("save username", zap.Error(err))
		}
	}

	c.mu.Lock()
	c.authenticated = true
	c.user = claims
	c.mu.Unlock()
	c.log.Info("logged in", zap.String("user", claims.Name()))
	c.router.Redirect(PathHome)
	return nil
}

// Logout clears the stored token and redirects to the login path.
func (c *Controller) Logout() error {
	return c.end()
}

func (c *Controller) end() error {
	c.mu.Lock()
	c.authenticated = false
	c.user = nil
	c.mu.Unlock()

	err := c.store.Remove(KeyToken, KeyUsername)
	c.router.Redirect(PathLogin)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (c *Controller) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authenticated
}

// User returns the decoded claims while authenticated, nil otherwise.
func (c *Controller) User() *Claims {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Token returns the stored bearer token while authenticated.
func (c *Controller) Token() string {
	if !c.IsAuthenticated() {
		return ""
	}
	token, err := c.store.Get(KeyToken)
	if err != nil {
		c.log.Warn("read token", zap.Error(err))
		return ""
	}
	return token
}
