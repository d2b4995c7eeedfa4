package middleware

import (
	"context"
	"encoding/gob"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localwire/portal/internal/config"
)

const (
	tokenKey = "auth_token"
	sidKey   = "sid"
	flashKey = "flash"
)

// Flash is a one-shot notification stored in the browser session.
type Flash struct {
	Level   string
	Message string
}

// SessionManager wraps scs cookie sessions. It is both the durable token
// storage for the auth session (session.TokenStore) and the flash-message
// notifier (session.Notifier).
type SessionManager struct {
	impl *scs.SessionManager
	log  *zap.Logger
}

func NewSessionManager(cfg *config.Config, log *zap.Logger) (*SessionManager, error) {
	gob.Register([]Flash{})

	sm := &SessionManager{
		impl: scs.New(),
		log:  log,
	}
	sm.impl.Lifetime = cfg.Session.Lifetime.D()
	sm.impl.Cookie.Secure = cfg.Session.CookieSecure
	sm.impl.Cookie.HttpOnly = true

	return sm, nil
}

func (s *SessionManager) Wrap(next http.Handler) http.Handler {
	return s.impl.LoadAndSave(next)
}

// SessionKey returns a stable identifier for the browser session,
// minting one on first sight.
func (s *SessionManager) SessionKey(ctx context.Context) string {
	sid := ""
	s.guarded(ctx, "session key", func() {
		sid = s.impl.GetString(ctx, sidKey)
		if sid == "" {
			sid = uuid.NewString()
			s.impl.Put(ctx, sidKey, sid)
		}
	})
	return sid
}

// Load implements session.TokenStore.
func (s *SessionManager) Load(ctx context.Context) (string, bool) {
	token := ""
	s.guarded(ctx, "token load", func() {
		token = s.impl.GetString(ctx, tokenKey)
	})
	return token, token != ""
}

// Save implements session.TokenStore.
func (s *SessionManager) Save(ctx context.Context, token string) {
	s.guarded(ctx, "token save", func() {
		s.impl.Put(ctx, tokenKey, token)
	})
}

// Clear implements session.TokenStore.
func (s *SessionManager) Clear(ctx context.Context) {
	s.guarded(ctx, "token clear", func() {
		s.impl.Remove(ctx, tokenKey)
	})
}

// Success implements session.Notifier.
func (s *SessionManager) Success(ctx context.Context, message string) {
	s.pushFlash(ctx, Flash{Level: "success", Message: message})
}

// Error implements session.Notifier.
func (s *SessionManager) Error(ctx context.Context, message string) {
	s.pushFlash(ctx, Flash{Level: "error", Message: message})
}

// PopFlashes drains pending flash messages for rendering.
func (s *SessionManager) PopFlashes(ctx context.Context) []Flash {
	var flashes []Flash
	s.guarded(ctx, "flash pop", func() {
		flashes, _ = s.impl.Pop(ctx, flashKey).([]Flash)
	})
	return flashes
}

func (s *SessionManager) pushFlash(ctx context.Context, f Flash) {
	s.guarded(ctx, "flash push", func() {
		flashes, _ := s.impl.Get(ctx, flashKey).([]Flash)
		s.impl.Put(ctx, flashKey, append(flashes, f))
	})
}

// guarded runs fn, absorbing the panic scs raises when the request
// context carries no loaded session. Cookie storage being unavailable
// degrades that request to in-memory behavior instead of crashing.
func (s *SessionManager) guarded(_ context.Context, op string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("session storage unavailable", zap.String("op", op), zap.Any("cause", r))
		}
	}()
	fn()
}
