package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/localwire/portal/internal/gateway"
	"github.com/localwire/portal/internal/model"
)

// Gateway is the slice of the account API client the store depends on.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*gateway.AuthResult, error)
	Register(ctx context.Context, profile map[string]any) (*gateway.AuthResult, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (*model.User, error)
	UpdateProfile(ctx context.Context, token string, partial map[string]any) (*model.User, error)
	ChangePassword(ctx context.Context, token string, change gateway.PasswordChange) error
	RefreshToken(ctx context.Context, token string) (string, error)
}

// Notifier reports user-facing outcomes out of band (flash messages).
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Success(context.Context, string) {}
func (NopNotifier) Error(context.Context, string)   {}

// State is the session snapshot. Invariant after every transition:
// User is non-nil iff Token is non-empty.
type State struct {
	User      *model.User
	Token     string
	Loading   bool
	LastError string
}

// Result is the structured outcome returned to callers. The store never
// propagates gateway failures as raw errors.
type Result struct {
	OK      bool
	Message string
	Err     *gateway.APIError
}

// Store is the single source of truth for one browser's auth state.
// Mutations funnel through the reducer in actions.go. Completions are
// sequence-stamped so a slow response cannot resurrect a session that was
// reset while the call was in flight.
type Store struct {
	mu       sync.Mutex
	state    State
	seq      uint64
	resetSeq uint64

	gw     Gateway
	tokens TokenStore
	notify Notifier
	log    *zap.Logger
}

func NewStore(gw Gateway, tokens TokenStore, notify Notifier, log *zap.Logger) *Store {
	if notify == nil {
		notify = NopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		state:  State{Loading: true},
		gw:     gw,
		tokens: tokens,
		notify: notify,
		log:    log,
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAuthenticated reports whether both a user and a token are present.
func (s *Store) IsAuthenticated() bool {
	st := s.Snapshot()
	return st.User != nil && st.Token != ""
}

// HasRole reports whether the current user holds the given role.
func (s *Store) HasRole(role string) bool {
	st := s.Snapshot()
	return st.User != nil && st.User.Role == role
}

// Restore validates the persisted token, if any, against the account API.
// With no stored token it settles to unauthenticated without a network
// call. Any validation failure clears the persisted token. Loading is
// false on return no matter what the network did.
func (s *Store) Restore(ctx context.Context) {
	token, ok := s.tokens.Load(ctx)
	if !ok || token == "" {
		s.mu.Lock()
		s.state = apply(s.state, action{typ: actionSetLoading, loading: false})
		s.mu.Unlock()
		return
	}

	seq := s.begin()
	user, err := s.gw.Me(ctx, token)
	if err != nil {
		s.log.Debug("session restore rejected", zap.Error(err))
		s.reset(ctx)
		return
	}
	s.completeAuth(ctx, seq, user, token)
}

// Login authenticates against the account API. On failure the server
// message (or a generic fallback) lands in LastError and the Result.
// Redirecting is the caller's business.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	seq := s.begin()

	res, err := s.gw.Login(ctx, email, password)
	if err != nil {
		return s.authFailure(ctx, seq, err, "Login failed")
	}
	if !s.completeAuth(ctx, seq, res.User, res.Token) {
		return Result{Message: "Signed out while signing in"}
	}

	s.notify.Success(ctx, "Welcome back, "+res.User.Name+"!")
	return Result{OK: true}
}

// Register has the same contract as Login against the register endpoint.
// The profile payload is forwarded unmodified.
func (s *Store) Register(ctx context.Context, profile map[string]any) Result {
	seq := s.begin()

	res, err := s.gw.Register(ctx, profile)
	if err != nil {
		return s.authFailure(ctx, seq, err, "Registration failed")
	}
	if !s.completeAuth(ctx, seq, res.User, res.Token) {
		return Result{Message: "Signed out while signing in"}
	}

	s.notify.Success(ctx, "Welcome to LocalWire, "+res.User.Name+"!")
	return Result{OK: true}
}

// Logout best-effort invalidates the token upstream and always resets to
// unauthenticated with the persisted token cleared. Never fails.
func (s *Store) Logout(ctx context.Context) {
	st := s.Snapshot()
	if st.Token != "" {
		if err := s.gw.Logout(ctx, st.Token); err != nil {
			s.log.Warn("upstream logout failed", zap.Error(err))
		}
	}

	s.reset(ctx)
	s.notify.Success(ctx, "Logged out successfully")
}

// UpdateProfile shallow-merges the returned user fields into the current
// user. Loading is untouched.
func (s *Store) UpdateProfile(ctx context.Context, partial map[string]any) Result {
	st := s.Snapshot()
	if st.Token == "" {
		return Result{Message: "Not signed in"}
	}

	user, err := s.gw.UpdateProfile(ctx, st.Token, partial)
	if err != nil {
		return s.callFailure(ctx, err, "Profile update failed")
	}

	s.mu.Lock()
	s.state = apply(s.state, action{typ: actionUpdateUser, user: user})
	s.mu.Unlock()

	s.notify.Success(ctx, "Profile updated successfully")
	return Result{OK: true}
}

// ChangePassword delegates to the account API without touching session
// fields.
func (s *Store) ChangePassword(ctx context.Context, change gateway.PasswordChange) Result {
	st := s.Snapshot()
	if st.Token == "" {
		return Result{Message: "Not signed in"}
	}

	if err := s.gw.ChangePassword(ctx, st.Token, change); err != nil {
		return s.callFailure(ctx, err, "Password change failed")
	}

	s.notify.Success(ctx, "Password changed successfully")
	return Result{OK: true}
}

// RefreshToken replaces the token, keeping the user unchanged. An
// unrefreshable session is unrecoverable, so failure forces a full logout
// transition.
func (s *Store) RefreshToken(ctx context.Context) Result {
	st := s.Snapshot()
	if st.Token == "" {
		return Result{Message: "Not signed in"}
	}

	token, err := s.gw.RefreshToken(ctx, st.Token)
	if err != nil {
		s.log.Debug("token refresh failed", zap.Error(err))
		s.reset(ctx)
		return Result{Message: gateway.UserMessage(err, "Session expired"), Err: gateway.AsAPIError(err)}
	}

	s.mu.Lock()
	// Apply only if the session still holds the token this call was made
	// with; a logout or re-login while the refresh was in flight wins.
	if s.state.User != nil && s.state.Token == st.Token {
		s.state = apply(s.state, action{typ: actionSetToken, token: token})
		s.tokens.Save(ctx, token)
	}
	s.mu.Unlock()

	return Result{OK: true}
}

// begin marks the start of an auth operation: Loading on, error cleared.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.state = apply(s.state, action{typ: actionSetLoading, loading: true})
	s.state = apply(s.state, action{typ: actionClearError})
	return s.seq
}

// completeAuth applies a successful login/restore unless a reset happened
// after the operation began. Reports whether the result was applied.
func (s *Store) completeAuth(ctx context.Context, seq uint64, user *model.User, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.resetSeq {
		return false
	}
	s.state = apply(s.state, action{typ: actionLoginSuccess, user: user, token: token})
	s.tokens.Save(ctx, token)
	return true
}

// reset is the single transition to unauthenticated. It bumps the reset
// sequence so in-flight completions are discarded, and erases the
// persisted token.
func (s *Store) reset(ctx context.Context) {
	s.mu.Lock()
	s.seq++
	s.resetSeq = s.seq
	s.state = apply(s.state, action{typ: actionLogout})
	s.mu.Unlock()

	s.tokens.Clear(ctx)
}

func (s *Store) authFailure(ctx context.Context, seq uint64, err error, fallback string) Result {
	msg := gateway.UserMessage(err, fallback)

	s.mu.Lock()
	if seq > s.resetSeq {
		s.state = apply(s.state, action{typ: actionSetError, message: msg})
	}
	s.mu.Unlock()

	s.notify.Error(ctx, msg)
	return Result{Message: msg, Err: gateway.AsAPIError(err)}
}

// callFailure handles failures of non-transition calls (profile,
// password). A 401 invalidates the session; a 403 keeps it intact.
func (s *Store) callFailure(ctx context.Context, err error, fallback string) Result {
	if gateway.KindOf(err) == gateway.KindAuth {
		s.reset(ctx)
	}
	msg := gateway.UserMessage(err, fallback)
	s.notify.Error(ctx, msg)
	return Result{Message: msg, Err: gateway.AsAPIError(err)}
}
