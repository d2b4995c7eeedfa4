package guard

import (
	"net/url"

	"github.com/localwire/portal/internal/model"
	"github.com/localwire/portal/internal/session"
)

// Access is the requirement a destination declares.
type Access int

const (
	AccessPublic Access = iota
	AccessAuthenticated
	AccessAdmin
)

// Action is the navigation decision for a request.
type Action int

const (
	ActionAllow Action = iota
	// ActionWait means the session is still restoring; render a neutral
	// waiting state instead of redirecting, so a reload with a valid
	// stored token does not flash through the login page.
	ActionWait
	ActionRedirectLogin
	ActionRedirectDefault
)

const (
	loginPath   = "/login"
	defaultPath = "/dashboard"
)

type Decision struct {
	Action Action
	Target string
}

// Decide gates the requested path against the session state. Pure.
func Decide(st session.State, access Access, path string) Decision {
	if access == AccessPublic {
		return Decision{Action: ActionAllow}
	}

	if st.Loading {
		return Decision{Action: ActionWait}
	}

	if st.User == nil || st.Token == "" {
		// Carry the requested path so login can resume it.
		return Decision{
			Action: ActionRedirectLogin,
			Target: loginPath + "?next=" + url.QueryEscape(path),
		}
	}

	if access == AccessAdmin && st.User.Role != model.RoleAdmin {
		return Decision{Action: ActionRedirectDefault, Target: defaultPath}
	}

	return Decision{Action: ActionAllow}
}
