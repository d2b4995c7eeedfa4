package session

import "github.com/localwire/portal/internal/model"

// actionType enumerates the closed set of session state transitions.
// Every mutation of State goes through apply so transitions stay
// traceable and the user/token invariant is easy to audit.
type actionType int

const (
	actionSetLoading actionType = iota
	actionLoginSuccess
	actionLogout
	actionSetError
	actionClearError
	actionUpdateUser
	actionSetToken
)

type action struct {
	typ     actionType
	loading bool
	user    *model.User
	token   string
	message string
}

// apply is the session reducer: pure given (state, action).
func apply(st State, a action) State {
	switch a.typ {
	case actionSetLoading:
		st.Loading = a.loading
	case actionLoginSuccess:
		st.User = a.user
		st.Token = a.token
		st.Loading = false
		st.LastError = ""
	case actionLogout:
		st.User = nil
		st.Token = ""
		st.Loading = false
		st.LastError = ""
	case actionSetError:
		st.LastError = a.message
		st.Loading = false
	case actionClearError:
		st.LastError = ""
	case actionUpdateUser:
		if st.User != nil {
			merged := st.User.Merge(a.user)
			st.User = &merged
		}
	case actionSetToken:
		st.Token = a.token
	}
	return st
}
