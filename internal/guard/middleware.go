package guard

import (
	"net/http"

	"github.com/localwire/portal/internal/session"
)

// StoreFunc resolves the session store for a request.
type StoreFunc func(*http.Request) *session.Store

// Middleware adapts Decide to chi middleware. Redirects use 303 so a
// guarded POST does not get replayed against the login page.
func Middleware(stores StoreFunc, access Access) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := Decide(stores(r).Snapshot(), access, r.URL.Path)

			switch d.Action {
			case ActionAllow:
				next.ServeHTTP(w, r)
			case ActionWait:
				waiting(w)
			default:
				http.Redirect(w, r, d.Target, http.StatusSeeOther)
			}
		})
	}
}

// waiting renders a neutral holding page that retries shortly.
func waiting(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Refresh", "1")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("<!doctype html><title>Loading</title><p>Loading your session…</p>"))
}
