package auth

import (
	"encoding/json"
	"net/http"
)

// Middleware attaches the caller's Identity to the request context. With a
// nil authenticator every request runs as Anonymous.
func Middleware(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := Anonymous()
			if a != nil {
				var err error
				id, err = a.Authenticate(r.Context(), r.Header)
				switch {
				case err == nil:
				case rejected(err):
					w.Header().Set("WWW-Authenticate", `Bearer realm="checkd"`)
					writeError(w, http.StatusUnauthorized, err)
					return
				default:
					writeError(w, http.StatusInternalServerError, err)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
		})
	}
}

// RequireRole answers 403 to authenticated callers without role. The
// anonymous identity passes since it only exists when auth is off.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			switch {
			case id == nil:
				writeError(w, http.StatusUnauthorized, ErrNoCredentials)
			case !id.IsAnonymous() && !id.HasRole(role):
				writeError(w, http.StatusForbidden, ErrForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
