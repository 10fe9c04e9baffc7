package middleware

import (
	"net/http"

	"github.com/gurkanbulca/tasklist/pkg/auth"
	"github.com/gurkanbulca/tasklist/pkg/envelope"
)

// StatusCSRFMismatch is the non-standard "page expired" status browsers
// receive when the CSRF token does not match.
const StatusCSRFMismatch = 419

const MsgCSRFMismatch = "CSRF token mismatch."

// CSRFHeader carries the token read from the page metadata.
const CSRFHeader = "X-CSRF-TOKEN"

// RequireCSRF checks the CSRF token of state-changing requests. It must run
// after the Authenticator: tokens are bound to the actor.
func RequireCSRF(manager *auth.CSRFManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			actor, ok := GetActorFromContext(r.Context())
			if !ok {
				// Public route; nothing to bind the token to.
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get(CSRFHeader)
			if token == "" && isForm(r) && ParseForm(r) == nil {
				token = r.PostForm.Get("_token")
			}
			if !manager.Verify(actor.ID.String(), token) {
				envelope.Error(w, StatusCSRFMismatch, MsgCSRFMismatch)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
