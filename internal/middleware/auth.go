// internal/middleware/auth.go
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/gurkanbulca/tasklist/internal/service"
	"github.com/gurkanbulca/tasklist/pkg/auth"
	"github.com/gurkanbulca/tasklist/pkg/envelope"
)

// Authenticator resolves the bearer token into a service.Actor.
type Authenticator struct {
	tokenManager *auth.TokenManager
	publicPaths  map[string]bool
}

// NewAuthenticator creates a new bearer token middleware
func NewAuthenticator(tokenManager *auth.TokenManager, publicPaths ...string) *Authenticator {
	// Define which routes don't require authentication
	public := map[string]bool{}
	for _, p := range publicPaths {
		public[p] = true
	}
	return &Authenticator{
		tokenManager: tokenManager,
		publicPaths:  public,
	}
}

// Middleware rejects unauthenticated requests to non-public paths with 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		actor, err := a.authenticate(r)
		if err != nil {
			envelope.Error(w, http.StatusUnauthorized, service.MsgUnauthenticated)
			return
		}

		recordActor(w, actor.ID.String())
		ctx := context.WithValue(r.Context(), ContextKeyActor, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate extracts and validates the JWT token from the Authorization header
func (a *Authenticator) authenticate(r *http.Request) (service.Actor, error) {
	token, err := auth.ExtractTokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		return service.Actor{}, err
	}

	claims, err := a.tokenManager.ValidateAccessToken(token)
	if err != nil {
		return service.Actor{}, err
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return service.Actor{}, auth.ErrInvalidClaims
	}

	return service.Actor{ID: id, Name: claims.Name, Email: claims.Email}, nil
}

// GetActorFromContext extracts the authenticated actor from context
func GetActorFromContext(ctx context.Context) (service.Actor, bool) {
	actor, ok := ctx.Value(ContextKeyActor).(service.Actor)
	return actor, ok
}

// WithActor returns a copy of ctx carrying actor. Useful for handlers mounted
// behind a different authentication scheme and in tests.
func WithActor(ctx context.Context, actor service.Actor) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}
