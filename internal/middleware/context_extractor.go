// internal/middleware/context_extractor.go
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// ContextKeys for storing request metadata
type ContextKey string

const (
	ContextKeyIPAddress ContextKey = "ip_address"
	ContextKeyUserAgent ContextKey = "user_agent"
	ContextKeyActor     ContextKey = "actor"
)

// ClientInfo describes the caller of the current request.
type ClientInfo struct {
	IPAddress string
	UserAgent string
	UserID    string
}

// ExtractMetadata adds the client IP address and user agent to the request context.
func ExtractMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if ip := extractIPAddress(r); ip != "" {
			ctx = context.WithValue(ctx, ContextKeyIPAddress, ip)
		}
		if ua := r.UserAgent(); ua != "" {
			ctx = context.WithValue(ctx, ContextKeyUserAgent, ua)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractIPAddress prefers proxy headers, then the peer address.
func extractIPAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// The first entry is the original client.
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr // Return as-is if parsing fails
	}
	return host
}

// GetClientInfoFromContext collects the request metadata stored in ctx.
func GetClientInfoFromContext(ctx context.Context) ClientInfo {
	info := ClientInfo{}
	if ip, ok := ctx.Value(ContextKeyIPAddress).(string); ok {
		info.IPAddress = ip
	}
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		info.UserAgent = ua
	}
	if actor, ok := GetActorFromContext(ctx); ok {
		info.UserID = actor.ID.String()
	}
	return info
}
