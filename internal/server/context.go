package server

import (
	"context"

	identitydomain "github.com/iconic-inc/iconic-erp-sub000/internal/identity/domain"
	sessiondomain "github.com/iconic-inc/iconic-erp-sub000/internal/session/domain"
)

type contextKey struct{ name string }

var (
	identityKey = contextKey{"identity"}
	sessionKey  = contextKey{"session"}
	clientIPKey = contextKey{"client_ip"}
)

// withAuth returns a context carrying the authenticated identity and session.
func withAuth(ctx context.Context, ident *identitydomain.Identity, sess *sessiondomain.Session) context.Context {
	ctx = context.WithValue(ctx, identityKey, ident)
	ctx = context.WithValue(ctx, sessionKey, sess)
	return ctx
}

// identityFrom returns the authenticated identity set by the auth middleware.
func identityFrom(ctx context.Context) (*identitydomain.Identity, bool) {
	v, ok := ctx.Value(identityKey).(*identitydomain.Identity)
	return v, ok
}

// sessionFrom returns the session set by the auth middleware.
func sessionFrom(ctx context.Context) (*sessiondomain.Session, bool) {
	v, ok := ctx.Value(sessionKey).(*sessiondomain.Session)
	return v, ok
}

func withClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the client IP recorded by the request middleware, or
// "unknown" outside a request. Wired into the audit logger as its IPExtractor.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
