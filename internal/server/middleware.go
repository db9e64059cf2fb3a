package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/iconic-inc/iconic-erp-sub000/internal/audit"
	"github.com/iconic-inc/iconic-erp-sub000/internal/identity/service"
	"github.com/iconic-inc/iconic-erp-sub000/internal/rbac/domain"
	"github.com/iconic-inc/iconic-erp-sub000/internal/rbac/engine"
)

// Auth headers. x-client-id carries the identity id the token claims to
// belong to; it is cross-checked against the token before any session lookup.
const (
	headerAuthorization = "authorization"
	headerClientID      = "x-client-id"
	headerDeviceID      = "x-device-id"
	headerRefreshToken  = "x-refresh-token"
)

// maxRequestBodySize limits incoming request bodies (1 MB).
const maxRequestBodySize = 1 << 20

// requestIDMiddleware tags each request with an id, reusing X-Request-ID
// when the client sends one.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

// clientIPMiddleware records the client IP in the context for the audit trail.
func (s *Server) clientIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.Header.Get("X-Forwarded-For")
		if i := strings.IndexByte(ip, ','); i >= 0 {
			ip = ip[:i]
		}
		ip = strings.TrimSpace(ip)
		if ip == "" {
			ip = r.RemoteAddr
			if host, _, err := net.SplitHostPort(ip); err == nil {
				ip = host
			}
		}
		next.ServeHTTP(w, r.WithContext(withClientIP(r.Context(), ip)))
	})
}

// loggingMiddleware logs each request with method, path, status, and duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// recoveryMiddleware catches handler panics and returns a 500.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered in http handler",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
				)
				writeInternalError(w, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// telemetryMiddleware opens a span per request and records the response status.
func (s *Server) telemetryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer))
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r.WithContext(ctx))
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", r.URL.Path),
			attribute.Int("http.status_code", wrapped.status),
		)
		span.End()
	})
}

// bodyLimitMiddleware caps request body size.
func (s *Server) bodyLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate verifies the access token against the session keypair for the
// (x-client-id, x-device-id) pair and puts identity and session into the
// context. Missing or invalid credentials end the request with 401.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get(headerAuthorization))
		clientID := strings.TrimSpace(r.Header.Get(headerClientID))
		deviceID := strings.TrimSpace(r.Header.Get(headerDeviceID))
		if token == "" || clientID == "" || deviceID == "" {
			writeUnauthorized(w, "missing credentials")
			return
		}

		ident, sess, err := s.auth.Authenticate(r.Context(), token, deviceID, clientID)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				writeUnauthorized(w, "invalid or expired token")
				return
			}
			s.logger.Error("authenticate failed", "error", err)
			writeInternalError(w, "internal server error")
			return
		}

		next.ServeHTTP(w, r.WithContext(withAuth(r.Context(), ident, sess)))
	})
}

// requirePermission resolves the caller's role permissions and denies the
// request unless one of them satisfies the required action on the resource.
// A role with no permissions is an ordinary deny, not a server error.
func (s *Server) requirePermission(resourceSlug string, required domain.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := identityFrom(r.Context())
			if !ok {
				writeUnauthorized(w, "missing credentials")
				return
			}

			perms, err := s.index.Resolve(r.Context(), ident.RoleSlug)
			if err != nil && !errors.Is(err, engine.ErrNoPermissions) {
				s.logger.Error("resolve permissions failed", "role", ident.RoleSlug, "error", err)
				writeInternalError(w, "internal server error")
				return
			}

			decision := engine.Decide(perms, resourceSlug, required)
			s.authDecisions.Add(r.Context(), 1, metric.WithAttributes(
				attribute.String("resource", resourceSlug),
				attribute.String("action", required.String()),
				attribute.String("decision", decision.String()),
			))
			if !decision.Allowed() {
				if s.audit != nil {
					s.audit.LogEvent(r.Context(), ident.ID, audit.ActionPermissionDenied,
						resourceSlug, required.String())
				}
				writeError(w, http.StatusForbidden, ErrCodePermissionDenied,
					"not allowed to "+required.String()+" on "+resourceSlug)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer x" header.
func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func generateRequestID() string {
	b := make([]byte, 8)
	//nolint:errcheck // crypto/rand.Read always fills b on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}
