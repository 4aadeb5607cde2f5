package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/eagle-green/mysked/internal/auth"
	"github.com/eagle-green/mysked/internal/model"
	"github.com/eagle-green/mysked/internal/store"
	"github.com/eagle-green/mysked/internal/telemetry"
	"github.com/eagle-green/mysked/internal/upstream"
)

type contextKey string

const (
	claimsKey    contextKey = "claims"
	requestIDKey contextKey = "request_id"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// AuthMiddleware validates the bearer token, rejects revoked tokens, and adds
// the claims to the context. The token is forwarded on upstream reads.
func AuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				jsonError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}

			tokenStr := strings.TrimPrefix(header, "Bearer ")
			claims, err := Authenticate(r.Context(), secret, db, tokenStr)
			if err != nil {
				jsonError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := WithClaims(r.Context(), claims, tokenStr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authError is an authentication failure safe to show to clients.
type authError string

func (e authError) Error() string { return string(e) }

// Authenticate validates tokenStr and checks it against the revocation list.
func Authenticate(ctx context.Context, secret string, db *sql.DB, tokenStr string) (*auth.Claims, error) {
	claims, err := auth.ValidateToken(secret, tokenStr)
	if err != nil {
		return nil, authError("invalid token")
	}
	if db != nil && claims.ID != "" {
		revoked, err := store.IsTokenRevoked(ctx, db, claims.ID)
		if err != nil {
			slog.ErrorContext(ctx, "checking token revocation", "error", err)
			return nil, authError("could not verify token")
		}
		if revoked {
			return nil, authError("token revoked")
		}
	}
	return claims, nil
}

// WithClaims stores claims in ctx and attaches the raw token for upstream reads.
func WithClaims(ctx context.Context, claims *auth.Claims, token string) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	return upstream.WithToken(ctx, token)
}

// RequireRole returns middleware that checks if the user has at least the given role.
func RequireRole(minimum string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				jsonError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !model.RoleAtLeast(claims.Role, minimum) {
				jsonError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaims retrieves the JWT claims from the context.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// RequestID returns the id assigned by LoggingMiddleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware assigns a request id, opens a server span and logs each
// request with method, path, status and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	tracer := otel.Tracer(telemetry.InstrumentationName)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("request.id", id)),
		)
		defer span.End()
		ctx = context.WithValue(ctx, requestIDKey, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.response.status_code", rec.status))
		slog.InfoContext(ctx, "request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", id,
		)
	})
}
