package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/microfront/profile-service/jwtauth"
	"github.com/microfront/profile-service/utils"
	"go.uber.org/zap"
)

// TokenValidator verifies a raw token string against process-wide key
// material. *jwtauth.Validator satisfies this interface.
type TokenValidator interface {
	Validate(raw string, now time.Time) (*jwtauth.Claims, error)
}

// Outcome classifies an authentication attempt for collaborators.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// AttemptReporter receives the result of every authentication attempt,
// keyed by verified identity when known and client IP otherwise. The rate
// limiter and metrics sink sit behind this interface; the gate itself
// never blocks on it.
type AttemptReporter interface {
	ReportAttempt(key string, outcome Outcome, kind jwtauth.ErrorKind)
}

// NopReporter discards attempt reports.
type NopReporter struct{}

func (NopReporter) ReportAttempt(string, Outcome, jwtauth.ErrorKind) {}

// AuthMiddleware is the request-level authentication gate. It locates a
// token, validates it, binds the verified identity into the request
// context, and reports the outcome. Rejections short-circuit before any
// handler logic runs.
type AuthMiddleware struct {
	validator TokenValidator
	reporter  AttemptReporter
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthMiddleware creates an AuthMiddleware. A nil reporter disables
// attempt reporting.
func NewAuthMiddleware(validator TokenValidator, reporter AttemptReporter, logger *zap.Logger) *AuthMiddleware {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &AuthMiddleware{
		validator: validator,
		reporter:  reporter,
		logger:    logger,
		now:       time.Now,
	}
}

// jwtCookieName is the cookie checked when no Authorization header is
// present. The header takes precedence when both carry a token; this is a
// fixed policy, not negotiable per request.
const jwtCookieName = "jwt_token"

// RequireAuth is a middleware that requires a valid JWT.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := correlationIDFrom(r)

		token := ExtractToken(r)
		if token == "" {
			m.reject(w, r, jwtauth.KindMissingToken, correlationID)
			return
		}

		claims, err := m.validator.Validate(token, m.now())
		if err != nil {
			m.reject(w, r, jwtauth.KindOf(err), correlationID)
			return
		}

		authCtx, err := jwtauth.Bind(claims, "")
		if err != nil {
			m.reject(w, r, jwtauth.KindOf(err), correlationID)
			return
		}

		m.reporter.ReportAttempt(authCtx.Username, OutcomeSuccess, "")
		m.logger.Debug("authentication successful",
			zap.String("correlation_id", correlationID),
			zap.String("username", authCtx.Username))

		next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
	})
}

// RequireOwner enforces resource ownership against a URL parameter. It
// must run after RequireAuth; a request that reaches it without a verified
// identity is rejected outright.
func (m *AuthMiddleware) RequireOwner(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			correlationID := correlationIDFrom(r)

			authCtx := AuthContextFrom(r.Context())
			if authCtx == nil {
				m.reject(w, r, jwtauth.KindMissingToken, correlationID)
				return
			}

			required := chi.URLParam(r, param)
			if err := jwtauth.AuthorizeForUsername(authCtx, required); err != nil {
				m.reject(w, r, jwtauth.KindOf(err), correlationID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// reject reports the failed attempt, logs the specific kind with the
// correlation id, and writes the uniform external response. The body never
// carries token content or the internal failure kind beyond its category
// label.
func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, kind jwtauth.ErrorKind, correlationID string) {
	m.reporter.ReportAttempt(clientKey(r), OutcomeFailure, kind)

	m.logger.Warn("authentication attempt rejected",
		zap.String("event", "auth_attempt"),
		zap.String("outcome", string(OutcomeFailure)),
		zap.String("error_kind", string(kind)),
		zap.String("correlation_id", correlationID))

	if kind == jwtauth.KindForbidden {
		_ = utils.WriteForbidden(w, "You do not have access to this resource")
		return
	}
	_ = utils.WriteUnauthorized(w, "Missing or invalid credentials")
}

// clientKey identifies the caller for failure reporting: the verified
// username when authentication got that far, otherwise the client IP. The
// IP is derived the same way the rate limit middleware derives it, so
// failure reports and request counts share a bucket.
func clientKey(r *http.Request) string {
	if ac := AuthContextFrom(r.Context()); ac != nil {
		return ac.Username
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// correlationIDFrom returns the chi request id, generating one when the
// RequestID middleware is not installed.
func correlationIDFrom(r *http.Request) string {
	if id := chimw.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}

// ExtractToken pulls a raw token from the request. The Authorization
// header's Bearer value takes precedence; the jwt_token cookie is the
// fallback. Pure function of the request's headers and cookies.
func ExtractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(jwtCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
