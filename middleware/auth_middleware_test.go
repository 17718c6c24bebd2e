package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microfront/profile-service/jwtauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockTokenValidator is a mock implementation of TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) Validate(raw string, now time.Time) (*jwtauth.Claims, error) {
	args := m.Called(raw, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jwtauth.Claims), args.Error(1)
}

// recordingReporter captures attempt reports for assertions.
type recordingReporter struct {
	keys     []string
	outcomes []Outcome
	kinds    []jwtauth.ErrorKind
}

func (r *recordingReporter) ReportAttempt(key string, outcome Outcome, kind jwtauth.ErrorKind) {
	r.keys = append(r.keys, key)
	r.outcomes = append(r.outcomes, outcome)
	r.kinds = append(r.kinds, kind)
}

func testClaims(sub string) *jwtauth.Claims {
	now := time.Now()
	return &jwtauth.Claims{
		Subject:   sub,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
		Audience:  "micro-frontend-service",
		Issuer:    "test-auth-service",
	}
}

func TestRequireAuth(t *testing.T) {
	logger := zap.NewNop()

	t.Run("valid JWT in Authorization header allows request", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		reporter := &recordingReporter{}
		mw := NewAuthMiddleware(mockValidator, reporter, logger)

		mockValidator.On("Validate", "valid-token", mock.Anything).Return(testClaims("alice"), nil)

		handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac := AuthContextFrom(r.Context())
			require.NotNil(t, ac)
			assert.Equal(t, "alice", ac.Username)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []Outcome{OutcomeSuccess}, reporter.outcomes)
		assert.Equal(t, []string{"alice"}, reporter.keys)
		mockValidator.AssertExpectations(t)
	})

	t.Run("valid JWT in cookie yields the same identity", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		mw := NewAuthMiddleware(mockValidator, nil, logger)

		mockValidator.On("Validate", "valid-token", mock.Anything).Return(testClaims("alice"), nil)

		var fromHeader, fromCookie *jwtauth.AuthContext
		capture := func(dst **jwtauth.AuthContext) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				*dst = AuthContextFrom(r.Context())
				w.WriteHeader(http.StatusOK)
			})
		}

		headerReq := httptest.NewRequest(http.MethodGet, "/test", nil)
		headerReq.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()
		mw.RequireAuth(capture(&fromHeader)).ServeHTTP(w, headerReq)
		assert.Equal(t, http.StatusOK, w.Code)

		cookieReq := httptest.NewRequest(http.MethodGet, "/test", nil)
		cookieReq.AddCookie(&http.Cookie{Name: "jwt_token", Value: "valid-token"})
		w = httptest.NewRecorder()
		mw.RequireAuth(capture(&fromCookie)).ServeHTTP(w, cookieReq)
		assert.Equal(t, http.StatusOK, w.Code)

		assert.Equal(t, fromHeader, fromCookie)
	})

	t.Run("missing token returns 401 without calling the validator", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		reporter := &recordingReporter{}
		mw := NewAuthMiddleware(mockValidator, reporter, logger)

		handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, []jwtauth.ErrorKind{jwtauth.KindMissingToken}, reporter.kinds)
		mockValidator.AssertNotCalled(t, "Validate")
	})

	t.Run("invalid token returns 401 with a generic body", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		reporter := &recordingReporter{}
		mw := NewAuthMiddleware(mockValidator, reporter, logger)

		mockValidator.On("Validate", "bad-token", mock.Anything).
			Return(nil, jwtauth.ErrInvalidSignature)

		handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotContains(t, w.Body.String(), "bad-token")
		assert.NotContains(t, w.Body.String(), "signature")
		assert.Equal(t, []jwtauth.ErrorKind{jwtauth.KindInvalidSignature}, reporter.kinds)
	})

	t.Run("header takes precedence over cookie", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		mw := NewAuthMiddleware(mockValidator, nil, logger)

		mockValidator.On("Validate", "header-token", mock.Anything).Return(testClaims("alice"), nil)

		handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		req.AddCookie(&http.Cookie{Name: "jwt_token", Value: "cookie-token"})
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockValidator.AssertCalled(t, "Validate", "header-token", mock.Anything)
		mockValidator.AssertNotCalled(t, "Validate", "cookie-token", mock.Anything)
	})

	t.Run("malformed authorization header falls back to cookie", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		mw := NewAuthMiddleware(mockValidator, nil, logger)

		mockValidator.On("Validate", "cookie-token", mock.Anything).Return(testClaims("alice"), nil)

		handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "NotBearer something")
		req.AddCookie(&http.Cookie{Name: "jwt_token", Value: "cookie-token"})
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireOwner(t *testing.T) {
	logger := zap.NewNop()

	newRouter := func(mw *AuthMiddleware) http.Handler {
		r := chi.NewRouter()
		r.Route("/api/users/{username}", func(r chi.Router) {
			r.Use(mw.RequireAuth)
			r.Use(mw.RequireOwner("username"))
			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		})
		return r
	}

	t.Run("owner may act on own resource", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		mw := NewAuthMiddleware(mockValidator, nil, logger)
		mockValidator.On("Validate", "alice-token", mock.Anything).Return(testClaims("alice"), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/users/alice/", nil)
		req.Header.Set("Authorization", "Bearer alice-token")
		w := httptest.NewRecorder()

		newRouter(mw).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("acting on another identity's resource is forbidden", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		reporter := &recordingReporter{}
		mw := NewAuthMiddleware(mockValidator, reporter, logger)
		mockValidator.On("Validate", "alice-token", mock.Anything).Return(testClaims("alice"), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/users/bob/", nil)
		req.Header.Set("Authorization", "Bearer alice-token")
		w := httptest.NewRecorder()

		newRouter(mw).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, []Outcome{OutcomeSuccess, OutcomeFailure}, reporter.outcomes)
		assert.Equal(t, jwtauth.KindForbidden, reporter.kinds[1])
	})

	t.Run("missing auth context is rejected", func(t *testing.T) {
		mw := NewAuthMiddleware(new(MockTokenValidator), nil, logger)

		handler := mw.RequireOwner("username")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodPost, "/api/users/alice/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthContextRoundTrip(t *testing.T) {
	ac := &jwtauth.AuthContext{Username: "alice"}
	ctx := WithAuthContext(context.Background(), ac)
	assert.Equal(t, ac, AuthContextFrom(ctx))
	assert.Nil(t, AuthContextFrom(context.Background()))
}

func TestClientKey(t *testing.T) {
	t.Run("strips the port from IPv4 and IPv6 addresses", func(t *testing.T) {
		tests := []struct {
			remoteAddr string
			want       string
		}{
			{"10.0.0.1:54321", "10.0.0.1"},
			{"[2001:db8::1]:49000", "2001:db8::1"},
			{"[::1]:8080", "::1"},
			{"10.0.0.1", "10.0.0.1"},
		}

		for _, tt := range tests {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.RemoteAddr = tt.remoteAddr
			assert.Equal(t, tt.want, clientKey(req), tt.remoteAddr)
		}
	})

	t.Run("IPv6 failure reports use the same key as the rate limit bucket", func(t *testing.T) {
		reporter := &recordingReporter{}
		mockValidator := new(MockTokenValidator)
		mw := NewAuthMiddleware(mockValidator, reporter, zap.NewNop())

		mockValidator.On("Validate", "bad-token", mock.Anything).
			Return(nil, jwtauth.ErrInvalidSignature)

		handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "[2001:db8::1]:49000"
		req.Header.Set("Authorization", "Bearer bad-token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, []string{"2001:db8::1"}, reporter.keys)
	})
}
