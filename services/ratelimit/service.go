package ratelimit

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/microfront/profile-service/jwtauth"
	"github.com/microfront/profile-service/middleware"
	"github.com/microfront/profile-service/utils"
)

// Result represents the outcome of a rate limit check
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Service enforces a per-client sliding window rate limit in memory.
// Events are kept per scope key and pruned as the window slides.
type Service struct {
	mu     sync.Mutex
	events map[string][]time.Time

	limit  int
	window time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a rate limit service allowing limit events per window
func NewService(limit int, window time.Duration, logger *zap.Logger) *Service {
	return &Service{
		events: make(map[string][]time.Time),
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// Check records an event for the scope key and reports whether it is
// within the limit. Events past the window no longer count.
func (s *Service) Check(key string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	windowStart := now.Add(-s.window)

	kept := pruneBefore(s.events[key], windowStart)

	if len(kept) >= s.limit {
		s.events[key] = kept
		return Result{
			Allowed:   false,
			Remaining: 0,
			ResetAt:   kept[0].Add(s.window),
		}
	}

	kept = append(kept, now)
	s.events[key] = kept

	return Result{
		Allowed:   true,
		Remaining: s.limit - len(kept),
		ResetAt:   now.Add(s.window),
	}
}

// ReportAttempt implements middleware.AttemptReporter. Authentication
// failures count against the client's window so that repeated bad tokens
// from one source get throttled; successes are logged only.
func (s *Service) ReportAttempt(key string, outcome middleware.Outcome, kind jwtauth.ErrorKind) {
	if outcome == middleware.OutcomeSuccess {
		s.logger.Debug("auth attempt",
			zap.String("key", key),
			zap.String("outcome", string(outcome)))
		return
	}

	result := s.Check(key)
	s.logger.Info("auth attempt",
		zap.String("key", key),
		zap.String("outcome", string(outcome)),
		zap.String("error_kind", string(kind)),
		zap.Int("remaining", result.Remaining))
}

// Middleware limits requests per client IP, responding 429 once the
// window is exhausted.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := s.Check(ClientIP(r))
		if !result.Allowed {
			s.logger.Warn("rate limit exceeded",
				zap.String("client_ip", ClientIP(r)),
				zap.Time("reset_at", result.ResetAt))
			utils.WriteTooManyRequests(w, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartCleanupWorker periodically drops scope keys whose events have all
// left the window, keeping the map from growing unbounded.
func (s *Service) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("started rate limit cleanup worker",
		zap.Duration("interval", interval))

	for {
		select {
		case <-ticker.C:
			removed := s.cleanup()
			if removed > 0 {
				s.logger.Debug("cleaned up rate limit scopes",
					zap.Int("scopes_removed", removed))
			}
		case <-ctx.Done():
			s.logger.Info("stopping rate limit cleanup worker")
			return
		}
	}
}

func (s *Service) cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	windowStart := s.now().Add(-s.window)
	removed := 0
	for key, events := range s.events {
		kept := pruneBefore(events, windowStart)
		if len(kept) == 0 {
			delete(s.events, key)
			removed++
			continue
		}
		s.events[key] = kept
	}
	return removed
}

func pruneBefore(events []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(events) && events[i].Before(cutoff) {
		i++
	}
	return events[i:]
}

// ClientIP extracts the client address without the port
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
