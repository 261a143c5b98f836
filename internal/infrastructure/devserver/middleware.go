package devserver

import (
	"context"
	"net/http"
	"strings"

	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	stdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limitstore "github.com/ulule/limiter/v3/drivers/store/memory"
	"github.com/unrolled/secure"

	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user"

func withUser(ctx context.Context, id domain.UserID) context.Context {
	return context.WithValue(ctx, userContextKey, id)
}

// userFrom returns the authenticated user's ID, zero when absent.
func userFrom(ctx context.Context) domain.UserID {
	id, _ := ctx.Value(userContextKey).(domain.UserID)
	return id
}

// requireToken validates the bearer token and puts the user in the context.
// Tokens of deleted accounts are rejected too.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		id, err := s.tokens.validate(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Invalid token.")
			return
		}
		s.data.mu.RLock()
		_, ok := s.data.accounts[id]
		s.data.mu.RUnlock()
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Invalid token.")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), id)))
	})
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Info().
				Str("request_id", chimid.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("request")
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter limits by client IP. rate uses the "100-M" form; empty
// disables it.
func rateLimiter(rate string) (func(next http.Handler) http.Handler, error) {
	if rate == "" {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	return stdlib.NewMiddleware(limiter.New(limitstore.NewStore(), r)).Handler, nil
}

// secureHeaders adds the usual browser hardening headers. The dev server is
// always plain HTTP, so HTTPS-only options stay off.
func secureHeaders() func(next http.Handler) http.Handler {
	return secure.New(secure.Options{
		IsDevelopment:      true,
		ContentTypeNosniff: true,
		FrameDeny:          true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}).Handler
}
