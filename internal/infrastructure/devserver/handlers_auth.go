package devserver

import (
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
	"github.com/Nathan-Yinka/Project-management-application/internal/infrastructure/metrics"
)

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password" validate:"required,min=8"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validate.Struct(req); err != nil {
		writeFields(w, validationErrors(err))
		return
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		s.log.Error().Err(err).Msg("hash password")
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.data.mu.Lock()
	if s.data.usernameTaken(req.Username) {
		s.data.mu.Unlock()
		writeFields(w, fieldError("username", "A user with that username already exists."))
		return
	}
	if s.data.accountByEmail(req.Email) != nil {
		s.data.mu.Unlock()
		writeFields(w, fieldError("email", "A user with that email already exists."))
		return
	}
	u := domain.User{
		ID:        domain.UserID(s.data.id()),
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	s.data.accounts[u.ID] = &account{user: u, hash: hash}
	s.data.mu.Unlock()

	s.log.Info().Str("user", u.ID.String()).Msg("account registered")
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req domain.Credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		fe := fieldError("non_field_errors", "Must include \"username\" and \"password\".")
		writeFields(w, fe)
		return
	}
	if locked, wait := s.lockout.locked(req.Username); locked {
		metrics.RecordLogin(false)
		secs := int(math.Ceil(wait.Seconds()))
		w.Header().Set("Retry-After", fmt.Sprint(secs))
		writeDetail(w, http.StatusTooManyRequests, fmt.Sprintf("Too many failed login attempts. Try again in %d seconds.", secs))
		return
	}

	s.data.mu.RLock()
	acc := s.data.accountByLogin(req.Username)
	var u domain.User
	var hash string
	if acc != nil {
		u, hash = acc.user, acc.hash
	}
	s.data.mu.RUnlock()

	if acc == nil || !verifyPassword(req.Password, hash) {
		s.lockout.fail(req.Username)
		metrics.RecordLogin(false)
		writeFields(w, fieldError("non_field_errors", "Unable to log in with provided credentials."))
		return
	}
	tok, err := s.tokens.issue(u)
	if err != nil {
		s.log.Error().Err(err).Msg("issue token")
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.lockout.succeed(req.Username)
	metrics.RecordLogin(true)
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.data.mu.RLock()
	acc := s.data.accounts[userFrom(r.Context())]
	u := acc.user
	s.data.mu.RUnlock()
	writeJSON(w, http.StatusOK, u)
}
