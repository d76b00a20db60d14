// Copyright (c) 2025 Jordan Hartwell

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hartwell/rsvpd/internal/audit"
	"github.com/hartwell/rsvpd/internal/authtoken"
	"github.com/hartwell/rsvpd/internal/store"
	"github.com/hartwell/rsvpd/internal/telemetry"
	"github.com/hartwell/rsvpd/internal/throttle"
	"github.com/hartwell/rsvpd/internal/validation"
)

// invitationLoginRequest is the guest login payload.
type invitationLoginRequest struct {
	InvitationCode string `json:"invitation_code" validate:"required"`
}

// refreshRequest exchanges a refresh token for a new access token.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// refreshResponse carries the re-minted access token.
type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

// handleInvitationLogin exchanges an invitation code for a guest token pair.
// Failed attempts are throttled per source IP.
func (s *Server) handleInvitationLogin(
	c echo.Context,
) error {
	var req invitationLoginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if msg, ok := validation.Struct(req); !ok {
		return respondError(c, http.StatusBadRequest, msg)
	}

	eventID := s.appConfig.Event.ID
	key := throttle.Key("invite", eventID, c.RealIP())

	if s.limiter.IsLockedOut(key) {
		telemetry.Lockouts.WithLabelValues("invite").Inc()
		s.record(c, audit.EventRateLimitExceeded, map[string]string{
			"operation": "invitation_login",
		})
		return respondError(c, http.StatusTooManyRequests, "too many failed attempts, try again later")
	}

	guest, err := s.guests.FindByInvitationCode(c.Request().Context(), eventID, req.InvitationCode)
	if err != nil {
		if errors.Is(err, store.ErrInvitationCodeNotFound) {
			telemetry.AuthFailures.WithLabelValues("invitation_code").Inc()
			locked, _ := s.limiter.RecordFailure(key)
			s.record(c, audit.EventLoginFailure, map[string]string{
				"operation": "invitation_login",
			})
			if locked {
				s.record(c, audit.EventSuspiciousActivity, map[string]string{
					"operation": "invitation_login",
					"reason":    "failure threshold reached",
				})
			}
			return respondError(c, http.StatusUnauthorized, "invitation code not recognized")
		}
		s.logger.Error("invitation lookup failed", "error", err)
		return respondError(c, http.StatusInternalServerError, "internal error")
	}

	s.limiter.Clear(key)

	pair, err := s.tokens.Issue(guest.Email, authtoken.RoleGuest, eventID, guest.GroupID)
	if err != nil {
		s.logger.Error("token issuance failed", "error", err)
		return respondError(c, http.StatusInternalServerError, "internal error")
	}

	s.recordAs(c, audit.EventLoginSuccess, guest.Email, map[string]string{
		"operation": "invitation_login",
	})

	return respondOK(c, http.StatusOK, pair)
}

// handleRefresh mints a fresh access token from a refresh token.
func (s *Server) handleRefresh(
	c echo.Context,
) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if msg, ok := validation.Struct(req); !ok {
		return respondError(c, http.StatusBadRequest, msg)
	}

	access, err := s.tokens.Refresh(req.RefreshToken)
	if err != nil {
		eventType := audit.EventInvalidToken
		reason := "invalid"
		if errors.Is(err, authtoken.ErrExpired) {
			eventType = audit.EventExpiredToken
			reason = "expired"
		}
		telemetry.AuthFailures.WithLabelValues(reason).Inc()
		s.record(c, eventType, map[string]string{
			"operation": "refresh",
		})
		return respondError(c, http.StatusUnauthorized, "invalid or expired refresh token")
	}

	return respondOK(c, http.StatusOK, refreshResponse{AccessToken: access})
}

// handleAdminLogin verifies admin console credentials and issues an admin
// token pair. Credential failures are throttled per email and source IP, and
// lockouts are recorded as brute force attempts.
func (s *Server) handleAdminLogin(
	c echo.Context,
) error {
	var req adminLoginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if msg, ok := validation.Struct(req); !ok {
		return respondError(c, http.StatusBadRequest, msg)
	}

	email := strings.ToLower(req.Email)
	key := throttle.Key("admin-login", email, c.RealIP())

	if s.limiter.IsLockedOut(key) {
		telemetry.Lockouts.WithLabelValues("admin_login").Inc()
		s.recordAs(c, audit.EventRateLimitExceeded, email, map[string]string{
			"operation": "admin_login",
		})
		return respondError(c, http.StatusTooManyRequests, "too many failed attempts, try again later")
	}

	if !s.adminCredentialsValid(email, req.Password) {
		telemetry.AuthFailures.WithLabelValues("credentials").Inc()
		locked, _ := s.limiter.RecordFailure(key)
		s.recordAs(c, audit.EventLoginFailure, email, map[string]string{
			"operation": "admin_login",
		})
		if locked {
			s.recordAs(c, audit.EventBruteForceAttempt, email, map[string]string{
				"operation": "admin_login",
				"reason":    "failure threshold reached",
			})
		}
		return respondError(c, http.StatusUnauthorized, "invalid credentials")
	}

	s.limiter.Clear(key)

	pair, err := s.tokens.Issue(email, authtoken.RoleAdmin, s.appConfig.Event.ID, "")
	if err != nil {
		s.logger.Error("token issuance failed", "error", err)
		return respondError(c, http.StatusInternalServerError, "internal error")
	}

	s.recordAs(c, audit.EventLoginSuccess, email, map[string]string{
		"operation": "admin_login",
	})

	return respondOK(c, http.StatusOK, pair)
}

// adminLoginRequest is the admin console login payload.
type adminLoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// adminCredentialsValid checks the supplied credentials against the
// configured admin accounts using a constant-time comparison.
func (s *Server) adminCredentialsValid(
	email string,
	password string,
) bool {
	for _, cred := range s.appConfig.Auth.Admins {
		if strings.EqualFold(cred.Email, email) &&
			subtleCompare(cred.Password, password) {
			return true
		}
	}

	return false
}

func subtleCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
