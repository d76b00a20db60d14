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
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hartwell/rsvpd/internal/audit"
	"github.com/hartwell/rsvpd/internal/store"
	"github.com/hartwell/rsvpd/internal/validation"
)

// auditListResponse is the paginated audit query result.
type auditListResponse struct {
	Events []audit.Event `json:"events"`
	Total  int           `json:"total"`
}

// handleAdminListGuests returns every guest record for the event.
func (s *Server) handleAdminListGuests(
	c echo.Context,
) error {
	guests, err := s.guests.List(c.Request().Context(), s.appConfig.Event.ID)
	if err != nil {
		s.logger.Error("guest list failed", "error", err)
		return respondError(c, http.StatusInternalServerError, "internal error")
	}

	return respondOK(c, http.StatusOK, guests)
}

// handleAdminGetGuest returns a single guest record by email.
func (s *Server) handleAdminGetGuest(
	c echo.Context,
) error {
	guest, err := s.guests.Get(c.Request().Context(), s.appConfig.Event.ID, c.Param("email"))
	if err != nil {
		if errors.Is(err, store.ErrGuestNotFound) {
			return respondError(c, http.StatusNotFound, "guest not found")
		}
		s.logger.Error("guest lookup failed", "error", err)
		return respondError(c, http.StatusInternalServerError, "internal error")
	}

	return respondOK(c, http.StatusOK, guest)
}

// handleAdminPutGuest creates or replaces a guest record. Admin edits are not
// bound by the guest-facing party size invariant, so an organizer can fix up
// records a guest cannot.
func (s *Server) handleAdminPutGuest(
	c echo.Context,
) error {
	var guest store.Guest
	if err := c.Bind(&guest); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	guest.EventID = s.appConfig.Event.ID
	if email := c.Param("email"); email != "" {
		guest.Email = email
	}
	if guest.RSVPStatus == "" {
		guest.RSVPStatus = store.StatusPending
	}

	if msg, ok := validation.Struct(guest); !ok {
		return respondError(c, http.StatusBadRequest, msg)
	}

	if err := s.guests.Put(c.Request().Context(), &guest); err != nil {
		s.logger.Error("guest write failed", "error", err)
		return respondError(c, http.StatusInternalServerError, "internal error")
	}

	return respondOK(c, http.StatusOK, guest)
}

// handleAdminDeleteGuest removes a guest record by email.
func (s *Server) handleAdminDeleteGuest(
	c echo.Context,
) error {
	err := s.guests.Delete(c.Request().Context(), s.appConfig.Event.ID, c.Param("email"))
	if err != nil {
		if errors.Is(err, store.ErrGuestNotFound) {
			return respondError(c, http.StatusNotFound, "guest not found")
		}
		s.logger.Error("guest delete failed", "error", err)
		return respondError(c, http.StatusInternalServerError, "internal error")
	}

	return respondOK(c, http.StatusOK, nil)
}

// handleAdminAudit queries the security event log. A since query parameter
// (RFC 3339) selects events at or after that instant; otherwise the newest
// events are paginated with limit and offset.
func (s *Server) handleAdminAudit(
	c echo.Context,
) error {
	if s.auditStore == nil {
		return respondError(c, http.StatusNotFound, "audit log not configured")
	}

	ctx := c.Request().Context()

	if sinceParam := c.QueryParam("since"); sinceParam != "" {
		since, err := time.Parse(time.RFC3339, sinceParam)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "since must be RFC 3339")
		}

		events, err := s.auditStore.QuerySince(ctx, since)
		if err != nil {
			s.logger.Error("audit query failed", "error", err)
			return respondError(c, http.StatusInternalServerError, "internal error")
		}

		return respondOK(c, http.StatusOK, auditListResponse{Events: events, Total: len(events)})
	}

	limit := intQueryParam(c, "limit", 50)
	offset := intQueryParam(c, "offset", 0)

	events, total, err := s.auditStore.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("audit list failed", "error", err)
		return respondError(c, http.StatusInternalServerError, "internal error")
	}

	return respondOK(c, http.StatusOK, auditListResponse{Events: events, Total: total})
}

func intQueryParam(
	c echo.Context,
	name string,
	fallback int,
) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}

	return v
}
