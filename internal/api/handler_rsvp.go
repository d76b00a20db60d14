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
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"

	"github.com/hartwell/rsvpd/internal/store"
	"github.com/hartwell/rsvpd/internal/validation"
)

// rsvpUpdateRequest is the guest-facing RSVP submission. Identity fields are
// taken from the verified token, never from the body.
type rsvpUpdateRequest struct {
	RSVPStatus   string   `json:"rsvp_status" validate:"required,rsvp_status"`
	PlusOnes     int      `json:"plus_ones"   validate:"gte=0"`
	Attendees    []string `json:"attendees"`
	DietaryNotes string   `json:"dietary_notes"`
}

// handleGetRSVP returns the authenticated guest's own record.
func (s *Server) handleGetRSVP(
	c echo.Context,
) error {
	eventID, _ := c.Get(ContextKeyEventID).(string)

	guest, err := s.guests.Get(c.Request().Context(), eventID, authSubject(c))
	if err != nil {
		if errors.Is(err, store.ErrGuestNotFound) {
			return respondError(c, http.StatusNotFound, "rsvp record not found")
		}
		s.logger.Error("guest lookup failed", "error", err)
		return respondError(c, http.StatusInternalServerError, "internal error")
	}

	return respondOK(c, http.StatusOK, guest)
}

// handlePutRSVP updates the authenticated guest's own record. The party size
// invariant is enforced here; admins editing records through the admin
// surface are not bound by it.
func (s *Server) handlePutRSVP(
	c echo.Context,
) error {
	var req rsvpUpdateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if msg, ok := validation.Struct(req); !ok {
		return respondError(c, http.StatusBadRequest, msg)
	}

	ctx := c.Request().Context()
	eventID, _ := c.Get(ContextKeyEventID).(string)

	guest, err := s.guests.Get(ctx, eventID, authSubject(c))
	if err != nil {
		if errors.Is(err, store.ErrGuestNotFound) {
			return respondError(c, http.StatusNotFound, "rsvp record not found")
		}
		s.logger.Error("guest lookup failed", "error", err)
		return respondError(c, http.StatusInternalServerError, "internal error")
	}

	guest.RSVPStatus = req.RSVPStatus
	guest.PlusOnes = req.PlusOnes
	guest.Attendees = req.Attendees
	guest.DietaryNotes = req.DietaryNotes

	if err := guest.ValidateParty(); err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	if guest.RSVPStatus == store.StatusAttending && guest.Confirmation == "" {
		guest.Confirmation = newConfirmationCode()
	}

	if err := s.guests.Put(ctx, guest); err != nil {
		s.logger.Error("guest write failed", "error", err)
		return respondError(c, http.StatusInternalServerError, "internal error")
	}

	return respondOK(c, http.StatusOK, guest)
}

// newConfirmationCode derives a short human-readable confirmation code. The
// ULID prefix keeps codes sortable by issue time.
func newConfirmationCode() string {
	return strings.ToUpper(ulid.Make().String()[:10])
}
