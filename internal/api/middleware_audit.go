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
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hartwell/rsvpd/internal/audit"
)

// excludedAuditPaths are endpoints whose traffic is not worth recording.
var excludedAuditPaths = []string{
	"/health",
	"/metrics",
}

// auditMiddleware records data access and modification events for
// authenticated requests after the handler has run.
func (s *Server) auditMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			path := c.Request().URL.Path
			for _, excluded := range excludedAuditPaths {
				if strings.HasPrefix(path, excluded) {
					return err
				}
			}

			subject, _ := c.Get(ContextKeySubject).(string)
			if subject == "" {
				return err
			}

			eventType := audit.EventDataAccess
			switch c.Request().Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
				eventType = audit.EventDataModification
			}

			actor := audit.Actor{
				Email:    subject,
				SourceIP: c.RealIP(),
			}
			method := c.Request().Method
			details := map[string]string{
				"status": strconv.Itoa(c.Response().Status),
			}

			// write off the request path so a slow audit store cannot
			// delay the response
			go s.recorder.Record(
				context.WithoutCancel(c.Request().Context()),
				eventType,
				actor,
				method,
				path,
				details,
			)

			return err
		}
	}
}
