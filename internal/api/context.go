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
	"github.com/labstack/echo/v4"

	"github.com/hartwell/rsvpd/internal/authtoken"
)

// Context key constants for injecting the verified identity into handlers.
const (
	ContextKeySubject = "auth.subject"
	ContextKeyRole    = "auth.role"
	ContextKeyEventID = "auth.event_id"
	ContextKeyGroupID = "auth.group_id"
)

// setAuthContext stores the verified claims on the request context.
func setAuthContext(
	c echo.Context,
	claims *authtoken.CustomClaims,
) {
	c.Set(ContextKeySubject, claims.Subject)
	c.Set(ContextKeyRole, claims.Role)
	c.Set(ContextKeyEventID, claims.EventID)
	c.Set(ContextKeyGroupID, claims.GroupID)
}

// authSubject returns the verified subject, empty for anonymous requests.
func authSubject(
	c echo.Context,
) string {
	subject, _ := c.Get(ContextKeySubject).(string)
	return subject
}

