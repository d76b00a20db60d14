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

// Package authtoken issues and verifies signed access and refresh tokens.
package authtoken

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Roles carried in the token role claim.
const (
	// RoleGuest is a wedding guest authenticated via invitation code.
	RoleGuest = "GUEST"
	// RoleAdmin is a site administrator.
	RoleAdmin = "ADMIN"
)

// Token type tags. Only access tokens grant access to resources; a refresh
// token can only mint a new access token.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Verification and issuance errors.
var (
	// ErrKeySourceUnavailable indicates key material could not be retrieved.
	ErrKeySourceUnavailable = errors.New("key source unavailable")
	// ErrExpired indicates the token is past its expiry timestamp.
	ErrExpired = errors.New("token expired")
	// ErrMalformed indicates the token string is not a parsable JWT.
	ErrMalformed = errors.New("token malformed")
	// ErrSignatureInvalid indicates a signature that does not verify.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrClaimsIncomplete indicates required claims are missing or do not
	// match the expected issuer/audience.
	ErrClaimsIncomplete = errors.New("token claims incomplete")
	// ErrWrongTokenType indicates a refresh operation with a non-refresh token.
	ErrWrongTokenType = errors.New("wrong token type")
)

// CustomClaims holds the claims encoded in every issued token.
type CustomClaims struct {
	// EventID is the tenant (wedding event) the token is scoped to.
	EventID string `json:"event_id"`
	// Role is GUEST or ADMIN.
	Role string `json:"role"`
	// GroupID is the invitation party/group identifier, when known.
	GroupID string `json:"group_id,omitempty"`
	// TokenType tags the token as access or refresh.
	TokenType string `json:"token_type"`

	jwt.RegisteredClaims
}

// Pair is the result of issuing tokens for an identity.
type Pair struct {
	// AccessToken is the short-lived bearer token.
	AccessToken string `json:"access_token"`
	// RefreshToken can mint a new access token; it grants no resource access.
	RefreshToken string `json:"refresh_token"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
}

// Options configures a Token service.
type Options struct {
	// Issuer stamped into and required of every token.
	Issuer string
	// Audience stamped into and required of every token.
	Audience string
	// AccessTTL is the access token lifetime.
	AccessTTL time.Duration
	// RefreshTTL is the refresh token lifetime.
	RefreshTTL time.Duration
}

// Token issues and verifies RS256-signed JWTs.
type Token struct {
	logger *slog.Logger
	keys   KeySource
	opts   Options

	// now is swappable in tests.
	now func() time.Time
}

// New creates a new Token service backed by the given key source.
func New(
	logger *slog.Logger,
	keys KeySource,
	opts Options,
) *Token {
	return &Token{
		logger: logger,
		keys:   keys,
		opts:   opts,
		now:    time.Now,
	}
}
