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

package authtoken

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Issue signs a fresh access/refresh token pair for the given identity.
// Each token gets its own random identifier so it can be revoked or traced
// independently.
func (t *Token) Issue(
	identity string,
	role string,
	eventID string,
	groupID string,
) (*Pair, error) {
	access, err := t.sign(identity, role, eventID, groupID, TypeAccess, t.opts.AccessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := t.sign(identity, role, eventID, groupID, TypeRefresh, t.opts.RefreshTTL)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(t.opts.AccessTTL.Seconds()),
	}, nil
}

// Refresh verifies a refresh token and mints a new access token carrying the
// same claims. A token without the refresh type tag is rejected; a refresh
// token never grants access to resources directly.
func (t *Token) Refresh(
	refreshToken string,
) (string, error) {
	claims, err := t.Validate(refreshToken)
	if err != nil {
		return "", err
	}

	if claims.TokenType != TypeRefresh {
		return "", fmt.Errorf("%w: got %q", ErrWrongTokenType, claims.TokenType)
	}

	return t.sign(
		claims.Subject,
		claims.Role,
		claims.EventID,
		claims.GroupID,
		TypeAccess,
		t.opts.AccessTTL,
	)
}

// sign builds and signs one token with the service's private key.
func (t *Token) sign(
	identity string,
	role string,
	eventID string,
	groupID string,
	tokenType string,
	ttl time.Duration,
) (string, error) {
	key, err := t.keys.SigningKey()
	if err != nil {
		return "", err
	}

	now := t.now()
	claims := CustomClaims{
		EventID:   eventID,
		Role:      role,
		GroupID:   groupID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   identity,
			Issuer:    t.opts.Issuer,
			Audience:  jwt.ClaimStrings{t.opts.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}
