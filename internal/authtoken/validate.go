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
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

// Validate parses and verifies a token against the public key, expected
// issuer, and expected audience. Failures are classified so callers can
// distinguish an expired token from a forged or truncated one.
func (t *Token) Validate(
	tokenString string,
) (*CustomClaims, error) {
	key, err := t.keys.VerifyKey()
	if err != nil {
		return nil, err
	}

	claims := &CustomClaims{}

	_, err = jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		},
	)
	if err != nil {
		return nil, classifyParseError(err)
	}

	if err := t.checkClaims(claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// checkClaims enforces required claims and the expected issuer/audience.
func (t *Token) checkClaims(
	claims *CustomClaims,
) error {
	switch {
	case claims.Subject == "":
		return fmt.Errorf("%w: missing subject", ErrClaimsIncomplete)
	case claims.EventID == "":
		return fmt.Errorf("%w: missing event_id", ErrClaimsIncomplete)
	case claims.Role == "":
		return fmt.Errorf("%w: missing role", ErrClaimsIncomplete)
	case claims.TokenType == "":
		return fmt.Errorf("%w: missing token_type", ErrClaimsIncomplete)
	case claims.Issuer != t.opts.Issuer:
		return fmt.Errorf("%w: unexpected issuer %q", ErrClaimsIncomplete, claims.Issuer)
	case !claims.VerifyAudience(t.opts.Audience, true):
		return fmt.Errorf("%w: unexpected audience", ErrClaimsIncomplete)
	}

	return nil
}

// classifyParseError maps jwt parse failures onto the package's sentinel
// errors. Expiry is checked first: an expired token is routine, not
// suspicious, and callers audit the two differently.
func classifyParseError(
	err error,
) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
