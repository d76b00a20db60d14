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

package authtoken_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"

	"github.com/hartwell/rsvpd/internal/authtoken"
)

// countingKeySource counts calls through to an inner source.
type countingKeySource struct {
	inner authtoken.KeySource
	calls atomic.Int64
}

func (c *countingKeySource) SigningKey() (*rsa.PrivateKey, error) {
	c.calls.Add(1)
	return c.inner.SigningKey()
}

func (c *countingKeySource) VerifyKey() (*rsa.PublicKey, error) {
	c.calls.Add(1)
	return c.inner.VerifyKey()
}

type KeySourcePublicTestSuite struct {
	suite.Suite

	appFs afero.Fs
	key   *rsa.PrivateKey
}

func (s *KeySourcePublicTestSuite) SetupSuite() {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	s.Require().NoError(err)
	s.key = key
}

func (s *KeySourcePublicTestSuite) SetupTest() {
	s.appFs = afero.NewMemMapFs()

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(s.key),
	})
	pubBytes, err := x509.MarshalPKIXPublicKey(&s.key.PublicKey)
	s.Require().NoError(err)
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubBytes,
	})

	s.Require().NoError(afero.WriteFile(s.appFs, "/keys/signing.pem", privPEM, 0o600))
	s.Require().NoError(afero.WriteFile(s.appFs, "/keys/signing.pub.pem", pubPEM, 0o644))
}

func (s *KeySourcePublicTestSuite) TestFileKeySource() {
	src := authtoken.NewFileKeySource(s.appFs, "/keys/signing.pem", "/keys/signing.pub.pem")

	priv, err := src.SigningKey()
	s.NoError(err)
	s.NotNil(priv)

	pub, err := src.VerifyKey()
	s.NoError(err)
	s.NotNil(pub)
}

func (s *KeySourcePublicTestSuite) TestFileKeySourceMissingFile() {
	src := authtoken.NewFileKeySource(s.appFs, "/keys/missing.pem", "/keys/missing.pub.pem")

	_, err := src.SigningKey()
	s.ErrorIs(err, authtoken.ErrKeySourceUnavailable)

	_, err = src.VerifyKey()
	s.ErrorIs(err, authtoken.ErrKeySourceUnavailable)
}

func (s *KeySourcePublicTestSuite) TestFileKeySourceBadPEM() {
	s.Require().NoError(afero.WriteFile(s.appFs, "/keys/garbage.pem", []byte("garbage"), 0o600))
	src := authtoken.NewFileKeySource(s.appFs, "/keys/garbage.pem", "/keys/garbage.pem")

	_, err := src.SigningKey()
	s.ErrorIs(err, authtoken.ErrKeySourceUnavailable)
}

func (s *KeySourcePublicTestSuite) TestCachedKeySourceServesFromCache() {
	inner := &countingKeySource{
		inner: authtoken.NewFileKeySource(s.appFs, "/keys/signing.pem", "/keys/signing.pub.pem"),
	}
	cached := authtoken.NewCachedKeySource(inner, time.Hour)

	for i := 0; i < 3; i++ {
		_, err := cached.SigningKey()
		s.NoError(err)
	}

	s.Equal(int64(1), inner.calls.Load())
}

func (s *KeySourcePublicTestSuite) TestCachedKeySourceRefreshesPastTTL() {
	inner := &countingKeySource{
		inner: authtoken.NewFileKeySource(s.appFs, "/keys/signing.pem", "/keys/signing.pub.pem"),
	}
	cached := authtoken.NewCachedKeySource(inner, 10*time.Millisecond)

	_, err := cached.VerifyKey()
	s.NoError(err)

	time.Sleep(20 * time.Millisecond)

	_, err = cached.VerifyKey()
	s.NoError(err)

	s.Equal(int64(2), inner.calls.Load())
}

func (s *KeySourcePublicTestSuite) TestCachedKeySourcePropagatesErrors() {
	inner := &countingKeySource{
		inner: authtoken.NewFileKeySource(s.appFs, "/keys/missing.pem", "/keys/missing.pub.pem"),
	}
	cached := authtoken.NewCachedKeySource(inner, time.Hour)

	_, err := cached.SigningKey()
	s.ErrorIs(err, authtoken.ErrKeySourceUnavailable)
}

func TestKeySourcePublicTestSuite(t *testing.T) {
	suite.Run(t, new(KeySourcePublicTestSuite))
}
