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
	"crypto/rsa"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/spf13/afero"
)

// KeySource retrieves the asymmetric key pair used to sign and verify tokens.
// Key storage and access control belong to the deployment environment; this
// interface only models retrieval.
type KeySource interface {
	// SigningKey returns the RSA private key.
	SigningKey() (*rsa.PrivateKey, error)
	// VerifyKey returns the RSA public key.
	VerifyKey() (*rsa.PublicKey, error)
}

// FileKeySource reads PEM-encoded keys from the filesystem.
type FileKeySource struct {
	appFs       afero.Fs
	privatePath string
	publicPath  string
}

// NewFileKeySource creates a key source reading PEM files from the given paths.
func NewFileKeySource(
	appFs afero.Fs,
	privatePath string,
	publicPath string,
) *FileKeySource {
	return &FileKeySource{
		appFs:       appFs,
		privatePath: privatePath,
		publicPath:  publicPath,
	}
}

// SigningKey reads and parses the private key PEM.
func (s *FileKeySource) SigningKey() (*rsa.PrivateKey, error) {
	data, err := afero.ReadFile(s.appFs, s.privatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrKeySourceUnavailable, s.privatePath, err)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse private key: %v", ErrKeySourceUnavailable, err)
	}

	return key, nil
}

// VerifyKey reads and parses the public key PEM.
func (s *FileKeySource) VerifyKey() (*rsa.PublicKey, error) {
	data, err := afero.ReadFile(s.appFs, s.publicPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrKeySourceUnavailable, s.publicPath, err)
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse public key: %v", ErrKeySourceUnavailable, err)
	}

	return key, nil
}

// CachedKeySource wraps a KeySource with a TTL cache. A short TTL bounds
// calls to the underlying source while still picking up rotated keys within
// one TTL window. Safe for concurrent use.
type CachedKeySource struct {
	src KeySource
	ttl time.Duration

	mu            sync.Mutex
	private       *rsa.PrivateKey
	public        *rsa.PublicKey
	privateExpiry time.Time
	publicExpiry  time.Time

	// now is swappable in tests.
	now func() time.Time
}

// NewCachedKeySource wraps src with a TTL cache.
func NewCachedKeySource(
	src KeySource,
	ttl time.Duration,
) *CachedKeySource {
	return &CachedKeySource{
		src: src,
		ttl: ttl,
		now: time.Now,
	}
}

// SigningKey returns the cached private key, refreshing it past the TTL.
func (c *CachedKeySource) SigningKey() (*rsa.PrivateKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.private != nil && c.now().Before(c.privateExpiry) {
		return c.private, nil
	}

	key, err := c.src.SigningKey()
	if err != nil {
		return nil, err
	}

	c.private = key
	c.privateExpiry = c.now().Add(c.ttl)

	return key, nil
}

// VerifyKey returns the cached public key, refreshing it past the TTL.
func (c *CachedKeySource) VerifyKey() (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.public != nil && c.now().Before(c.publicExpiry) {
		return c.public, nil
	}

	key, err := c.src.VerifyKey()
	if err != nil {
		return nil, err
	}

	c.public = key
	c.publicExpiry = c.now().Add(c.ttl)

	return key, nil
}
