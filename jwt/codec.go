package jwt

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/userauth/role"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TypeAccess is the typ claim of access tokens.
	TypeAccess = "access"
	// TypeRefresh is the typ claim of refresh tokens.
	TypeRefresh = "refresh"
)

var (
	// ErrInvalidToken wraps every verification failure.
	ErrInvalidToken = errors.New("invalid token")
	// ErrSharedKeyMaterial is returned by NewCodec when both contexts can
	// verify with the same key.
	ErrSharedKeyMaterial = errors.New("access and refresh contexts share key material")
)

// AccessPayload is the identity snapshot embedded in an access token.
type AccessPayload struct {
	UserID string
	Email  string
	Name   string
	Role   role.Role
}

// RefreshPayload identifies the user a refresh token was issued to.
type RefreshPayload struct {
	UserID string
}

// AccessClaims is the decoded body of a verified access token.
type AccessClaims struct {
	UID   string    `json:"uid"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  role.Role `json:"role"`
	Type  string    `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims is the decoded body of a verified refresh token.
type RefreshClaims struct {
	UID  string `json:"uid"`
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Token is a signed compact JWT and the instant it stops verifying.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Option customizes a Codec.
type Option func(*Codec)

// WithClock replaces time.Now for issuance and verification.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// Codec issues and verifies access and refresh tokens. It is immutable after
// construction and safe for concurrent use.
type Codec struct {
	now     func() time.Time
	access  *signer
	refresh *signer
}

// NewCodec validates both contexts and rejects configurations in which they
// share key material.
func NewCodec(access, refresh Config, opts ...Option) (*Codec, error) {
	c := &Codec{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}

	// Signers read the clock through c so both contexts share one source.
	clock := func() time.Time { return c.now() }

	var err error
	if c.access, err = newSigner("access", access, clock); err != nil {
		return nil, err
	}
	if c.refresh, err = newSigner("refresh", refresh, clock); err != nil {
		return nil, err
	}
	if shareMaterial(c.access.config, c.refresh.config) {
		return nil, ErrSharedKeyMaterial
	}
	return c, nil
}

// AccessTTL returns the lifetime of issued access tokens.
func (c *Codec) AccessTTL() time.Duration { return c.access.config.TTL }

// RefreshTTL returns the lifetime of issued refresh tokens.
func (c *Codec) RefreshTTL() time.Duration { return c.refresh.config.TTL }

// IssueAccess signs an access token for p.
func (c *Codec) IssueAccess(p AccessPayload) (Token, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return Token{}, errors.New("access payload requires a user id")
	}
	if !p.Role.Valid() {
		return Token{}, fmt.Errorf("access payload: %w", role.ErrInvalid)
	}

	claims := AccessClaims{
		UID:              p.UserID,
		Email:            p.Email,
		Name:             p.Name,
		Role:             p.Role,
		Type:             TypeAccess,
		RegisteredClaims: c.access.registered(uuid.NewString()),
	}
	value, err := c.access.sign(claims)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: value, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// IssueRefresh signs a refresh token for p.
func (c *Codec) IssueRefresh(p RefreshPayload) (Token, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return Token{}, errors.New("refresh payload requires a user id")
	}

	claims := RefreshClaims{
		UID:              p.UserID,
		Type:             TypeRefresh,
		RegisteredClaims: c.refresh.registered(uuid.NewString()),
	}
	value, err := c.refresh.sign(claims)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: value, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// VerifyAccess checks signature, algorithm, expiry and shape of an access
// token. Every failure wraps ErrInvalidToken.
func (c *Codec) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.access.parse(token, claims); err != nil {
		return nil, invalid(err)
	}
	if claims.Type != TypeAccess {
		return nil, invalid(errors.New("unexpected token type"))
	}
	if claims.UID == "" {
		return nil, invalid(errors.New("missing uid"))
	}
	if !claims.Role.Valid() {
		return nil, invalid(role.ErrInvalid)
	}
	return claims, nil
}

// VerifyRefresh checks signature, algorithm, expiry and shape of a refresh
// token. Every failure wraps ErrInvalidToken.
func (c *Codec) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.refresh.parse(token, claims); err != nil {
		return nil, invalid(err)
	}
	if claims.Type != TypeRefresh {
		return nil, invalid(errors.New("unexpected token type"))
	}
	if claims.UID == "" {
		return nil, invalid(errors.New("missing uid"))
	}
	return claims, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidToken, err)
}

func shareMaterial(a, b Config) bool {
	if a.SigningMethod != b.SigningMethod {
		return false
	}
	left, right := verifyMaterial(a), verifyMaterial(b)
	for _, l := range left {
		for _, r := range right {
			if bytes.Equal(l, r) {
				return true
			}
		}
	}
	return false
}

// verifyMaterial lists every key that can verify tokens in cfg's context,
// normalized to raw bytes.
func verifyMaterial(cfg Config) [][]byte {
	var keys [][]byte
	switch cfg.SigningMethod {
	case MethodHS256:
		keys = append(keys, cfg.PrivateKey)
		for _, k := range cfg.VerifyKeys {
			keys = append(keys, k)
		}
	case MethodEd25519:
		if priv, err := parseEdPrivateKey(cfg.PrivateKey); err == nil {
			keys = append(keys, []byte(priv.Public().(ed25519.PublicKey)))
		}
		if pub, err := parseEdPublicKey(cfg.PublicKey); err == nil {
			keys = append(keys, []byte(pub))
		}
		for _, k := range cfg.VerifyKeys {
			if pub, err := parseEdPublicKey(k); err == nil {
				keys = append(keys, []byte(pub))
			}
		}
	}
	return keys
}
