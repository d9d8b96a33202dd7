package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/google/uuid"
)

// TokenClass selects which secret signs or verifies a token.
type TokenClass int

const (
	AccessClass TokenClass = iota
	RefreshClass
)

// Verification failures.  Callers may not distinguish anything finer.
var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// Identity is the subject carried by both token classes.
type Identity struct {
	UserID   uint64
	Username string
	Role     string
}

// Claims is the JWT payload.  The field names match what the browser
// client reads out of the token.
type Claims struct {
	UserID   uint64 `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Identity extracts the subject from c.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Username: c.Username, Role: c.Role}
}

// SignedToken is a serialized JWT together with its expiry.
type SignedToken struct {
	Token string
	Exp   time.Time
}

// TokenPair is what a successful login hands back.
type TokenPair struct {
	Access  SignedToken
	Refresh SignedToken
}

// TokenService issues and verifies HS256 access and refresh tokens.  Each
// class has its own secret and lifetime.  Nothing is persisted: a token
// is valid exactly when its signature and expiry check out.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenService builds a TokenService.  The secrets must differ so a
// refresh token can never pass as an access token.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// AccessTTL is the lifetime of access tokens (used for cookie max-age).
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL is the lifetime of refresh tokens.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// Issue signs a fresh access and refresh token for id.
func (s *TokenService) Issue(id Identity) (TokenPair, error) {
	access, err := s.sign(id, AccessClass)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(id, RefreshClass)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Verify parses raw with the secret of class and returns its claims.
func (s *TokenService) Verify(raw string, class TokenClass) (*Claims, error) {
	secret, _ := s.params(class)
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		// Type assert the signing method to HMAC; reject others.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Refresh verifies a refresh token and issues a new access token with the
// same identity.  The refresh token itself is not rotated.
func (s *TokenService) Refresh(refreshRaw string) (SignedToken, error) {
	claims, err := s.Verify(refreshRaw, RefreshClass)
	if err != nil {
		return SignedToken{}, err
	}
	return s.sign(claims.Identity(), AccessClass)
}

func (s *TokenService) sign(id Identity, class TokenClass) (SignedToken, error) {
	secret, ttl := s.params(class)
	now := s.now()
	exp := now.Add(ttl)
	claims := Claims{
		UserID:   id.UserID,
		Username: id.Username,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

func (s *TokenService) params(class TokenClass) ([]byte, time.Duration) {
	if class == RefreshClass {
		return s.refreshSecret, s.refreshTTL
	}
	return s.accessSecret, s.accessTTL
}
