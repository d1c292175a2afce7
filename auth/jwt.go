package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures bearer token verification.
type JWTConfig struct {
	// Issuer and Audience are checked when set.
	Issuer   string
	Audience string

	// Methods lists accepted algorithms. Default: HS256.
	Methods []string
}

// tokenClaims is the claim set checkd issues and accepts.
type tokenClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// JWTVerifier authenticates "Authorization: Bearer" tokens signed with a
// single key.
type JWTVerifier struct {
	parser *jwt.Parser
	key    any
}

// NewJWTVerifier returns a verifier for tokens signed with key, an HMAC
// secret ([]byte) or a public key matching cfg.Methods.
func NewJWTVerifier(cfg JWTConfig, key any) *JWTVerifier {
	methods := cfg.Methods
	if len(methods) == 0 {
		methods = []string{jwt.SigningMethodHS256.Alg()}
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods(methods), jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &JWTVerifier{parser: jwt.NewParser(opts...), key: key}
}

func (v *JWTVerifier) keyfunc(*jwt.Token) (any, error) {
	if v.key == nil {
		return nil, ErrKeyNotFound
	}
	return v.key, nil
}

// Authenticate implements Authenticator. Non-bearer schemes are left to the
// next authenticator.
func (v *JWTVerifier) Authenticate(_ context.Context, h http.Header) (*Identity, error) {
	scheme, raw, found := strings.Cut(h.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return nil, ErrNoCredentials
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenMalformed
	}

	var c tokenClaims
	_, err := v.parser.ParseWithClaims(raw, &c, v.keyfunc)
	switch {
	case err == nil:
	case errors.Is(err, ErrKeyNotFound):
		return nil, err
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, ErrTokenMalformed
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	id := &Identity{
		Principal: c.Subject,
		Roles:     c.Roles,
		Method:    MethodJWT,
		KeyID:     c.ID,
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	if id.Principal == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidCredentials)
	}
	return id, nil
}

// SignHS256 issues a token for principal carrying roles, valid for ttl.
// checkd does not issue tokens itself; this serves tooling and tests.
func SignHS256(secret []byte, issuer, principal string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: roles,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

var _ Authenticator = (*JWTVerifier)(nil)
