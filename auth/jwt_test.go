package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-with-enough-bytes-32!")

func withBearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

func TestJWTVerifier_Valid(t *testing.T) {
	v := NewJWTVerifier(JWTConfig{Issuer: "checkops"}, testSecret)
	tok, err := SignHS256(testSecret, "checkops", "alice", []string{"operator"}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	id, err := v.Authenticate(context.Background(), withBearer(tok))
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if id.Principal != "alice" || id.Method != MethodJWT {
		t.Errorf("identity = %+v", id)
	}
	if !id.HasRole("operator") {
		t.Errorf("Roles = %v, want operator", id.Roles)
	}
	if id.ExpiresAt.Before(time.Now()) {
		t.Errorf("ExpiresAt = %v, want in the future", id.ExpiresAt)
	}
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v := NewJWTVerifier(JWTConfig{Issuer: "checkops"}, testSecret)

	expired, _ := SignHS256(testSecret, "checkops", "alice", nil, -time.Minute)
	wrongIssuer, _ := SignHS256(testSecret, "other", "alice", nil, time.Hour)
	wrongKey, _ := SignHS256([]byte("another-secret-another-secret-xx"), "checkops", "alice", nil, time.Hour)
	noSubject, _ := SignHS256(testSecret, "checkops", "", nil, time.Hour)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "alice", "iss": "checkops"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name   string
		header http.Header
		want   error
	}{
		{"expired", withBearer(expired), ErrTokenExpired},
		{"wrong issuer", withBearer(wrongIssuer), ErrInvalidCredentials},
		{"wrong key", withBearer(wrongKey), ErrInvalidCredentials},
		{"no subject", withBearer(noSubject), ErrInvalidCredentials},
		{"alg none", withBearer(none), ErrInvalidCredentials},
		{"garbage", withBearer("not.a.jwt"), ErrTokenMalformed},
		{"empty bearer", http.Header{"Authorization": {"Bearer  "}}, ErrTokenMalformed},
		{"other scheme", http.Header{"Authorization": {"Basic abc"}}, ErrNoCredentials},
		{"no header", http.Header{}, ErrNoCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Authenticate(context.Background(), tt.header)
			if !errors.Is(err, tt.want) {
				t.Errorf("Authenticate() = %+v, %v; want %v", id, err, tt.want)
			}
		})
	}
}

func TestJWTVerifier_NilKey(t *testing.T) {
	tok, _ := SignHS256(testSecret, "", "alice", nil, time.Hour)
	_, err := NewJWTVerifier(JWTConfig{}, nil).Authenticate(context.Background(), withBearer(tok))
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Authenticate() error = %v, want ErrKeyNotFound", err)
	}
	if rejected(err) {
		t.Error("a missing key must not be reported as a caller error")
	}
}
