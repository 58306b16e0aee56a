package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/kconnect-service/internal/domain"
)

// maxTokenBytes bounds the work done on attacker supplied input.
const maxTokenBytes = 8 << 10

// ErrSigningUnavailable is returned when the manager is built without a key.
var ErrSigningUnavailable = errors.New("token signing key unavailable")

// ErrTokenInvalid matches every *TokenError via errors.Is.
var ErrTokenInvalid = errors.New("token invalid")

// InvalidReason tells why a token was refused. It is for logs only.
type InvalidReason string

const (
	ReasonMalformed    InvalidReason = "malformed"
	ReasonBadSignature InvalidReason = "bad_signature"
	ReasonExpired      InvalidReason = "expired"
)

// TokenError is returned by Verify for any token that must not be trusted.
type TokenError struct {
	Reason InvalidReason
	Err    error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token %s: %v", e.Reason, e.Err)
	}
	return "token " + string(e.Reason)
}

func (e *TokenError) Unwrap() error { return e.Err }

func (e *TokenError) Is(target error) bool { return target == ErrTokenInvalid }

// ReasonOf extracts the InvalidReason from err, or "" when err is not a TokenError.
func ReasonOf(err error) InvalidReason {
	var tokErr *TokenError
	if errors.As(err, &tokErr) {
		return tokErr.Reason
	}
	return ""
}

// Claims describes JWT payload. Subject holds the email.
type Claims struct {
	SubjectID string      `json:"id"`
	Role      domain.Role `json:"role"`
	Name      string      `json:"name"`
	jwt.RegisteredClaims
}

// TokenManager handles issuing and validating JWT tokens with a single HS256 key.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager. A missing secret is a startup error.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrSigningUnavailable
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the fixed token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue builds and signs a token for p. Timestamps have second precision, so
// the returned expiry is the exact instant Verify starts refusing the token.
func (tm *TokenManager) Issue(p Principal, now time.Time) (string, time.Time, error) {
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(tm.ttl))
	claims := &Claims{
		SubjectID: p.SubjectID,
		Role:      p.Role,
		Name:      p.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.Email,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt.Time, nil
}

// Verify checks structure, signature and expiry, in that order. A token is
// valid iff its HS256 signature matches and now < exp; no leeway is applied.
// Any failure is a *TokenError.
func (tm *TokenManager) Verify(tokenStr string, now time.Time) (*Claims, error) {
	if tokenStr == "" || len(tokenStr) > maxTokenBytes {
		return nil, &TokenError{Reason: ReasonMalformed}
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	claims := &Claims{}
	if _, err := parser.ParseWithClaims(tokenStr, claims, tm.keyFunc); err != nil {
		return nil, classify(err)
	}

	if claims.ExpiresAt == nil {
		return nil, &TokenError{Reason: ReasonMalformed, Err: errors.New("missing exp")}
	}
	if !now.Before(claims.ExpiresAt.Time) {
		return nil, &TokenError{Reason: ReasonExpired}
	}
	if claims.Subject == "" || claims.SubjectID == "" || !claims.Role.Valid() {
		return nil, &TokenError{Reason: ReasonMalformed, Err: errors.New("incomplete claims")}
	}
	return claims, nil
}

func (tm *TokenManager) keyFunc(_ *jwt.Token) (interface{}, error) {
	return tm.secret, nil
}

func classify(err error) *TokenError {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &TokenError{Reason: ReasonBadSignature, Err: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &TokenError{Reason: ReasonExpired, Err: err}
	default:
		return &TokenError{Reason: ReasonMalformed, Err: err}
	}
}
