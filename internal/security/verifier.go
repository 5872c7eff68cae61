package security

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrInvalidIssuer  = errors.New("invalid issuer")
	ErrInvalidSubject = errors.New("invalid subject")
)

// Principal is the verified identity behind a connection attempt.
type Principal struct {
	UserID string
	Claims jwt.StandardClaims
}

// Verifier is the authentication boundary: it turns an opaque token into a
// verified principal or fails. The broker is never handed a connection unless
// this succeeded.
type Verifier interface {
	Authenticate(token string) (*Principal, error)
}

// JWTVerifier validates RS256 access tokens against a public key. Verify-only:
// token issuance lives in the upstream auth service.
type JWTVerifier struct {
	public    *rsa.PublicKey
	issuer    string
	audience  string
	clockSkew time.Duration
}

func NewJWTVerifier(publicKeyPath, issuer, audience string, clockSkew time.Duration) (*JWTVerifier, error) {
	pub, err := loadRSAPublicKey(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load public key: %w", err)
	}
	return &JWTVerifier{
		public:    pub,
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

func (v *JWTVerifier) Authenticate(tokenStr string) (*Principal, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok || t.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, ErrInvalidToken
		}
		return v.public, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return nil, ErrInvalidIssuer
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return nil, ErrInvalidToken
	}

	// Time claims with clock skew allowance.
	now := time.Now()
	if claims.ExpiresAt != 0 && now.After(time.Unix(claims.ExpiresAt, 0).Add(v.clockSkew)) {
		return nil, ErrTokenExpired
	}
	if claims.NotBefore != 0 && now.Before(time.Unix(claims.NotBefore, 0).Add(-v.clockSkew)) {
		return nil, ErrTokenExpired
	}

	if claims.Subject == "" {
		return nil, ErrInvalidSubject
	}

	return &Principal{UserID: claims.Subject, Claims: *claims}, nil
}

// InsecureVerifier accepts any non-empty token. A JWT-shaped token yields its
// subject without signature verification; anything else names the principal
// directly. Dev and test environments only.
type InsecureVerifier struct{}

func (InsecureVerifier) Authenticate(tokenStr string) (*Principal, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	claims := &jwt.StandardClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenStr, claims); err == nil && claims.Subject != "" {
		return &Principal{UserID: claims.Subject, Claims: *claims}, nil
	}
	return &Principal{UserID: tokenStr}, nil
}
