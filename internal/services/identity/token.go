package identity

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification
var ErrInvalidToken = errors.New("invalid or expired token")

// Verifier checks an externally issued credential and extracts the
// identity it attests to. The actual authentication protocol lives with
// the external issuer; this side only verifies.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// tokenClaims are the claims the issuer puts in its tokens
type tokenClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier verifies HMAC-signed bearer tokens from the identity issuer
type JWTVerifier struct {
	secret []byte
	issuer string
}

var _ Verifier = (*JWTVerifier)(nil)

// NewJWTVerifier creates a verifier for tokens signed with the given
// shared secret. If issuer is non-empty the iss claim must match.
func NewJWTVerifier(secret []byte, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: secret, issuer: issuer}
}

// Verify parses and validates a token, returning the identity it carries
func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}, nil
}
