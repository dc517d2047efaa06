package auth

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/nicunursekatie/adhd-planner/internal/models"
)

// TokenVerifier validates a bearer token and resolves the owner it
// belongs to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Owner, error)
}

// Verifier checks token signatures against the issuer's JWKS.
type Verifier struct {
	jwksManager *JWKSManager
	issuer      string
	jwksURL     string
}

var _ TokenVerifier = (*Verifier)(nil)

// NewVerifier creates a verifier for the given issuer. When jwksURL is
// empty the standard OIDC well-known location under the issuer is used.
func NewVerifier(issuer, jwksURL string) *Verifier {
	if jwksURL == "" {
		jwksURL = issuer + "/.well-known/jwks.json"
	}
	return &Verifier{
		jwksManager: NewJWKSManager(),
		issuer:      issuer,
		jwksURL:     jwksURL,
	}
}

// Verify validates the token's signature, expiry, and issuer, and
// returns the owner identified by the subject claim.
func (v *Verifier) Verify(ctx context.Context, token string) (*models.Owner, error) {
	keys, err := v.jwksManager.GetJWKS(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	parsed, err := jwt.Parse([]byte(token), jwt.WithKeySet(keys), jwt.WithValidate(true))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if parsed.Issuer() != v.issuer {
		return nil, fmt.Errorf("invalid issuer: expected %s, got %s", v.issuer, parsed.Issuer())
	}
	if parsed.Subject() == "" {
		return nil, fmt.Errorf("token has no subject claim")
	}

	owner := &models.Owner{ID: parsed.Subject()}
	if email, ok := parsed.Get("email"); ok {
		if s, ok := email.(string); ok {
			owner.Email = s
		}
	}
	if name, ok := parsed.Get("name"); ok {
		if s, ok := name.(string); ok {
			owner.Name = s
		}
	}
	return owner, nil
}
