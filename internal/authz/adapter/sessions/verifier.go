// Package sessions implements the identity resolver: it extracts a verified
// external subject id from a request's session token. It has no business
// logic; mapping the subject to a domain account is the principal loader's job.
package sessions

import (
	"context"
	"crypto/rsa"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"classhub/internal/domain"
)

const maxClockSkew = 30 * time.Second

// SessionCookie is the cookie the browser client carries the session token in.
const SessionCookie = "classhub_session"

// KeyProvider looks up the RSA public key for a token's kid.
type KeyProvider interface {
	GetKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// Verifier validates session tokens issued by the external identity provider
// and returns the subject id they assert.
type Verifier struct {
	keys   KeyProvider
	issuer string
}

// NewVerifier creates a verifier that checks RS256 signatures against keys
// from the provider and, when issuer is non-empty, the token's iss claim.
func NewVerifier(provider KeyProvider, issuer string) *Verifier {
	return &Verifier{keys: provider, issuer: issuer}
}

// Subject returns the verified external subject id from the request's session
// token, taken from the Authorization header or the session cookie. A missing
// or invalid token yields domain.ErrUnauthenticated.
func (v *Verifier) Subject(ctx context.Context, r *http.Request) (string, error) {
	tokenStr, ok := extractSessionToken(r)
	if !ok {
		return "", domain.ErrUnauthenticated
	}

	opts := []jwt.ParserOption{
		// Only RS256 — prevents algorithm confusion attacks.
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithLeeway(maxClockSkew),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		kidRaw, ok := t.Header["kid"]
		if !ok {
			return nil, domain.ErrInvalidToken
		}
		kid, ok := kidRaw.(string)
		if !ok {
			return nil, domain.ErrInvalidToken
		}
		return v.keys.GetKey(ctx, kid)
	}, opts...)
	if err != nil || !token.Valid {
		return "", domain.ErrUnauthenticated
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", domain.ErrUnauthenticated
	}
	return sub, nil
}

// extractSessionToken prefers a Bearer header and falls back to the session
// cookie.
func extractSessionToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && strings.TrimSpace(parts[1]) != "" {
			return strings.TrimSpace(parts[1]), true
		}
		return "", false
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}
