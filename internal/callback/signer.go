package callback

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signer mints short-lived callback tokens. The audience claim pins each
// token to one exact callback URL so a token for one endpoint cannot be
// replayed against another.
type Signer struct {
	secret []byte
	issuer string
}

func NewSigner(secret, issuer string) *Signer {
	return &Signer{secret: []byte(secret), issuer: issuer}
}

func (s *Signer) Sign(audience, principal string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": s.issuer,
		"aud": audience,
		"iat": now.Unix(),
		"exp": now.Add(10 * time.Minute).Unix(),
	}
	if principal != "" {
		claims["sub"] = principal
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}
