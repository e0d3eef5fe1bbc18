package callback

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken  = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid callback token")
	ErrWrongAudience = errors.New("audience mismatch")
)

// PathPrefix is where every worker endpoint is mounted.
const PathPrefix = "/internal/tasks/"

// Verifier authenticates inbound task callbacks. A deny is terminal: the
// handler responds 403 and stops; a forged or misrouted call must not ride
// the queue's retry policy.
type Verifier struct {
	secret  []byte
	issuer  string
	baseURL string

	// Bypass is only ever set from config, which refuses it in production.
	Bypass bool
}

func NewVerifier(secret, issuer, baseURL string) *Verifier {
	return &Verifier{
		secret:  []byte(secret),
		issuer:  issuer,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// CanonicalURL is the exact callback URL for a logical function name; it is
// what the dispatcher signs as the audience.
func (v *Verifier) CanonicalURL(fn string) string {
	return v.baseURL + PathPrefix + fn
}

// Verify checks the bearer credential on r against the canonical URL for fn.
func (v *Verifier) Verify(r *http.Request, fn string) error {
	if v.Bypass {
		return nil
	}

	h := r.Header.Get("Authorization")
	if h == "" || !strings.HasPrefix(h, "Bearer ") {
		return ErrMissingToken
	}
	tokenStr := strings.TrimPrefix(h, "Bearer ")

	t, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer))
	if err != nil || !t.Valid {
		return ErrInvalidToken
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalidToken
	}

	aud, _ := claims["aud"].(string)
	want := v.CanonicalURL(fn)
	if aud != want {
		iss, _ := claims["iss"].(string)
		log.Printf("callback audience mismatch: aud=%q iss=%q want=%q\n", aud, iss, want)
		return ErrWrongAudience
	}
	return nil
}

// Require wraps a worker endpoint; verification failure is a terminal 403.
func (v *Verifier) Require(fn string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := v.Verify(r, fn); err != nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
