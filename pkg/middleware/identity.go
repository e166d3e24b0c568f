package middleware

import (
	"context"
	"net/http"
	"strings"

	pkglog "github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/log"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/response"
)

// DefaultIdentityHeader carries the caller's participant name.
const DefaultIdentityHeader = "identity"

type identityKey struct{}

// IdentityVerifier resolves who is calling. An empty identity with a nil
// error means the request is anonymous; an error rejects the request.
type IdentityVerifier interface {
	Verify(r *http.Request) (string, error)
}

// HeaderVerifier trusts a plain request header. It performs no
// authentication.
type HeaderVerifier struct {
	header string
}

// NewHeaderVerifier creates a verifier reading the given header.
func NewHeaderVerifier(header string) *HeaderVerifier {
	if header == "" {
		header = DefaultIdentityHeader
	}
	return &HeaderVerifier{header: header}
}

// Header returns the header name the verifier reads.
func (v *HeaderVerifier) Header() string {
	return v.header
}

func (v *HeaderVerifier) Verify(r *http.Request) (string, error) {
	return strings.TrimSpace(r.Header.Get(v.header)), nil
}

// Identify returns a net/http middleware that resolves the caller with
// verifier and stores the result in the request context.
func Identify(verifier IdentityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.Verify(r)
			if err != nil {
				l := pkglog.Ctx(r.Context())
				l.Warn().Err(err).Msg("identity rejected")
				response.Unauthorized(w, "invalid identity")
				return
			}

			if identity != "" {
				ctx := context.WithValue(r.Context(), identityKey{}, identity)
				r = r.WithContext(pkglog.WithIdentity(ctx, identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Identity extracts the caller identity from the context.
func Identity(ctx context.Context) string {
	if id, ok := ctx.Value(identityKey{}).(string); ok {
		return id
	}
	return ""
}
