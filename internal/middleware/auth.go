package middleware

import (
	"crypto/sha256"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const headerAPIKey = "X-API-Key"

// publicPaths are exempt from authentication.
var publicPaths = map[string]bool{
	"/health": true,
}

// APIKeyAuth checks requests against a bcrypt hash of the API key, taken
// from X-API-Key or an "Authorization: Bearer" header. An empty hash
// disables the check.
type APIKeyAuth struct {
	hash []byte

	mu       sync.Mutex
	verified map[[sha256.Size]byte]struct{}
}

// NewAPIKeyAuth creates the middleware for the given bcrypt hash.
func NewAPIKeyAuth(hash string) *APIKeyAuth {
	return &APIKeyAuth{
		hash:     []byte(hash),
		verified: make(map[[sha256.Size]byte]struct{}),
	}
}

// Handler returns HTTP middleware enforcing the API key.
func (a *APIKeyAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.hash) == 0 || publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		key := extractKey(r)
		if key == "" {
			writeUnauthorized(w, "api key required")
			return
		}
		if !a.valid(key) {
			writeUnauthorized(w, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// valid compares key against the hash. Accepted keys are remembered by
// digest so bcrypt runs once per distinct key.
func (a *APIKeyAuth) valid(key string) bool {
	digest := sha256.Sum256([]byte(key))

	a.mu.Lock()
	_, ok := a.verified[digest]
	a.mu.Unlock()
	if ok {
		return true
	}

	if bcrypt.CompareHashAndPassword(a.hash, []byte(key)) != nil {
		return false
	}
	a.mu.Lock()
	a.verified[digest] = struct{}{}
	a.mu.Unlock()
	return true
}

func extractKey(r *http.Request) string {
	if k := r.Header.Get(headerAPIKey); k != "" {
		return k
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="costlens"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
