package middleware

import (
	"crypto/subtle"
	"net/http"
)

// LBSecretHeader carries the shared secret proving a request came through
// the load balancer.
const LBSecretHeader = "x-lb-secret"

// LBAuth rejects any request that does not carry the shared load balancer
// secret. Applied to every route except the health probe, so replicas are
// unreachable except through the LB.
func LBAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(LBSecretHeader)
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
