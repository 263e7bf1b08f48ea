package lb

import (
	"net/http"
)

// Router picks a backend for each request. Priority, first match wins:
// a healthy sticky cookie target, then the user's hash ring position, then
// the least loaded replica.
type Router struct {
	pool       *Pool
	ring       *HashRing
	cookieName string
	cookieAge  int
	production bool
}

// NewRouter creates a router over the given registry and ring
func NewRouter(pool *Pool, ring *HashRing, cookieName string, cookieMaxAge int, production bool) *Router {
	return &Router{
		pool:       pool,
		ring:       ring,
		cookieName: cookieName,
		cookieAge:  cookieMaxAge,
		production: production,
	}
}

// Route returns the backend for this request, or nil when the pool is empty
func (rt *Router) Route(r *http.Request) *Backend {
	if id, ok := StickyID(r, rt.cookieName); ok {
		// A sticky target is honored only while it is healthy.
		if b := rt.pool.ByID(id); b != nil && b.Healthy() {
			return b
		}
	}

	if userID, ok := UserIDFromSession(r); ok {
		if b := rt.ring.ForUser(userID); b != nil {
			return b
		}
	}

	return rt.pool.LeastLoaded()
}

// StickyCookie returns the cookie pinning the client to the chosen replica,
// or nil when the request already carries it.
func (rt *Router) StickyCookie(r *http.Request, chosen *Backend) *http.Cookie {
	if id, ok := StickyID(r, rt.cookieName); ok && id == chosen.ID {
		return nil
	}

	sameSite := http.SameSiteLaxMode
	if rt.production {
		sameSite = http.SameSiteStrictMode
	}
	return &http.Cookie{
		Name:     rt.cookieName,
		Value:    chosen.ID,
		Path:     "/",
		MaxAge:   rt.cookieAge,
		HttpOnly: true,
		Secure:   rt.production,
		SameSite: sameSite,
	}
}

// WriteSticky refreshes the sticky cookie when it is missing or no longer
// names the chosen replica.
func (rt *Router) WriteSticky(w http.ResponseWriter, r *http.Request, chosen *Backend) {
	if cookie := rt.StickyCookie(r, chosen); cookie != nil {
		http.SetCookie(w, cookie)
	}
}
