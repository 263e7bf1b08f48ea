package lb

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

// StickyID returns the raw value of the sticky cookie if present
func StickyID(r *http.Request, cookieName string) (string, bool) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// UserIDFromSession extracts the JWT subject from the session cookie for
// routing purposes only. The signature is NOT verified here; the app server
// is the one that validates tokens. A forged sub merely picks a different
// ring position, it grants nothing.
func UserIDFromSession(r *http.Request) (string, bool) {
	cookie, err := r.Cookie("session")
	if err != nil || cookie.Value == "" {
		return "", false
	}

	parts := strings.Split(cookie.Value, ".")
	if len(parts) != 3 {
		return "", false
	}

	// base64url without padding; pad to a multiple of 4 before decoding.
	payload := parts[1]
	if m := len(payload) % 4; m != 0 {
		payload += strings.Repeat("=", 4-m)
	}

	decoded, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return "", false
	}

	var claims struct {
		Sub json.Number `json:"sub"`
	}
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return "", false
	}

	sub := claims.Sub.String()
	if !isUnsignedInteger(sub) {
		return "", false
	}
	return sub, true
}

func isUnsignedInteger(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
