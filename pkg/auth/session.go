package auth

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

// Store is the global session store for browser clients. The web
// vector sets the issued token in a signed cookie so page loads do not
// need to carry an Authorization header.
var Store *sessions.CookieStore

// SessionName is the name of the session cookie record.
const SessionName = "fleetcheck-session"

// SessionCookieName carries the issued token for browser clients.
const SessionCookieName = "fleetcheck_token"

// InitSessionStore initializes the cookie-based session store. The
// secret can be any passphrase; it is SHA-256 hashed to derive a
// 32-byte signing key and must be consistent across restarts.
//
// Security settings:
// - HttpOnly: true (inaccessible to JavaScript)
// - Secure: true (HTTPS only)
// - SameSite: Strict
func InitSessionStore(secret string, maxAge time.Duration) {
	key := sha256.Sum256([]byte(secret))

	Store = sessions.NewCookieStore(key[:])
	Store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

// SetTokenCookie writes the issued token to the browser session cookie.
func SetTokenCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearTokenCookie expires the browser session cookie on logout.
func ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetSession retrieves the browser session from the request. Creates a
// new session if one doesn't exist.
func GetSession(r *http.Request) (*sessions.Session, error) {
	return Store.Get(r, SessionName)
}

// SaveSession saves the session to the response.
func SaveSession(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	return session.Save(r, w)
}
