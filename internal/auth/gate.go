package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName   = "shadowplex_session"
	loggedInKey   = "logged_in"
	sessionMaxAge = 86400 * 7
)

// Gate holds the single shared admin credential pair and the cookie
// session store that marks a browser as privileged. Credentials are
// compared by plain string equality against configuration; there is no
// hashing and no rate limiting.
type Gate struct {
	store    *sessions.CookieStore
	email    string
	password string
}

func NewGate(secret, adminEmail, adminPassword string) *Gate {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Gate{store: store, email: adminEmail, password: adminPassword}
}

// Login checks the submitted pair and, on success, marks the session as
// privileged. Constant-time comparison keeps the check free of the
// cheapest timing leak without changing the equality semantics.
func (g *Gate) Login(w http.ResponseWriter, r *http.Request, email, password string) bool {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(g.email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	if !emailOK || !passOK {
		return false
	}

	session, _ := g.store.Get(r, sessionName)
	session.Values[loggedInKey] = true
	session.Save(r, w)
	return true
}

// Logout destroys the session state by expiring the cookie.
func (g *Gate) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := g.store.Get(r, sessionName)
	delete(session.Values, loggedInKey)
	session.Options.MaxAge = -1
	session.Save(r, w)
}

// LoggedIn reports whether the request carries a privileged session.
// Mutating routes consult this through the server's admin wrapper.
func (g *Gate) LoggedIn(r *http.Request) bool {
	session, err := g.store.Get(r, sessionName)
	if err != nil {
		return false
	}
	loggedIn, ok := session.Values[loggedInKey].(bool)
	return ok && loggedIn
}
