// Package testhelpers provides a scriptable stand-in for a NextAuth-style
// credentials login flow, used by package and feature tests.
package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionCookie = "next-auth.session-token"
	CSRFCookie    = "next-auth.csrf-token"
	CSRFToken     = "csrf-fixture-token"

	LoginPath       = "/auth/login"
	CredentialsPath = "/api/auth/callback/credentials"
	SignoutPath     = "/api/auth/signout"
)

var signingKey = []byte("fake-auth-signing-key")

// FakeUser is an account the fake server accepts
type FakeUser struct {
	Password string
	Role     string
	Landing  string
}

// Override scripts non-default responses for one email. Zero values keep the
// default behavior.
type Override struct {
	LoginStatus   int    // status for the credentials POST
	ProbeStatus   int    // status for the landing page GET
	ProbeLocation string // Location header sent with ProbeStatus
	SignoutStatus int    // status for the sign-out POST
	DropLogin     bool   // close the connection instead of answering the credentials POST
	LoginDelay    time.Duration
}

// Call is one request the server received
type Call struct {
	Method string
	Path   string
	Email  string
}

// FakeAuthServer is an httptest server speaking the login/probe/signout flow
type FakeAuthServer struct {
	*httptest.Server

	mu          sync.Mutex
	users       map[string]FakeUser
	overrides   map[string]Override
	calls       []Call
	requireCSRF bool
	opaque      bool
}

// NewFakeAuthServer starts a server that knows users
func NewFakeAuthServer(users map[string]FakeUser) *FakeAuthServer {
	f := &FakeAuthServer{
		users:     users,
		overrides: make(map[string]Override),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// Override scripts the responses for email
func (f *FakeAuthServer) Override(email string, o Override) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[email] = o
}

// SetRequireCSRF makes the credentials endpoint reject posts without the form's csrfToken
func (f *FakeAuthServer) SetRequireCSRF(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requireCSRF = v
}

// SetOpaqueTokens makes the server issue non-JWT session tokens
func (f *FakeAuthServer) SetOpaqueTokens(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opaque = v
}

func (f *FakeAuthServer) flags() (requireCSRF, opaque bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requireCSRF, f.opaque
}

// Calls returns every recorded request
func (f *FakeAuthServer) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount counts requests with the given method and path made on behalf of email.
// An empty email matches any caller.
func (f *FakeAuthServer) CallCount(method, path, email string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Method == method && c.Path == path && (email == "" || c.Email == email) {
			n++
		}
	}
	return n
}

func (f *FakeAuthServer) record(r *http.Request, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: r.Method, Path: r.URL.Path, Email: email})
}

func (f *FakeAuthServer) override(email string) Override {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overrides[email]
}

func (f *FakeAuthServer) handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == LoginPath:
		f.record(r, f.sessionEmail(r))
		http.SetCookie(w, &http.Cookie{Name: CSRFCookie, Value: CSRFToken, Path: "/"})
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!doctype html><html><head><title>Sign in</title></head><body>
<form method="post" action="%s"><input type="hidden" name="csrfToken" value="%s"/>
<input name="email"/><input name="password" type="password"/></form></body></html>`, CredentialsPath, CSRFToken)

	case r.Method == http.MethodPost && r.URL.Path == CredentialsPath:
		f.handleCredentials(w, r)

	case r.Method == http.MethodPost && r.URL.Path == SignoutPath:
		email := f.sessionEmail(r)
		f.record(r, email)
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
		status := http.StatusFound
		if o := f.override(email); o.SignoutStatus != 0 {
			status = o.SignoutStatus
		}
		if status == http.StatusFound {
			w.Header().Set("Location", LoginPath)
		}
		w.WriteHeader(status)

	case r.Method == http.MethodGet:
		f.handleProbe(w, r)

	default:
		f.record(r, "")
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *FakeAuthServer) handleCredentials(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		f.record(r, "")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.record(r, creds.Email)

	o := f.override(creds.Email)
	if o.LoginDelay > 0 {
		select {
		case <-time.After(o.LoginDelay):
		case <-r.Context().Done():
			return
		}
	}
	if o.DropLogin {
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				conn.Close()
				return
			}
		}
	}

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		return
	}
	if requireCSRF, _ := f.flags(); requireCSRF && creds.CSRFToken != CSRFToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	user, ok := f.users[creds.Email]
	if !ok || user.Password != creds.Password {
		status := http.StatusUnauthorized
		if o.LoginStatus != 0 {
			status = o.LoginStatus
		}
		w.WriteHeader(status)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: f.issueToken(creds.Email, user.Role), Path: "/", HttpOnly: true})
	status := http.StatusFound
	if o.LoginStatus != 0 {
		status = o.LoginStatus
	}
	if status == http.StatusFound || status == http.StatusSeeOther {
		w.Header().Set("Location", user.Landing)
	}
	w.WriteHeader(status)
}

func (f *FakeAuthServer) handleProbe(w http.ResponseWriter, r *http.Request) {
	email := f.sessionEmail(r)
	f.record(r, email)

	if o := f.override(email); o.ProbeStatus != 0 {
		if o.ProbeLocation != "" {
			w.Header().Set("Location", o.ProbeLocation)
		}
		w.WriteHeader(o.ProbeStatus)
		return
	}

	user, ok := f.users[email]
	switch {
	case !ok:
		w.Header().Set("Location", LoginPath+"?callbackUrl="+r.URL.Path)
		w.WriteHeader(http.StatusFound)
	case user.Landing != r.URL.Path:
		w.Header().Set("Location", user.Landing)
		w.WriteHeader(http.StatusSeeOther)
	default:
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "<html><body>%s landing</body></html>", user.Role)
	}
}

func (f *FakeAuthServer) issueToken(email, role string) string {
	if _, opaque := f.flags(); opaque {
		return "opaque." + email
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   email,
		"email": email,
		"role":  role,
		"iat":   time.Now().Unix(),
	})
	signed, err := token.SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	return signed
}

// sessionEmail returns the email bound to the request's session cookie, if valid
func (f *FakeAuthServer) sessionEmail(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	if _, opaque := f.flags(); opaque {
		return strings.TrimPrefix(c.Value, "opaque.")
	}
	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(c.Value, claims, func(*jwt.Token) (interface{}, error) {
		return signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})); err != nil {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}
