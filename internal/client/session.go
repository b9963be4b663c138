package client

import (
	"fmt"
	"net/url"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieNames are the cookie names NextAuth/Auth.js use for the session token
var SessionCookieNames = []string{
	"__Secure-next-auth.session-token",
	"next-auth.session-token",
	"__Secure-authjs.session-token",
	"authjs.session-token",
}

// SessionToken returns the session cookie value the jar holds for the base URL
func (s *Session) SessionToken() (string, bool) {
	u, err := url.Parse(s.baseURL + "/")
	if err != nil {
		return "", false
	}

	cookies := s.jar.Cookies(u)
	for _, name := range SessionCookieNames {
		for _, c := range cookies {
			if c.Name == name && c.Value != "" {
				return c.Value, true
			}
		}
	}
	return "", false
}

// SessionClaims is what could be read from a session token without verifying it
type SessionClaims struct {
	Subject string
	Email   string
	Role    string
}

// InspectSessionToken reads the claims of a JWS session token without checking its
// signature. Encrypted (JWE) tokens, the NextAuth default, return an error.
func InspectSessionToken(token string) (SessionClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return SessionClaims{}, fmt.Errorf("session token is not a readable JWT: %w", err)
	}

	var sc SessionClaims
	sc.Subject, _ = claims.GetSubject()
	sc.Email = stringClaim(claims, "email")
	sc.Role = stringClaim(claims, "role")

	// NextAuth callbacks commonly nest the profile under "user"
	if user, ok := claims["user"].(map[string]interface{}); ok {
		if sc.Role == "" {
			sc.Role, _ = user["role"].(string)
		}
		if sc.Email == "" {
			sc.Email, _ = user["email"].(string)
		}
	}
	return sc, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
