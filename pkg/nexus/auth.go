package nexus

import "net/http"

// Authenticator applies credentials to outgoing repository manager requests.
type Authenticator interface {
	Apply(req *http.Request) error
	Type() AuthType
}

// AuthType represents the type of authentication.
type AuthType string

// Authentication types.
const (
	BasicAuthType  AuthType = "basic"
	BearerAuthType AuthType = "bearer"
	HeaderAuthType AuthType = "header"
)

// BasicAuth authenticates with a username and password (or a user token pair).
type BasicAuth struct {
	Username string
	Password string
}

// Apply adds Basic Authentication headers to the HTTP request.
func (b BasicAuth) Apply(req *http.Request) error {
	req.SetBasicAuth(b.Username, b.Password)
	return nil
}

// Type returns BasicAuthType.
func (b BasicAuth) Type() AuthType { return BasicAuthType }

// BearerAuth authenticates with a bearer token.
type BearerAuth struct {
	Token string
}

// Apply adds the token to the Authorization header.
func (b BearerAuth) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// Type returns BearerAuthType.
func (b BearerAuth) Type() AuthType { return BearerAuthType }

// HeaderAuth authenticates with arbitrary headers, e.g. a reverse proxy API key.
type HeaderAuth struct {
	Headers map[string]string
}

// Apply sets every configured header.
func (h HeaderAuth) Apply(req *http.Request) error {
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}
	return nil
}

// Type returns HeaderAuthType.
func (h HeaderAuth) Type() AuthType { return HeaderAuthType }
