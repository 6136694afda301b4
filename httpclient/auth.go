package httpclient

import "net/http"

// AuthType identifies the authentication method.
type AuthType string

const (
	// AuthNone disables authentication.
	AuthNone AuthType = ""
	// AuthBearer uses Bearer token authentication.
	AuthBearer AuthType = "bearer"
	// AuthBasic uses HTTP Basic authentication.
	AuthBasic AuthType = "basic"
)

// AuthConfig configures request authentication for gateways sitting
// behind an authenticating proxy.
type AuthConfig struct {
	Type     AuthType `yaml:"type" mapstructure:"type" validate:"omitempty,oneof=bearer basic"`
	Token    string   `yaml:"token" mapstructure:"token"`
	Username string   `yaml:"username" mapstructure:"username"`
	Password string   `yaml:"password" mapstructure:"password"`
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// BasicAuth creates a basic auth config.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password}
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthBasic:
		req.SetBasicAuth(a.Username, a.Password)
	}
}
