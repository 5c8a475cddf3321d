package config

import (
	"fmt"
	"os"

	"github.com/glorpus-work/reposweep/pkg/errutils"
	"github.com/glorpus-work/reposweep/pkg/nexus"
)

// DefaultPasswordEnv is the variable the Nexus password is read from when
// the configuration names none.
const DefaultPasswordEnv = "NEXUS_PASSWORD"

// NexusConfig describes how to reach the repository manager. Secrets are
// referenced by environment variable name only.
type NexusConfig struct {
	URL         string `yaml:"url"`
	Username    string `yaml:"username,omitempty"`
	PasswordEnv string `yaml:"password_env,omitempty"`
	// TokenEnv selects bearer authentication and takes precedence over Username.
	TokenEnv string `yaml:"token_env,omitempty"`
}

func (n NexusConfig) validate() error {
	if n.URL == "" {
		return errutils.ErrNexusURLEmpty
	}
	return nil
}

// Authenticator resolves the configured credentials from the environment.
// It returns nil when the configuration asks for anonymous access.
func (n NexusConfig) Authenticator() (nexus.Authenticator, error) {
	if n.TokenEnv != "" {
		token := os.Getenv(n.TokenEnv)
		if token == "" {
			return nil, fmt.Errorf("environment variable %s is empty", n.TokenEnv)
		}
		return nexus.BearerAuth{Token: token}, nil
	}

	if n.Username == "" {
		return nil, nil
	}

	password := os.Getenv(n.PasswordEnv)
	if password == "" {
		return nil, fmt.Errorf("environment variable %s is empty", n.PasswordEnv)
	}
	return nexus.BasicAuth{Username: n.Username, Password: password}, nil
}
