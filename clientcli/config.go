package clientcli

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultEndpoint is the gateway address used when nothing else is set.
const DefaultEndpoint = "http://localhost:3030"

// Environment variables read by LookupEnv.
const (
	EnvEndpoint = "IMGTRANSFER_ENDPOINT"
	EnvProfile  = "IMGTRANSFER_PROFILE"
	EnvConfig   = "IMGTRANSFER_CONFIG"
)

// Config is the resolved client configuration.
type Config struct {
	Endpoint string
}

// Validate reports whether Endpoint is usable. Call WithDefaults first to
// fill an empty endpoint.
func (c *Config) Validate() error {
	_, err := NormalizeEndpoint(c.Endpoint)
	return err
}

// WithDefaults returns a copy with DefaultEndpoint filled in.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &cfg
}

// NormalizeEndpoint checks that raw is an absolute http(s) URL without
// query or fragment and returns it without trailing slashes.
func NormalizeEndpoint(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEndpoint, raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("%w: %q has a query or fragment", ErrInvalidEndpoint, raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

// Env is the client configuration found in IMGTRANSFER_* variables.
type Env struct {
	Endpoint   string
	Profile    string
	ConfigPath string
}

// LookupEnv reads Env through getenv; pass os.Getenv outside tests.
func LookupEnv(getenv func(string) string) Env {
	return Env{
		Endpoint:   getenv(EnvEndpoint),
		Profile:    getenv(EnvProfile),
		ConfigPath: getenv(EnvConfig),
	}
}

// ProfilesPath is the profile file to use: ConfigPath when set, else
// DefaultProfilesPath.
func (e Env) ProfilesPath() string {
	if e.ConfigPath != "" {
		return e.ConfigPath
	}
	return DefaultProfilesPath()
}

// FirstEndpoint returns the first non-empty endpoint, so callers list
// sources from highest to lowest precedence.
func FirstEndpoint(endpoints ...string) string {
	for _, e := range endpoints {
		if e != "" {
			return e
		}
	}
	return ""
}
