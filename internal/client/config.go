// Package client is the Go SDK for the TourismCam REST API. Every service
// shares one Client, so bearer auth and 401 handling run once on the
// transport instead of in each service.
package client

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config points the SDK at the API. PostsAPIURL serves posts, likes,
// comments and search; it falls back to APIURL when empty.
type Config struct {
	APIURL      string        `mapstructure:"API_URL"`
	PostsAPIURL string        `mapstructure:"POSTS_API_URL"`
	Timeout     time.Duration `mapstructure:"API_TIMEOUT"`
}

// DefaultAPIURL is where a locally started server listens.
const DefaultAPIURL = "http://localhost:8375/api"

// LoadConfig reads TOURISMCAM_API_URL, TOURISMCAM_POSTS_API_URL and
// TOURISMCAM_API_TIMEOUT from the environment.
func LoadConfig() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TOURISMCAM")
	v.AutomaticEnv()
	v.SetDefault("API_URL", DefaultAPIURL)
	v.SetDefault("POSTS_API_URL", "")
	v.SetDefault("API_TIMEOUT", "15s")

	cfg := Config{
		APIURL:      v.GetString("API_URL"),
		PostsAPIURL: v.GetString("POSTS_API_URL"),
		Timeout:     v.GetDuration("API_TIMEOUT"),
	}
	return cfg.normalized()
}

func (c Config) normalized() (Config, error) {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.PostsAPIURL == "" {
		c.PostsAPIURL = c.APIURL
	}
	for _, raw := range []string{c.APIURL, c.PostsAPIURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return c, fmt.Errorf("invalid API URL %q", raw)
		}
	}
	c.APIURL = strings.TrimSuffix(c.APIURL, "/")
	c.PostsAPIURL = strings.TrimSuffix(c.PostsAPIURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	return c, nil
}
