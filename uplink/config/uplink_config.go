// Separate package is workaround to import cycles.
package uplink_config

import (
	"net/url"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/openhrv/helpers"
)

const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultAuthBackoffMin = 1 * time.Second
	DefaultAuthBackoffMax = 1 * time.Minute
)

type Config struct { //nolint:maligned
	Enabled           bool   `hcl:"enable"`
	BaseURL           string `hcl:"base_url"`
	ClientID          string `hcl:"client_id"`
	ClientSecret      string `hcl:"client_secret"` // secret
	RequestTimeoutSec int    `hcl:"request_timeout_sec"`
	RetryUnauthorized bool   `hcl:"retry_unauthorized"`
	// negative disables backoff
	AuthBackoffMinMs int  `hcl:"auth_backoff_min_ms"`
	AuthBackoffMaxMs int  `hcl:"auth_backoff_max_ms"`
	LogDebug         bool `hcl:"log_debug"`
}

func (c *Config) RequestTimeout() time.Duration {
	return helpers.IntSecondDefault(c.RequestTimeoutSec, DefaultRequestTimeout)
}

// AuthBackoff returns min, max delay. Zero min means disabled.
func (c *Config) AuthBackoff() (time.Duration, time.Duration) {
	if c.AuthBackoffMinMs < 0 {
		return 0, 0
	}
	min := helpers.IntMillisecondDefault(c.AuthBackoffMinMs, DefaultAuthBackoffMin)
	max := helpers.IntMillisecondDefault(c.AuthBackoffMaxMs, DefaultAuthBackoffMax)
	if max < min {
		max = min
	}
	return min, max
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	errs := make([]error, 0, 4)
	if c.BaseURL == "" {
		errs = append(errs, errors.NotValidf("uplink.base_url empty"))
	} else if u, err := url.ParseRequestURI(c.BaseURL); err != nil {
		errs = append(errs, errors.Annotatef(err, "uplink.base_url=%s", c.BaseURL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, errors.NotValidf("uplink.base_url scheme=%s", u.Scheme))
	}
	if c.ClientID == "" {
		errs = append(errs, errors.NotValidf("uplink.client_id empty"))
	}
	if c.RequestTimeoutSec < 0 {
		errs = append(errs, errors.NotValidf("uplink.request_timeout_sec=%d", c.RequestTimeoutSec))
	}
	return helpers.FoldErrors(errs)
}
