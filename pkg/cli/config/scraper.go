package config

import (
	"os"
	"time"

	"github.com/m-mizutani/emailfinder/pkg/infra/scraper"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Scraper holds crawler configuration
type Scraper struct {
	File           string
	UserAgent      string
	RequestTimeout time.Duration
	MaxPages       int
	MaxAttempts    int
	RetryInterval  time.Duration
	MinDelay       time.Duration
	MaxDelay       time.Duration
}

// scraperFile is the TOML layout of --scraper-config. Durations are strings such as "1.5s".
type scraperFile struct {
	UserAgent      *string `toml:"user_agent"`
	RequestTimeout *string `toml:"request_timeout"`
	MaxPages       *int    `toml:"max_pages"`
	MaxAttempts    *int    `toml:"max_attempts"`
	RetryInterval  *string `toml:"retry_interval"`
	MinDelay       *string `toml:"min_delay"`
	MaxDelay       *string `toml:"max_delay"`
}

// Flags returns CLI flags for crawler configuration
func (c *Scraper) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "scraper-config",
			Usage:       "TOML file with crawler settings; explicit flags take precedence",
			Destination: &c.File,
			Sources:     cli.EnvVars("EMAILFINDER_SCRAPER_CONFIG"),
		},
		&cli.StringFlag{
			Name:        "scraper-user-agent",
			Usage:       "User-Agent sent when fetching pages",
			Value:       scraper.DefaultUserAgent,
			Destination: &c.UserAgent,
			Sources:     cli.EnvVars("EMAILFINDER_SCRAPER_USER_AGENT"),
		},
		&cli.DurationFlag{
			Name:        "scraper-timeout",
			Usage:       "Timeout of one page request",
			Value:       10 * time.Second,
			Destination: &c.RequestTimeout,
			Sources:     cli.EnvVars("EMAILFINDER_SCRAPER_TIMEOUT"),
		},
		&cli.IntFlag{
			Name:        "scraper-max-pages",
			Usage:       "Pages visited per site, base page included",
			Value:       10,
			Destination: &c.MaxPages,
			Sources:     cli.EnvVars("EMAILFINDER_SCRAPER_MAX_PAGES"),
		},
		&cli.IntFlag{
			Name:        "scraper-max-attempts",
			Usage:       "Attempts per page request",
			Value:       2,
			Destination: &c.MaxAttempts,
			Sources:     cli.EnvVars("EMAILFINDER_SCRAPER_MAX_ATTEMPTS"),
		},
		&cli.DurationFlag{
			Name:        "scraper-retry-interval",
			Usage:       "Initial wait between attempts",
			Value:       2 * time.Second,
			Destination: &c.RetryInterval,
			Sources:     cli.EnvVars("EMAILFINDER_SCRAPER_RETRY_INTERVAL"),
		},
		&cli.DurationFlag{
			Name:        "scraper-min-delay",
			Usage:       "Minimum pause before each subpage request",
			Value:       1 * time.Second,
			Destination: &c.MinDelay,
			Sources:     cli.EnvVars("EMAILFINDER_SCRAPER_MIN_DELAY"),
		},
		&cli.DurationFlag{
			Name:        "scraper-max-delay",
			Usage:       "Maximum pause before each subpage request",
			Value:       3 * time.Second,
			Destination: &c.MaxDelay,
			Sources:     cli.EnvVars("EMAILFINDER_SCRAPER_MAX_DELAY"),
		},
	}
}

// LoadFile applies values from the TOML file to settings whose flag was not set explicitly
func (c *Scraper) LoadFile(isSet func(name string) bool) error {
	if c.File == "" {
		return nil
	}

	raw, err := os.ReadFile(c.File)
	if err != nil {
		return goerr.Wrap(err, "failed to read scraper config", goerr.V("path", c.File))
	}

	var f scraperFile
	if err := toml.Unmarshal(raw, &f); err != nil {
		return goerr.Wrap(err, "failed to parse scraper config", goerr.V("path", c.File))
	}

	if f.UserAgent != nil && !isSet("scraper-user-agent") {
		c.UserAgent = *f.UserAgent
	}
	if f.MaxPages != nil && !isSet("scraper-max-pages") {
		c.MaxPages = *f.MaxPages
	}
	if f.MaxAttempts != nil && !isSet("scraper-max-attempts") {
		c.MaxAttempts = *f.MaxAttempts
	}

	durations := []struct {
		flag  string
		value *string
		dst   *time.Duration
	}{
		{"scraper-timeout", f.RequestTimeout, &c.RequestTimeout},
		{"scraper-retry-interval", f.RetryInterval, &c.RetryInterval},
		{"scraper-min-delay", f.MinDelay, &c.MinDelay},
		{"scraper-max-delay", f.MaxDelay, &c.MaxDelay},
	}
	for _, d := range durations {
		if d.value == nil || isSet(d.flag) {
			continue
		}
		v, err := time.ParseDuration(*d.value)
		if err != nil {
			return goerr.Wrap(err, "invalid duration in scraper config", goerr.V("key", d.flag), goerr.V("value", *d.value))
		}
		*d.dst = v
	}

	return nil
}

// Validate checks the settings for consistency
func (c *Scraper) Validate() error {
	if c.MaxPages < 1 {
		return goerr.New("max pages must be at least 1", goerr.V("max_pages", c.MaxPages))
	}
	if c.MaxAttempts < 1 {
		return goerr.New("max attempts must be at least 1", goerr.V("max_attempts", c.MaxAttempts))
	}
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return goerr.New("invalid delay range", goerr.V("min_delay", c.MinDelay), goerr.V("max_delay", c.MaxDelay))
	}
	return nil
}

// Options converts the settings into scraper options
func (c *Scraper) Options() []scraper.Option {
	return []scraper.Option{
		scraper.WithUserAgent(c.UserAgent),
		scraper.WithRequestTimeout(c.RequestTimeout),
		scraper.WithMaxPages(c.MaxPages),
		scraper.WithMaxAttempts(c.MaxAttempts),
		scraper.WithRetryInterval(c.RetryInterval),
		scraper.WithDelay(c.MinDelay, c.MaxDelay),
	}
}
