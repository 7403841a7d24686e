package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Client holds upload client configuration
type Client struct {
	Endpoint  string
	OutputDir string
	Fields    []string
	Timeout   time.Duration
	Overwrite bool
	NoColor   bool
}

// Flags returns CLI flags for upload client configuration
func (c *Client) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "endpoint",
			Usage:       "Base URL of the server providing /process",
			Value:       "http://localhost:8080",
			Destination: &c.Endpoint,
			Sources:     cli.EnvVars("EMAILFINDER_ENDPOINT"),
		},
		&cli.StringFlag{
			Name:        "output-dir",
			Aliases:     []string{"o"},
			Usage:       "Directory where processed files are saved",
			Value:       ".",
			Destination: &c.OutputDir,
			Sources:     cli.EnvVars("EMAILFINDER_OUTPUT_DIR"),
		},
		&cli.StringSliceFlag{
			Name:        "field",
			Usage:       "Extra form field sent with the file, as key=value (repeatable)",
			Destination: &c.Fields,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "Timeout of one submission (0 = no timeout)",
			Value:       0,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("EMAILFINDER_TIMEOUT"),
		},
		&cli.BoolFlag{
			Name:        "overwrite",
			Usage:       "Replace existing files in the output directory",
			Destination: &c.Overwrite,
		},
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "Disable colored status output",
			Destination: &c.NoColor,
		},
	}
}

// FormFields parses the key=value pairs given by --field
func (c *Client) FormFields() (url.Values, error) {
	values := url.Values{}
	for _, f := range c.Fields {
		key, value, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, goerr.New("form field must be key=value", goerr.V("field", f))
		}
		values.Add(strings.TrimSpace(key), value)
	}
	return values, nil
}
