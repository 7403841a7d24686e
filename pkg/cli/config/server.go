package config

import "github.com/urfave/cli/v3"

// Server holds server configuration
type Server struct {
	Addr           string
	MaxUploadBytes int64
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("EMAILFINDER_ADDR"),
		},
		&cli.Int64Flag{
			Name:        "max-upload-bytes",
			Usage:       "Maximum size of an uploaded workbook in bytes (0 = unlimited)",
			Value:       0,
			Destination: &c.MaxUploadBytes,
			Sources:     cli.EnvVars("EMAILFINDER_MAX_UPLOAD_BYTES"),
		},
	}
}
