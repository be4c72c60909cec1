package internal

import (
	"errors"
	"io"
)

// Option configures Run and RunMCP.
type Option func(*application)

type application struct {
	config *Config
	logOut io.Writer
}

// WithConfig sets the application configuration. It is required.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogOutput sends the JSON log stream to w instead of the default
// (stdout for the HTTP server, stderr for MCP).
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}

var errNoConfig = errors.New("config is required")

func newApplication(opts []Option, defaultLog io.Writer) (*application, error) {
	app := &application{logOut: defaultLog}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, errNoConfig
	}
	return app, nil
}
