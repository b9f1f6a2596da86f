package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
}

// RequiresAuth reports whether requests must carry the API key. An empty
// key leaves the API open, which is only sensible for local development.
func (c Config) RequiresAuth() bool {
	return c.ApiKey != ""
}
