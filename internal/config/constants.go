package config

// Port configuration constants
const (
	// DefaultLocalPort is the default port under the local profile
	DefaultLocalPort = 8000

	// DefaultHostedPort is the default port under the hosted profile
	DefaultHostedPort = 10000

	// DefaultHost binds the server on all interfaces
	DefaultHost = "0.0.0.0"

	// DefaultWorkers is the fixed report worker pool size
	DefaultWorkers = 4
)

// Token lifetime constants, in seconds
const (
	// DefaultAccessTokenExpireSecs is the access token lifetime (1 day)
	DefaultAccessTokenExpireSecs = 24 * 3600

	// DefaultRefreshTokenExpireSecs is the refresh token lifetime (28 days)
	DefaultRefreshTokenExpireSecs = 28 * 24 * 3600
)
