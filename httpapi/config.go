package httpapi

import (
	"net/http"
	"time"
)

// CookieConfig shapes the accessToken and refreshToken cookies.
type CookieConfig struct {
	Secure        bool
	SameSite      http.SameSite
	Domain        string
	Path          string
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

// Config configures the transport. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	BasePath       string
	ServiceName    string
	FrontendOrigin string
	Cookie         CookieConfig
	// TrustProxyHeaders takes the client IP from X-Forwarded-For / X-Real-IP.
	TrustProxyHeaders bool
	MaxBodyBytes      int64
}

// DefaultConfig mirrors the service's historical defaults: secure
// cross-site cookies and a local frontend origin.
func DefaultConfig() Config {
	return Config{
		BasePath:       "/api/auth",
		ServiceName:    "user-service",
		FrontendOrigin: "http://localhost:3000",
		Cookie: CookieConfig{
			Secure:        true,
			SameSite:      http.SameSiteNoneMode,
			Path:          "/",
			AccessMaxAge:  15 * time.Minute,
			RefreshMaxAge: 7 * 24 * time.Hour,
		},
		MaxBodyBytes: 1 << 20,
	}
}
