package api

import (
	"time"

	"github.com/vytor/sillychess/internal/services"
)

type Server struct {
	GameService services.GameService

	// ReadyChecks are run by /ready, keyed by dependency name.
	ReadyChecks map[string]Checker

	RequestTimeout time.Duration
	CookieMaxAge   time.Duration
	SecureCookies  bool
}
