// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by the outbound API clients (lobby bridge, Steam Web API).
var HTTPClient = &http.Client{
	Timeout: 15 * time.Second,
}
