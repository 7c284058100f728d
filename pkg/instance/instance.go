package instance

import (
	"os"

	"github.com/angelmondragon/trustchain-backend/pkg/env"
)

// ID names the running process in logs. TRUSTCHAIN_INSTANCE_ID wins, then the
// hostname, then a fixed default.
func ID() string {
	if id := env.Get("TRUSTCHAIN_INSTANCE_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "trustchain-0"
}
