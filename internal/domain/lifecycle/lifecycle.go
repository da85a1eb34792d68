// Package lifecycle holds shared timeouts for component startup and shutdown.
package lifecycle

import "time"

// DefaultTimeout bounds graceful start/stop of managed resources.
const DefaultTimeout = 10 * time.Second
