package session

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// pid is the OS process id OpenSRF's session id recipe mixes in, captured
// once at init so every minted id in this process shares it.
var pid = os.Getpid()

// newSessionID mints a session id from a millisecond timestamp, the
// process's wall-clock nanosecond fraction and a process-scoped salt —
// an opaque, collision-resistant identifier without a central allocator.
func newSessionID() string {
	now := time.Now()
	return fmt.Sprintf("%d.%d.%d", now.UnixMilli(), now.UnixNano()%1000, pid)
}

// newXid mints a per-frame correlation id via uuid.New(), an opaque unique
// token with no format constraint of its own.
func newXid() string {
	return uuid.New().String()
}
