package mcp

import (
	"context"
	"os"
	"time"

	"fermi/internal/logging"
)

// ParentPollInterval is how often WatchParent checks the parent PID.
var ParentPollInterval = 2 * time.Second

// WatchParent calls cancel when the parent process exits (the MCP client
// closed without shutting the server down). It never reads stdin, which
// belongs to the stdio transport. The goroutine exits when ctx is done.
func WatchParent(ctx context.Context, cancel context.CancelFunc) {
	ppid := os.Getppid()
	interval := ParentPollInterval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if os.Getppid() != ppid {
					logging.New("mcp").Warn("parent process exited, shutting down", "ppid", ppid)
					cancel()
					return
				}
			}
		}
	}()
}
