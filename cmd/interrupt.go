package cmd

import (
	"context"
	"os"
	"os/signal"
)

// interruptContext returns a context cancelled by Ctrl+C. The executor only
// honours it between steps, so a running external command always finishes.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
