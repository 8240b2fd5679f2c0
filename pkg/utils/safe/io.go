package safe

import (
	"context"
	"io"

	"github.com/secmon-lab/briareos/pkg/utils/logging"
)

// Close closes c and logs a failure as a warning. Nil closers are ignored.
func Close(ctx context.Context, c io.Closer, what string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.From(ctx).Warn("failed to close", "target", what, "error", err)
	}
}
