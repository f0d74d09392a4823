package driving

import (
	"context"

	"github.com/custodia-labs/slidecast/internal/core/domain"
)

// InboxWatcher converts documents dropped into a watched directory.
type InboxWatcher interface {
	// Watch blocks until the context is done, converting each new
	// supported document that appears under dir with the given run
	// configuration. A failed conversion is logged and does not stop
	// the watch.
	Watch(ctx context.Context, dir string, cfg domain.RunConfig) error
}
