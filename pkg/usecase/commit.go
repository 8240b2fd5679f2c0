package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
)

// commitWithRetry commits the change set built by plan, re-running plan
// from fresh reads after a version conflict. plan returns nil when there is
// nothing to write.
func commitWithRetry(ctx context.Context, repo interfaces.Repository, plan func(ctx context.Context) (*model.ChangeSet, error)) error {
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		cs, err := plan(ctx)
		if err != nil {
			return err
		}
		if cs == nil {
			return nil
		}

		err = repo.Commit(ctx, cs)
		if err == nil {
			return nil
		}
		if !errors.Is(err, interfaces.ErrConflict) {
			return goerr.Wrap(err, "failed to commit change set", goerr.V(model.TeamIDKey, cs.TeamID))
		}
		logging.From(ctx).Debug("version conflict, retrying", "team_id", cs.TeamID, "attempt", attempt)
	}

	return goerr.Wrap(ErrConcurrentModification, "optimistic lock retries exhausted",
		goerr.V(AttemptKey, maxCommitAttempts))
}
