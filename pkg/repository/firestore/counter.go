package firestore

import (
	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// nextID reads and advances a per-team counter inside tx. It must run before
// any write in the same transaction.
func (b *base) nextID(tx *firestore.Transaction, teamID types.TeamID, counter string) (int64, func() error, error) {
	counterRef := b.collection(teamID, CollectionCounters).Doc(counter)

	doc, err := tx.Get(counterRef)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 1, func() error {
				return tx.Set(counterRef, map[string]interface{}{"value": int64(1)})
			}, nil
		}
		return 0, nil, goerr.Wrap(err, "failed to get counter", goerr.V("counter", counter))
	}

	currentValue, err := doc.DataAt("value")
	if err != nil {
		return 0, nil, goerr.Wrap(err, "failed to get counter value", goerr.V("counter", counter))
	}
	val, ok := currentValue.(int64)
	if !ok {
		return 0, nil, goerr.New("counter value is not of type int64", goerr.V("value", currentValue))
	}

	next := val + 1
	return next, func() error {
		return tx.Update(counterRef, []firestore.Update{{Path: "value", Value: next}})
	}, nil
}
