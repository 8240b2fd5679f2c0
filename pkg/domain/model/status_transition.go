package model

import (
	"time"

	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// StatusTransition is an immutable record of one edge taken by a work item.
// Sequence is the item version after the edge and orders history within an
// item even when several rows share a timestamp.
type StatusTransition struct {
	ID         string
	TeamID     types.TeamID
	Item       WorkItemRef
	ActorKind  types.ActorKind
	ActorID    types.ActorID
	FromStatus types.WorkStatus
	ToStatus   types.WorkStatus
	Comment    string
	Sequence   int64
	CreatedAt  time.Time
}
