package model

import (
	"time"

	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// AuditLog is an append-only record of a state-changing operation
type AuditLog struct {
	ID        string
	TeamID    types.TeamID
	ActorKind types.ActorKind
	ActorID   types.ActorID
	ActorName string
	Action    types.AuditAction
	Target    types.AuditTarget
	TargetID  string
	Details   string
	Timestamp time.Time
}
