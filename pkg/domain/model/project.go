package model

import (
	"fmt"
	"time"

	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// Project groups work orders and is the last fallback for reviewer resolution
type Project struct {
	ID        int64
	TeamID    types.TeamID
	Name      string
	OwnerID   types.ActorID
	RACI      RACI
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveAccountable returns the accountable actor, defaulting to the owner
func (p *Project) EffectiveAccountable() types.ActorID {
	if p.RACI.Accountable != "" {
		return p.RACI.Accountable
	}
	return p.OwnerID
}

// Clone returns a deep copy
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	c.RACI = p.RACI.Clone()
	return &c
}

// ProjectTargetID is the audit target ID of a project, e.g. "project:3"
func ProjectTargetID(id int64) string {
	return fmt.Sprintf("project:%d", id)
}
