package model

import (
	"slices"

	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// RACI holds the Responsible/Accountable/Consulted/Informed assignment of a
// project or work item. Empty IDs and empty lists mean "not set".
type RACI struct {
	Accountable types.ActorID
	Responsible types.ActorID
	Consulted   []types.ActorID
	Informed    []types.ActorID
}

// Clone returns a deep copy
func (r RACI) Clone() RACI {
	return RACI{
		Accountable: r.Accountable,
		Responsible: r.Responsible,
		Consulted:   slices.Clone(r.Consulted),
		Informed:    slices.Clone(r.Informed),
	}
}

// Equal compares two assignments; list order is significant
func (r RACI) Equal(o RACI) bool {
	return r.Accountable == o.Accountable &&
		r.Responsible == o.Responsible &&
		slices.Equal(r.Consulted, o.Consulted) &&
		slices.Equal(r.Informed, o.Informed)
}

// ActorIDs returns every actor referenced by the assignment
func (r RACI) ActorIDs() []types.ActorID {
	var ids []types.ActorID
	if r.Accountable != "" {
		ids = append(ids, r.Accountable)
	}
	if r.Responsible != "" {
		ids = append(ids, r.Responsible)
	}
	ids = append(ids, r.Consulted...)
	ids = append(ids, r.Informed...)
	return ids
}
