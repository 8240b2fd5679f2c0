package model

import (
	"fmt"
	"strings"

	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// TransitionReason distinguishes the sub-cases of an invalid transition
type TransitionReason string

const (
	ReasonInvalidTransition     TransitionReason = "invalid_transition"
	ReasonCommentRequired       TransitionReason = "comment_required"
	ReasonPermissionDenied      TransitionReason = "permission_denied"
	ReasonNotDesignatedReviewer TransitionReason = "not_designated_reviewer"
	ReasonSelfApproval          TransitionReason = "self_approval"
	ReasonAgentRestricted       TransitionReason = "agent_restricted"
)

// String returns the string representation of the reason
func (r TransitionReason) String() string {
	return string(r)
}

// TransitionError is returned when a transition is refused. It unwraps to
// ErrInvalidTransition.
type TransitionError struct {
	Reason  TransitionReason
	Message string
}

func (e *TransitionError) Error() string {
	return e.Message
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func refuse(reason TransitionReason, format string, args ...any) *TransitionError {
	return &TransitionError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

type statusSet map[types.WorkStatus]struct{}

// transitionTable lists the allowed (from, to) pairs per kind. Adding a
// status requires an explicit edit here.
var transitionTable = map[types.WorkItemKind]map[types.WorkStatus]statusSet{
	types.WorkItemKindTask:      buildTransitions(types.WorkItemKindTask),
	types.WorkItemKindWorkOrder: buildTransitions(types.WorkItemKindWorkOrder),
}

func buildTransitions(kind types.WorkItemKind) map[types.WorkStatus]statusSet {
	initial := kind.InitialStatus()
	active := kind.ActiveStatus()
	completed := kind.CompletedStatus()

	edges := map[types.WorkStatus]statusSet{
		initial:                           {active: {}},
		active:                            {types.WorkStatusInReview: {}, types.WorkStatusBlocked: {}},
		types.WorkStatusBlocked:           {active: {}},
		types.WorkStatusInReview:          {types.WorkStatusApproved: {}, types.WorkStatusRevisionRequested: {}},
		types.WorkStatusRevisionRequested: {active: {}},
		types.WorkStatusApproved:          {completed: {}},
	}
	for _, s := range kind.Statuses() {
		if s.IsTerminal() {
			continue
		}
		if edges[s] == nil {
			edges[s] = statusSet{}
		}
		edges[s][types.WorkStatusCancelled] = struct{}{}
	}
	return edges
}

// IsAllowedEdge reports whether (from, to) is in the transition table
func IsAllowedEdge(kind types.WorkItemKind, from, to types.WorkStatus) bool {
	_, ok := transitionTable[kind][from][to]
	return ok
}

// AllowedTargets returns the statuses reachable from `from` in table order,
// without permission filtering
func AllowedTargets(kind types.WorkItemKind, from types.WorkStatus) []types.WorkStatus {
	var targets []types.WorkStatus
	for _, s := range kind.Statuses() {
		if IsAllowedEdge(kind, from, s) {
			targets = append(targets, s)
		}
	}
	return targets
}

// IsRejection reports whether entering the status rejects a review
func IsRejection(to types.WorkStatus) bool {
	return to == types.WorkStatusRevisionRequested
}

// IsApproval reports whether entering the status grants approval
func IsApproval(to types.WorkStatus) bool {
	return to == types.WorkStatusApproved
}

// IsCompletion reports whether entering the status marks the item done or delivered
func IsCompletion(kind types.WorkItemKind, to types.WorkStatus) bool {
	return to == kind.CompletedStatus()
}

// ActorCapabilities is computed once per actor and item, and is the only
// input to permission decisions.
type ActorCapabilities struct {
	IsOwner            bool
	IsAgent            bool
	IsSystem           bool
	IsMember           bool
	IsAssignee         bool
	IsResolvedReviewer bool
	// IsLatestSubmitter is true when the actor made the most recent
	// transition into in_review.
	IsLatestSubmitter bool
}

// DecideTransition validates the edge, the comment requirement and the actor's
// permission. It returns nil when the transition may proceed, otherwise a
// *TransitionError.
func DecideTransition(kind types.WorkItemKind, from, to types.WorkStatus, comment string, caps ActorCapabilities) error {
	if !IsAllowedEdge(kind, from, to) {
		return refuse(ReasonInvalidTransition, "Cannot transition from %s to %s.", from, to)
	}

	if IsRejection(to) && strings.TrimSpace(comment) == "" {
		return refuse(ReasonCommentRequired, "A comment is required when requesting a revision.")
	}

	approval := IsApproval(to)
	completion := IsCompletion(kind, to)

	if caps.IsAgent && (approval || completion) {
		return refuse(ReasonAgentRestricted, "AI agents cannot perform approval or delivery transitions.")
	}

	if caps.IsSystem {
		return nil
	}
	if !caps.IsMember && !caps.IsOwner {
		return refuse(ReasonPermissionDenied, "You do not have permission to change this item.")
	}

	switch {
	case approval:
		if caps.IsLatestSubmitter {
			return refuse(ReasonSelfApproval, "You cannot approve an item you submitted for review.")
		}
		if !caps.IsOwner && !caps.IsResolvedReviewer {
			return refuse(ReasonNotDesignatedReviewer, "Only the designated reviewer can approve this item.")
		}
	case completion:
		if !caps.IsOwner && !caps.IsAssignee {
			return refuse(ReasonPermissionDenied, "You do not have permission to mark this item as %s.", to)
		}
	}

	return nil
}

// IsReopenable reports whether from can be forced back to the active status
// by an explicitly confirmed reopen.
func IsReopenable(kind types.WorkItemKind, from types.WorkStatus) bool {
	switch from {
	case types.WorkStatusInReview, types.WorkStatusApproved, kind.CompletedStatus():
		return true
	default:
		return false
	}
}

// DecideReopen validates a confirmed reopen of gated or completed work back to
// the active status. Edges present in the table should go through
// DecideTransition instead.
func DecideReopen(kind types.WorkItemKind, from types.WorkStatus, caps ActorCapabilities) error {
	if !IsReopenable(kind, from) {
		return refuse(ReasonInvalidTransition, "Cannot reopen an item in %s.", from)
	}
	if caps.IsAgent && from != types.WorkStatusInReview {
		return refuse(ReasonAgentRestricted, "AI agents cannot reopen approved or completed work.")
	}
	if !caps.IsMember && !caps.IsOwner && !caps.IsSystem {
		return refuse(ReasonPermissionDenied, "You do not have permission to change this item.")
	}
	return nil
}

// DecideAccess checks that the actor may act on the team's items at all. It
// guards operations that change an item without taking a table edge, such
// as starting a timer on work already in progress.
func DecideAccess(caps ActorCapabilities) error {
	if caps.IsSystem || caps.IsMember || caps.IsOwner {
		return nil
	}
	return refuse(ReasonPermissionDenied, "You do not have permission to change this item.")
}
