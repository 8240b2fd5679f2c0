package model

import "github.com/m-mizutani/goerr/v2"

// Domain errors
var (
	ErrInvalidTransition = goerr.New("invalid transition")
	ErrInvalidWorkItem   = goerr.New("invalid work item")
	ErrInvalidChangeSet  = goerr.New("invalid change set")
)

// Context keys for error values
const (
	TeamIDKey     = "team_id"
	WorkItemKey   = "work_item"
	FromStatusKey = "from_status"
	ToStatusKey   = "to_status"
	ActorIDKey    = "actor_id"
)
