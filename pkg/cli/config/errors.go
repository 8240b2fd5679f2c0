package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound    = goerr.New("configuration file not found")
	ErrInvalidConfig     = goerr.New("invalid configuration")
	ErrDuplicateTeamID   = goerr.New("duplicate team ID")
	ErrDuplicateMemberID = goerr.New("duplicate member ID")
	ErrMissingID         = goerr.New("id is required")
	ErrMissingName       = goerr.New("name is required")
	ErrMissingOwner      = goerr.New("owner is required")
	ErrOwnerNotMember    = goerr.New("owner is not a member")
	ErrInvalidActorKind  = goerr.New("invalid member kind")
	ErrReservedActorID   = goerr.New("reserved actor ID")
)

// Context keys for error values
const (
	ConfigPathKey  = "config_path"
	TeamIDKey      = "team_id"
	MemberIDKey    = "member_id"
	MemberIndexKey = "member_index"
)
