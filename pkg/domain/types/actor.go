package types

import "fmt"

// ActorID identifies a user, an AI agent or the system. The empty value
// stands for "no actor" in nullable fields.
type ActorID string

// SystemActorID is the actor recorded for engine-initiated cascades
const SystemActorID ActorID = "system"

// String returns the string representation of the ActorID
func (a ActorID) String() string {
	return string(a)
}

// IsEmpty reports whether no actor is set
func (a ActorID) IsEmpty() bool {
	return a == ""
}

// ActorKind distinguishes humans, AI agents and the system itself
type ActorKind string

const (
	ActorKindUser   ActorKind = "user"
	ActorKindAgent  ActorKind = "agent"
	ActorKindSystem ActorKind = "system"
)

// IsValid checks if the actor kind is valid
func (k ActorKind) IsValid() bool {
	switch k {
	case ActorKindUser, ActorKindAgent, ActorKindSystem:
		return true
	default:
		return false
	}
}

// String returns the string representation of the actor kind
func (k ActorKind) String() string {
	return string(k)
}

// ParseActorKind parses a string into an ActorKind
func ParseActorKind(s string) (ActorKind, error) {
	kind := ActorKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid actor kind: %s", s)
	}
	return kind, nil
}
