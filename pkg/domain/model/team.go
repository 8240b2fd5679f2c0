package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// ErrTeamNotFound is returned when a team is not found in the registry
var ErrTeamNotFound = goerr.New("team not found")

// Member is a user or AI agent belonging to a team
type Member struct {
	ID          types.ActorID
	Name        string
	Kind        types.ActorKind
	SlackUserID string
}

// Actor is the identity performing an operation
type Actor struct {
	ID   types.ActorID
	Kind types.ActorKind
	Name string
}

// SystemActor is the actor recorded for engine-initiated cascades
var SystemActor = Actor{
	ID:   types.SystemActorID,
	Kind: types.ActorKindSystem,
	Name: "System",
}

// IsAgent reports whether the actor is an AI agent
func (a Actor) IsAgent() bool {
	return a.Kind == types.ActorKindAgent
}

// IsSystem reports whether the actor is the engine itself
func (a Actor) IsSystem() bool {
	return a.Kind == types.ActorKindSystem
}

// Team is the tenant boundary. All work items, history, inbox entries and
// audit logs are scoped to a team.
type Team struct {
	ID             types.TeamID
	Name           string
	OwnerID        types.ActorID
	SlackChannelID string
	Members        []Member
}

// Member looks up a member by actor ID
func (t *Team) Member(id types.ActorID) (*Member, bool) {
	for i := range t.Members {
		if t.Members[i].ID == id {
			return &t.Members[i], true
		}
	}
	return nil, false
}

// IsMember reports whether id belongs to a member of the team
func (t *Team) IsMember(id types.ActorID) bool {
	_, ok := t.Member(id)
	return ok
}

// IsOwner reports whether id is the team owner
func (t *Team) IsOwner(id types.ActorID) bool {
	return id != "" && t.OwnerID == id
}

// Actor resolves an actor ID within the team. The system actor always
// resolves; unknown IDs do not.
func (t *Team) Actor(id types.ActorID) (Actor, bool) {
	if id == types.SystemActorID {
		return SystemActor, true
	}
	m, ok := t.Member(id)
	if !ok {
		return Actor{}, false
	}
	return Actor{ID: m.ID, Kind: m.Kind, Name: m.Name}, true
}

// ActorName returns a display name for id, falling back to the raw ID
func (t *Team) ActorName(id types.ActorID) string {
	if a, ok := t.Actor(id); ok && a.Name != "" {
		return a.Name
	}
	return id.String()
}

// TeamRegistry holds team configurations loaded at startup.
// It does not hold Repository or UseCase instances (settings only).
type TeamRegistry struct {
	entries map[types.TeamID]*Team
	order   []types.TeamID
}

// NewTeamRegistry creates a new empty TeamRegistry
func NewTeamRegistry() *TeamRegistry {
	return &TeamRegistry{
		entries: make(map[types.TeamID]*Team),
	}
}

// Register adds a team to the registry, replacing any team with the same ID
func (r *TeamRegistry) Register(team *Team) {
	if _, exists := r.entries[team.ID]; !exists {
		r.order = append(r.order, team.ID)
	}
	r.entries[team.ID] = team
}

// Get retrieves a team by ID
func (r *TeamRegistry) Get(teamID types.TeamID) (*Team, error) {
	team, ok := r.entries[teamID]
	if !ok {
		return nil, goerr.Wrap(ErrTeamNotFound, "team not found",
			goerr.V(TeamIDKey, teamID))
	}
	return team, nil
}

// List returns all registered teams in registration order
func (r *TeamRegistry) List() []*Team {
	result := make([]*Team, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.entries[id])
	}
	return result
}
