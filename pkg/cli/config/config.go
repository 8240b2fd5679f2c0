package config

import (
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// TeamFile is one team directory file
type TeamFile struct {
	Teams []Team `toml:"team"`
}

// Team represents a team configuration
type Team struct {
	ID             string   `toml:"id"`
	Name           string   `toml:"name"`
	Owner          string   `toml:"owner"`
	SlackChannelID string   `toml:"slack_channel_id"`
	Members        []Member `toml:"member"`
}

// Member represents a user or agent of a team
type Member struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Kind        string `toml:"kind"`
	SlackUserID string `toml:"slack_user_id"`
}

// Validate checks if the Member is valid
func (m *Member) Validate() error {
	if m.ID == "" {
		return goerr.Wrap(ErrMissingID, "member id is required")
	}
	if types.ActorID(m.ID) == types.SystemActorID {
		return goerr.Wrap(ErrReservedActorID, "member id is reserved", goerr.V(MemberIDKey, m.ID))
	}
	if m.Name == "" {
		return goerr.Wrap(ErrMissingName, "member name is required", goerr.V(MemberIDKey, m.ID))
	}
	kind := types.ActorKind(m.Kind)
	if kind != types.ActorKindUser && kind != types.ActorKindAgent {
		return goerr.Wrap(ErrInvalidActorKind, "member kind must be user or agent",
			goerr.V(MemberIDKey, m.ID), goerr.V("kind", m.Kind))
	}
	return nil
}

// Validate checks if the Team is valid
func (t *Team) Validate() error {
	id := types.TeamID(t.ID)
	if err := id.Validate(); err != nil {
		return goerr.Wrap(err, "invalid team ID")
	}
	if t.Name == "" {
		return goerr.Wrap(ErrMissingName, "team name is required", goerr.V(TeamIDKey, t.ID))
	}

	memberIDs := make(map[string]bool)
	for i := range t.Members {
		m := &t.Members[i]
		if err := m.Validate(); err != nil {
			return goerr.Wrap(err, "invalid member", goerr.V(TeamIDKey, t.ID), goerr.V(MemberIndexKey, i))
		}
		if memberIDs[m.ID] {
			return goerr.Wrap(ErrDuplicateMemberID, "duplicate member ID",
				goerr.V(TeamIDKey, t.ID), goerr.V(MemberIDKey, m.ID))
		}
		memberIDs[m.ID] = true
	}

	if t.Owner == "" {
		return goerr.Wrap(ErrMissingOwner, "team owner is required", goerr.V(TeamIDKey, t.ID))
	}
	if !memberIDs[t.Owner] {
		return goerr.Wrap(ErrOwnerNotMember, "team owner must be a member",
			goerr.V(TeamIDKey, t.ID), goerr.V("owner", t.Owner))
	}
	return nil
}

// ToModel converts the configuration into a domain team
func (t *Team) ToModel() *model.Team {
	members := make([]model.Member, len(t.Members))
	for i, m := range t.Members {
		members[i] = model.Member{
			ID:          types.ActorID(m.ID),
			Name:        m.Name,
			Kind:        types.ActorKind(m.Kind),
			SlackUserID: m.SlackUserID,
		}
	}
	return &model.Team{
		ID:             types.TeamID(t.ID),
		Name:           t.Name,
		OwnerID:        types.ActorID(t.Owner),
		SlackChannelID: t.SlackChannelID,
		Members:        members,
	}
}

// LoadTeamFile loads and validates one team directory file
func LoadTeamFile(path string) (*TeamFile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var file TeamFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	for i := range file.Teams {
		if err := file.Teams[i].Validate(); err != nil {
			return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
		}
	}
	return &file, nil
}

// AppConfig holds the --config flag and the teams it loaded
type AppConfig struct {
	paths []string
}

func (x *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Team directory TOML file (repeatable)",
			Sources:     cli.EnvVars("BRIAREOS_CONFIG"),
			Destination: &x.paths,
		},
	}
}

func (x AppConfig) LogValue() slog.Value {
	return slog.AnyValue(x.paths)
}

// Paths returns the configured files
func (x *AppConfig) Paths() []string {
	return x.paths
}

// Configure loads every file and builds the team registry. Team IDs must be
// unique across files.
func (x *AppConfig) Configure() ([]Team, *model.TeamRegistry, error) {
	if len(x.paths) == 0 {
		return nil, nil, goerr.Wrap(ErrConfigNotFound, "at least one --config file is required")
	}

	var teams []Team
	seen := make(map[string]string)
	registry := model.NewTeamRegistry()

	for _, path := range x.paths {
		file, err := LoadTeamFile(path)
		if err != nil {
			return nil, nil, err
		}
		for _, t := range file.Teams {
			if prev, ok := seen[t.ID]; ok {
				return nil, nil, goerr.Wrap(ErrDuplicateTeamID, "duplicate team ID",
					goerr.V(TeamIDKey, t.ID), goerr.V(ConfigPathKey, path), goerr.V("first_path", prev))
			}
			seen[t.ID] = path
			teams = append(teams, t)
			registry.Register(t.ToModel())
		}
	}

	if len(teams) == 0 {
		return nil, nil, goerr.Wrap(ErrInvalidConfig, "no [[team]] defined", goerr.V(ConfigPathKey, x.paths))
	}
	return teams, registry, nil
}
