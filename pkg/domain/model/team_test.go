package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

func newTestTeam() *model.Team {
	return &model.Team{
		ID:      "core",
		Name:    "Core",
		OwnerID: "manager",
		Members: []model.Member{
			{ID: "manager", Name: "Mina", Kind: types.ActorKindUser},
			{ID: "worker", Name: "Wes", Kind: types.ActorKindUser},
			{ID: "bot", Name: "Helper", Kind: types.ActorKindAgent},
		},
	}
}

func TestTeam_Actor(t *testing.T) {
	team := newTestTeam()

	a, ok := team.Actor("bot")
	gt.Bool(t, ok).True()
	gt.Bool(t, a.IsAgent()).True()
	gt.Value(t, a.Name).Equal("Helper")

	a, ok = team.Actor(types.SystemActorID)
	gt.Bool(t, ok).True()
	gt.Bool(t, a.IsSystem()).True()

	_, ok = team.Actor("stranger")
	gt.Bool(t, ok).False()

	gt.Bool(t, team.IsOwner("manager")).True()
	gt.Bool(t, team.IsOwner("worker")).False()
	gt.Bool(t, team.IsOwner("")).False()
	gt.Value(t, team.ActorName("worker")).Equal("Wes")
	gt.Value(t, team.ActorName("stranger")).Equal("stranger")
}

func TestTeamRegistry(t *testing.T) {
	reg := model.NewTeamRegistry()
	gt.Array(t, reg.List()).Length(0)

	reg.Register(newTestTeam())
	reg.Register(&model.Team{ID: "ops", Name: "Ops"})
	reg.Register(&model.Team{ID: "core", Name: "Core v2"})

	teams := reg.List()
	gt.Array(t, teams).Length(2)
	gt.Value(t, teams[0].ID).Equal(types.TeamID("core"))
	gt.Value(t, teams[0].Name).Equal("Core v2")
	gt.Value(t, teams[1].ID).Equal(types.TeamID("ops"))

	_, err := reg.Get("missing")
	gt.Bool(t, errors.Is(err, model.ErrTeamNotFound)).True()
}
