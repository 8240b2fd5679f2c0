package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

func TestAudit_List(t *testing.T) {
	env := setup(t)
	env.toReview(t)
	env.walk(t, env.workOrder.Ref(), step{actor: carol, to: types.WorkStatusActive})

	t.Run("newest first with actor snapshot", func(t *testing.T) {
		logs, err := env.uc.Audit.List(env.ctx, testTeamID, interfaces.AuditFilter{})
		gt.NoError(t, err).Required()
		gt.Array(t, logs).Length(3).Required()
		gt.Value(t, logs[0].Target).Equal(types.AuditTargetWorkOrder)
		gt.Value(t, logs[0].ActorName).Equal("Carol")
		gt.Value(t, logs[0].ActorKind).Equal(types.ActorKindUser)
		gt.Bool(t, logs[0].Timestamp.After(logs[1].Timestamp)).True()
	})

	t.Run("filter by target", func(t *testing.T) {
		logs, err := env.uc.Audit.List(env.ctx, testTeamID, interfaces.AuditFilter{
			Target:   types.AuditTargetTask,
			TargetID: model.TaskRef(env.task.ID).String(),
		})
		gt.NoError(t, err).Required()
		gt.Array(t, logs).Length(2)
	})

	t.Run("limit", func(t *testing.T) {
		logs, err := env.uc.Audit.List(env.ctx, testTeamID, interfaces.AuditFilter{Limit: 1})
		gt.NoError(t, err).Required()
		gt.Array(t, logs).Length(1)
	})

	t.Run("unknown team", func(t *testing.T) {
		_, err := env.uc.Audit.List(env.ctx, "nobody", interfaces.AuditFilter{})
		gt.Error(t, err).Is(model.ErrTeamNotFound)
	})
}
