package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

func TestInboxItem_Resolve(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("approved", func(t *testing.T) {
		item := &model.InboxItem{ID: "a"}
		gt.Bool(t, item.IsOpen()).True()

		item.Resolve(types.ResolutionApproved, now)
		gt.Bool(t, item.IsOpen()).False()
		gt.Value(t, item.ApprovedAt()).NotNil()
		gt.Value(t, *item.ApprovedAt()).Equal(now)
		gt.Value(t, item.RejectedAt()).Nil()
	})

	t.Run("rejected", func(t *testing.T) {
		item := &model.InboxItem{ID: "b"}
		item.Resolve(types.ResolutionRejected, now)
		gt.Value(t, item.RejectedAt()).NotNil()
		gt.Value(t, item.ApprovedAt()).Nil()
	})

	t.Run("withdrawn", func(t *testing.T) {
		item := &model.InboxItem{ID: "c"}
		item.Archive(now)
		gt.Bool(t, item.IsOpen()).False()
		gt.Value(t, item.ApprovedAt()).Nil()
		gt.Value(t, item.RejectedAt()).Nil()
	})
}

func TestChangeSet_Validate(t *testing.T) {
	ref := model.TaskRef(1)
	valid := func() *model.ChangeSet {
		return &model.ChangeSet{
			TeamID: "core",
			Item:   &model.WorkItemUpdate{Ref: ref, ExpectedVersion: 1, NewVersion: 2, Status: types.WorkStatusInProgress},
			Transitions: []*model.StatusTransition{
				{TeamID: "core", Item: ref, ToStatus: types.WorkStatusInProgress},
			},
		}
	}

	gt.NoError(t, valid().Validate())

	cs := valid()
	cs.TeamID = ""
	gt.Error(t, cs.Validate()).Is(model.ErrInvalidChangeSet)

	cs = valid()
	cs.Item.NewVersion = 1
	gt.Error(t, cs.Validate()).Is(model.ErrInvalidChangeSet)

	cs = valid()
	cs.Item.Status = types.WorkStatusDelivered
	gt.Error(t, cs.Validate()).Is(model.ErrInvalidChangeSet)

	cs = valid()
	cs.Transitions[0].Item = model.TaskRef(2)
	gt.Error(t, cs.Validate()).Is(model.ErrInvalidChangeSet)

	cs = valid()
	cs.AuditLogs = []*model.AuditLog{{TeamID: "other"}}
	gt.Error(t, cs.Validate()).Is(model.ErrInvalidChangeSet)

	cs = valid()
	cs.Project = &model.ProjectUpdate{ID: 1, ExpectedVersion: 1, NewVersion: 2}
	gt.Error(t, cs.Validate()).Is(model.ErrInvalidChangeSet)

	gt.NoError(t, (&model.ChangeSet{TeamID: "core", TimeEntries: []*model.TimeEntry{{TeamID: "core"}}}).Validate())
}
