package usecase_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/service/slack"
	"github.com/secmon-lab/briareos/pkg/usecase"
	goslack "github.com/slack-go/slack"
	"golang.org/x/sync/errgroup"
)

func TestWorkflow_InvalidEdges(t *testing.T) {
	env := setup(t)

	cases := []struct {
		name string
		item *model.WorkItem
	}{
		{name: "task", item: env.task},
		{name: "work order", item: env.workOrder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			from := tc.item.Status
			allowed := model.AllowedTargets(tc.item.Kind, from)
			for _, to := range types.AllWorkStatuses() {
				if slices.Contains(allowed, to) {
					continue
				}
				_, err := env.uc.Workflow.Transition(env.ctx, testTeamID, tc.item.Ref(), owner, to, "because")
				gt.Error(t, err).Is(model.ErrInvalidTransition)
				gt.Value(t, reasonOf(t, err)).Equal(model.ReasonInvalidTransition)
			}

			item, err := env.uc.WorkItem.GetWorkItem(env.ctx, testTeamID, tc.item.Ref())
			gt.NoError(t, err).Required()
			gt.Value(t, item.Status).Equal(from)
			gt.Number(t, item.Version).Equal(1)
		})
	}
}

func TestWorkflow_FourStepLifecycle(t *testing.T) {
	env := setup(t)
	ref := env.task.Ref()

	result := env.walk(t, ref,
		step{actor: alice, to: types.WorkStatusInProgress},
		step{actor: alice, to: types.WorkStatusInReview},
		step{actor: bob, to: types.WorkStatusApproved},
		step{actor: alice, to: types.WorkStatusDone},
	)

	gt.Value(t, result.Item.Status).Equal(types.WorkStatusDone)
	gt.Number(t, result.Item.Version).Equal(5)
	gt.Array(t, result.History).Length(4).Required()
	gt.Value(t, result.Transition.ID).Equal(result.History[0].ID)

	expected := []types.WorkStatus{
		types.WorkStatusDone,
		types.WorkStatusApproved,
		types.WorkStatusInReview,
		types.WorkStatusInProgress,
	}
	for i, tr := range result.History {
		gt.Value(t, tr.ToStatus).Equal(expected[i])
		gt.Number(t, tr.Sequence).Equal(int64(5 - i))
	}
	gt.Value(t, result.History[3].FromStatus).Equal(types.WorkStatusTodo)
	gt.Value(t, result.History[1].ActorID).Equal(bob)

	logs, err := env.uc.Audit.List(env.ctx, testTeamID, interfaces.AuditFilter{
		Target:   types.AuditTargetTask,
		TargetID: ref.String(),
		Action:   types.AuditActionStatusTransition,
	})
	gt.NoError(t, err).Required()
	gt.Array(t, logs).Length(4).Required()
	gt.Value(t, logs[0].Details).Equal("status: approved -> done")
	gt.Value(t, logs[1].ActorName).Equal("Bob")
}

func TestWorkflow_Rejection(t *testing.T) {
	t.Run("comment is required", func(t *testing.T) {
		env := setup(t)
		env.toReview(t)

		for _, comment := range []string{"", "   "} {
			_, err := env.uc.Workflow.Transition(env.ctx, testTeamID, env.task.Ref(), bob, types.WorkStatusRevisionRequested, comment)
			gt.Error(t, err).Is(model.ErrInvalidTransition)
			gt.Value(t, reasonOf(t, err)).Equal(model.ReasonCommentRequired)
		}

		item, err := env.uc.WorkItem.GetWorkItem(env.ctx, testTeamID, env.task.Ref())
		gt.NoError(t, err).Required()
		gt.Value(t, item.Status).Equal(types.WorkStatusInReview)
	})

	t.Run("cascades back to in progress in one step", func(t *testing.T) {
		env := setup(t)
		env.toReview(t)

		result, err := env.uc.Workflow.Transition(env.ctx, testTeamID, env.task.Ref(), bob, types.WorkStatusRevisionRequested, "pricing table is outdated")
		gt.NoError(t, err).Required()

		gt.Value(t, result.Item.Status).Equal(types.WorkStatusInProgress)
		gt.Number(t, result.Item.Version).Equal(5)
		gt.Array(t, result.History).Length(4).Required()

		cascade := result.History[0]
		gt.Value(t, result.Transition.ID).Equal(cascade.ID)
		gt.Value(t, cascade.FromStatus).Equal(types.WorkStatusRevisionRequested)
		gt.Value(t, cascade.ToStatus).Equal(types.WorkStatusInProgress)
		gt.Value(t, cascade.ActorID).Equal(types.SystemActorID)
		gt.Value(t, cascade.ActorKind).Equal(types.ActorKindSystem)

		rejection := result.History[1]
		gt.Value(t, rejection.ToStatus).Equal(types.WorkStatusRevisionRequested)
		gt.Value(t, rejection.Comment).Equal("pricing table is outdated")
		gt.Value(t, rejection.ActorID).Equal(bob)
		gt.Number(t, cascade.Sequence).Greater(rejection.Sequence)

		items, err := env.uc.Inbox.List(env.ctx, testTeamID, interfaces.InboxFilter{IncludeArchived: true})
		gt.NoError(t, err).Required()
		gt.Array(t, items).Length(1).Required()
		gt.Value(t, items[0].RejectedAt()).NotNil()
		gt.Value(t, items[0].ApprovedAt()).Nil()

		logs, err := env.uc.Audit.List(env.ctx, testTeamID, interfaces.AuditFilter{TargetID: env.task.Ref().String()})
		gt.NoError(t, err).Required()
		gt.Array(t, logs).Length(4)
		gt.Value(t, logs[0].ActorName).Equal("System")
	})
}

func TestWorkflow_InboxProjection(t *testing.T) {
	env := setup(t)
	ref := env.task.Ref()
	env.toReview(t)

	open, err := env.uc.Inbox.OpenFor(env.ctx, testTeamID, ref)
	gt.NoError(t, err).Required()
	gt.Value(t, open).NotNil().Required()
	gt.Value(t, open.Type).Equal(types.InboxItemTypeApproval)
	gt.Value(t, open.ReviewerID).Equal(bob)
	gt.Value(t, open.RequestedBy).Equal(alice)
	gt.Value(t, open.Title).Equal("Write copy")
	gt.Value(t, open.ContentPreview).Equal("Hero section and pricing table")
	gt.Array(t, open.RelatedNames).Equal([]string{"Website", "Landing page"})
	gt.Value(t, open.Urgency).Equal(types.UrgencyNormal)

	listed, err := env.uc.Inbox.List(env.ctx, testTeamID, interfaces.InboxFilter{ReviewerID: bob})
	gt.NoError(t, err).Required()
	gt.Array(t, listed).Length(1)

	env.walk(t, ref, step{actor: bob, to: types.WorkStatusApproved})

	t.Run("resolved item leaves the default list", func(t *testing.T) {
		items, err := env.uc.Inbox.List(env.ctx, testTeamID, interfaces.InboxFilter{})
		gt.NoError(t, err).Required()
		gt.Array(t, items).Length(0)

		open, err := env.uc.Inbox.OpenFor(env.ctx, testTeamID, ref)
		gt.NoError(t, err).Required()
		gt.Value(t, open).Nil()
	})

	t.Run("resolved item is visible with trashed", func(t *testing.T) {
		items, err := env.uc.Inbox.List(env.ctx, testTeamID, interfaces.InboxFilter{IncludeArchived: true})
		gt.NoError(t, err).Required()
		gt.Array(t, items).Length(1).Required()
		gt.Value(t, items[0].ApprovedAt()).NotNil()
		gt.Value(t, items[0].RejectedAt()).Nil()
		gt.Bool(t, items[0].IsOpen()).False()

		got, err := env.uc.Inbox.Get(env.ctx, testTeamID, open.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ArchivedAt).NotNil()
	})
}

func TestWorkflow_ResubmissionOpensNewInboxItem(t *testing.T) {
	env := setup(t)
	ref := env.task.Ref()
	env.toReview(t)

	first, err := env.uc.Inbox.OpenFor(env.ctx, testTeamID, ref)
	gt.NoError(t, err).Required()

	env.walk(t, ref,
		step{actor: bob, to: types.WorkStatusRevisionRequested, comment: "needs work"},
		step{actor: alice, to: types.WorkStatusInReview},
	)

	second, err := env.uc.Inbox.OpenFor(env.ctx, testTeamID, ref)
	gt.NoError(t, err).Required()
	gt.Value(t, second).NotNil().Required()
	gt.Value(t, second.ID).NotEqual(first.ID)

	all, err := env.uc.Inbox.List(env.ctx, testTeamID, interfaces.InboxFilter{IncludeArchived: true})
	gt.NoError(t, err).Required()
	gt.Array(t, all).Length(2)
}

func TestWorkflow_CancelWithdrawsReview(t *testing.T) {
	env := setup(t)
	ref := env.task.Ref()
	env.toReview(t)

	result := env.walk(t, ref, step{actor: alice, to: types.WorkStatusCancelled})
	gt.Value(t, result.Item.Status).Equal(types.WorkStatusCancelled)

	items, err := env.uc.Inbox.List(env.ctx, testTeamID, interfaces.InboxFilter{IncludeArchived: true})
	gt.NoError(t, err).Required()
	gt.Array(t, items).Length(1).Required()
	gt.Value(t, items[0].ArchivedAt).NotNil()
	gt.Value(t, items[0].Resolution).Nil()

	_, err = env.uc.Workflow.Transition(env.ctx, testTeamID, ref, owner, types.WorkStatusInProgress, "")
	gt.Error(t, err).Is(model.ErrInvalidTransition)
}

func TestWorkflow_Permissions(t *testing.T) {
	t.Run("agent cannot approve but a human can", func(t *testing.T) {
		env := setup(t)
		env.toReview(t)

		_, err := env.uc.Workflow.Transition(env.ctx, testTeamID, env.task.Ref(), agent, types.WorkStatusApproved, "")
		gt.Error(t, err).Is(model.ErrInvalidTransition)
		gt.Value(t, reasonOf(t, err)).Equal(model.ReasonAgentRestricted)

		env.walk(t, env.task.Ref(), step{actor: bob, to: types.WorkStatusApproved})
	})

	t.Run("agent cannot complete but the assignee can", func(t *testing.T) {
		env := setup(t)
		env.toReview(t)
		env.walk(t, env.task.Ref(), step{actor: bob, to: types.WorkStatusApproved})

		_, err := env.uc.Workflow.Transition(env.ctx, testTeamID, env.task.Ref(), agent, types.WorkStatusDone, "")
		gt.Value(t, reasonOf(t, err)).Equal(model.ReasonAgentRestricted)

		env.walk(t, env.task.Ref(), step{actor: alice, to: types.WorkStatusDone})
	})

	t.Run("agent may do ordinary work", func(t *testing.T) {
		env := setup(t)
		env.walk(t, env.task.Ref(),
			step{actor: agent, to: types.WorkStatusInProgress},
			step{actor: agent, to: types.WorkStatusInReview},
		)
		env.walk(t, env.task.Ref(), step{actor: bob, to: types.WorkStatusApproved})
	})

	t.Run("self approval is refused even for the owner", func(t *testing.T) {
		env := setup(t)
		env.walk(t, env.task.Ref(),
			step{actor: owner, to: types.WorkStatusInProgress},
			step{actor: owner, to: types.WorkStatusInReview},
		)

		_, err := env.uc.Workflow.Transition(env.ctx, testTeamID, env.task.Ref(), owner, types.WorkStatusApproved, "")
		gt.Value(t, reasonOf(t, err)).Equal(model.ReasonSelfApproval)

		env.walk(t, env.task.Ref(), step{actor: bob, to: types.WorkStatusApproved})
	})

	t.Run("self approval checks the latest submission", func(t *testing.T) {
		env := setup(t)
		env.walk(t, env.task.Ref(),
			step{actor: alice, to: types.WorkStatusInProgress},
			step{actor: bob, to: types.WorkStatusInReview},
			step{actor: bob, to: types.WorkStatusRevisionRequested, comment: "not me"},
			step{actor: alice, to: types.WorkStatusInReview},
		)
		env.walk(t, env.task.Ref(), step{actor: bob, to: types.WorkStatusApproved})
	})

	t.Run("only the designated reviewer or owner approves", func(t *testing.T) {
		env := setup(t)
		env.toReview(t)

		_, err := env.uc.Workflow.Transition(env.ctx, testTeamID, env.task.Ref(), carol, types.WorkStatusApproved, "")
		gt.Value(t, reasonOf(t, err)).Equal(model.ReasonNotDesignatedReviewer)

		env.walk(t, env.task.Ref(), step{actor: owner, to: types.WorkStatusApproved})
	})

	t.Run("only the assignee or owner completes", func(t *testing.T) {
		env := setup(t)
		env.toReview(t)
		env.walk(t, env.task.Ref(), step{actor: bob, to: types.WorkStatusApproved})

		_, err := env.uc.Workflow.Transition(env.ctx, testTeamID, env.task.Ref(), bob, types.WorkStatusDone, "")
		gt.Value(t, reasonOf(t, err)).Equal(model.ReasonPermissionDenied)

		env.walk(t, env.task.Ref(), step{actor: owner, to: types.WorkStatusDone})
	})

	t.Run("non member is refused", func(t *testing.T) {
		env := setup(t)
		_, err := env.uc.Workflow.Transition(env.ctx, testTeamID, env.task.Ref(), outsider, types.WorkStatusInProgress, "")
		gt.Value(t, reasonOf(t, err)).Equal(model.ReasonPermissionDenied)
	})

	t.Run("callers cannot claim the system actor", func(t *testing.T) {
		env := setup(t)
		_, err := env.uc.Workflow.Transition(env.ctx, testTeamID, env.task.Ref(), types.SystemActorID, types.WorkStatusInProgress, "")
		gt.Value(t, reasonOf(t, err)).Equal(model.ReasonPermissionDenied)
	})
}

func TestWorkflow_WorkOrderLifecycle(t *testing.T) {
	env := setup(t)
	ref := env.workOrder.Ref()

	result := env.walk(t, ref,
		step{actor: carol, to: types.WorkStatusActive},
		step{actor: carol, to: types.WorkStatusInReview},
	)
	gt.Value(t, result.Item.Status).Equal(types.WorkStatusInReview)

	open, err := env.uc.Inbox.OpenFor(env.ctx, testTeamID, ref)
	gt.NoError(t, err).Required()
	gt.Value(t, open.ReviewerID).Equal(bob)
	gt.Array(t, open.RelatedNames).Equal([]string{"Website"})

	result = env.walk(t, ref, step{actor: bob, to: types.WorkStatusRevisionRequested, comment: "add a hero image"})
	gt.Value(t, result.Item.Status).Equal(types.WorkStatusActive)

	result = env.walk(t, ref,
		step{actor: carol, to: types.WorkStatusInReview},
		step{actor: bob, to: types.WorkStatusApproved},
		step{actor: carol, to: types.WorkStatusDelivered},
	)
	gt.Value(t, result.Item.Status).Equal(types.WorkStatusDelivered)
}

func TestWorkflow_CanTransition(t *testing.T) {
	env := setup(t)
	env.toReview(t)
	ref := env.task.Ref()

	testCases := []struct {
		name  string
		actor types.ActorID
		to    types.WorkStatus
		want  bool
	}{
		{name: "reviewer approves", actor: bob, to: types.WorkStatusApproved, want: true},
		{name: "reviewer requests revision", actor: bob, to: types.WorkStatusRevisionRequested, want: true},
		{name: "submitter approves", actor: alice, to: types.WorkStatusApproved, want: false},
		{name: "agent approves", actor: agent, to: types.WorkStatusApproved, want: false},
		{name: "edge not in table", actor: bob, to: types.WorkStatusDone, want: false},
		{name: "outsider cancels", actor: outsider, to: types.WorkStatusCancelled, want: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := env.uc.Workflow.CanTransition(env.ctx, testTeamID, ref, tc.actor, tc.to)
			gt.NoError(t, err).Required()
			gt.Value(t, ok).Equal(tc.want)
		})
	}

	t.Run("lookup failure is an error", func(t *testing.T) {
		_, err := env.uc.Workflow.CanTransition(env.ctx, testTeamID, model.TaskRef(999), bob, types.WorkStatusApproved)
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})
}

func TestWorkflow_AvailableTransitions(t *testing.T) {
	env := setup(t)
	ref := env.task.Ref()

	available, err := env.uc.Workflow.AvailableTransitions(env.ctx, testTeamID, ref, alice)
	gt.NoError(t, err).Required()
	gt.Array(t, available).Equal([]types.WorkStatus{types.WorkStatusInProgress, types.WorkStatusCancelled})

	env.toReview(t)

	available, err = env.uc.Workflow.AvailableTransitions(env.ctx, testTeamID, ref, bob)
	gt.NoError(t, err).Required()
	gt.Array(t, available).Equal([]types.WorkStatus{
		types.WorkStatusApproved,
		types.WorkStatusCancelled,
		types.WorkStatusRevisionRequested,
	})

	available, err = env.uc.Workflow.AvailableTransitions(env.ctx, testTeamID, ref, alice)
	gt.NoError(t, err).Required()
	gt.Array(t, available).Equal([]types.WorkStatus{
		types.WorkStatusCancelled,
		types.WorkStatusRevisionRequested,
	})

	available, err = env.uc.Workflow.AvailableTransitions(env.ctx, testTeamID, ref, outsider)
	gt.NoError(t, err).Required()
	gt.Array(t, available).Length(0)
}

func TestWorkflow_History(t *testing.T) {
	env := setup(t)

	history, err := env.uc.Workflow.History(env.ctx, testTeamID, env.task.Ref())
	gt.NoError(t, err).Required()
	gt.Array(t, history).Length(0)

	env.toReview(t)
	history, err = env.uc.Workflow.History(env.ctx, testTeamID, env.task.Ref())
	gt.NoError(t, err).Required()
	gt.Array(t, history).Length(2).Required()
	gt.Value(t, history[0].ToStatus).Equal(types.WorkStatusInReview)

	_, err = env.uc.Workflow.History(env.ctx, testTeamID, model.TaskRef(404))
	gt.Error(t, err).Is(interfaces.ErrNotFound)
}

func TestWorkflow_Lookups(t *testing.T) {
	env := setup(t)

	t.Run("unknown team", func(t *testing.T) {
		_, err := env.uc.Workflow.Transition(env.ctx, "nobody", env.task.Ref(), alice, types.WorkStatusInProgress, "")
		gt.Error(t, err).Is(model.ErrTeamNotFound)
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := env.uc.Workflow.Transition(env.ctx, testTeamID, model.TaskRef(999), alice, types.WorkStatusInProgress, "")
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("missing actor", func(t *testing.T) {
		_, err := env.uc.Workflow.Transition(env.ctx, testTeamID, env.task.Ref(), "", types.WorkStatusInProgress, "")
		gt.Error(t, err).Is(usecase.ErrValidation)
	})

	t.Run("malformed reference", func(t *testing.T) {
		_, err := env.uc.Workflow.Transition(env.ctx, testTeamID, model.TaskRef(0), alice, types.WorkStatusInProgress, "")
		gt.Error(t, err).Is(usecase.ErrValidation)
	})
}

func TestWorkflow_ConcurrentTransitions(t *testing.T) {
	env := setup(t)
	ref := env.task.Ref()

	const racers = 8
	var (
		won     atomic.Int32
		refused atomic.Int32
	)
	var eg errgroup.Group
	for range racers {
		eg.Go(func() error {
			_, err := env.uc.Workflow.Transition(env.ctx, testTeamID, ref, alice, types.WorkStatusInProgress, "")
			switch {
			case err == nil:
				won.Add(1)
			case errors.Is(err, model.ErrInvalidTransition), errors.Is(err, usecase.ErrConcurrentModification):
				refused.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	gt.NoError(t, eg.Wait()).Required()

	gt.Number(t, won.Load()).Equal(1)
	gt.Number(t, refused.Load()).Equal(racers - 1)

	history, err := env.uc.Workflow.History(env.ctx, testTeamID, ref)
	gt.NoError(t, err).Required()
	gt.Array(t, history).Length(1)

	item, err := env.uc.WorkItem.GetWorkItem(env.ctx, testTeamID, ref)
	gt.NoError(t, err).Required()
	gt.Number(t, item.Version).Equal(2)
}

func TestWorkflow_ConcurrentReviewDecisions(t *testing.T) {
	env := setup(t)
	ref := env.task.Ref()
	env.toReview(t)

	var eg errgroup.Group
	results := make([]error, 2)
	eg.Go(func() error {
		_, results[0] = env.uc.Workflow.Transition(env.ctx, testTeamID, ref, bob, types.WorkStatusApproved, "")
		return nil
	})
	eg.Go(func() error {
		_, results[1] = env.uc.Workflow.Transition(env.ctx, testTeamID, ref, bob, types.WorkStatusRevisionRequested, "on second thought")
		return nil
	})
	gt.NoError(t, eg.Wait()).Required()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	gt.Number(t, succeeded).Equal(1)

	items, err := env.uc.Inbox.List(env.ctx, testTeamID, interfaces.InboxFilter{IncludeArchived: true})
	gt.NoError(t, err).Required()
	gt.Array(t, items).Length(1).Required()
	gt.Value(t, items[0].Resolution).NotNil()
}

type fakeSlack struct {
	mu       sync.Mutex
	channels []string
	texts    []string
	posted   chan struct{}
}

var _ slack.Service = (*fakeSlack)(nil)

func newFakeSlack() *fakeSlack {
	return &fakeSlack{posted: make(chan struct{}, 4)}
}

func (f *fakeSlack) GetChannelNames(ctx context.Context, ids []string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (f *fakeSlack) GetUserInfo(ctx context.Context, userID string) (*slack.User, error) {
	return &slack.User{ID: userID}, nil
}

func (f *fakeSlack) PostMessage(ctx context.Context, channelID string, blocks []goslack.Block, text string) (string, error) {
	f.mu.Lock()
	f.channels = append(f.channels, channelID)
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	f.posted <- struct{}{}
	return "1700000000.000100", nil
}

func TestWorkflow_NotifiesReviewer(t *testing.T) {
	svc := newFakeSlack()
	env := setup(t, usecase.WithSlackService(svc), usecase.WithBaseURL("https://briareos.example.com"))

	env.toReview(t)

	select {
	case <-svc.posted:
	case <-time.After(5 * time.Second):
		t.Fatal("review request was not posted")
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	gt.Array(t, svc.channels).Equal([]string{"C0ACME"})
	gt.Value(t, svc.texts[0]).Equal("Review requested: Write copy")
}
