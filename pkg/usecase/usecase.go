package usecase

import (
	"time"

	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/service/slack"
)

// maxCommitAttempts bounds the optimistic-lock retry loop of every write
const maxCommitAttempts = 3

type UseCases struct {
	repo         interfaces.Repository
	registry     *model.TeamRegistry
	slackService slack.Service
	baseURL      string
	clock        func() time.Time

	Reviewer *ReviewerResolver
	Workflow *WorkflowUseCase
	Timer    *TimerUseCase
	RACI     *RACIUseCase
	Inbox    *InboxUseCase
	Audit    *AuditUseCase
	WorkItem *WorkItemUseCase
}

type Option func(*UseCases)

// WithSlackService enables reviewer notifications
func WithSlackService(svc slack.Service) Option {
	return func(uc *UseCases) {
		uc.slackService = svc
	}
}

// WithBaseURL sets the public URL used for links in notifications
func WithBaseURL(url string) Option {
	return func(uc *UseCases) {
		uc.baseURL = url
	}
}

// WithClock replaces time.Now, for tests
func WithClock(clock func() time.Time) Option {
	return func(uc *UseCases) {
		uc.clock = clock
	}
}

func New(repo interfaces.Repository, registry *model.TeamRegistry, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:     repo,
		registry: registry,
		clock:    time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	clock := func() time.Time { return uc.clock().UTC() }

	uc.Reviewer = NewReviewerResolver(repo)
	uc.Inbox = NewInboxUseCase(repo, registry)
	uc.Audit = NewAuditUseCase(repo, registry)
	notifier := newReviewNotifier(uc.slackService, uc.baseURL)
	uc.Workflow = NewWorkflowUseCase(repo, registry, uc.Reviewer, uc.Inbox, uc.Audit, notifier, clock)
	uc.Timer = NewTimerUseCase(repo, registry, uc.Workflow, clock)
	uc.RACI = NewRACIUseCase(repo, registry, uc.Audit, clock)
	uc.WorkItem = NewWorkItemUseCase(repo, registry)

	return uc
}

// Registry returns the team directory the use cases were built with
func (uc *UseCases) Registry() *model.TeamRegistry {
	return uc.registry
}
