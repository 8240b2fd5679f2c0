package usecase

import (
	"context"

	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/service/slack"
	goslack "github.com/slack-go/slack"
)

// ResolveReviewer is exported for testing
var ResolveReviewer = resolveReviewer

// DiffRACI is exported for testing
var DiffRACI = diffRACI

// Preview is exported for testing
var Preview = preview

// BuildReviewRequestBlocks is exported for testing
var BuildReviewRequestBlocks = buildReviewRequestBlocks

// NotifyReviewRequested posts a review request synchronously
func NotifyReviewRequested(ctx context.Context, svc slack.Service, baseURL string, team *model.Team, inbox *model.InboxItem) error {
	return newReviewNotifier(svc, baseURL).notifyReviewRequested(ctx, team, inbox)
}

// SlackBlocks is exported for block assertions
type SlackBlocks = []goslack.Block
