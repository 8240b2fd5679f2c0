package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/service/slack"
	goslack "github.com/slack-go/slack"
)

// reviewNotifier posts approval requests to the team channel. A nil
// slack service disables it.
type reviewNotifier struct {
	slackService slack.Service
	baseURL      string
}

func newReviewNotifier(slackService slack.Service, baseURL string) *reviewNotifier {
	return &reviewNotifier{slackService: slackService, baseURL: strings.TrimRight(baseURL, "/")}
}

func (n *reviewNotifier) enabled(team *model.Team) bool {
	return n != nil && n.slackService != nil && team.SlackChannelID != ""
}

// notifyReviewRequested tells the reviewer of an opened inbox item that an
// approval is waiting
func (n *reviewNotifier) notifyReviewRequested(ctx context.Context, team *model.Team, inbox *model.InboxItem) error {
	if !n.enabled(team) {
		return nil
	}

	blocks := buildReviewRequestBlocks(team, inbox, n.itemURL(team.ID, inbox.Approvable))
	text := fmt.Sprintf("Review requested: %s", inbox.Title)
	if _, err := n.slackService.PostMessage(ctx, team.SlackChannelID, blocks, text); err != nil {
		return goerr.Wrap(err, "failed to post review request",
			goerr.V(model.TeamIDKey, team.ID),
			goerr.V(model.WorkItemKey, inbox.Approvable.String()))
	}
	return nil
}

func (n *reviewNotifier) itemURL(teamID types.TeamID, ref model.WorkItemRef) string {
	if n.baseURL == "" {
		return ""
	}
	segment := "tasks"
	if ref.Kind == types.WorkItemKindWorkOrder {
		segment = "work-orders"
	}
	return fmt.Sprintf("%s/teams/%s/%s/%d", n.baseURL, teamID, segment, ref.ID)
}

// mention renders a Slack mention when the member has a Slack account and
// the display name otherwise
func mention(team *model.Team, id types.ActorID) string {
	if m, ok := team.Member(id); ok && m.SlackUserID != "" {
		return fmt.Sprintf("<@%s>", m.SlackUserID)
	}
	return team.ActorName(id)
}

func urgencyEmoji(u types.Urgency) string {
	switch u {
	case types.UrgencyUrgent:
		return "🔴"
	case types.UrgencyHigh:
		return "🟠"
	default:
		return "⚪"
	}
}

func buildReviewRequestBlocks(team *model.Team, inbox *model.InboxItem, itemURL string) []goslack.Block {
	title := inbox.Title
	if itemURL != "" {
		title = fmt.Sprintf("<%s|%s>", itemURL, inbox.Title)
	}

	blocks := []goslack.Block{
		goslack.NewHeaderBlock(
			goslack.NewTextBlockObject(goslack.PlainTextType, urgencyEmoji(inbox.Urgency)+" Review requested", true, false),
		),
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType,
				fmt.Sprintf("%s, %s asked you to review *%s*", mention(team, inbox.ReviewerID), team.ActorName(inbox.RequestedBy), title),
				false, false),
			nil, nil,
		),
	}

	if inbox.ContentPreview != "" {
		blocks = append(blocks, goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, inbox.ContentPreview, false, false),
			nil, nil,
		))
	}

	contextParts := []string{fmt.Sprintf("*Urgency:* %s", inbox.Urgency)}
	if len(inbox.RelatedNames) > 0 {
		contextParts = append(contextParts, "*In:* "+strings.Join(inbox.RelatedNames, " / "))
	}
	if inbox.DueDate != nil {
		contextParts = append(contextParts, "*Due:* "+inbox.DueDate.Format("2006-01-02"))
	}
	blocks = append(blocks, goslack.NewContextBlock("",
		goslack.NewTextBlockObject(goslack.MarkdownType, strings.Join(contextParts, "  |  "), false, false),
	))

	return blocks
}
