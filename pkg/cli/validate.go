package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/cli/config"
	"github.com/secmon-lab/briareos/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

var (
	okMark   = color.New(color.FgGreen, color.Bold).SprintFunc()
	ngMark   = color.New(color.FgRed, color.Bold).SprintFunc()
	warnMark = color.New(color.FgYellow, color.Bold).SprintFunc()
	faint    = color.New(color.Faint).SprintFunc()
)

func cmdValidate() *cli.Command {
	var appCfg config.AppConfig
	var slackCfg config.Slack

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate team directory files and optionally check Slack user IDs",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer
			if w == nil {
				w = os.Stdout
			}

			failed := 0
			for _, path := range appCfg.Paths() {
				file, err := config.LoadTeamFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(w, "%s %s\n    %v\n", ngMark("✗"), path, err)
					continue
				}
				fmt.Fprintf(w, "%s %s\n", okMark("✓"), path)
				for _, t := range file.Teams {
					fmt.Fprintf(w, "    %s %s %s\n", t.ID, faint(t.Name), faint(fmt.Sprintf("(%d members)", len(t.Members))))
				}
			}
			if failed > 0 {
				return goerr.New("configuration validation failed", goerr.V("failed_files", failed))
			}

			teams, _, err := appCfg.Configure()
			if err != nil {
				fmt.Fprintf(w, "%s %v\n", ngMark("✗"), err)
				return goerr.Wrap(err, "configuration validation failed")
			}

			svc, err := slackCfg.Configure()
			if err != nil {
				return err
			}
			if svc != nil {
				if issues := checkSlackUsers(ctx, w, svc, teams); issues > 0 {
					return goerr.New("slack user check found issues", goerr.V("issues", issues))
				}
			}

			fmt.Fprintf(w, "%s %d team(s) valid\n", okMark("✓"), len(teams))
			return nil
		},
	}
}

// checkSlackUsers resolves each team channel and member Slack user ID and
// reports the ones that cannot be found
func checkSlackUsers(ctx context.Context, w io.Writer, svc slack.Service, teams []config.Team) int {
	issues := 0

	var channels []string
	for _, t := range teams {
		if t.SlackChannelID != "" {
			channels = append(channels, t.SlackChannelID)
		}
	}
	names, err := svc.GetChannelNames(ctx, channels)
	if err != nil {
		fmt.Fprintf(w, "%s failed to look up channels: %v\n", warnMark("!"), err)
		return issues + 1
	}
	for _, t := range teams {
		if t.SlackChannelID == "" {
			continue
		}
		if name, ok := names[t.SlackChannelID]; ok {
			fmt.Fprintf(w, "    %s %s\n", t.ID, faint("#"+name))
			continue
		}
		issues++
		fmt.Fprintf(w, "%s %s: slack channel %s not resolvable\n", warnMark("!"), t.ID, t.SlackChannelID)
	}

	for _, t := range teams {
		for _, m := range t.Members {
			if m.SlackUserID == "" {
				continue
			}
			if _, err := svc.GetUserInfo(ctx, m.SlackUserID); err != nil {
				issues++
				fmt.Fprintf(w, "%s %s/%s: slack user %s not resolvable\n", warnMark("!"), t.ID, m.ID, m.SlackUserID)
			}
		}
	}
	return issues
}
