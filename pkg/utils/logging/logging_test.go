package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
)

func TestFrom(t *testing.T) {
	t.Run("falls back to default logger", func(t *testing.T) {
		gt.Value(t, logging.From(context.Background())).Equal(logging.Default())
	})

	t.Run("returns logger stored in context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		ctx := logging.With(context.Background(), logger)

		logging.From(ctx).Info("transition committed", "work_item", "task:1")
		gt.String(t, buf.String()).Contains("work_item=task:1")
	})
}

func TestNewRedactsSecrets(t *testing.T) {
	type slackConfig struct {
		Channel string
		Token   string `masq:"secret"`
	}

	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON)
	logger.Info("configured",
		"slack", slackConfig{Channel: "C0ACME", Token: "xoxb-1234-abcd"},
		"raw", "token is xoxb-9999-zzzz",
	)

	gt.String(t, buf.String()).Contains("C0ACME")
	gt.String(t, buf.String()).NotContains("xoxb-1234-abcd")
	gt.String(t, buf.String()).NotContains("xoxb-9999-zzzz")
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelWarn, logging.FormatJSON)
	logger.Info("hidden")
	logger.Warn("shown")

	gt.String(t, buf.String()).NotContains("hidden")
	gt.String(t, buf.String()).Contains("shown")
}
