package errutil_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/utils/errutil"
)

type captureTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (c *captureTransport) Flush(time.Duration) bool              { return true }
func (c *captureTransport) FlushWithContext(context.Context) bool { return true }
func (c *captureTransport) Configure(sentry.ClientOptions)        {}
func (c *captureTransport) Close()                                {}
func (c *captureTransport) SendEvent(event *sentry.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureTransport) captured() []*sentry.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*sentry.Event(nil), c.events...)
}

func newSentryContext(t *testing.T) (context.Context, *captureTransport) {
	t.Helper()
	transport := &captureTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:       "https://public@sentry.example.com/1",
		Transport: transport,
	})
	gt.NoError(t, err).Required()
	hub := sentry.NewHub(client, sentry.NewScope())
	return sentry.SetHubOnContext(context.Background(), hub), transport
}

func TestHandleReportsGoerrValues(t *testing.T) {
	ctx, transport := newSentryContext(t)

	err := goerr.New("reviewer unresolvable", goerr.V("task_id", 42), goerr.V("team_id", "acme"))
	gt.Value(t, errutil.Handle(ctx, err, "transition failed")).Equal(err)

	events := transport.captured()
	gt.Array(t, events).Length(1).Required()
	gt.Value(t, events[0].Tags["message"]).Equal("transition failed")
	gt.Value(t, events[0].Contexts["goerr"]["task_id"]).Equal(42)
	gt.Value(t, events[0].Contexts["goerr"]["team_id"]).Equal("acme")
}

func TestHandleNil(t *testing.T) {
	ctx, transport := newSentryContext(t)
	gt.NoError(t, errutil.Handle(ctx, nil, "nothing"))
	gt.Array(t, transport.captured()).Length(0)
}

func TestHandleHTTP(t *testing.T) {
	t.Run("server error hides the message and reports", func(t *testing.T) {
		ctx, transport := newSentryContext(t)
		w := httptest.NewRecorder()
		errutil.HandleHTTP(ctx, w, goerr.New("db exploded"), http.StatusInternalServerError, "")

		gt.Value(t, w.Code).Equal(http.StatusInternalServerError)
		var body errutil.ErrorResponse
		gt.NoError(t, json.NewDecoder(w.Body).Decode(&body)).Required()
		gt.Value(t, body.Message).Equal(http.StatusText(http.StatusInternalServerError))
		gt.Array(t, transport.captured()).Length(1)
	})

	t.Run("client error passes the message through", func(t *testing.T) {
		ctx, transport := newSentryContext(t)
		w := httptest.NewRecorder()
		errutil.HandleHTTP(ctx, w, errors.New("comment is required"), http.StatusUnprocessableEntity, "comment_required")

		gt.Value(t, w.Code).Equal(http.StatusUnprocessableEntity)
		var body errutil.ErrorResponse
		gt.NoError(t, json.NewDecoder(w.Body).Decode(&body)).Required()
		gt.Value(t, body.Reason).Equal("comment_required")
		gt.Value(t, body.Message).Equal("comment is required")
		gt.Array(t, transport.captured()).Length(0)
	})
}
