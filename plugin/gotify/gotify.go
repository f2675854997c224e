package gotify

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/apex/log"
	"github.com/gotify/go-api-client/v2/auth"
	"github.com/gotify/go-api-client/v2/client/message"
	"github.com/gotify/go-api-client/v2/gotify"
	"github.com/gotify/go-api-client/v2/models"
	"github.com/nextdhcp/dhcpester/core/events"
	"github.com/nextdhcp/dhcpester/core/matcher"
	"github.com/nextdhcp/dhcpester/plugin"
)

const (
	defaultTitle    = "dhcpester"
	defaultPriority = 5
)

type (
	// msgFactory creates the gotify notification message
	// from the given handshake event
	msgFactory func(ctx context.Context, ev *events.Event) (string, error)

	// gotifyPlugin matches events against a set of conditions
	// and sends notifications. It implements the plugin.Handler
	// interface
	gotifyPlugin struct {
		next          plugin.Handler
		notifications []*notification
		l             log.Interface
		wg            sync.WaitGroup
	}

	// notification combines the matcher (condition) and a message
	// factory for a gotify notification
	notification struct {
		*matcher.Matcher
		msg      msgFactory
		title    msgFactory
		priority int
		summary  bool
		srv      string
		token    string
	}
)

// notify sends msg to the gotify server at srv
var notify = func(srv *url.URL, token string, msg *message.CreateMessageParams) error {
	cli := gotify.NewClient(srv, &http.Client{})

	_, err := cli.Message.CreateMessage(msg, auth.TokenAuth(token))
	return err
}

// Prepare checks if we should send a notification for the given event and returns
// the message body. An empty message body indicates that no notification should be
// sent
func (n *notification) Prepare(ctx context.Context, ev *events.Event) (string, string, error) {
	if n.msg == nil {
		return "", "", nil
	}

	matched, err := n.Match(ctx, ev)
	if err != nil {
		return "", "", err
	}

	if matched {
		msg, err := n.msg(ctx, ev)
		if err != nil {
			return "", "", err
		}

		return n.getTitle(ctx, ev), msg, nil
	}

	return "", "", nil
}

func (n *notification) getTitle(ctx context.Context, ev *events.Event) string {
	var title string

	if n.title != nil {
		title, _ = n.title(ctx, ev)
	}

	if title == "" {
		title = defaultTitle
	}

	return title
}

// Send sends a notification with title and msg
func (n *notification) Send(title, msg string) error {
	gotifyURL, err := url.Parse(n.srv)
	if err != nil {
		return err
	}

	priority := n.priority
	if priority == 0 {
		priority = defaultPriority
	}

	params := message.NewCreateMessageParams()
	params.Body = &models.MessageExternal{
		Title:    title,
		Message:  msg,
		Priority: priority,
	}

	return notify(gotifyURL, n.token, params)
}

// addNotification adds a new notification to the gotify plugin
func (g *gotifyPlugin) addNotification(n *notification) {
	g.notifications = append(g.notifications, n)
}

// findLastCreds returns the last credentials used for a notification
func (g *gotifyPlugin) findLastCreds() (string, string, bool) {
	if len(g.notifications) == 0 {
		return "", "", false
	}

	last := g.notifications[len(g.notifications)-1]
	return last.srv, last.token, true
}

// Name returns "gotify" and implements plugin.Handler
func (g *gotifyPlugin) Name() string {
	return "gotify"
}

// HandleEvent checks if we should send a notification for that event
func (g *gotifyPlugin) HandleEvent(ctx context.Context, ev *events.Event) error {
	// let the whole handler chain pass through
	if err := plugin.Next(ctx, g.next, ev); err != nil {
		return err
	}

	// kick of notifications in dedicated go routines
	for _, n := range g.notifications {
		g.wg.Add(1)
		go func(n *notification) {
			defer g.wg.Done()

			title, body, err := n.Prepare(ctx, ev)
			if err != nil {
				g.l.Warnf("failed to prepare notification: %s", err.Error())
				return
			}

			if body != "" {
				g.l.Debugf("sending notification: %s\n%s", title, body)

				if err := n.Send(title, body); err != nil {
					g.l.Warnf("failed to send notification: %s", err.Error())
				} else {
					g.l.Debugf("notification sent via %s: %s\n%s", n.srv, title, body)
				}
			}
		}(n)
	}

	return nil
}

// sendSummary sends s to all notifications that requested the run summary
func (g *gotifyPlugin) sendSummary(s *events.Summary) error {
	var lastErr error

	for _, n := range g.notifications {
		if !n.summary {
			continue
		}

		title := n.getTitle(context.Background(), &events.Event{})
		if err := n.Send(title, s.String()); err != nil {
			g.l.Warnf("failed to send summary via %s: %s", n.srv, err.Error())
			lastErr = err
		}
	}

	return lastErr
}

// wait blocks until all pending notifications are sent
func (g *gotifyPlugin) wait() error {
	g.wg.Wait()
	return nil
}
