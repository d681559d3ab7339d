package webhook

import (
	"context"

	"go.uber.org/zap"

	"github.com/ccollicutt/speedlog/pkg/config"
)

// ShouldFire reports whether a webhook with trigger fires for a report.
// Unknown triggers behave like on_issues.
func ShouldFire(trigger config.WebhookTrigger, hasIssues bool) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return hasIssues
	}
}

// Dispatch sends event to every hook whose trigger matches. Failures are
// logged and returned by name; they never abort the caller.
func (c *Client) Dispatch(ctx context.Context, hooks []config.WebhookConfig, event *Event, log *zap.SugaredLogger) map[string]*Response {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	sent := make(map[string]*Response)
	for _, wh := range hooks {
		if !ShouldFire(wh.Trigger, event.HasIssues) {
			continue
		}

		name := wh.Name
		if name == "" {
			name = wh.URL
		}
		resp := c.Send(ctx, event, SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})
		sent[name] = resp

		if resp.Success() {
			log.Infow("webhook sent", "webhook", name, "status", resp.StatusCode, "duration", resp.Duration)
		} else {
			log.Warnw("webhook failed", "webhook", name, "error", resp.Error)
		}
	}
	return sent
}
