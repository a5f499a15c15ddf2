package webhook

import (
	"context"

	"go.uber.org/zap"

	"github.com/ccollicutt/boxlog/pkg/config"
	"github.com/ccollicutt/boxlog/pkg/output"
)

// ShouldFire reports whether a webhook with trigger fires for a report.
// An unknown or empty trigger behaves like on_issues.
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

// Result records the outcome of one webhook in a dispatch.
type Result struct {
	Name     string
	Fired    bool
	Response *Response // nil when not fired
}

// Dispatch sends report to every webhook whose trigger matches, in order.
// Failures are logged and returned but never stop the remaining webhooks.
func (c *Client) Dispatch(ctx context.Context, hooks []config.WebhookConfig, report *output.Report, logger *zap.Logger) []Result {
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]Result, 0, len(hooks))
	for _, wh := range hooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if !ShouldFire(wh.Trigger, report.HasIssues()) {
			logger.Debug("webhook skipped", zap.String("webhook", name), zap.String("trigger", string(wh.Trigger)))
			results = append(results, Result{Name: name})
			continue
		}

		resp := c.Send(ctx, report, SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})

		if resp.Success() {
			logger.Info("webhook sent",
				zap.String("webhook", name),
				zap.Int("status", resp.StatusCode),
				zap.Duration("duration", resp.Duration))
		} else {
			logger.Warn("webhook failed",
				zap.String("webhook", name),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempts", resp.Attempts),
				zap.Error(resp.Error))
		}

		results = append(results, Result{Name: name, Fired: true, Response: resp})
	}
	return results
}
