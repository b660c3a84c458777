package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"pawsitive-haven/assistant-api/internal/domain/escalation"
)

// WebhookNotifier posts new escalations to a staff webhook.
type WebhookNotifier struct {
	httpClient *resty.Client
	url        string
	log        zerolog.Logger
}

var _ escalation.Notifier = (*WebhookNotifier)(nil)

type webhookPayload struct {
	Event      string                `json:"event"`
	Text       string                `json:"text"`
	Escalation escalation.Escalation `json:"escalation"`
}

// NewWebhookNotifier returns a notifier; an empty url disables delivery.
func NewWebhookNotifier(url string, timeout time.Duration, log zerolog.Logger) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		httpClient: resty.New().
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", "Pawsitive-Haven-Assistant/1.0").
			SetTimeout(timeout),
		url: url,
		log: log.With().Str("component", "escalation-notifier").Logger(),
	}
}

func (n *WebhookNotifier) NotifyEscalation(ctx context.Context, e escalation.Escalation) error {
	if n.url == "" {
		n.log.Debug().Uint("escalation_id", e.ID).Msg("no webhook configured, skipping notification")
		return nil
	}

	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(webhookPayload{
			Event:      "escalation.created",
			Text:       fmt.Sprintf("New escalation #%d from %s: %s", e.ID, e.UserName, e.UserQuestion),
			Escalation: e,
		}).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("post escalation webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("escalation webhook returned %d: %s", resp.StatusCode(), resp.String())
	}

	n.log.Info().Uint("escalation_id", e.ID).Msg("staff notified")
	return nil
}
