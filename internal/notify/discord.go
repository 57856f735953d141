package notify

import (
	"context"
	"fmt"
	"net/http"
)

// DiscordSender pushes dispatch-outcome alerts to a Discord channel through
// an incoming webhook. Discord answers a successful post with 204 No Content.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a DiscordSender for the given webhook URL.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: senderTimeout},
	}
}

// Send posts the alert to the webhook with the order summary in bold.
func (d *DiscordSender) Send(ctx context.Context, title, message string) error {
	return postJSON(ctx, d.client, "discord", d.webhookURL,
		map[string]string{
			"content": fmt.Sprintf("**%s**\n%s", title, message),
		})
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string {
	return "discord"
}
