package dsapi

import "context"

// Webhook is a registered event subscription.
type Webhook struct {
	ID            string   `json:"id"`
	Endpoint      string   `json:"endpoint"`
	Name          string   `json:"name,omitempty"`
	AuthorizationHeader string `json:"authorization_header,omitempty"`
	Events        []string `json:"events,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
}

// WebhookSpec carries the writable webhook fields.
type WebhookSpec struct {
	Endpoint            string   `json:"endpoint"`
	Name                string   `json:"name,omitempty"`
	AuthorizationHeader string   `json:"authorization_header,omitempty"`
	Events              []string `json:"events"`
}

// ListWebhooks returns the team's webhooks.
func (c *Client) ListWebhooks(ctx context.Context, token string, opts ListOptions) ([]Webhook, error) {
	var env listEnvelope[Webhook]
	if err := c.get(ctx, token, "/webhooks", opts.query(), &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ListWebhookEvents returns the event names available for subscription.
func (c *Client) ListWebhookEvents(ctx context.Context, token string) ([]string, error) {
	var events []string
	if err := c.get(ctx, token, "/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetWebhook returns a single webhook by ID.
func (c *Client) GetWebhook(ctx context.Context, token, webhookID string) (*Webhook, error) {
	var wh Webhook
	if err := c.get(ctx, token, "/webhooks/"+webhookID, nil, &wh); err != nil {
		return nil, err
	}
	return &wh, nil
}

// CreateWebhook registers a webhook.
func (c *Client) CreateWebhook(ctx context.Context, token string, spec WebhookSpec) (*Webhook, error) {
	var wh Webhook
	if err := c.post(ctx, token, "/webhooks", spec, &wh); err != nil {
		return nil, err
	}
	return &wh, nil
}

// UpdateWebhook patches a webhook.
func (c *Client) UpdateWebhook(ctx context.Context, token, webhookID string, spec WebhookSpec) (*Webhook, error) {
	var wh Webhook
	if err := c.patch(ctx, token, "/webhooks/"+webhookID, spec, &wh); err != nil {
		return nil, err
	}
	return &wh, nil
}

// DeleteWebhook removes a webhook.
func (c *Client) DeleteWebhook(ctx context.Context, token, webhookID string) error {
	return c.delete(ctx, token, "/webhooks/"+webhookID)
}
