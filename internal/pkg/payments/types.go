package payments

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	OrderID         string
	PaymentID       string
	PayloadJSON     string
	SignatureValid  bool
}
