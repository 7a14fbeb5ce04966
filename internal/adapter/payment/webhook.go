package payment

import (
	"encoding/json"
	"fmt"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
)

// SignatureHeader carries the HMAC of a processor callback body.
const SignatureHeader = "x-paystack-signature"

// WebhookEvent is the part of a processor callback this service reads.
// Everything but the reference is advisory; outcomes are re-verified.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// ParseWebhook extracts the event from a callback body.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook payload", domainErrors.ErrValidation)
	}
	if event.Data.Reference == "" {
		return nil, domainErrors.ErrMissingReference
	}
	return &event, nil
}
