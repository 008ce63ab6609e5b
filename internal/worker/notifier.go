package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"tienda/internal/domain"
)

// Notifier turns order.placed events into confirmation emails. The checkout
// transaction has already committed by the time an event arrives, so there is
// nothing to roll back here; a failed send is returned so the consumer does
// not commit the offset and the event is retried.
type Notifier struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewNotifier(emailServiceURL string, client *http.Client, logger *slog.Logger) *Notifier {
	return &Notifier{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

func (n *Notifier) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}

	n.logger.Info("processing order placed event", "order_id", event.OrderID, "user_id", event.UserID)

	if err := n.sendConfirmationEmail(ctx, event); err != nil {
		n.logger.Error("failed to send confirmation email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send confirmation email: %w", err)
	}

	n.logger.Info("order confirmation sent", "order_id", event.OrderID)
	return nil
}

func (n *Notifier) sendConfirmationEmail(ctx context.Context, event domain.OrderPlacedEvent) error {
	body := map[string]string{
		"to":      event.UserID + "@example.com",
		"subject": "Order Confirmation: " + event.OrderID,
		"body": fmt.Sprintf("Thank you for your purchase. Order %s with %d items, total %s, has been placed.",
			event.OrderID, event.LineCount, event.Total),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
